//go:build !windows

package supervisor

import "os/exec"

func hideWindow(_ *exec.Cmd) {}
