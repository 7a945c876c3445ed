//go:build windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// hideWindow keeps the console host from opening a window for the
// child. CREATE_NO_WINDOW only; HideWindow conflicts with it for
// GUI-subsystem binaries.
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: 0x08000000, // CREATE_NO_WINDOW
	}
}
