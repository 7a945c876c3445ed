package supervisor

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"cs2panel/internal/pkg/logger"
)

// Process owns one OS child process: spawn, line-pumped stdout/stderr,
// exit detection, forced kill. It never touches instance status; that
// is the Supervisor's job.
type Process struct {
	cmd      *exec.Cmd
	pid      int
	running  bool
	mu       sync.Mutex
	stdin    io.WriteCloser
	onOutput func(line string)
	onExit   func(exitCode int)
}

func NewProcess(execPath string, args []string) *Process {
	return &Process{
		cmd:      exec.Command(execPath, args...),
		onOutput: func(string) {},
		onExit:   func(int) {},
	}
}

// SetOnOutput sets the callback invoked for every stdout/stderr line,
// in arrival order.
func (p *Process) SetOnOutput(fn func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fn != nil {
		p.onOutput = fn
	}
}

// SetOnExit sets the callback invoked once when the process exits.
func (p *Process) SetOnExit(fn func(int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fn != nil {
		p.onExit = fn
	}
}

// Start spawns the child and begins pumping output lines.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("process already running")
	}

	hideWindow(p.cmd)

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	p.stdin = stdin

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("start: %w", err)
	}

	p.pid = p.cmd.Process.Pid
	p.running = true

	onOutput := p.onOutput
	onExit := p.onExit

	go pumpLines(stdout, onOutput)
	go pumpLines(stderr, onOutput)

	go func() {
		err := p.cmd.Wait()
		exitCode := 0
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				exitCode = -1
			}
		}

		p.mu.Lock()
		p.running = false
		p.pid = 0
		p.mu.Unlock()

		onExit(exitCode)
	}()

	return nil
}

func pumpLines(r io.ReadCloser, emit func(string)) {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			if line != "" {
				emit(line)
			}
		}
		if err != nil {
			if err != io.EOF {
				logger.Log.Warn().Err(err).Msg("process output read error")
			}
			break
		}
	}
	_ = r.Close()
}

// Stop sends "quit" on stdin, waits up to gracefulTimeout, then kills.
func (p *Process) Stop(gracefulTimeout time.Duration) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stdin := p.stdin
	proc := p.cmd.Process
	p.mu.Unlock()

	if stdin != nil {
		_, _ = io.WriteString(stdin, "quit\n")
		_ = stdin.Close()
	}

	deadline := time.Now().Add(gracefulTimeout)
	for time.Now().Before(deadline) {
		if !p.IsRunning() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	p.mu.Lock()
	if p.running && proc != nil {
		_ = proc.Kill()
	}
	p.mu.Unlock()

	time.Sleep(200 * time.Millisecond)
	return nil
}

// Kill force-kills the process.
func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *Process) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// PID returns the child's pid, or 0 when not running.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}
