package procs

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// ErrStopTimeout is returned by Stop when the process ignored SIGTERM and had
// to be killed.
var ErrStopTimeout = errors.New("process did not exit in time, killed")

// Spec describes one subprocess launch.
type Spec struct {
	Name string
	Args []string
	// LogName, when set, routes the process stderr to a file of that name
	// under the runner's log directory.
	LogName string
}

// Process is a supervised subprocess handle. Alive never blocks.
type Process interface {
	Alive() bool
	// Stop requests graceful termination (SIGTERM to the process group),
	// waits at most grace, then kills. Returns ErrStopTimeout if the kill
	// escalation was needed.
	Stop(grace time.Duration) error
}

// Runner launches subprocesses. The exec-backed implementation is used in
// production; tests substitute a fake.
type Runner interface {
	Start(spec Spec) (Process, error)
	// Run executes a short-lived command to completion (thumbnail extraction).
	Run(spec Spec) error
}

type execRunner struct {
	logDir string
}

// NewRunner returns an os/exec backed Runner writing process logs under logDir.
func NewRunner(logDir string) Runner {
	return &execRunner{logDir: logDir}
}

type execProcess struct {
	cmd     *exec.Cmd
	logFile *os.File

	done     chan struct{}
	waitOnce sync.Once
}

func (r *execRunner) Start(spec Spec) (Process, error) {
	cmd := exec.Command(spec.Name, spec.Args...)
	// Own process group so Stop can signal ffmpeg and any children together
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var logFile *os.File
	if spec.LogName != "" {
		if err := os.MkdirAll(r.logDir, 0755); err == nil {
			if f, err := os.Create(filepath.Join(r.logDir, spec.LogName)); err == nil {
				logFile = f
				cmd.Stderr = f
			}
		}
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}

	p := &execProcess{
		cmd:     cmd,
		logFile: logFile,
		done:    make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

func (r *execRunner) Run(spec Spec) error {
	cmd := exec.Command(spec.Name, spec.Args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", spec.Name, err)
	}
	return nil
}

func (p *execProcess) reap() {
	p.waitOnce.Do(func() {
		_ = p.cmd.Wait()
		if p.logFile != nil {
			p.logFile.Close()
		}
		close(p.done)
	})
}

func (p *execProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *execProcess) Stop(grace time.Duration) error {
	if p.cmd.Process == nil {
		return nil
	}
	// Negative pid signals the whole process group
	_ = syscall.Kill(-p.cmd.Process.Pid, syscall.SIGTERM)

	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
	}

	_ = syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL)
	<-p.done
	return ErrStopTimeout
}
