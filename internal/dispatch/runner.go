package dispatch

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const outputTailSize = 512

// ShellRunner runs invocations as child processes in their own process
// group, so a timeout also reaps anything the script spawned.
type ShellRunner struct {
	// WaitDelay bounds how long Wait blocks on output pipes after a kill
	WaitDelay time.Duration
}

func NewShellRunner() *ShellRunner {
	return &ShellRunner{WaitDelay: time.Second}
}

func (r *ShellRunner) Run(ctx context.Context, inv Invocation) RunResult {
	if len(inv.Argv) == 0 {
		return RunResult{ExitStatus: ExitFailed, Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = r.WaitDelay

	out := &tailWriter{}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	res := RunResult{OutputBytes: out.n, Tail: out.tail}

	if ctx.Err() != nil {
		res.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		res.ExitStatus = ExitFailed
		res.Err = ctx.Err()
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitStatus = exitErr.ExitCode()
		if res.ExitStatus < 0 {
			res.ExitStatus = ExitFailed
		}
		res.Err = err
	default:
		res.ExitStatus = ExitFailed
		res.Err = err
	}
	return res
}

// tailWriter counts output and keeps only its last bytes
type tailWriter struct {
	n    int64
	tail []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	w.tail = append(w.tail, p...)
	if len(w.tail) > outputTailSize {
		w.tail = append(w.tail[:0], w.tail[len(w.tail)-outputTailSize:]...)
	}
	return len(p), nil
}
