// Package dispatch resolves HMI command targets against the config and runs
// them as external processes.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hmi-service/internal/config"
	"hmi-service/internal/logger"
	"hmi-service/internal/metrics"
	"hmi-service/internal/types"
)

type Result int

const (
	ResultSuccess Result = iota
	ResultNotFound
	ResultFailed
	ResultTimeout
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultNotFound:
		return "not-found"
	case ResultFailed:
		return "failed"
	case ResultTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

const (
	ExitNotFound = -1
	ExitFailed   = 1
	ExitTimeout  = 124
)

// Outcome is the terminal status of one dispatched command. Output is only
// counted.
type Outcome struct {
	Result      Result
	ExitStatus  int
	OutputBytes int64
	Duration    time.Duration
	Err         error
}

func (o Outcome) OK() bool { return o.Result == ResultSuccess }

// ExitCode folds the outcome into the integer form used by HMI callers:
// 0 on success, -1 for an unknown target or command, the process exit status
// otherwise.
func (o Outcome) ExitCode() int {
	switch o.Result {
	case ResultSuccess:
		return 0
	case ResultNotFound:
		return ExitNotFound
	case ResultTimeout:
		return ExitTimeout
	}
	if o.ExitStatus > 0 {
		return o.ExitStatus
	}
	return ExitFailed
}

// AsError converts a non-successful outcome into a structured error.
func (o Outcome) AsError(op string) error {
	switch o.Result {
	case ResultSuccess:
		return nil
	case ResultNotFound:
		return types.ConfigErrorf(op, "%v", o.Err)
	case ResultTimeout:
		return types.DispatchError(op, o.Err, "timed out after %v", o.Duration.Round(time.Millisecond))
	default:
		return types.DispatchError(op, o.Err, "exit status %d", o.ExitCode())
	}
}

// StatusReader supplies the current mode for mode-scoped commands
type StatusReader interface {
	Snapshot() types.Status
}

// Invocation is a resolved external command
type Invocation struct {
	Category types.Category
	Target   string
	Command  string
	Argv     []string
}

type RunResult struct {
	ExitStatus  int
	OutputBytes int64
	Tail        []byte
	TimedOut    bool
	Err         error
}

// Runner executes a resolved invocation. The context carries the deadline.
type Runner interface {
	Run(ctx context.Context, inv Invocation) RunResult
}

type Dispatcher struct {
	cfg     *config.Config
	status  StatusReader
	runner  Runner
	timeout time.Duration
	logger  *logger.Logger
}

func NewDispatcher(cfg *config.Config, status StatusReader, runner Runner, l *logger.Logger) *Dispatcher {
	timeout := cfg.Launcher.Timeout
	if timeout <= 0 {
		timeout = config.DefaultCommandTimeout
	}
	return &Dispatcher{
		cfg:     cfg,
		status:  status,
		runner:  runner,
		timeout: timeout,
		logger:  l,
	}
}

var errNoMode = errors.New("no mode selected")

// Resolve maps (category, target, command) onto an invocation. For the mode
// category an empty target means the current mode.
func (d *Dispatcher) Resolve(category types.Category, target, command string) (Invocation, error) {
	inv := Invocation{Category: category, Target: target, Command: command}

	switch category {
	case types.CategoryMode:
		if inv.Target == "" {
			inv.Target = d.status.Snapshot().CurrentMode
			if inv.Target == "" {
				return inv, errNoMode
			}
		}
		mode, ok := d.cfg.Modes[inv.Target]
		if !ok {
			return inv, fmt.Errorf("unknown mode %q", inv.Target)
		}
		if verb, launch, found := strings.Cut(command, " "); found && (verb == "start" || verb == "stop") {
			path, ok := mode.Launches[launch]
			if !ok {
				return inv, fmt.Errorf("mode %q has no launch %q", inv.Target, launch)
			}
			inv.Argv = []string{d.cfg.Launcher.Command, verb, path}
			return inv, nil
		}
		line, ok := mode.Commands[command]
		if !ok {
			return inv, fmt.Errorf("mode %q has no command %q", inv.Target, command)
		}
		inv.Argv = shell(line)
		return inv, nil

	case types.CategoryModule, types.CategoryHardware, types.CategoryTool:
		t, ok := d.cfg.Targets(category)[target]
		if !ok {
			return inv, fmt.Errorf("unknown %s %q", category, target)
		}
		line, ok := t.Commands[command]
		if !ok {
			return inv, fmt.Errorf("%s %q has no command %q", category, target, command)
		}
		inv.Argv = shell(line)
		return inv, nil
	}
	return inv, fmt.Errorf("category %q does not take commands", category)
}

func shell(line string) []string {
	return []string{"/bin/sh", "-c", line}
}

// Run resolves and executes one command, bounded by the configured timeout.
// It must be called without holding the status lock.
func (d *Dispatcher) Run(ctx context.Context, category types.Category, target, command string) Outcome {
	inv, err := d.Resolve(category, target, command)
	if err != nil {
		d.logger.Warnf("Cannot run %s command %q on %q: %v", category, command, target, err)
		metrics.DispatchDuration.WithLabelValues(string(category), ResultNotFound.String()).Observe(0)
		return Outcome{Result: ResultNotFound, ExitStatus: ExitNotFound, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.logger.Infof("Running %s command %q on %q: %v", category, command, inv.Target, inv.Argv)
	start := time.Now()
	rr := d.runner.Run(ctx, inv)
	out := Outcome{
		ExitStatus:  rr.ExitStatus,
		OutputBytes: rr.OutputBytes,
		Duration:    time.Since(start),
		Err:         rr.Err,
	}

	switch {
	case rr.TimedOut || errors.Is(ctx.Err(), context.DeadlineExceeded):
		out.Result = ResultTimeout
		if out.Err == nil {
			out.Err = context.DeadlineExceeded
		}
	case rr.Err != nil || rr.ExitStatus != 0:
		out.Result = ResultFailed
	default:
		out.Result = ResultSuccess
	}

	metrics.DispatchDuration.WithLabelValues(string(category), out.Result.String()).Observe(out.Duration.Seconds())
	if out.OK() {
		d.logger.Debugf("%s command %q on %q finished in %v (%d bytes output)", category, command, inv.Target, out.Duration, out.OutputBytes)
	} else {
		d.logger.Warnf("%s command %q on %q %s (exit %d) after %v: %v; output tail: %q",
			category, command, inv.Target, out.Result, out.ExitCode(), out.Duration, out.Err, rr.Tail)
	}
	return out
}
