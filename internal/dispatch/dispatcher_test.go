package dispatch

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"hmi-service/internal/config"
	"hmi-service/internal/logger"
	"hmi-service/internal/types"
)

// Mock Runner
type mockRunner struct {
	invocations []Invocation
	result      RunResult
	block       bool
}

func (m *mockRunner) Run(ctx context.Context, inv Invocation) RunResult {
	m.invocations = append(m.invocations, inv)
	if m.block {
		<-ctx.Done()
		return RunResult{TimedOut: true, ExitStatus: ExitFailed, Err: ctx.Err()}
	}
	return m.result
}

type staticStatus types.Status

func (s staticStatus) Snapshot() types.Status { return types.Status(s).Clone() }

func testConfig() *config.Config {
	return &config.Config{
		Modes: map[string]config.Mode{
			"Standard": {
				Path: "/modes/standard",
				Launches: map[string]string{
					"Closed Loop":    "/modes/standard/closed_loop.launch",
					"Map Collection": "/modes/standard/map_collection.launch",
				},
				Commands: map[string]string{"setup": "setup.sh"},
			},
		},
		Modules: map[string]config.Target{
			"Planning": {Commands: map[string]string{"start": "planning.sh start"}},
		},
		Hardware: map[string]config.Target{
			"GPS": {Commands: map[string]string{"check": "gps.sh"}},
		},
		Tools: map[string]config.Target{
			"Recorder": {Commands: map[string]string{"start": "rec.sh"}},
		},
		Launcher: config.Launcher{Command: "launch.sh", Timeout: time.Second},
	}
}

func newTestDispatcher(st types.Status) (*Dispatcher, *mockRunner) {
	runner := &mockRunner{}
	d := NewDispatcher(testConfig(), staticStatus(st), runner, logger.NewLogger(nil, logger.LogLevelError))
	return d, runner
}

// ===== Resolution Tests =====

func TestResolveLaunchCommands(t *testing.T) {
	d, _ := newTestDispatcher(types.Status{CurrentMode: "Standard"})

	inv, err := d.Resolve(types.CategoryMode, "", "start Closed Loop")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"launch.sh", "start", "/modes/standard/closed_loop.launch"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Errorf("Expected %v, got %v", want, inv.Argv)
	}
	if inv.Target != "Standard" {
		t.Errorf("Expected current mode as target, got %q", inv.Target)
	}

	inv, err = d.Resolve(types.CategoryMode, "Standard", "stop Map Collection")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if inv.Argv[1] != "stop" || inv.Argv[2] != "/modes/standard/map_collection.launch" {
		t.Errorf("Unexpected stop invocation %v", inv.Argv)
	}
}

func TestResolveNamedCommands(t *testing.T) {
	d, _ := newTestDispatcher(types.Status{CurrentMode: "Standard"})

	cases := []struct {
		category types.Category
		target   string
		command  string
		line     string
	}{
		{types.CategoryMode, "", "setup", "setup.sh"},
		{types.CategoryModule, "Planning", "start", "planning.sh start"},
		{types.CategoryHardware, "GPS", "check", "gps.sh"},
		{types.CategoryTool, "Recorder", "start", "rec.sh"},
	}
	for _, c := range cases {
		inv, err := d.Resolve(c.category, c.target, c.command)
		if err != nil {
			t.Errorf("Resolve(%s, %q, %q) failed: %v", c.category, c.target, c.command, err)
			continue
		}
		if want := []string{"/bin/sh", "-c", c.line}; !reflect.DeepEqual(inv.Argv, want) {
			t.Errorf("Expected %v, got %v", want, inv.Argv)
		}
	}
}

func TestResolveNotFound(t *testing.T) {
	d, _ := newTestDispatcher(types.Status{})

	cases := []struct {
		category types.Category
		target   string
		command  string
	}{
		// no current mode
		{types.CategoryMode, "", "setup"},
		// unknown mode
		{types.CategoryMode, "Offroad", "setup"},
		// unknown launch
		{types.CategoryMode, "Standard", "start Ghost"},
		// unknown mode command
		{types.CategoryMode, "Standard", "teardown"},
		// unknown module
		{types.CategoryModule, "Perception", "start"},
		// unknown module command
		{types.CategoryModule, "Planning", "restart"},
		// not a command category
		{types.CategoryMap, "Sunnyvale", "start"},
	}
	for _, c := range cases {
		if _, err := d.Resolve(c.category, c.target, c.command); err == nil {
			t.Errorf("Expected Resolve(%s, %q, %q) to fail", c.category, c.target, c.command)
		}
	}
}

// ===== Run Tests =====

func TestRunSuccess(t *testing.T) {
	d, runner := newTestDispatcher(types.Status{})
	runner.result = RunResult{OutputBytes: 42}

	out := d.Run(context.Background(), types.CategoryModule, "Planning", "start")
	if !out.OK() || out.ExitCode() != 0 {
		t.Fatalf("Expected success, got %+v", out)
	}
	if out.OutputBytes != 42 {
		t.Errorf("Expected output length 42, got %d", out.OutputBytes)
	}
	if out.AsError("run") != nil {
		t.Errorf("Expected nil error, got %v", out.AsError("run"))
	}
	if len(runner.invocations) != 1 {
		t.Errorf("Expected 1 invocation, got %d", len(runner.invocations))
	}
}

func TestRunNotFoundSkipsRunner(t *testing.T) {
	d, runner := newTestDispatcher(types.Status{})

	out := d.Run(context.Background(), types.CategoryTool, "Ghost", "start")
	if out.Result != ResultNotFound || out.ExitCode() != ExitNotFound {
		t.Fatalf("Expected not-found, got %+v", out)
	}
	if len(runner.invocations) != 0 {
		t.Error("Runner must not be called for unresolved targets")
	}
	if !types.IsKind(out.AsError("run"), types.KindConfig) {
		t.Errorf("Expected config error, got %v", out.AsError("run"))
	}
}

func TestRunNonZeroExit(t *testing.T) {
	d, runner := newTestDispatcher(types.Status{})
	runner.result = RunResult{ExitStatus: 3, Err: errors.New("exit status 3")}

	out := d.Run(context.Background(), types.CategoryHardware, "GPS", "check")
	if out.Result != ResultFailed || out.ExitCode() != 3 {
		t.Fatalf("Expected failure with exit 3, got %+v", out)
	}
	if !types.IsKind(out.AsError("run"), types.KindDispatch) {
		t.Errorf("Expected dispatch error, got %v", out.AsError("run"))
	}
}

func TestRunTimeout(t *testing.T) {
	d, runner := newTestDispatcher(types.Status{})
	d.timeout = 20 * time.Millisecond
	runner.block = true

	out := d.Run(context.Background(), types.CategoryModule, "Planning", "start")
	if out.Result != ResultTimeout || out.ExitCode() != ExitTimeout {
		t.Fatalf("Expected timeout, got %+v", out)
	}
	if !types.IsKind(out.AsError("run"), types.KindDispatch) {
		t.Errorf("Expected dispatch error, got %v", out.AsError("run"))
	}
}
