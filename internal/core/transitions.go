package core

import (
	"context"
	"errors"

	"hmi-service/internal/dispatch"
	"hmi-service/internal/fsm"
	"hmi-service/internal/types"
)

var errModeChanged = errors.New("mode changed")

// ChangeToMode selects a mode. An active launch is stopped first on a best
// effort basis: a launch that is not running is ignored, and any other stop
// failure is returned as a DispatchError after the new mode is committed.
// Selecting the active mode again commits and notifies as usual.
func (w *HMIWorker) ChangeToMode(ctx context.Context, name string) error {
	const op = "change-mode"

	if !w.config.Validate(name, types.CategoryMode) {
		return record(op, types.ConfigErrorf(op, "unknown mode %q", name))
	}

	before := w.store.Snapshot()
	stopErr := w.stopLaunch(ctx, op, before)

	// A launch committed after the snapshot was never stopped above
	var stray types.Status
	committed, _ := w.store.Mutate(func(s *types.Status) error {
		if s.CurrentLaunch != "" && s.CurrentLaunch != before.CurrentLaunch {
			stray = types.Status{CurrentMode: s.CurrentMode, CurrentLaunch: s.CurrentLaunch}
		}
		s.CurrentMode = name
		s.CurrentLaunch = ""
		return nil
	})
	w.logger.Infof("Changed mode to %s (revision %d)", name, committed.Revision)

	if stray.CurrentLaunch != "" {
		w.logger.Warnf("Launch %s started during mode change, stopping it", stray.CurrentLaunch)
		stopErr = errors.Join(stopErr, w.stopLaunch(ctx, op, stray))
	}

	w.bus.Notify(types.CategoryMode, name)
	return record(op, stopErr)
}

// ChangeToLaunch stops the active launch, starts name and commits it. A
// failed start leaves no launch selected; the stopped launch is not restarted.
func (w *HMIWorker) ChangeToLaunch(ctx context.Context, name string) error {
	const op = "change-launch"

	before := w.store.Snapshot()
	if before.CurrentMode == "" {
		return record(op, types.TransitionErrorf(op, "no mode selected"))
	}
	if !w.config.HasLaunch(before.CurrentMode, name) {
		return record(op, types.ConfigErrorf(op, "unknown launch %q in mode %s", name, before.CurrentMode))
	}

	stopErr := w.stopLaunch(ctx, op, before)
	if before.CurrentLaunch != "" {
		w.store.Mutate(func(s *types.Status) error {
			if s.CurrentMode == before.CurrentMode && s.CurrentLaunch == before.CurrentLaunch {
				s.CurrentLaunch = ""
			}
			return nil
		})
	}

	outcome := w.dispatcher.Run(ctx, types.CategoryMode, before.CurrentMode, "start "+name)
	if !outcome.OK() {
		w.logger.Errorf("Failed to start launch %s: %s", name, outcome.Result)
		if before.CurrentLaunch != "" {
			w.bus.Notify(types.CategoryLaunch, "")
		}
		return record(op, outcome.AsError(op))
	}

	var modeNow string
	committed, err := w.store.Mutate(func(s *types.Status) error {
		if s.CurrentMode != before.CurrentMode {
			modeNow = s.CurrentMode
			return errModeChanged
		}
		s.CurrentLaunch = name
		return nil
	})
	if err != nil {
		// The launch is running but belongs to a mode that is no longer selected
		w.logger.Warnf("Mode changed from %s to %s while starting %s, stopping it", before.CurrentMode, modeNow, name)
		started := types.Status{CurrentMode: before.CurrentMode, CurrentLaunch: name}
		if stopErr := w.stopLaunch(ctx, op, started); stopErr != nil {
			return record(op, stopErr)
		}
		return record(op, types.DispatchError(op, nil, "mode changed from %s to %s while starting %s, launch stopped",
			before.CurrentMode, modeNow, name))
	}
	w.logger.Infof("Changed launch to %s (revision %d)", name, committed.Revision)

	w.bus.Notify(types.CategoryLaunch, name)
	return record(op, stopErr)
}

// stopLaunch stops the launch active in snap, if any. It returns a
// DispatchError for failures other than a launch that is not running.
func (w *HMIWorker) stopLaunch(ctx context.Context, op string, snap types.Status) error {
	if snap.CurrentLaunch == "" {
		return nil
	}

	outcome := w.dispatcher.Run(ctx, types.CategoryMode, snap.CurrentMode, "stop "+snap.CurrentLaunch)
	switch outcome.Result {
	case dispatch.ResultSuccess:
		return nil
	case dispatch.ResultNotFound:
		w.logger.Debugf("Launch %s not stoppable, ignoring: %v", snap.CurrentLaunch, outcome.Err)
		return nil
	}

	w.logger.Warnf("Failed to stop launch %s: %s (exit %d)", snap.CurrentLaunch, outcome.Result, outcome.ExitCode())
	return outcome.AsError(op)
}

func (w *HMIWorker) ChangeToMap(name string) error {
	return w.changeSelection("change-map", types.CategoryMap, name, func(s *types.Status) {
		s.CurrentMap = name
	})
}

func (w *HMIWorker) ChangeToVehicle(name string) error {
	return w.changeSelection("change-vehicle", types.CategoryVehicle, name, func(s *types.Status) {
		s.CurrentVehicle = name
	})
}

func (w *HMIWorker) changeSelection(op string, category types.Category, name string, set func(*types.Status)) error {
	if !w.config.Validate(name, category) {
		return record(op, types.ConfigErrorf(op, "unknown %s %q", category, name))
	}

	committed, _ := w.store.Mutate(func(s *types.Status) error {
		set(s)
		return nil
	})
	w.logger.Infof("Changed %s to %s (revision %d)", category, name, committed.Revision)

	w.bus.Notify(category, name)
	return record(op, nil)
}

// ChangeToDrivingMode asks the vehicle to move to target. It returns once the
// pad command is sent; the confirmed mode arrives later through telemetry.
func (w *HMIWorker) ChangeToDrivingMode(ctx context.Context, target types.DrivingMode) error {
	const op = "change-driving-mode"

	if _, ok := types.ParseDrivingMode(string(target)); !ok {
		return record(op, types.TransitionErrorf(op, "unknown driving mode %q", target))
	}

	current := w.store.Snapshot().DrivingMode
	if !w.checker.CanRequest(current, target) {
		return record(op, types.TransitionErrorf(op, "cannot request %s from %s", target, current))
	}

	action := fsm.PadActionFor(target)
	if err := w.redis.SendPadCommand(ctx, action); err != nil {
		return record(op, types.DispatchError(op, err, "failed to send %s", action))
	}
	w.logger.Infof("Requested driving mode %s from %s", target, current)
	return record(op, nil)
}

// Trigger runs a named HMI action. Actions that operate on a name take it
// from value.
func (w *HMIWorker) Trigger(ctx context.Context, action types.Action, value string) error {
	const op = "trigger"

	if needsValue(action) && value == "" {
		return record(op, types.TransitionErrorf(op, "action %s requires a value", action))
	}

	switch action {
	case types.ActionChangeMode:
		return w.ChangeToMode(ctx, value)
	case types.ActionChangeLaunch:
		return w.ChangeToLaunch(ctx, value)
	case types.ActionChangeMap:
		return w.ChangeToMap(value)
	case types.ActionChangeVehicle:
		return w.ChangeToVehicle(value)

	case types.ActionSetupMode:
		return w.RunModeCommand(ctx, "setup").AsError(string(action))
	case types.ActionResetMode:
		return w.resetMode(ctx)

	case types.ActionEnterAutoMode:
		target := types.DrivingModeAuto
		if w.store.Snapshot().DrivingMode != types.DrivingModeAutoPending {
			target = types.DrivingModeAutoPending
		}
		return w.ChangeToDrivingMode(ctx, target)
	case types.ActionDisengage:
		target := types.DrivingModeManual
		if w.store.Snapshot().DrivingMode == types.DrivingModeAuto {
			target = types.DrivingModeDisengaged
		}
		return w.ChangeToDrivingMode(ctx, target)

	case types.ActionStartModule:
		return w.RunModuleCommand(ctx, value, "start").AsError(string(action))
	case types.ActionStopModule:
		return w.RunModuleCommand(ctx, value, "stop").AsError(string(action))

	case types.ActionRecordAudio:
		return w.RecordAudio(ctx, []byte(value))

	case types.ActionPullOver:
		if mode := w.store.Snapshot().DrivingMode; mode != types.DrivingModeAuto {
			return record(string(action), types.TransitionErrorf(string(action), "pull over requires auto, vehicle is %s", mode))
		}
		return w.sendPad(ctx, string(action), types.PadPullOver)
	case types.ActionEstopAck:
		return w.sendPad(ctx, string(action), types.PadEstopAck)
	}

	return record(op, types.UnsupportedActionErrorf(op, "unsupported action %q", action))
}

func needsValue(action types.Action) bool {
	switch action {
	case types.ActionChangeMode, types.ActionChangeLaunch, types.ActionChangeMap, types.ActionChangeVehicle,
		types.ActionStartModule, types.ActionStopModule, types.ActionRecordAudio:
		return true
	}
	return false
}

// resetMode stops the active launch and runs the mode's reset command when
// one is configured. The mode stays selected.
func (w *HMIWorker) resetMode(ctx context.Context) error {
	const op = "reset-mode"

	before := w.store.Snapshot()
	if before.CurrentMode == "" {
		return record(op, types.TransitionErrorf(op, "no mode selected"))
	}

	stopErr := w.stopLaunch(ctx, op, before)
	if before.CurrentLaunch != "" {
		w.store.Mutate(func(s *types.Status) error {
			if s.CurrentMode == before.CurrentMode {
				s.CurrentLaunch = ""
			}
			return nil
		})
		w.bus.Notify(types.CategoryLaunch, "")
	}

	outcome := w.dispatcher.Run(ctx, types.CategoryMode, before.CurrentMode, "reset")
	var resetErr error
	if outcome.Result != dispatch.ResultNotFound {
		resetErr = outcome.AsError(op)
	}
	return record(op, errors.Join(stopErr, resetErr))
}

func (w *HMIWorker) sendPad(ctx context.Context, op string, action types.PadAction) error {
	if err := w.redis.SendPadCommand(ctx, action); err != nil {
		return record(op, types.DispatchError(op, err, "failed to send %s", action))
	}
	return record(op, nil)
}
