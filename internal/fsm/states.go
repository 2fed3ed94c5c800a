package fsm

import (
	"github.com/librescoot/librefsm"

	"hmi-service/internal/types"
)

// Driving-mode states, mirroring the vehicle's reported automation state
const (
	StateManual      librefsm.StateID = "manual"
	StateAutoPending librefsm.StateID = "auto-pending"
	StateAuto        librefsm.StateID = "auto"
	StateDisengaged  librefsm.StateID = "disengaged"
)

// Driving-mode requests, one per target state
const (
	EvRequestManual      librefsm.EventID = "request-manual"
	EvRequestAutoPending librefsm.EventID = "request-auto-pending"
	EvRequestAuto        librefsm.EventID = "request-auto"
	EvRequestDisengaged  librefsm.EventID = "request-disengaged"
)

func stateFor(mode types.DrivingMode) librefsm.StateID {
	return librefsm.StateID(mode)
}

func requestFor(target types.DrivingMode) (librefsm.EventID, bool) {
	switch target {
	case types.DrivingModeManual:
		return EvRequestManual, true
	case types.DrivingModeAutoPending:
		return EvRequestAutoPending, true
	case types.DrivingModeAuto:
		return EvRequestAuto, true
	case types.DrivingModeDisengaged:
		return EvRequestDisengaged, true
	}
	return "", false
}

// PadActionFor returns the control-pad command that asks the vehicle to move
// into target.
func PadActionFor(target types.DrivingMode) types.PadAction {
	switch target {
	case types.DrivingModeAutoPending:
		return types.PadReady
	case types.DrivingModeAuto:
		return types.PadStart
	case types.DrivingModeDisengaged:
		return types.PadStop
	default:
		return types.PadReset
	}
}
