package fsm

import "github.com/librescoot/librefsm"

// NewDefinition creates the driving-mode request FSM. A transition exists
// only where the HMI may ask the vehicle to move directly; the vehicle itself
// reports the mode it actually reaches.
func NewDefinition() *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateManual).
		State(StateAutoPending).
		State(StateAuto).
		State(StateDisengaged).

		// Reset is always allowed, even when already manual
		Transition(StateManual, EvRequestManual, StateManual).
		Transition(StateAutoPending, EvRequestManual, StateManual).
		Transition(StateAuto, EvRequestManual, StateManual).
		Transition(StateDisengaged, EvRequestManual, StateManual).

		// Engagement has to pass through auto-pending
		Transition(StateManual, EvRequestAutoPending, StateAutoPending).
		Transition(StateAutoPending, EvRequestAuto, StateAuto).

		// Operator take-over while engaged
		Transition(StateAuto, EvRequestDisengaged, StateDisengaged).
		Initial(StateManual)
}
