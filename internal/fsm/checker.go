package fsm

import (
	"context"
	"fmt"
	"sync"

	"github.com/librescoot/librefsm"

	"hmi-service/internal/types"
)

type machine interface {
	Start(ctx context.Context) error
	SetState(state librefsm.StateID) error
	SendSync(event librefsm.Event) error
	CurrentState() librefsm.StateID
}

// Checker answers whether a driving-mode request is legal from the mode the
// vehicle last reported. It replays the request on a private machine.
type Checker struct {
	mu      sync.Mutex
	machine machine
}

func NewChecker(ctx context.Context) (*Checker, error) {
	m, err := NewDefinition().Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build driving mode FSM: %w", err)
	}
	if err := m.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start driving mode FSM: %w", err)
	}
	return &Checker{machine: m}, nil
}

// CanRequest reports whether target is directly reachable from current.
func (c *Checker) CanRequest(current, target types.DrivingMode) bool {
	ev, ok := requestFor(target)
	if !ok {
		return false
	}
	if _, ok := types.ParseDrivingMode(string(current)); !ok {
		current = types.DrivingModeManual
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.machine.SetState(stateFor(current)); err != nil {
		return false
	}
	if err := c.machine.SendSync(librefsm.Event{ID: ev}); err != nil {
		return false
	}
	return c.machine.CurrentState() == stateFor(target)
}
