// Package status holds the single mutable HMI status aggregate.
package status

import (
	"sync"

	"hmi-service/internal/types"
)

// Store guards the HMI status with a many-readers/one-writer lock. It never
// hands out references to its internal value.
type Store struct {
	mu     sync.RWMutex
	status types.Status
}

func NewStore(initial types.Status) *Store {
	return &Store{status: initial.Clone()}
}

// Snapshot returns a copy of the current status.
func (s *Store) Snapshot() types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Clone()
}

// Mutate applies fn to a copy of the status under the write lock and commits
// the copy unless fn returns an error. fn must not block on external I/O.
func (s *Store) Mutate(fn func(*types.Status) error) (types.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.status.Clone()
	if err := fn(&next); err != nil {
		return s.status.Clone(), err
	}
	next.Revision = s.status.Revision + 1
	s.status = next
	return next.Clone(), nil
}

// UpdateHealth merges one subsystem's report without touching other fields.
func (s *Store) UpdateHealth(subsystem string, report types.HealthReport) types.Status {
	st, _ := s.Mutate(func(st *types.Status) error {
		st.Health[subsystem] = report
		return nil
	})
	return st
}

// MergeHealth merges a whole monitor message in one commit.
func (s *Store) MergeHealth(reports types.SystemStatus) types.Status {
	st, _ := s.Mutate(func(st *types.Status) error {
		for name, report := range reports {
			st.Health[name] = report
		}
		return nil
	})
	return st
}

// SetDrivingMode records a driving mode reported by the vehicle.
func (s *Store) SetDrivingMode(mode types.DrivingMode) types.Status {
	st, _ := s.Mutate(func(st *types.Status) error {
		st.DrivingMode = mode
		return nil
	})
	return st
}
