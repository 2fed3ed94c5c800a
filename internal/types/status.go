package types

import (
	"maps"
	"time"
)

type DrivingMode string

const (
	DrivingModeManual      DrivingMode = "manual"
	DrivingModeAutoPending DrivingMode = "auto-pending"
	DrivingModeAuto        DrivingMode = "auto"
	DrivingModeDisengaged  DrivingMode = "disengaged"
)

// ParseDrivingMode maps a telemetry or request string onto a known driving mode.
func ParseDrivingMode(s string) (DrivingMode, bool) {
	switch DrivingMode(s) {
	case DrivingModeManual, DrivingModeAutoPending, DrivingModeAuto, DrivingModeDisengaged:
		return DrivingMode(s), true
	}
	return "", false
}

// HealthReport is the last report received from one monitored subsystem
type HealthReport struct {
	Status    string
	Summary   string
	Timestamp time.Time
}

// SystemStatus is one inbound monitor message, keyed by subsystem name
type SystemStatus map[string]HealthReport

// Status is the HMI's view of the vehicle configuration. Empty strings mean
// "not selected". Instances handed out by the status store are copies.
type Status struct {
	CurrentMode    string
	CurrentLaunch  string
	CurrentMap     string
	CurrentVehicle string
	DrivingMode    DrivingMode
	Health         map[string]HealthReport

	// Revision counts committed mutations
	Revision uint64
}

// Clone returns a deep copy of s.
func (s Status) Clone() Status {
	c := s
	c.Health = maps.Clone(s.Health)
	if c.Health == nil {
		c.Health = make(map[string]HealthReport)
	}
	return c
}

// DriveEvent is a free-text note recorded by the operator while driving
type DriveEvent struct {
	ID        string
	Timestamp time.Time
	Message   string
	Types     []string
}
