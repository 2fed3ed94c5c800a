package core

import (
	"context"

	"hmi-service/internal/metrics"
	"hmi-service/internal/types"
)

// UpdateSystemStatus merges a monitor report. Telemetry is trusted and
// bypasses request validation.
func (w *HMIWorker) UpdateSystemStatus(report types.SystemStatus) {
	if len(report) == 0 {
		return
	}
	metrics.TelemetryMessages.WithLabelValues("system-status").Inc()

	committed := w.store.MergeHealth(report)
	w.logger.Debugf("Merged health of %d subsystems (revision %d)", len(report), committed.Revision)
}

// UpdateDrivingMode records a driving mode confirmed by the vehicle.
func (w *HMIWorker) UpdateDrivingMode(mode types.DrivingMode) {
	metrics.TelemetryMessages.WithLabelValues("driving-mode").Inc()

	before := w.store.Snapshot().DrivingMode
	w.store.SetDrivingMode(mode)
	if before == mode {
		return
	}
	w.logger.Infof("Driving mode changed: %s -> %s", before, mode)

	if err := w.publishStatus(""); err != nil {
		w.logger.Warnf("Failed to publish HMI status: %v", err)
	}
}

func (w *HMIWorker) handleSystemStatus(report types.SystemStatus) error {
	w.UpdateSystemStatus(report)
	return nil
}

func (w *HMIWorker) handleDrivingMode(mode types.DrivingMode) error {
	w.UpdateDrivingMode(mode)
	return nil
}

func (w *HMIWorker) handleAction(action, value string) error {
	return w.Trigger(context.Background(), types.Action(action), value)
}
