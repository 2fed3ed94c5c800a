package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"hmi-service/internal/dispatch"
	"hmi-service/internal/types"
)

// RunModeCommand runs a command of the current mode, e.g. "setup" or
// "start Closed Loop".
func (w *HMIWorker) RunModeCommand(ctx context.Context, command string) dispatch.Outcome {
	return w.dispatcher.Run(ctx, types.CategoryMode, "", command)
}

func (w *HMIWorker) RunModuleCommand(ctx context.Context, module, command string) dispatch.Outcome {
	return w.dispatcher.Run(ctx, types.CategoryModule, module, command)
}

func (w *HMIWorker) RunHardwareCommand(ctx context.Context, hardware, command string) dispatch.Outcome {
	return w.dispatcher.Run(ctx, types.CategoryHardware, hardware, command)
}

func (w *HMIWorker) RunToolCommand(ctx context.Context, tool, command string) dispatch.Outcome {
	return w.dispatcher.Run(ctx, types.CategoryTool, tool, command)
}

// SubmitDriveEvent records an operator note with a fresh event ID.
func (w *HMIWorker) SubmitDriveEvent(ctx context.Context, eventTime time.Time, message string, eventTypes []string) error {
	const op = "submit-drive-event"

	message = strings.TrimSpace(message)
	if message == "" {
		return record(op, types.TransitionErrorf(op, "empty drive event message"))
	}
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	event := types.DriveEvent{
		ID:        uuid.New().String(),
		Timestamp: eventTime,
		Message:   message,
		Types:     append([]string(nil), eventTypes...),
	}
	if err := w.redis.PublishDriveEvent(ctx, event); err != nil {
		return record(op, types.DispatchError(op, err, "failed to publish drive event %s", event.ID))
	}
	return record(op, nil)
}

func (w *HMIWorker) RecordAudio(ctx context.Context, data []byte) error {
	const op = "record-audio"

	if len(data) == 0 {
		return record(op, types.TransitionErrorf(op, "empty audio payload"))
	}
	if err := w.redis.PublishAudioCapture(ctx, data); err != nil {
		return record(op, types.DispatchError(op, err, "failed to publish %d bytes of audio", len(data)))
	}
	return record(op, nil)
}
