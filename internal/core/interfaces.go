package core

import (
	"context"

	"hmi-service/internal/dispatch"
	"hmi-service/internal/messaging"
	"hmi-service/internal/types"
)

// MessagingClient defines the Redis operations needed by HMIWorker
type MessagingClient interface {
	SetCallbacks(callbacks messaging.Callbacks)
	Connect() error
	StartListening() error
	Close() error

	// Egress
	PublishDriveEvent(ctx context.Context, event types.DriveEvent) error
	PublishAudioCapture(ctx context.Context, data []byte) error
	SendPadCommand(ctx context.Context, action types.PadAction) error
	PublishHMIStatus(ctx context.Context, status types.Status) error
}

// CommandDispatcher runs named external commands for a target
type CommandDispatcher interface {
	Run(ctx context.Context, category types.Category, target, command string) dispatch.Outcome
}

// DrivingModeChecker decides whether a driving-mode request is legal from the
// mode the vehicle last reported
type DrivingModeChecker interface {
	CanRequest(current, target types.DrivingMode) bool
}
