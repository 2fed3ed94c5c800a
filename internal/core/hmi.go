package core

import (
	"context"
	"fmt"
	"time"

	"hmi-service/internal/config"
	"hmi-service/internal/events"
	"hmi-service/internal/logger"
	"hmi-service/internal/messaging"
	"hmi-service/internal/metrics"
	"hmi-service/internal/status"
	"hmi-service/internal/types"
)

const publishTimeout = 2 * time.Second

// HMIWorker coordinates mode, launch, map, vehicle and driving-mode
// selection. Config is read-only after construction; Status lives in the
// store and is only handed out as copies.
type HMIWorker struct {
	config     *config.Config
	store      *status.Store
	dispatcher CommandDispatcher
	checker    DrivingModeChecker
	redis      MessagingClient
	bus        *events.Bus
	logger     *logger.Logger
}

func NewHMIWorker(
	cfg *config.Config,
	store *status.Store,
	dispatcher CommandDispatcher,
	checker DrivingModeChecker,
	redis MessagingClient,
	l *logger.Logger,
) *HMIWorker {
	return &HMIWorker{
		config:     cfg,
		store:      store,
		dispatcher: dispatcher,
		checker:    checker,
		redis:      redis,
		bus:        events.NewBus(l.WithTag("events")),
		logger:     l,
	}
}

func (w *HMIWorker) Start() error {
	w.logger.Infof("Starting HMI worker with %d modes", len(w.config.Modes))

	for _, category := range []types.Category{
		types.CategoryMode, types.CategoryLaunch, types.CategoryMap, types.CategoryVehicle,
	} {
		w.bus.Register(category, w.publishStatus)
	}

	w.redis.SetCallbacks(messaging.Callbacks{
		SystemStatusCallback: w.handleSystemStatus,
		DrivingModeCallback:  w.handleDrivingMode,
		ActionCallback:       w.handleAction,
	})

	if err := w.redis.Connect(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if err := w.publishStatus(""); err != nil {
		w.logger.Warnf("Failed to publish initial HMI status: %v", err)
	}

	if err := w.redis.StartListening(); err != nil {
		return fmt.Errorf("failed to start Redis listeners: %w", err)
	}

	w.logger.Infof("HMI worker started")
	return nil
}

func (w *HMIWorker) Shutdown() {
	w.logger.Infof("Shutting down HMI worker")
	if err := w.redis.Close(); err != nil {
		w.logger.Warnf("Failed to close Redis client: %v", err)
	}
}

// GetConfig returns a copy of the loaded configuration.
func (w *HMIWorker) GetConfig() config.Config {
	return w.config.Clone()
}

// GetStatus returns a snapshot of the current status.
func (w *HMIWorker) GetStatus() types.Status {
	return w.store.Snapshot()
}

func (w *HMIWorker) RegisterChangeModeHandler(h events.Handler) {
	w.bus.Register(types.CategoryMode, h)
}

func (w *HMIWorker) RegisterChangeLaunchHandler(h events.Handler) {
	w.bus.Register(types.CategoryLaunch, h)
}

func (w *HMIWorker) RegisterChangeMapHandler(h events.Handler) {
	w.bus.Register(types.CategoryMap, h)
}

func (w *HMIWorker) RegisterChangeVehicleHandler(h events.Handler) {
	w.bus.Register(types.CategoryVehicle, h)
}

// publishStatus mirrors the current snapshot to Redis. It is registered as
// the first handler of every change category.
func (w *HMIWorker) publishStatus(string) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return w.redis.PublishHMIStatus(ctx, w.store.Snapshot())
}

// record counts an operation result and passes err through
func record(op string, err error) error {
	result := "ok"
	switch {
	case err == nil:
	case types.IsRejected(err):
		result = "rejected"
	default:
		result = "failed"
	}
	metrics.TransitionsTotal.WithLabelValues(op, result).Inc()
	return err
}
