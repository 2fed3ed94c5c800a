package events

import (
	"fmt"
	"sync"

	"hmi-service/internal/logger"
	"hmi-service/internal/metrics"
	"hmi-service/internal/types"
)

// Handler receives the name committed by a transition (mode, launch, map or vehicle).
type Handler func(payload string) error

// Bus keeps ordered handler lists per category. Handlers run synchronously on
// the notifying goroutine and must not start another transition from there.
type Bus struct {
	mu       sync.RWMutex
	handlers map[types.Category][]Handler
	logger   *logger.Logger
}

func NewBus(l *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[types.Category][]Handler),
		logger:   l,
	}
}

// Register appends h to the category's handlers.
func (b *Bus) Register(category types.Category, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[category] = append(b.handlers[category], h)
}

// Notify invokes every handler of category in registration order. A failing
// or panicking handler is reported and skipped; the returned errors are
// ObserverErrors for logging only.
func (b *Bus) Notify(category types.Category, payload string) []error {
	b.mu.RLock()
	handlers := b.handlers[category]
	b.mu.RUnlock()

	var errs []error
	for i, h := range handlers {
		if err := b.invoke(h, payload); err != nil {
			obsErr := types.ObserverError("notify "+string(category), err, "handler %d", i)
			b.logger.Warnf("%v", obsErr)
			metrics.ObserverFailures.WithLabelValues(string(category)).Inc()
			errs = append(errs, obsErr)
		}
	}
	return errs
}

func (b *Bus) invoke(h Handler, payload string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(payload)
}
