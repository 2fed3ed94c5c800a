package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hmi-service/internal/logger"
)

var (
	// TransitionsTotal counts HMI operations by name and outcome
	// ("ok", "rejected", "failed").
	TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_transitions_total",
		Help: "HMI transitions by operation and result",
	}, []string{"operation", "result"})

	// DispatchDuration tracks external command run time.
	DispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hmi_dispatch_duration_seconds",
		Help:    "Duration of external HMI commands",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
	}, []string{"category", "result"})

	ObserverFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_observer_failures_total",
		Help: "Failed HMI change handlers by category",
	}, []string{"category"})

	TelemetryMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hmi_telemetry_messages_total",
		Help: "Inbound telemetry messages by kind",
	}, []string{"kind"})
)

// Register adds all HMI collectors to reg. Already registered collectors are
// not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{TransitionsTotal, DispatchDuration, ObserverFailures, TelemetryMessages} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// Serve exposes the default registry on addr/metrics in the background.
func Serve(addr string, l *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		l.Infof("Metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("Metrics server failed: %v", err)
		}
	}()
	return srv
}
