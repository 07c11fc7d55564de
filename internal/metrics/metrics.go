package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
)

const (
	namespace = "alarm_controller"

	// readHeaderTimeout bounds slow scrapers.
	readHeaderTimeout = 5 * time.Second
	// shutdownTimeout bounds the graceful stop of the metrics server.
	shutdownTimeout = 5 * time.Second
)

//nolint:gochecknoglobals // Read-only label set.
var allStates = []domain.State{
	domain.StateDisarmed,
	domain.StateArming,
	domain.StateArmed,
	domain.StateTriggered,
}

// Recorder exposes the controller's counters and gauges.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	// registry holds only this recorder's collectors.
	registry *prometheus.Registry
	// state is 1 for the current alarm state and 0 for the others.
	state *prometheus.GaugeVec
	// reports counts sensor reports taken off the queue.
	reports prometheus.Counter
	// dropped counts reports lost to a full queue.
	dropped prometheus.Counter
	// triggers counts transitions into Triggered.
	triggers prometheus.Counter
	// sounds counts playback requests per sound.
	sounds *prometheus.CounterVec
	// sensors is the size of the registry.
	sensors prometheus.Gauge
}

// New creates a Recorder on a private registry, including Go runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current alarm state, 1 for the active state.",
		}, []string{"state"}),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_reports_total",
			Help:      "Sensor reports processed.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_messages_total",
			Help:      "Sensor reports dropped because the queue was full.",
		}),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Times the alarm went off.",
		}),
		sounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sounds_total",
			Help:      "Sound playback requests.",
		}, []string{"sound"}),
		sensors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensors",
			Help:      "Known sensors.",
		}),
	}

	r.registry.MustRegister(
		r.state,
		r.reports,
		r.dropped,
		r.triggers,
		r.sounds,
		r.sensors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// SetState marks s as the current alarm state.
func (r *Recorder) SetState(s domain.State) {
	if r == nil {
		return
	}

	for _, candidate := range allStates {
		value := 0.0
		if candidate == s {
			value = 1
		}

		r.state.WithLabelValues(candidate.String()).Set(value)
	}
}

// SensorReport counts one processed report.
func (r *Recorder) SensorReport() {
	if r == nil {
		return
	}

	r.reports.Inc()
}

// DroppedMessage counts one report lost to a full queue.
func (r *Recorder) DroppedMessage() {
	if r == nil {
		return
	}

	r.dropped.Inc()
}

// Trigger counts one transition into Triggered.
func (r *Recorder) Trigger() {
	if r == nil {
		return
	}

	r.triggers.Inc()
}

// Sound counts one playback request.
func (r *Recorder) Sound(s domain.Sound) {
	if r == nil {
		return
	}

	r.sounds.WithLabelValues(s.String()).Inc()
}

// SetSensors records the registry size.
func (r *Recorder) SetSensors(n int) {
	if r == nil {
		return
	}

	r.sensors.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes handler at /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.InfoKV(ctx, "Metrics server started", "address", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve metrics: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	logger.Info(ctx, "Metrics server stopped")

	return nil
}
