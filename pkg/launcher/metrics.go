package launcher

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	pathDirect = "direct"
	pathRelay  = "relay"

	resultOK      = "ok"
	resultError   = "error"
	resultTimeout = "timeout"
)

// Metrics counts launches, restarts and termination failures. A nil
// *Metrics records nothing.
type Metrics struct {
	launches          *prometheus.CounterVec
	restarts          prometheus.Counter
	terminateFailures prometheus.Counter
	handshake         prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg when reg is
// not nil. Collectors already registered by an earlier module are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launcher",
			Name:      "launch_total",
			Help:      "Helper launch attempts by path and result.",
		}, []string{"path", "result"}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "launcher",
			Name:      "restart_total",
			Help:      "Helper restarts after the hotkey found it not running.",
		}),
		terminateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "launcher",
			Name:      "terminate_failures_total",
			Help:      "Failed helper terminations.",
		}),
		handshake: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "launcher",
			Name:      "handshake_seconds",
			Help:      "Time spent waiting for the relay to publish the helper PID.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	m.launches, err = register(reg, m.launches)
	if err != nil {
		return nil, err
	}
	if m.restarts, err = register(reg, m.restarts); err != nil {
		return nil, err
	}
	if m.terminateFailures, err = register(reg, m.terminateFailures); err != nil {
		return nil, err
	}
	if m.handshake, err = register(reg, m.handshake); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) launch(path, result string) {
	if m == nil {
		return
	}
	m.launches.WithLabelValues(path, result).Inc()
}

func (m *Metrics) restart() {
	if m == nil {
		return
	}
	m.restarts.Inc()
}

func (m *Metrics) terminateFailed() {
	if m == nil {
		return
	}
	m.terminateFailures.Inc()
}

func (m *Metrics) observeHandshake(d time.Duration) {
	if m == nil {
		return
	}
	m.handshake.Observe(d.Seconds())
}
