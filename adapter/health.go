package adapter

import (
	"errors"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrHelperDown is reported by readiness while an enabled module has no
// live helper process.
var ErrHelperDown = errors.New("helper process not running")

// ErrProbeTimeout is reported when a probe did not answer in time.
var ErrProbeTimeout = errors.New("health probe timed out")

// ModuleProbe reports a module's enabled flag and whether its helper runs.
type ModuleProbe func() (enabled, alive bool, err error)

// NewHealth returns a health handler, exporting check results as metrics on
// reg when reg is not nil.
func NewHealth(reg prometheus.Registerer, namespace string) healthcheck.Handler {
	if reg == nil {
		return healthcheck.NewHandler()
	}
	return healthcheck.NewMetricsHandler(reg, namespace)
}

// ModuleReady fails while the probed module is enabled without a helper.
// A disabled module is ready.
func ModuleReady(probe ModuleProbe) healthcheck.Check {
	return func() error {
		enabled, alive, err := probe()
		if err != nil {
			return err
		}
		if enabled && !alive {
			return ErrHelperDown
		}
		return nil
	}
}

// AddModule registers readiness for one module under the given name. The
// check gives up after timeout.
func AddModule(h healthcheck.Handler, name string, probe ModuleProbe, timeout time.Duration) {
	h.AddReadinessCheck(name, healthcheck.Timeout(ModuleReady(probe), timeout))
}

// AddRunner registers liveness for the runner itself.
func AddRunner(h healthcheck.Handler, maxGoroutines int) {
	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(maxGoroutines))
}
