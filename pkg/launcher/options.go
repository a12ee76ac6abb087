package launcher

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/quicklaunch/internal/logging"
	"github.com/srediag/quicklaunch/pkg/coord"
	"github.com/srediag/quicklaunch/pkg/process"
	"github.com/srediag/quicklaunch/pkg/settings"
)

// Option configures a Module.
type Option func(*Module)

// WithChannel sets the named objects shared with the helper.
func WithChannel(c coord.Channel) Option {
	return func(m *Module) { m.channel = c }
}

// WithLauncher replaces the process launcher.
func WithLauncher(l process.Launcher) Option {
	return func(m *Module) {
		if l != nil {
			m.launcher = l
		}
	}
}

// WithStore sets where settings are loaded from and saved to. The module
// also logs to a file under the store's module folder.
func WithStore(s *settings.Store) Option {
	return func(m *Module) { m.store = s }
}

// WithElevation replaces the elevation check deciding the launch path.
func WithElevation(isElevated func() bool) Option {
	return func(m *Module) {
		if isElevated != nil {
			m.isElevated = isElevated
		}
	}
}

// WithPolling sets the handshake poll interval and the maximum number of
// polls.
func WithPolling(interval time.Duration, attempts int) Option {
	return func(m *Module) {
		if interval > 0 {
			m.pollInterval = interval
		}
		if attempts > 0 {
			m.pollAttempts = attempts
		}
	}
}

// WithHelperPath sets the helper executable.
func WithHelperPath(path string) Option {
	return func(m *Module) {
		if path != "" {
			m.helperPath = path
		}
	}
}

// WithRelayPath sets the relay executable.
func WithRelayPath(path string) Option {
	return func(m *Module) {
		if path != "" {
			m.relayPath = path
		}
	}
}

// WithHostPID sets the PID passed to the helper as its host.
func WithHostPID(pid int) Option {
	return func(m *Module) {
		if pid > 0 {
			m.hostPID = pid
		}
	}
}

// WithName sets the display name.
func WithName(name string) Option {
	return func(m *Module) {
		if name != "" {
			m.name = name
		}
	}
}

// WithLogger sets the logger. It takes precedence over the store's log file.
func WithLogger(l *logging.Logger) Option {
	return func(m *Module) { m.log = l }
}

// WithMetrics sets the prometheus collectors.
func WithMetrics(mt *Metrics) Option {
	return func(m *Module) { m.metrics = mt }
}

// WithTracer sets the OTel tracer for enable spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Module) {
		if t != nil {
			m.tracer = t
		}
	}
}
