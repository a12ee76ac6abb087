// Package adapter connects the launcher module to the host's surroundings:
// telemetry providers, health endpoints, settings file changes and global
// hotkeys.
package adapter

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/quicklaunch/pkg/launcher"
	"github.com/srediag/quicklaunch/pkg/shm"
)

const instrumentationName = "github.com/srediag/quicklaunch"

// Telemetry holds the tracer and meter handed to the module and its
// coordination channel.
type Telemetry struct {
	Tracer trace.Tracer
	Meter  metric.Meter
}

// NewTelemetry takes instruments from the given providers, falling back to
// the global ones (noop until the host installs real providers).
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return Telemetry{
		Tracer: tp.Tracer(instrumentationName),
		Meter:  mp.Meter(instrumentationName),
	}
}

// ChannelOptions instrument the handshake block.
func (t Telemetry) ChannelOptions() []shm.Option {
	return []shm.Option{shm.WithTracer(t.Tracer), shm.WithMeter(t.Meter)}
}

// LauncherOptions instrument the module.
func (t Telemetry) LauncherOptions() []launcher.Option {
	return []launcher.Option{launcher.WithTracer(t.Tracer)}
}
