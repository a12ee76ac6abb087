package shm

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	internalshm "github.com/srediag/quicklaunch/internal/shm"
)

const wordSize = 4

// Word is a single 32-bit value in a named shared memory region.
// All accesses are atomic. A Word must not be used after Close.
type Word struct {
	region *internalshm.MappedRegion
	ptr    *uint32
	once   sync.Once
}

// OpenOptions defines options for creating or opening a shared word.
type OpenOptions struct {
	// Name is the identifier for the shared memory region.
	Name string
	// Create indicates whether to create (if not exists) or open existing.
	Create bool
}

type options struct {
	meter  metric.Meter
	tracer trace.Tracer
}

// Option configures instrumentation of the primitives in this package.
type Option func(*options)

// WithMeter sets the OTel meter used for poll counters.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithTracer sets the OTel tracer used for handshake spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		meter:  metricnoop.NewMeterProvider().Meter("quicklaunch/shm"),
		tracer: tracenoop.NewTracerProvider().Tracer("quicklaunch/shm"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// OpenWord creates or opens a shared word with the given options.
func OpenWord(ctx context.Context, opts OpenOptions) (*Word, error) {
	region, err := internalshm.MapRegion(ctx, internalshm.MapOptions{
		Name:   opts.Name,
		Size:   wordSize,
		Create: opts.Create,
	})
	if err != nil {
		return nil, err
	}
	return &Word{
		region: region,
		ptr:    internalshm.Word32(region, 0),
	}, nil
}

// Name returns the object name of the underlying region.
func (w *Word) Name() string {
	return w.region.Name
}

// Load reads the word.
func (w *Word) Load() uint32 {
	return internalshm.AtomicLoadUint32(w.ptr)
}

// Store writes the word.
func (w *Word) Store(v uint32) {
	internalshm.AtomicStoreUint32(w.ptr, v)
}

// CompareAndSwap replaces old with new and reports whether it did.
func (w *Word) CompareAndSwap(old, new uint32) bool {
	return internalshm.AtomicCompareAndSwapUint32(w.ptr, old, new)
}

// Close unmaps the word. Only the first call has an effect.
func (w *Word) Close() error {
	var err error
	w.once.Do(func() {
		err = internalshm.UnmapRegion(context.Background(), w.region)
	})
	return err
}
