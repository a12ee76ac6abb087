package shm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrHandshakeTimeout is returned by Wait when no PID was published in time.
	ErrHandshakeTimeout = errors.New("pid handshake timed out")
	// ErrAlreadyPublished is returned by Publish on the second publication.
	ErrAlreadyPublished = errors.New("pid already published")
	// ErrInvalidPID is returned by Publish for pid 0, which means "not yet published".
	ErrInvalidPID = errors.New("invalid pid")

	errNotPublished = errors.New("pid not published yet")
)

// PidBlock is the handshake record through which a relay hands the PID of
// the process it started back to the process that invoked it. The value moves
// from zero to a nonzero PID exactly once.
type PidBlock struct {
	word   *Word
	polls  metric.Int64Counter
	tracer trace.Tracer
}

func newPidBlock(w *Word, opts []Option) *PidBlock {
	o := buildOptions(opts)
	polls, err := o.meter.Int64Counter("quicklaunch.handshake.polls",
		metric.WithDescription("Reads of the pid handshake block"))
	if err != nil {
		polls, _ = buildOptions(nil).meter.Int64Counter("quicklaunch.handshake.polls")
	}
	return &PidBlock{word: w, polls: polls, tracer: o.tracer}
}

// CreatePidBlock creates the named handshake block and zeroes it.
func CreatePidBlock(ctx context.Context, name string, opts ...Option) (*PidBlock, error) {
	w, err := OpenWord(ctx, OpenOptions{Name: name, Create: true})
	if err != nil {
		return nil, fmt.Errorf("create pid block %q: %w", name, err)
	}
	w.Store(0)
	return newPidBlock(w, opts), nil
}

// OpenPidBlock opens a handshake block created by another process.
func OpenPidBlock(ctx context.Context, name string, opts ...Option) (*PidBlock, error) {
	w, err := OpenWord(ctx, OpenOptions{Name: name})
	if err != nil {
		return nil, fmt.Errorf("open pid block %q: %w", name, err)
	}
	return newPidBlock(w, opts), nil
}

// Name returns the object name of the block.
func (b *PidBlock) Name() string {
	return b.word.Name()
}

// Load returns the published PID, or 0 if nothing was published yet.
func (b *PidBlock) Load() uint32 {
	return b.word.Load()
}

// Publish writes pid into the block. Only the first publication succeeds.
func (b *PidBlock) Publish(pid uint32) error {
	if pid == 0 {
		return ErrInvalidPID
	}
	if !b.word.CompareAndSwap(0, pid) {
		return ErrAlreadyPublished
	}
	return nil
}

// Wait polls the block every interval, up to attempts reads, sleeping before
// each read. It returns the first nonzero PID or ErrHandshakeTimeout.
func (b *PidBlock) Wait(ctx context.Context, interval time.Duration, attempts int) (uint32, error) {
	ctx, span := b.tracer.Start(ctx, "shm.PidBlock.Wait", trace.WithAttributes(
		attribute.String("block", b.Name()),
		attribute.Int("attempts", attempts),
	))
	defer span.End()

	if attempts <= 0 {
		return 0, ErrHandshakeTimeout
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(interval):
	}

	read := func() (uint32, error) {
		b.polls.Add(ctx, 1)
		if pid := b.word.Load(); pid != 0 {
			return pid, nil
		}
		return 0, errNotPublished
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(attempts-1)),
		ctx,
	)
	pid, err := backoff.RetryWithData(read, policy)
	if errors.Is(err, errNotPublished) {
		span.RecordError(ErrHandshakeTimeout)
		return 0, ErrHandshakeTimeout
	}
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("pid", int64(pid)))
	return pid, nil
}

// Close releases the block. The creator's close removes the name.
func (b *PidBlock) Close() error {
	return b.word.Close()
}
