package main

import (
	"context"
	"fmt"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/panjf2000/ants/v2"

	"github.com/srediag/quicklaunch/internal/logging"
)

// dispatcher runs host callbacks one at a time, in submission order. Modules
// rely on never being called concurrently.
type dispatcher struct {
	q    *queue.Queue
	pool *ants.Pool
	done chan struct{}
	log  *logging.Logger
}

func newDispatcher(hint int, log *logging.Logger) (*dispatcher, error) {
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("dispatcher pool: %w", err)
	}
	d := &dispatcher{
		q:    queue.New(int64(hint)),
		pool: pool,
		done: make(chan struct{}),
		log:  log,
	}
	if err := pool.Submit(d.drain); err != nil {
		pool.Release()
		return nil, fmt.Errorf("dispatcher worker: %w", err)
	}
	return d, nil
}

func (d *dispatcher) drain() {
	defer close(d.done)
	for {
		items, err := d.q.Get(1)
		if err != nil {
			return
		}
		for _, it := range items {
			d.run(it.(func()))
		}
	}
}

func (d *dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("dispatched call panicked: %v", r)
		}
	}()
	fn()
}

// post queues fn without waiting for it.
func (d *dispatcher) post(fn func()) error {
	return d.q.Put(fn)
}

// call runs fn and waits for it, or for ctx.
func (d *dispatcher) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := d.q.Put(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drops anything still queued and stops the worker.
func (d *dispatcher) close() {
	d.q.Dispose()
	<-d.done
	d.pool.Release()
}
