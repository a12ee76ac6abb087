package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/quicklaunch/adapter"
	"github.com/srediag/quicklaunch/api"
	"github.com/srediag/quicklaunch/internal/logging"
	"github.com/srediag/quicklaunch/pkg/settings"
)

// Liveness fails above this many goroutines.
const maxGoroutines = 10000

// hotkeyRegistrar binds a module's hotkeys to OS key presses.
type hotkeyRegistrar interface {
	Register(hks []api.Hotkey) error
	Unregister()
}

// runner hosts modules: every module call goes through one dispatcher, so
// modules see the serial host they expect.
type runner struct {
	cfg     *Config
	log     *logging.Logger
	store   *settings.Store
	modules *registry
	disp    *dispatcher
	prom    *prometheus.Registry
	health  healthcheck.Handler

	// newHotkeys is replaced in tests, where no display is available.
	newHotkeys func(onPress func(id int)) hotkeyRegistrar

	mu       sync.Mutex
	hotkeys  map[string]hotkeyRegistrar
	watchers sync.WaitGroup
	server   *http.Server
}

func newRunner(cfg *Config, store *settings.Store, prom *prometheus.Registry, log *logging.Logger) (*runner, error) {
	if err := VerifyConfig(cfg); err != nil {
		return nil, err
	}
	disp, err := newDispatcher(cfg.QueueHint, log)
	if err != nil {
		return nil, err
	}
	r := &runner{
		cfg:     cfg,
		log:     log,
		store:   store,
		modules: newRegistry(),
		disp:    disp,
		prom:    prom,
		health:  adapter.NewHealth(prom, "runner"),
		hotkeys: map[string]hotkeyRegistrar{},
	}
	r.newHotkeys = func(onPress func(id int)) hotkeyRegistrar {
		return adapter.NewHotkeySource(onPress, log)
	}
	adapter.AddRunner(r.health, maxGoroutines)
	return r, nil
}

// add registers m and wires its hotkeys, readiness and settings reload.
func (r *runner) add(ctx context.Context, m api.Module) error {
	if err := r.modules.add(m); err != nil {
		return fmt.Errorf("%s: %w", m.Key(), err)
	}
	key := m.Key()

	src := r.newHotkeys(func(id int) {
		if err := r.disp.post(func() { m.OnHotkey(id) }); err != nil {
			r.log.Warnf("hotkey %s/%d dropped: %v", key, id, err)
		}
	})
	r.mu.Lock()
	r.hotkeys[key] = src
	r.mu.Unlock()

	if h, ok := m.(api.Health); ok {
		adapter.AddModule(r.health, key, r.probe(m, h), r.cfg.ProbeTimeout)
	}

	if r.cfg.WatchSettings && r.store != nil {
		w, err := adapter.NewSettingsWatcher(r.store.Path(key), func(doc []byte) {
			if err := r.disp.post(func() {
				m.SetConfig(doc)
				r.registerHotkeys(key, m)
			}); err != nil {
				r.log.Warnf("settings reload %s dropped: %v", key, err)
			}
		}, r.log)
		if err != nil {
			return err
		}
		r.watchers.Add(1)
		go func() {
			defer r.watchers.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Warnf("settings watcher %s stopped: %v", key, err)
			}
		}()
	}

	return r.disp.call(ctx, func() {
		if r.cfg.EnableOnStart {
			m.Enable()
		}
		r.registerHotkeys(key, m)
	})
}

// registerHotkeys must run on the dispatcher.
func (r *runner) registerHotkeys(key string, m api.Module) {
	r.mu.Lock()
	src := r.hotkeys[key]
	r.mu.Unlock()
	if src == nil {
		return
	}
	if err := src.Register(m.Hotkeys()); err != nil {
		r.log.Warnf("module %s hotkeys: %v", key, err)
	}
}

func (r *runner) probe(m api.Module, h api.Health) adapter.ModuleProbe {
	type state struct{ enabled, alive bool }
	return func() (bool, bool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.ProbeTimeout)
		defer cancel()
		// The callback may still run after a timeout; it only ever writes to
		// its own buffered channel.
		res := make(chan state, 1)
		err := r.disp.call(ctx, func() {
			res <- state{enabled: m.IsEnabled(), alive: h.ProcessAlive()}
		})
		if errors.Is(err, context.DeadlineExceeded) {
			return false, false, adapter.ErrProbeTimeout
		}
		if err != nil {
			return false, false, err
		}
		st := <-res
		return st.enabled, st.alive, nil
	}
}

// serve starts the health and metrics endpoints on the configured address.
func (r *runner) serve() (net.Addr, error) {
	if r.cfg.Listen == "" {
		return nil, nil
	}
	ln, err := net.Listen("tcp", r.cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", r.cfg.Listen, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/live", r.health)
	mux.Handle("/ready", r.health)
	mux.Handle("/metrics", promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{Registry: r.prom}))

	r.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Errorf("http server: %v", err)
		}
	}()
	r.log.Infof("serving health and metrics on %s", ln.Addr())
	return ln.Addr(), nil
}

// shutdown disables and destroys every module, then stops the dispatcher.
// Callers cancel the context given to add first so the watchers stop.
func (r *runner) shutdown(ctx context.Context) {
	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.Warnf("http shutdown: %v", err)
		}
	}
	r.mu.Lock()
	for _, src := range r.hotkeys {
		src.Unregister()
	}
	r.hotkeys = map[string]hotkeyRegistrar{}
	r.mu.Unlock()

	for _, key := range r.modules.keys() {
		m, ok := r.modules.get(key)
		if !ok {
			continue
		}
		err := r.disp.call(ctx, func() {
			m.Disable()
			m.Destroy()
		})
		if err != nil {
			r.log.Errorf("module %s shutdown: %v", key, err)
		}
		r.modules.remove(key)
	}
	r.watchers.Wait()
	r.disp.close()
}

func registerRuntimeCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
