// Command runner is a minimal host for the quick launcher module. It loads
// the module, binds its hotkey, reloads its settings when the settings file
// changes and serves health and metrics endpoints until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/quicklaunch/adapter"
	"github.com/srediag/quicklaunch/internal/logging"
	"github.com/srediag/quicklaunch/pkg/coord"
	"github.com/srediag/quicklaunch/pkg/launcher"
	"github.com/srediag/quicklaunch/pkg/settings"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the runner YAML config")
	flag.Parse()

	code := 0
	adapter.RunOnMainThread(func() {
		if err := run(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, "runner:", err)
			code = 1
		}
	})
	os.Exit(code)
}

func run(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	lvl, _ := logging.ParseLevel(cfg.LogLevel)
	logging.SetLevel(lvl)

	log := logging.New("runner", nil)
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
		log = logging.New("runner", f)
	}

	store, err := settings.NewStore(cfg.SettingsRoot)
	if err != nil {
		return err
	}

	prom := prometheus.NewRegistry()
	registerRuntimeCollectors(prom)
	metrics, err := launcher.NewMetrics(prom)
	if err != nil {
		return err
	}
	tel := adapter.NewTelemetry(nil, nil)

	channel := coord.Default()
	channel.Options = tel.ChannelOptions()
	opts := []launcher.Option{
		launcher.WithChannel(channel),
		launcher.WithStore(store),
		launcher.WithHelperPath(cfg.HelperPath),
		launcher.WithRelayPath(cfg.RelayPath),
		launcher.WithPolling(cfg.PollInterval, cfg.PollAttempts),
		launcher.WithMetrics(metrics),
	}
	module := launcher.New(append(opts, tel.LauncherOptions()...)...)

	r, err := newRunner(cfg, store, prom, log)
	if err != nil {
		module.Destroy()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.add(ctx, module); err != nil {
		module.Destroy()
		return err
	}
	if _, err := r.serve(); err != nil {
		log.Errorf("%v", err)
	}

	<-ctx.Done()
	log.Info("shutting down")
	stop()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	r.shutdown(sctx)
	return nil
}
