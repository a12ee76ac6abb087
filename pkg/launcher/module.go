// Package launcher is the host module that runs the quick launcher helper.
//
// The module starts the helper when enabled, restarts it when the hotkey
// finds it gone, signals it to show itself on every hotkey press and
// terminates it when disabled. When the host is elevated the helper is
// started through a relay so it runs without elevation; the relay hands the
// helper's PID back through a shared handshake block.
//
// None of the host-facing methods report errors. Failures degrade to an idle
// module and are logged, counted and kept in LastError.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/quicklaunch/api"
	"github.com/srediag/quicklaunch/internal/elevation"
	"github.com/srediag/quicklaunch/internal/logging"
	"github.com/srediag/quicklaunch/pkg/coord"
	"github.com/srediag/quicklaunch/pkg/process"
	"github.com/srediag/quicklaunch/pkg/settings"
	"github.com/srediag/quicklaunch/pkg/shm"
)

const (
	// ModuleKey is the non-localised key the host caches the module under.
	ModuleKey = "Launcher"
	// DefaultName is the display name.
	DefaultName = "PowerToys Run"

	// DefaultPollInterval and DefaultPollAttempts bound the handshake wait
	// to four seconds.
	DefaultPollInterval = 50 * time.Millisecond
	DefaultPollAttempts = 80

	description  = "A quick launcher that opens with a global hotkey."
	overviewLink = "https://aka.ms/PowerToysOverview_PowerToysRun"
	hotkeyLabel  = "Open PowerToys Run"
	logFileName  = "launcher.log"
)

// ErrNoHandshakeBlock is recorded when the elevated path cannot create the
// handshake block.
var ErrNoHandshakeBlock = errors.New("handshake block unavailable")

// State is the module's lifecycle state.
type State int

const (
	StateDisabled State = iota
	StateEnabledNoProcess
	StateEnabledWithProcess
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateEnabledNoProcess:
		return "Enabled-NoProcess"
	case StateEnabledWithProcess:
		return "Enabled-WithProcess"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Module implements api.Module for the quick launcher. The host must not
// call its methods concurrently.
type Module struct {
	name    string
	enabled bool
	handle  process.Handle
	hotkey  api.Hotkey
	event   *shm.Event
	lastErr error

	channel      coord.Channel
	launcher     process.Launcher
	store        *settings.Store
	isElevated   func() bool
	helperPath   string
	relayPath    string
	hostPID      int
	pollInterval time.Duration
	pollAttempts int

	log     *logging.Logger
	logFile io.Closer
	metrics *Metrics
	tracer  trace.Tracer
}

var (
	_ api.Module = (*Module)(nil)
	_ api.Health = (*Module)(nil)
)

// New creates the module, loads persisted settings and opens the show event.
func New(opts ...Option) *Module {
	m := &Module{
		name:         DefaultName,
		channel:      coord.Default(),
		launcher:     &process.OSLauncher{},
		isElevated:   elevation.IsElevated,
		helperPath:   defaultHelperPath(),
		relayPath:    defaultRelayPath(),
		hostPID:      os.Getpid(),
		pollInterval: DefaultPollInterval,
		pollAttempts: DefaultPollAttempts,
		tracer:       tracenoop.NewTracerProvider().Tracer("quicklaunch/launcher"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = m.openLog()
	}
	if l, ok := m.launcher.(*process.OSLauncher); ok && l.Logger == nil {
		l.Logger = m.log
	}
	m.log.Info("Launcher object is constructing")
	m.initSettings()

	ev, err := m.channel.OpenEvent(context.Background())
	if err != nil {
		m.log.Errorf("Launcher show event unavailable: %v", err)
	} else {
		m.event = ev
	}
	return m
}

func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func defaultHelperPath() string {
	return filepath.Join("modules", "launcher", exeName("PowerLauncher"))
}

func defaultRelayPath() string {
	dir := "."
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}
	return filepath.Join(dir, exeName("action_runner"))
}

func (m *Module) openLog() *logging.Logger {
	if m.store == nil {
		return logging.New("launcher", nil)
	}
	f, err := logging.OpenFile(m.store.LogPath(ModuleKey, logFileName))
	if err != nil {
		l := logging.New("launcher", nil)
		l.Warnf("log file unavailable, logging to stdout: %v", err)
		return l
	}
	m.logFile = f
	return logging.New("launcher", f)
}

// initSettings loads the persisted settings. Without them the defaults stay.
func (m *Module) initSettings() {
	if m.store == nil {
		return
	}
	values, err := m.store.Load(ModuleKey)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			m.log.Warnf("Launcher settings not loaded: %v", err)
		}
		return
	}
	doc, err := values.JSON()
	if err != nil {
		m.log.Warnf("Launcher settings not loaded: %v", err)
		return
	}
	m.applyHotkey(doc)
}

func (m *Module) applyHotkey(doc []byte) {
	hk, err := settings.ApplyHotkey(m.hotkey, doc)
	if err != nil {
		m.log.Warnf("Launcher hotkey unbound: %v", err)
	}
	m.hotkey = hk
}

// Destroy terminates the helper if enabled and releases the show event.
func (m *Module) Destroy() {
	m.log.Info("Launcher object is destroying")
	if m.enabled {
		m.terminateProcess()
	}
	m.enabled = false
	if m.event != nil {
		if err := m.event.Close(); err != nil {
			m.log.Warnf("Launcher show event close: %v", err)
		}
		m.event = nil
	}
	if m.logFile != nil {
		_ = m.logFile.Close()
		m.logFile = nil
		m.log = logging.Discard()
	}
}

// Name implements api.Configurable.
func (m *Module) Name() string { return m.name }

// Key implements api.Configurable.
func (m *Module) Key() string { return ModuleKey }

// Config returns the settings page with the current hotkey.
func (m *Module) Config() ([]byte, bool) {
	page := settings.NewPage(m.name)
	page.Description = description
	page.OverviewLink = overviewLink
	if err := page.AddHotkey(settings.HotkeyProperty, hotkeyLabel, m.hotkey); err != nil {
		m.log.Warnf("Launcher settings page: %v", err)
		return nil, false
	}
	doc, err := page.Serialize()
	if err != nil {
		m.log.Warnf("Launcher settings page: %v", err)
		return nil, false
	}
	return doc, true
}

// SetConfig applies a values document and persists it. An unparsable
// document leaves the settings unchanged.
func (m *Module) SetConfig(doc []byte) {
	values, err := settings.ValuesFromJSON(doc, ModuleKey)
	if err != nil {
		m.log.Warnf("Launcher settings rejected: %v", err)
		return
	}
	m.applyHotkey(doc)
	if m.store == nil {
		return
	}
	if err := m.store.Save(values); err != nil {
		m.log.Errorf("Launcher settings not saved: %v", err)
	}
}

// CallCustomAction accepts actions from the settings editor. The launcher
// defines none, so valid actions are only logged.
func (m *Module) CallCustomAction(action []byte) {
	a, err := settings.ParseCustomAction(action)
	if err != nil {
		m.log.Debugf("Launcher custom action ignored: %v", err)
		return
	}
	m.log.Infof("Launcher custom action %q ignored", a.Name)
}

// Enable starts the helper and marks the module enabled. The module counts
// as enabled even if no helper could be started; the next hotkey retries.
func (m *Module) Enable() {
	m.log.Info("Launcher is enabling")
	m.resetSignal()

	ctx, span := m.tracer.Start(context.Background(), "launcher.Enable",
		trace.WithAttributes(attribute.Bool("elevated", m.isElevated())))
	defer span.End()

	if m.handle != nil && !m.handle.Exited() {
		m.log.Debugf("Launcher process %d already running", m.handle.Pid())
	} else if err := m.launch(ctx); err != nil {
		m.lastErr = err
		span.RecordError(err)
		m.log.Errorf("Launcher process was not started: %v", err)
	} else {
		m.lastErr = nil
		span.SetAttributes(attribute.Int("pid", m.handle.Pid()))
	}
	m.enabled = true
}

// Disable terminates the helper. It is a no-op when already disabled.
func (m *Module) Disable() {
	m.log.Info("Launcher is disabling")
	if m.enabled {
		m.resetSignal()
		m.terminateProcess()
	}
	m.enabled = false
}

// IsEnabled implements api.Lifecycle.
func (m *Module) IsEnabled() bool { return m.enabled }

// Hotkeys returns the configured hotkey, or none when it is unbound.
func (m *Module) Hotkeys() []api.Hotkey {
	if m.hotkey.Key == 0 {
		return nil
	}
	return []api.Hotkey{m.hotkey}
}

// OnHotkey restarts the helper if it is not running and signals it to show
// itself. It reports false only when the module is disabled.
func (m *Module) OnHotkey(id int) bool {
	if !m.enabled {
		return false
	}
	if m.handle == nil || m.handle.Exited() {
		m.log.Warnf("Launcher process is not running, restarting")
		m.metrics.restart()
		m.Enable()
	}
	m.signal()
	return true
}

// ProcessAlive implements api.Health.
func (m *Module) ProcessAlive() bool {
	return m.handle != nil && !m.handle.Exited()
}

// State returns the lifecycle state.
func (m *Module) State() State {
	switch {
	case !m.enabled:
		return StateDisabled
	case m.ProcessAlive():
		return StateEnabledWithProcess
	default:
		return StateEnabledNoProcess
	}
}

// LastError returns why the last enable did not produce a helper process,
// or nil if it did.
func (m *Module) LastError() error { return m.lastErr }

// Hotkey returns the current descriptor, bound or not.
func (m *Module) Hotkey() api.Hotkey { return m.hotkey }

func (m *Module) launch(ctx context.Context) error {
	m.releaseHandle()
	if m.isElevated() {
		return m.launchViaRelay(ctx)
	}
	return m.launchDirect(ctx)
}

func (m *Module) launchDirect(ctx context.Context) error {
	h, err := m.launcher.StartDirect(ctx, m.helperPath, HelperArgs(m.hostPID))
	if err != nil {
		m.metrics.launch(pathDirect, resultError)
		return fmt.Errorf("start helper: %w", err)
	}
	m.metrics.launch(pathDirect, resultOK)
	m.handle = h
	m.log.Infof("Launcher process %d started", h.Pid())
	return nil
}

// launchViaRelay starts the helper unelevated through the relay and waits
// for the relay to publish the helper's PID.
func (m *Module) launchViaRelay(ctx context.Context) error {
	blk, err := m.channel.CreatePidBlock(ctx)
	if err != nil {
		m.metrics.launch(pathRelay, resultError)
		return fmt.Errorf("%w: %v", ErrNoHandshakeBlock, err)
	}
	defer func() {
		if err := blk.Close(); err != nil {
			m.log.Warnf("Launcher handshake block close: %v", err)
		}
	}()

	args := RelayArgs(m.helperPath, blk.Name(), m.hostPID)
	if err := m.launcher.StartRelay(ctx, m.relayPath, args); err != nil {
		m.metrics.launch(pathRelay, resultError)
		return fmt.Errorf("start relay: %w", err)
	}

	start := time.Now()
	pid, err := blk.Wait(ctx, m.pollInterval, m.pollAttempts)
	m.metrics.observeHandshake(time.Since(start))
	if err != nil {
		result := resultError
		if errors.Is(err, shm.ErrHandshakeTimeout) {
			result = resultTimeout
		}
		m.metrics.launch(pathRelay, result)
		return fmt.Errorf("wait for helper pid: %w", err)
	}

	h, err := m.launcher.Open(int(pid))
	if err != nil {
		m.metrics.launch(pathRelay, resultError)
		return fmt.Errorf("open helper: %w", err)
	}
	m.metrics.launch(pathRelay, resultOK)
	m.handle = h
	m.log.Infof("Launcher process %d started through relay", pid)
	return nil
}

// terminateProcess ends the helper. Failures are logged, not retried.
func (m *Module) terminateProcess() {
	if m.handle == nil {
		m.log.Debugf("Launcher has no process to terminate")
		return
	}
	if err := m.handle.Terminate(); err != nil {
		m.metrics.terminateFailed()
		m.log.Errorf("Launcher process was not terminated. %v", err)
	}
	m.releaseHandle()
}

func (m *Module) releaseHandle() {
	if m.handle == nil {
		return
	}
	if err := m.handle.Close(); err != nil {
		m.log.Warnf("Launcher process handle close: %v", err)
	}
	m.handle = nil
}

func (m *Module) signal() {
	if m.event == nil {
		return
	}
	if err := m.event.Set(); err != nil {
		m.log.Errorf("Launcher show event: %v", err)
	}
}

func (m *Module) resetSignal() {
	if m.event == nil {
		return
	}
	if err := m.event.Reset(); err != nil {
		m.log.Warnf("Launcher show event reset: %v", err)
	}
}
