package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/srediag/quicklaunch/api"
	"github.com/srediag/quicklaunch/internal/logging"
	"github.com/srediag/quicklaunch/pkg/coord"
	"github.com/srediag/quicklaunch/pkg/process"
	"github.com/srediag/quicklaunch/pkg/settings"
	"github.com/srediag/quicklaunch/pkg/shm"
)

type fakeHandle struct {
	mu           sync.Mutex
	pid          int
	exited       bool
	terminated   int
	closed       bool
	terminateErr error
}

func (h *fakeHandle) Pid() int { return h.pid }

func (h *fakeHandle) Exited() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited
}

func (h *fakeHandle) exit() {
	h.mu.Lock()
	h.exited = true
	h.mu.Unlock()
}

func (h *fakeHandle) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terminated++
	if h.terminateErr != nil {
		return h.terminateErr
	}
	h.exited = true
	return nil
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

// fakeLauncher records launches. As a relay it publishes nextPID to the
// handshake block named on its command line, unless publish is false.
type fakeLauncher struct {
	nextPID   int
	publish   bool
	startErr  error
	direct    [][]string
	relay     [][]string
	opened    []int
	handles   []*fakeHandle
	relayPath string
}

func (l *fakeLauncher) newHandle(pid int) *fakeHandle {
	h := &fakeHandle{pid: pid}
	l.handles = append(l.handles, h)
	return h
}

func (l *fakeLauncher) StartDirect(_ context.Context, path string, args []string) (process.Handle, error) {
	if l.startErr != nil {
		return nil, l.startErr
	}
	l.direct = append(l.direct, append([]string{path}, args...))
	l.nextPID++
	return l.newHandle(l.nextPID), nil
}

func (l *fakeLauncher) StartRelay(ctx context.Context, path string, args []string) error {
	if l.startErr != nil {
		return l.startErr
	}
	l.relayPath = path
	l.relay = append(l.relay, args)
	if !l.publish {
		return nil
	}
	var name string
	for i, a := range args {
		if a == FlagPidFile && i+1 < len(args) {
			name = args[i+1]
		}
	}
	blk, err := shm.OpenPidBlock(ctx, name)
	if err != nil {
		return err
	}
	defer blk.Close() //nolint:errcheck
	l.nextPID++
	return blk.Publish(uint32(l.nextPID))
}

func (l *fakeLauncher) Open(pid int) (process.Handle, error) {
	l.opened = append(l.opened, pid)
	return l.newHandle(pid), nil
}

func (l *fakeLauncher) last() *fakeHandle {
	if len(l.handles) == 0 {
		return nil
	}
	return l.handles[len(l.handles)-1]
}

type ModuleTestSuite struct {
	suite.Suite
	channel  coord.Channel
	launcher *fakeLauncher
	elevated bool
	store    *settings.Store
	reg      *prometheus.Registry
	metrics  *Metrics
	peer     *shm.Event
	module   *Module
}

func TestModuleSuite(t *testing.T) {
	suite.Run(t, new(ModuleTestSuite))
}

func (s *ModuleTestSuite) SetupTest() {
	id := fmt.Sprintf("%d-%d", os.Getpid(), time.Now().UnixNano())
	s.channel = coord.Channel{
		EventName:    `Local\quicklaunch-test-event-` + id,
		PidBlockName: `Local\quicklaunch-test-pid-` + id,
	}
	s.launcher = &fakeLauncher{nextPID: 100, publish: true}
	s.elevated = false
	s.store = &settings.Store{Root: s.T().TempDir()}
	s.reg = prometheus.NewRegistry()
	var err error
	s.metrics, err = NewMetrics(s.reg)
	s.Require().NoError(err)
	s.module = s.newModule()

	// The helper's side of the show event.
	s.peer, err = shm.OpenEvent(context.Background(), s.channel.EventName)
	s.Require().NoError(err)
}

func (s *ModuleTestSuite) TearDownTest() {
	s.Require().NoError(s.peer.Close())
	s.module.Destroy()
}

func (s *ModuleTestSuite) newModule(opts ...Option) *Module {
	base := []Option{
		WithChannel(s.channel),
		WithLauncher(s.launcher),
		WithStore(s.store),
		WithElevation(func() bool { return s.elevated }),
		WithPolling(time.Millisecond, 20),
		WithHelperPath("helper"),
		WithRelayPath("relay"),
		WithHostPID(77),
		WithLogger(logging.Discard()),
		WithMetrics(s.metrics),
	}
	return New(append(base, opts...)...)
}

func (s *ModuleTestSuite) signalled() bool {
	ok, err := s.peer.TryWait()
	s.Require().NoError(err)
	return ok
}

func (s *ModuleTestSuite) TestNewModuleIsDisabled() {
	s.False(s.module.IsEnabled())
	s.Equal(StateDisabled, s.module.State())
	s.Equal(ModuleKey, s.module.Key())
	s.Equal(DefaultName, s.module.Name())
	s.Empty(s.module.Hotkeys())
	s.False(s.module.ProcessAlive())
}

func (s *ModuleTestSuite) TestEnable_DirectLaunch() {
	s.module.Enable()

	s.True(s.module.IsEnabled())
	s.Equal(StateEnabledWithProcess, s.module.State())
	s.NoError(s.module.LastError())
	s.Require().Len(s.launcher.direct, 1)
	s.Equal([]string{"helper", FlagHostPID, "77", FlagCentralizedHook}, s.launcher.direct[0])
	s.Empty(s.launcher.relay)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.launches.WithLabelValues(pathDirect, resultOK)))
}

func (s *ModuleTestSuite) TestEnable_ElevatedGoesThroughRelay() {
	s.elevated = true
	s.module.Enable()

	s.True(s.module.IsEnabled())
	s.Equal(StateEnabledWithProcess, s.module.State())
	s.Empty(s.launcher.direct)
	s.Require().Len(s.launcher.relay, 1)
	s.Equal("relay", s.launcher.relayPath)
	s.Equal(RelayArgs("helper", s.channel.PidBlockName, 77), s.launcher.relay[0])
	s.Equal([]int{101}, s.launcher.opened)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.launches.WithLabelValues(pathRelay, resultOK)))
	s.Equal(1, testutil.CollectAndCount(s.metrics.handshake))
}

func (s *ModuleTestSuite) TestEnable_HandshakeTimeoutLeavesModuleEnabled() {
	s.elevated = true
	s.launcher.publish = false
	s.module.Enable()

	s.True(s.module.IsEnabled())
	s.Equal(StateEnabledNoProcess, s.module.State())
	s.ErrorIs(s.module.LastError(), shm.ErrHandshakeTimeout)
	s.Empty(s.launcher.opened)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.launches.WithLabelValues(pathRelay, resultTimeout)))

	// The next hotkey press retries the launch.
	s.launcher.publish = true
	s.True(s.module.OnHotkey(0))
	s.Equal(StateEnabledWithProcess, s.module.State())
	s.NoError(s.module.LastError())
	s.True(s.signalled())
}

func (s *ModuleTestSuite) TestEnable_StartFailureIsRecorded() {
	boom := errors.New("no such file")
	s.launcher.startErr = boom
	s.module.Enable()

	s.True(s.module.IsEnabled())
	s.Equal(StateEnabledNoProcess, s.module.State())
	s.ErrorIs(s.module.LastError(), boom)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.launches.WithLabelValues(pathDirect, resultError)))
}

func (s *ModuleTestSuite) TestEnable_RunningProcessIsKept() {
	s.module.Enable()
	s.module.Enable()
	s.Len(s.launcher.direct, 1)
}

func (s *ModuleTestSuite) TestEnable_ClearsPendingSignal() {
	s.module.Enable()
	s.True(s.module.OnHotkey(0))
	s.module.Disable()
	s.module.Enable()
	s.False(s.signalled())
}

func (s *ModuleTestSuite) TestDisable_TerminatesProcess() {
	s.module.Enable()
	h := s.launcher.last()

	s.module.Disable()
	s.False(s.module.IsEnabled())
	s.Equal(StateDisabled, s.module.State())
	s.Equal(1, h.terminated)
	s.True(h.closed)

	s.module.Disable()
	s.Equal(1, h.terminated, "disabling twice terminates once")
}

func (s *ModuleTestSuite) TestDisable_TerminateFailureIsCounted() {
	s.module.Enable()
	s.launcher.last().terminateErr = errors.New("access denied")

	s.module.Disable()
	s.False(s.module.IsEnabled())
	s.False(s.module.ProcessAlive())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.terminateFailures))
}

func (s *ModuleTestSuite) TestOnHotkey_DisabledDoesNothing() {
	s.False(s.module.OnHotkey(0))
	s.False(s.signalled())
	s.Empty(s.launcher.direct)
}

func (s *ModuleTestSuite) TestOnHotkey_SignalsRunningProcess() {
	s.module.Enable()
	s.True(s.module.OnHotkey(0))
	s.True(s.signalled())
	s.False(s.signalled(), "the event is auto-reset")
	s.Len(s.launcher.direct, 1)
}

func (s *ModuleTestSuite) TestOnHotkey_RestartsExitedProcess() {
	s.module.Enable()
	s.launcher.last().exit()

	s.True(s.module.OnHotkey(0))
	s.Len(s.launcher.direct, 2)
	s.Equal(StateEnabledWithProcess, s.module.State())
	s.True(s.signalled())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.restarts))
}

func (s *ModuleTestSuite) TestSetConfig_BindsHotkeyAndPersists() {
	s.module.SetConfig([]byte(`{"name":"Launcher","properties":{"open_powerlauncher":{"win":false,"alt":true,"ctrl":false,"shift":false,"code":32}}}`))

	want := api.Hotkey{Alt: true, Key: 32}
	s.Equal([]api.Hotkey{want}, s.module.Hotkeys())

	reloaded := s.newModule()
	defer reloaded.Destroy()
	s.Equal(want, reloaded.Hotkey())
}

func (s *ModuleTestSuite) TestSetConfig_MalformedHotkeyUnbinds() {
	s.module.SetConfig([]byte(`{"properties":{"open_powerlauncher":{"win":false,"alt":true,"ctrl":false,"shift":false,"code":32}}}`))
	s.Require().Len(s.module.Hotkeys(), 1)

	s.module.SetConfig([]byte(`{"properties":{"open_powerlauncher":{"alt":true}}}`))
	s.Empty(s.module.Hotkeys())
	s.True(s.module.Hotkey().Alt, "modifiers keep their previous value")
}

func (s *ModuleTestSuite) TestSetConfig_NotJSONIsIgnored() {
	s.module.SetConfig([]byte(`{"properties":{"open_powerlauncher":{"win":true,"alt":false,"ctrl":false,"shift":false,"code":65}}}`))
	s.module.SetConfig([]byte(`not json`))
	s.Len(s.module.Hotkeys(), 1)
}

func (s *ModuleTestSuite) TestConfig_ContainsHotkey() {
	s.module.SetConfig([]byte(`{"properties":{"open_powerlauncher":{"win":false,"alt":true,"ctrl":false,"shift":false,"code":32}}}`))

	doc, ok := s.module.Config()
	s.Require().True(ok)

	var page struct {
		Name       string `json:"name"`
		Properties map[string]struct {
			Value      api.Hotkey `json:"value"`
			EditorType string     `json:"editor_type"`
		} `json:"properties"`
	}
	s.Require().NoError(json.Unmarshal(doc, &page))
	s.Equal(DefaultName, page.Name)
	prop := page.Properties[settings.HotkeyProperty]
	s.Equal("hotkey", prop.EditorType)
	s.Equal(api.Hotkey{Alt: true, Key: 32}, prop.Value)
}

func (s *ModuleTestSuite) TestCallCustomActionIsHarmless() {
	s.module.CallCustomAction([]byte(`{"action":{"Launcher":{"action_name":"noop","value":""}}}`))
	s.module.CallCustomAction([]byte(`garbage`))
	s.False(s.module.IsEnabled())
}

func (s *ModuleTestSuite) TestDestroy_TerminatesWhenEnabled() {
	m := s.newModule()
	m.Enable()
	h := s.launcher.last()

	m.Destroy()
	s.Equal(1, h.terminated)
	s.False(m.IsEnabled())
}

func (s *ModuleTestSuite) TestStateString() {
	s.Equal("Disabled", StateDisabled.String())
	s.Equal("Enabled-NoProcess", StateEnabledNoProcess.String())
	s.Equal("Enabled-WithProcess", StateEnabledWithProcess.String())
	s.Equal("State(9)", State(9).String())
}

func TestNewMetricsReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	a.restart()
	if got := testutil.ToFloat64(b.restarts); got != 1 {
		t.Fatalf("restarts = %v, want 1", got)
	}
	var nilMetrics *Metrics
	nilMetrics.restart()
	nilMetrics.launch(pathDirect, resultOK)
}

func TestDefaultPollingWindow(t *testing.T) {
	if DefaultPollAttempts != 80 {
		t.Fatalf("DefaultPollAttempts = %d, want 80", DefaultPollAttempts)
	}
	if got := DefaultPollInterval * DefaultPollAttempts; got != 4*time.Second {
		t.Fatalf("poll window = %v, want 4s", got)
	}
}
