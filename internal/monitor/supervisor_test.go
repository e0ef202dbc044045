package monitor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// testConfig keeps the prober off the real network: loopback target, one
// probe, short timeout, and an interval long enough that only the first
// cycle runs.
func testConfig() core.Config {
	cfg := core.Config{}
	cfg.Probe.Target = "127.0.0.1"
	cfg.Probe.Count = 1
	cfg.Probe.Timeout = "100ms"
	cfg.Probe.Interval = "1h"
	cfg.Probe.FallbackPort = 9
	return cfg
}

func quietLogger() *core.Logger {
	return core.NewLogger(core.LogConfig{Level: "off"})
}

func TestSupervisorRegisterOnce(t *testing.T) {
	sup := NewSupervisor(testConfig(), &platform.Platform{}, quietLogger())

	err := sup.Register(
		func(core.Status) {},
		func(core.SignalStatus) {},
		func(core.QualitySample) {},
		nil,
	)
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}

	err = sup.Register(
		func(core.Status) {},
		func(core.SignalStatus) {},
		func(core.QualitySample) {},
		nil,
	)
	if err != ErrAlreadyRegistered {
		t.Fatalf("second Register: got %v, want ErrAlreadyRegistered", err)
	}
}

func TestSupervisorStartShutdown(t *testing.T) {
	var watcherInits atomic.Int32
	plat := &platform.Platform{
		NewConnectivityWatcher: func(post func(bool)) (platform.ConnectivityWatcher, error) {
			watcherInits.Add(1)
			post(true)
			return &fakeWatcher{}, nil
		},
	}

	var statuses atomic.Int32
	sup := NewSupervisor(testConfig(), plat, quietLogger())
	sup.Register(
		func(core.Status) { statuses.Add(1) },
		func(core.SignalStatus) {},
		func(core.QualitySample) {},
		nil,
	)

	if err := sup.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Second Start while running: no second subscription.
	if err := sup.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	waitForState(t, sup, StateRunning)
	sup.Shutdown()

	if got := sup.State(); got != StateStopped {
		t.Fatalf("state after Shutdown: %v", got)
	}
	if n := watcherInits.Load(); n != 1 {
		t.Fatalf("watcher initialized %d times, want 1", n)
	}
	if statuses.Load() == 0 {
		t.Fatal("initial connectivity reading never delivered")
	}
}

func TestSupervisorShutdownWithoutStart(t *testing.T) {
	sup := NewSupervisor(testConfig(), &platform.Platform{}, quietLogger())
	sup.Shutdown() // must not block or panic
	if got := sup.State(); got != StateStopped {
		t.Fatalf("state: %v", got)
	}
}

func TestSupervisorRestartAfterShutdown(t *testing.T) {
	sup := NewSupervisor(testConfig(), &platform.Platform{}, quietLogger())
	sup.Register(
		func(core.Status) {},
		func(core.SignalStatus) {},
		func(core.QualitySample) {},
		nil,
	)

	if err := sup.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForState(t, sup, StateRunning)
	sup.Shutdown()

	if err := sup.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	waitForState(t, sup, StateRunning)
	sup.Shutdown()
}

func TestSupervisorConfigureAppliesAtStart(t *testing.T) {
	sup := NewSupervisor(testConfig(), &platform.Platform{}, quietLogger())
	sup.Configure(50, 20) // inverted: start normalizes to (50, 55)

	sup.mu.Lock()
	drop, recover := sup.thresholdDrop, sup.thresholdRecover
	sup.mu.Unlock()
	if drop != 50 || recover != 20 {
		t.Fatalf("stored thresholds: (%d, %d), want raw (50, 20)", drop, recover)
	}

	drop, recover = core.NormalizeThresholds(drop, recover)
	if drop != 50 || recover != 55 {
		t.Fatalf("normalized thresholds: (%d, %d), want (50, 55)", drop, recover)
	}
}

func waitForState(t *testing.T, sup *Supervisor, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sup.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never reached %v (now %v)", want, sup.State())
}
