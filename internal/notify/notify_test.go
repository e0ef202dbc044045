package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/SkyLord2/perception-network-status/internal/core"
)

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Show(title, message string) error {
	n.mu.Lock()
	n.titles = append(n.titles, title)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) shown() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.titles...)
}

func waitForShown(t *testing.T, n *recordingNotifier, want int) []string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got := n.shown(); len(got) >= want {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d notifications, got %v", want, n.shown())
	return nil
}

func newTestManager(n *recordingNotifier) *Manager {
	cfg := core.NotifyConfig{Enabled: true, ConnectivityLoss: true, WeakSignal: true}
	return NewManager(cfg, n, core.NewLogger(core.LogConfig{Level: "off"}))
}

func TestConnectivityEdgeDetection(t *testing.T) {
	n := &recordingNotifier{}
	m := newTestManager(n)

	// First reading only seeds the baseline.
	m.Connectivity(true)
	time.Sleep(20 * time.Millisecond)
	if got := n.shown(); len(got) != 0 {
		t.Fatalf("first reading notified: %v", got)
	}

	// Repeated reading: still no edge.
	m.Connectivity(true)
	time.Sleep(20 * time.Millisecond)
	if got := n.shown(); len(got) != 0 {
		t.Fatalf("repeated reading notified: %v", got)
	}

	m.Connectivity(false)
	got := waitForShown(t, n, 1)
	if got[0] != "Network lost" {
		t.Fatalf("got %q", got[0])
	}
}

func TestConnectivityThrottlesRepeatedEdges(t *testing.T) {
	n := &recordingNotifier{}
	m := newTestManager(n)

	m.Connectivity(true)
	m.Connectivity(false)
	waitForShown(t, n, 1)

	// Flap back and forth within the throttle window: the recovery edge is
	// suppressed because the connectivity key just fired.
	m.Connectivity(true)
	m.Connectivity(false)
	time.Sleep(50 * time.Millisecond)
	if got := n.shown(); len(got) != 1 {
		t.Fatalf("throttle let %d notifications through: %v", len(got), got)
	}
}

func TestSignalNotifications(t *testing.T) {
	n := &recordingNotifier{}
	m := newTestManager(n)

	m.SignalWeak(25)
	got := waitForShown(t, n, 1)
	if got[0] != "Weak wireless signal" {
		t.Fatalf("got %q", got[0])
	}

	// Recovery within the throttle window shares the signal key.
	m.SignalRecovered(45)
	time.Sleep(50 * time.Millisecond)
	if got := n.shown(); len(got) != 1 {
		t.Fatalf("signal throttle let %d notifications through: %v", len(got), got)
	}
}

func TestDisabledCategories(t *testing.T) {
	n := &recordingNotifier{}
	cfg := core.NotifyConfig{Enabled: true}
	m := NewManager(cfg, n, core.NewLogger(core.LogConfig{Level: "off"}))

	m.Connectivity(true)
	m.Connectivity(false)
	m.SignalWeak(10)
	time.Sleep(50 * time.Millisecond)
	if got := n.shown(); len(got) != 0 {
		t.Fatalf("disabled categories notified: %v", got)
	}
}
