// Package notify raises throttled desktop notifications for network status
// transitions. Delivery goes through the platform Notifier; everything here
// is fired on a separate goroutine so the monitor loop never waits on the
// OS notification machinery.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

const defaultThrottle = 30 * time.Second

// Manager sends status-transition notifications with per-key throttling.
type Manager struct {
	notifier platform.Notifier
	log      *core.Logger

	mu               sync.Mutex
	connectivityLoss bool
	weakSignal       bool
	lastNotif        map[string]time.Time
	throttle         time.Duration
	wasConnected     *bool // nil until the first reading seeds the edge detector
}

// NewManager creates a manager honoring the notification config.
func NewManager(cfg core.NotifyConfig, notifier platform.Notifier, log *core.Logger) *Manager {
	if log == nil {
		log = core.Log
	}
	return &Manager{
		notifier:         notifier,
		log:              log,
		connectivityLoss: cfg.ConnectivityLoss,
		weakSignal:       cfg.WeakSignal,
		lastNotif:        make(map[string]time.Time),
		throttle:         defaultThrottle,
	}
}

// Connectivity feeds a connectivity reading through the edge detector.
// The first reading only seeds the baseline; after that, a true→false edge
// notifies about the loss and a false→true edge about the recovery.
func (m *Manager) Connectivity(connected bool) {
	m.mu.Lock()
	if !m.connectivityLoss {
		m.mu.Unlock()
		return
	}
	was := m.wasConnected
	m.wasConnected = &connected
	if was == nil || *was == connected {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if connected {
		m.send("connectivity", "Network restored", "Internet connectivity is back.")
	} else {
		m.send("connectivity", "Network lost", "Internet connectivity was lost.")
	}
}

// SignalWeak notifies that the wireless signal entered the weak zone.
func (m *Manager) SignalWeak(quality uint32) {
	m.mu.Lock()
	enabled := m.weakSignal
	m.mu.Unlock()
	if !enabled {
		return
	}
	m.send("signal", "Weak wireless signal", fmt.Sprintf("Signal quality dropped to %d.", quality))
}

// SignalRecovered notifies that the wireless signal left the weak zone.
func (m *Manager) SignalRecovered(quality uint32) {
	m.mu.Lock()
	enabled := m.weakSignal
	m.mu.Unlock()
	if !enabled {
		return
	}
	m.send("signal", "Wireless signal recovered", fmt.Sprintf("Signal quality is back at %d.", quality))
}

// send delivers one notification unless the key fired within the throttle
// window. Delivery happens on its own goroutine.
func (m *Manager) send(key, title, message string) {
	m.mu.Lock()
	if time.Since(m.lastNotif[key]) < m.throttle {
		m.mu.Unlock()
		return
	}
	m.lastNotif[key] = time.Now()
	m.mu.Unlock()

	go func() {
		if err := m.notifier.Show(title, message); err != nil {
			m.log.Warnf("Notify", "Notification failed: %v", err)
		}
	}()
}
