package platform

import "errors"

// ErrUnsupported is returned by factory functions on platforms without an
// implementation for the requested subsystem. Callers treat it as a
// partial-capability condition, not a fatal error.
var ErrUnsupported = errors.New("not supported on this platform")

// SignalReading is one raw wireless notification captured by a SignalWatcher.
// The watcher does no hysteresis: it only forwards what the OS reported.
type SignalReading struct {
	// Disconnected marks an interface-disconnect notification. Quality and
	// RSSI are meaningless when set.
	Disconnected bool
	Quality      uint32
	RSSI         int32
}

// ConnectivityWatcher subscribes to system connectivity-change notifications.
// The post callback supplied at construction may be invoked from arbitrary
// OS-managed threads and must never block.
type ConnectivityWatcher interface {
	// Close unsubscribes and releases OS handles. Best-effort: unsubscribe
	// failures are logged by the implementation, never returned as fatal.
	Close() error
}

// SignalWatcher subscribes to wireless signal/connection notifications.
// Same threading contract as ConnectivityWatcher.
type SignalWatcher interface {
	Close() error
}

// TCPCounters is a cumulative system-wide TCP segment counter pair.
type TCPCounters struct {
	SegmentsSent          int64
	SegmentsRetransmitted int64
}

// TCPStatsReader reads cumulative TCP statistics from the system.
type TCPStatsReader interface {
	Read() (TCPCounters, error)
}

// Notifier sends system notifications.
type Notifier interface {
	// Show displays a system notification.
	Show(title, message string) error
}
