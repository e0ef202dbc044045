// Package platform defines the OS-facing seams of the network monitor.
// Concrete implementations live in platform/windows and platform/darwin;
// callers obtain a populated Platform from the platform-specific factory.
package platform

// Platform aggregates all platform-specific implementations.
// Populated by the factory (NewPlatform) in platform/windows/ or
// platform/darwin/. Factory fields return ErrUnsupported where the OS has
// no implementation; the monitor degrades to whatever did initialize.
type Platform struct {
	// NewConnectivityWatcher subscribes to connectivity-change notifications.
	// post receives the derived connected/disconnected boolean and is safe to
	// call from any thread. The watcher posts the current state once at
	// subscription time.
	NewConnectivityWatcher func(post func(connected bool)) (ConnectivityWatcher, error)

	// NewSignalWatcher subscribes to wireless signal notifications. post
	// receives raw readings; an initial reading for the first wireless
	// interface is posted at subscription time when one is available.
	NewSignalWatcher func(post func(SignalReading)) (SignalWatcher, error)

	// NewTCPStatsReader returns a reader for cumulative TCP segment counters.
	NewTCPStatsReader func() (TCPStatsReader, error)

	// Notifier sends desktop notifications. May be nil.
	Notifier Notifier
}
