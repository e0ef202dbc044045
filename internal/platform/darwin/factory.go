//go:build darwin

// Package darwin provides macOS-specific platform implementations:
// PF_ROUTE connectivity watching, netstat TCP counters, osascript
// notifications.
package darwin

import (
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// NewPlatform creates a Platform configured for macOS. There is no wireless
// signal watcher: CoreWLAN has no stable C surface to reach without cgo, so
// signal monitoring reports unsupported and the monitor runs without it.
func NewPlatform() *platform.Platform {
	return &platform.Platform{
		NewConnectivityWatcher: NewConnectivityWatcher,
		NewSignalWatcher: func(post func(platform.SignalReading)) (platform.SignalWatcher, error) {
			return nil, platform.ErrUnsupported
		},
		NewTCPStatsReader: NewTCPStatsReader,
		Notifier:          &Notifier{},
	}
}
