//go:build windows

// Package windows provides Windows-specific platform implementations.
package windows

import (
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// NewPlatform creates a Platform configured for Windows: connectivity hints
// and TCP counters from iphlpapi, wireless quality from wlanapi, toast
// notifications.
func NewPlatform() *platform.Platform {
	return &platform.Platform{
		NewConnectivityWatcher: NewConnectivityWatcher,
		NewSignalWatcher:       NewSignalWatcher,
		NewTCPStatsReader:      NewTCPStatsReader,
		Notifier:               &Notifier{},
	}
}
