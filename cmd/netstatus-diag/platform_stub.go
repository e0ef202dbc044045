//go:build !windows && !darwin

package main

import (
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// Unsupported platforms get an empty Platform: the monitor runs, emits
// nothing from the watchers, and the prober still measures quality.
func newPlatform() *platform.Platform {
	return &platform.Platform{}
}
