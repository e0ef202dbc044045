//go:build darwin

package main

import (
	"github.com/SkyLord2/perception-network-status/internal/platform"
	platformDarwin "github.com/SkyLord2/perception-network-status/internal/platform/darwin"
)

func newPlatform() *platform.Platform {
	return platformDarwin.NewPlatform()
}
