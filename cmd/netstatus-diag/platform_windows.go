//go:build windows

package main

import (
	"github.com/SkyLord2/perception-network-status/internal/platform"
	platformWindows "github.com/SkyLord2/perception-network-status/internal/platform/windows"
)

func newPlatform() *platform.Platform {
	return platformWindows.NewPlatform()
}
