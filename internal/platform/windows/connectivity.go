//go:build windows

package windows

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// ---------------------------------------------------------------------------
// Connectivity hints via iphlpapi.dll
// ---------------------------------------------------------------------------

var (
	modIPHlpAPI = windows.NewLazySystemDLL("iphlpapi.dll")

	procGetNetworkConnectivityHint          = modIPHlpAPI.NewProc("GetNetworkConnectivityHint")
	procNotifyNetworkConnectivityHintChange = modIPHlpAPI.NewProc("NotifyNetworkConnectivityHintChange")
	procCancelMibChangeNotify2              = modIPHlpAPI.NewProc("CancelMibChangeNotify2")
)

// NL_NETWORK_CONNECTIVITY_LEVEL_HINT values.
const (
	connectivityLevelUnknown           = 0
	connectivityLevelNone              = 1
	connectivityLevelLocalAccess       = 2
	connectivityLevelInternetAccess    = 3
	connectivityLevelConstrainedAccess = 4
	connectivityLevelHidden            = 5
)

// NL_NETWORK_CONNECTIVITY_HINT. The aggregate hint already merges the IPv4
// and IPv6 families, so a single level covers both.
type networkConnectivityHint struct {
	ConnectivityLevel    int32
	ConnectivityCost     int32
	ApproachingDataLimit uint8
	OverDataLimit        uint8
	Roaming              uint8
}

// hintReportsConnected maps a connectivity level to the binary status the
// monitor exposes. Constrained access still reaches the internet.
func hintReportsConnected(level int32) bool {
	return level == connectivityLevelInternetAccess || level == connectivityLevelConstrainedAccess
}

// connectivityWatcher subscribes to stack-level connectivity hint changes.
type connectivityWatcher struct {
	handle   uintptr
	callback uintptr
	post     func(connected bool)
}

// NewConnectivityWatcher registers for connectivity hint notifications and
// immediately reports the current state so the first reading never waits for
// a network event.
func NewConnectivityWatcher(post func(connected bool)) (platform.ConnectivityWatcher, error) {
	w := &connectivityWatcher{post: post}

	// The hint struct is larger than a register, so the x64 ABI hands the
	// callback a pointer to it.
	w.callback = windows.NewCallback(func(callerContext uintptr, hint uintptr) uintptr {
		h := (*networkConnectivityHint)(unsafe.Pointer(hint))
		w.post(hintReportsConnected(h.ConnectivityLevel))
		return 0
	})

	// initialNotify=false: the initial state is queried explicitly below so
	// its delivery does not race the registration call returning.
	ret, _, _ := procNotifyNetworkConnectivityHintChange.Call(
		w.callback,
		0, // callerContext
		0, // initialNotify = FALSE
		uintptr(unsafe.Pointer(&w.handle)),
	)
	if ret != 0 {
		return nil, fmt.Errorf("NotifyNetworkConnectivityHintChange failed: %w", windows.Errno(ret))
	}

	var hint networkConnectivityHint
	ret, _, _ = procGetNetworkConnectivityHint.Call(uintptr(unsafe.Pointer(&hint)))
	if ret != 0 {
		core.Log.Warnf("Net", "GetNetworkConnectivityHint failed: %v", windows.Errno(ret))
	} else {
		w.post(hintReportsConnected(hint.ConnectivityLevel))
	}

	return w, nil
}

// Close cancels the notification registration. The call blocks until any
// in-flight callback returns, so no post arrives after Close.
func (w *connectivityWatcher) Close() error {
	if w.handle == 0 {
		return nil
	}
	ret, _, _ := procCancelMibChangeNotify2.Call(w.handle)
	w.handle = 0
	if ret != 0 {
		return fmt.Errorf("CancelMibChangeNotify2 failed: %w", windows.Errno(ret))
	}
	return nil
}
