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
// Wireless signal via wlanapi.dll
// ---------------------------------------------------------------------------

var (
	modWlanAPI = windows.NewLazySystemDLL("wlanapi.dll")

	procWlanOpenHandle           = modWlanAPI.NewProc("WlanOpenHandle")
	procWlanCloseHandle          = modWlanAPI.NewProc("WlanCloseHandle")
	procWlanEnumInterfaces       = modWlanAPI.NewProc("WlanEnumInterfaces")
	procWlanRegisterNotification = modWlanAPI.NewProc("WlanRegisterNotification")
	procWlanQueryInterface       = modWlanAPI.NewProc("WlanQueryInterface")
	procWlanFreeMemory           = modWlanAPI.NewProc("WlanFreeMemory")
)

const (
	wlanAPIVersion = 2

	wlanNotificationSourceNone = 0x0
	wlanNotificationSourceMSM  = 0x10

	// wlan_notification_msm codes.
	wlanMSMConnected           = 4
	wlanMSMSignalQualityChange = 8
	wlanMSMDisconnected        = 11

	// wlan_intf_opcode_current_connection
	wlanOpcodeCurrentConnection = 7
)

// WLAN_NOTIFICATION_DATA (x64, 40 bytes).
//
// Layout:
//   0:  DWORD NotificationSource
//   4:  DWORD NotificationCode
//   8:  GUID  InterfaceGuid      (16)
//  24:  DWORD dwDataSize         (4 + 4 pad)
//  32:  PVOID pData
type wlanNotificationData struct {
	NotificationSource uint32
	NotificationCode   uint32
	InterfaceGUID      windows.GUID
	DataSize           uint32
	_                  uint32
	Data               uintptr
}

// Offsets within WLAN_CONNECTION_ATTRIBUTES (x64).
//
// Layout:
//    0:  WLAN_INTERFACE_STATE isState
//    4:  WLAN_CONNECTION_MODE wlanConnectionMode
//    8:  WCHAR strProfileName[256]            (512)
//  520:  WLAN_ASSOCIATION_ATTRIBUTES:
//        520: DOT11_SSID {ULONG uSSIDLength; UCHAR ucSSID[32]} (36)
//        556: DOT11_BSS_TYPE dot11BssType
//        560: DOT11_MAC_ADDRESS dot11Bssid    (6 + 2 pad)
//        568: DOT11_PHY_TYPE dot11PhyType
//        572: ULONG uDot11PhyIndex
//        576: WLAN_SIGNAL_QUALITY wlanSignalQuality
//        580: ULONG ulRxRate
//        584: ULONG ulTxRate
const connAttrSignalQuality = 576

// signalWatcher subscribes to MSM notifications on the first wireless
// interface and forwards every quality change. Filtering and hysteresis
// happen downstream.
type signalWatcher struct {
	handle   windows.Handle
	guid     windows.GUID
	callback uintptr
	post     func(platform.SignalReading)
}

// NewSignalWatcher opens a WLAN session, registers for media-specific module
// notifications and posts the current connection quality as the first
// reading. Hosts without a wireless adapter get platform.ErrUnsupported.
func NewSignalWatcher(post func(platform.SignalReading)) (platform.SignalWatcher, error) {
	var negotiated uint32
	var handle windows.Handle
	ret, _, _ := procWlanOpenHandle.Call(
		wlanAPIVersion,
		0, // reserved
		uintptr(unsafe.Pointer(&negotiated)),
		uintptr(unsafe.Pointer(&handle)),
	)
	if ret != 0 {
		return nil, fmt.Errorf("WlanOpenHandle failed: %w", windows.Errno(ret))
	}

	guid, err := firstWirelessInterface(handle)
	if err != nil {
		procWlanCloseHandle.Call(uintptr(handle), 0)
		return nil, err
	}

	w := &signalWatcher{handle: handle, guid: guid, post: post}
	w.callback = windows.NewCallback(func(data uintptr, context uintptr) uintptr {
		w.handleNotification((*wlanNotificationData)(unsafe.Pointer(data)))
		return 0
	})

	ret, _, _ = procWlanRegisterNotification.Call(
		uintptr(handle),
		wlanNotificationSourceMSM,
		1, // ignore duplicates
		w.callback,
		0, // callback context
		0, // reserved
		0, // previous notification source not needed
	)
	if ret != 0 {
		procWlanCloseHandle.Call(uintptr(handle), 0)
		return nil, fmt.Errorf("WlanRegisterNotification failed: %w", windows.Errno(ret))
	}

	// Seed the first reading from the current connection so consumers do not
	// wait for the driver to report a change.
	if quality, err := w.querySignalQuality(); err == nil {
		w.post(platform.SignalReading{Quality: quality})
	}

	return w, nil
}

func (w *signalWatcher) handleNotification(n *wlanNotificationData) {
	if n.NotificationSource != wlanNotificationSourceMSM {
		return
	}
	switch n.NotificationCode {
	case wlanMSMSignalQualityChange:
		// pData points at the new WLAN_SIGNAL_QUALITY.
		if n.Data != 0 && n.DataSize >= 4 {
			quality := *(*uint32)(unsafe.Pointer(n.Data))
			w.post(platform.SignalReading{Quality: quality})
		}
	case wlanMSMConnected:
		quality, err := w.querySignalQuality()
		if err != nil {
			core.Log.Warnf("Wlan", "Query after connect failed: %v", err)
			return
		}
		w.post(platform.SignalReading{Quality: quality})
	case wlanMSMDisconnected:
		w.post(platform.SignalReading{Disconnected: true})
	}
}

// querySignalQuality reads WLAN_CONNECTION_ATTRIBUTES for the watched
// interface. The driver reports quality 0..100; RSSI in dBm is not part of
// the connection attributes, so readings carry quality only.
func (w *signalWatcher) querySignalQuality() (uint32, error) {
	var dataSize uint32
	var data uintptr
	ret, _, _ := procWlanQueryInterface.Call(
		uintptr(w.handle),
		uintptr(unsafe.Pointer(&w.guid)),
		wlanOpcodeCurrentConnection,
		0, // reserved
		uintptr(unsafe.Pointer(&dataSize)),
		uintptr(unsafe.Pointer(&data)),
		0, // opcode value type not needed
	)
	if ret != 0 {
		return 0, fmt.Errorf("WlanQueryInterface failed: %w", windows.Errno(ret))
	}
	defer procWlanFreeMemory.Call(data)

	if dataSize < connAttrSignalQuality+4 {
		return 0, fmt.Errorf("connection attributes truncated: %d bytes", dataSize)
	}
	quality := *(*uint32)(unsafe.Pointer(data + connAttrSignalQuality))
	return quality, nil
}

// firstWirelessInterface picks the first enumerated WLAN interface. Multiple
// adapters are rare on end-user machines; the first one is the one the OS
// routes wireless traffic through.
func firstWirelessInterface(handle windows.Handle) (windows.GUID, error) {
	var list uintptr
	ret, _, _ := procWlanEnumInterfaces.Call(
		uintptr(handle),
		0, // reserved
		uintptr(unsafe.Pointer(&list)),
	)
	if ret != 0 {
		return windows.GUID{}, fmt.Errorf("WlanEnumInterfaces failed: %w", windows.Errno(ret))
	}
	defer procWlanFreeMemory.Call(list)

	// WLAN_INTERFACE_INFO_LIST: DWORD dwNumberOfItems, DWORD dwIndex,
	// WLAN_INTERFACE_INFO InterfaceInfo[] starting at offset 8.
	count := *(*uint32)(unsafe.Pointer(list))
	if count == 0 {
		return windows.GUID{}, platform.ErrUnsupported
	}
	guid := *(*windows.GUID)(unsafe.Pointer(list + 8))
	return guid, nil
}

// Close unregisters the notification callback and releases the WLAN session
// handle. Unregistration blocks until any in-flight callback returns.
func (w *signalWatcher) Close() error {
	if w.handle == 0 {
		return nil
	}
	// Re-register with an empty source mask to stop deliveries before the
	// handle goes away.
	procWlanRegisterNotification.Call(
		uintptr(w.handle),
		wlanNotificationSourceNone,
		1,
		0,
		0,
		0,
		0,
	)
	ret, _, _ := procWlanCloseHandle.Call(uintptr(w.handle), 0)
	w.handle = 0
	if ret != 0 {
		return fmt.Errorf("WlanCloseHandle failed: %w", windows.Errno(ret))
	}
	return nil
}
