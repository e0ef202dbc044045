//go:build darwin

package darwin

import (
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// Route message types we care about (from <net/route.h>).
const (
	rtmNewAddr = 0xC // RTM_NEWADDR — address added
	rtmDelAddr = 0xD // RTM_DELADDR — address removed
	rtmIfInfo  = 0xE // RTM_IFINFO — interface state change
	rtmAdd     = 0x1 // RTM_ADD — route added
	rtmDelete  = 0x2 // RTM_DELETE — route deleted
	rtmChange  = 0x3 // RTM_CHANGE — route changed
)

// rtMsghdr is the header of a routing socket message (macOS version 5).
// Only the first 4 bytes (msglen uint16, version uint8, type uint8) are needed.
const rtMsghdrMinSize = 4

const debounceDuration = 2 * time.Second

// connectivityWatcher watches for network changes via a PF_ROUTE socket and
// re-evaluates internet reachability after each (debounced) burst of routing
// events.
type connectivityWatcher struct {
	routeFD int
	post    func(connected bool)
	done    chan struct{}
	stopped chan struct{}

	// Debounce: collapse rapid events into one evaluation via timer reset.
	mu    sync.Mutex
	timer *time.Timer
}

// NewConnectivityWatcher opens a routing socket and reports the current
// reachability immediately, then after every routing change.
func NewConnectivityWatcher(post func(connected bool)) (platform.ConnectivityWatcher, error) {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return nil, err
	}

	w := &connectivityWatcher{
		routeFD: fd,
		post:    post,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	core.Log.Infof("Net", "Connectivity watcher started (PF_ROUTE socket)")

	w.post(hasDefaultRoute())
	return w, nil
}

// Close shuts the route socket and stops the watcher goroutine.
func (w *connectivityWatcher) Close() error {
	close(w.done)
	// Stop debounce timer to prevent a post after shutdown.
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	// Closing the fd unblocks the Read in the loop goroutine.
	err := unix.Close(w.routeFD)
	<-w.stopped
	core.Log.Infof("Net", "Connectivity watcher stopped")
	return err
}

// loop reads routing messages and fires debounced evaluations.
func (w *connectivityWatcher) loop() {
	defer close(w.stopped)

	buf := make([]byte, 4096)
	for {
		select {
		case <-w.done:
			return
		default:
		}

		n, err := unix.Read(w.routeFD, buf)
		if err != nil {
			select {
			case <-w.done:
				return // expected: fd closed during shutdown
			default:
				core.Log.Warnf("Net", "Route socket read error: %v", err)
				return
			}
		}
		if n < rtMsghdrMinSize {
			continue
		}

		msgType := buf[3]
		if w.isRelevant(msgType) {
			w.fireDebounced()
		}
	}
}

// isRelevant returns true for routing message types that indicate network changes.
func (w *connectivityWatcher) isRelevant(msgType byte) bool {
	switch msgType {
	case rtmNewAddr, rtmDelAddr, rtmIfInfo, rtmAdd, rtmDelete, rtmChange:
		return true
	default:
		return false
	}
}

// fireDebounced schedules a reachability evaluation with a 2-second debounce.
// Uses time.AfterFunc + Reset to guarantee exactly one evaluation fires
// debounceDuration after the LAST event in a burst.
func (w *connectivityWatcher) fireDebounced() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer == nil {
		w.timer = time.AfterFunc(debounceDuration, func() {
			select {
			case <-w.done:
				return
			default:
				connected := hasDefaultRoute()
				core.Log.Debugf("Net", "Network change detected, connected=%v", connected)
				w.post(connected)
			}
		})
	} else {
		w.timer.Reset(debounceDuration)
	}
}

// hasDefaultRoute reports whether a default route exists for either address
// family. A default route is the closest routing-table proxy for internet
// reachability.
func hasDefaultRoute() bool {
	if exec.Command("route", "-n", "get", "default").Run() == nil {
		return true
	}
	return exec.Command("route", "-n", "get", "-inet6", "default").Run() == nil
}
