package monitor

import (
	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// State is the monitor lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// outputs are the loop's downstream hooks, filled in by the supervisor.
// Both are invoked from the loop goroutine only.
type outputs struct {
	// connectivity receives every connectivity reading, duplicates included:
	// the watcher posts every OS notification and the loop does not
	// re-filter, so a disconnect/reconnect blip may surface as two identical
	// "connected" statuses downstream.
	connectivity func(st core.Status)
	// signal receives every forwarded reading; becameWeak / recovered flag
	// the hysteresis edges for transition-level reporting.
	signal func(st core.SignalStatus, becameWeak, recovered bool)
}

// loop is the single consumer of the mailbox. It owns all mutable monitor
// state; watchers only ever hand it messages.
type loop struct {
	mailbox *Mailbox
	plat    *platform.Platform
	log     *core.Logger
	out     outputs

	signalCtx *SignalContext
	connected bool

	connWatcher   platform.ConnectivityWatcher
	signalWatcher platform.SignalWatcher
}

// subscribe initializes both watchers. Failures are logged and non-fatal:
// the loop keeps serving whichever subsystem did come up.
func (lp *loop) subscribe() {
	if lp.plat.NewConnectivityWatcher != nil {
		w, err := lp.plat.NewConnectivityWatcher(lp.postConnectivity)
		if err != nil {
			lp.log.Errorf("Monitor", "Connectivity watcher init failed: %v", err)
		} else {
			lp.connWatcher = w
		}
	} else {
		lp.log.Warnf("Monitor", "Connectivity watcher unavailable on this platform")
	}

	if lp.plat.NewSignalWatcher != nil {
		w, err := lp.plat.NewSignalWatcher(lp.postSignal)
		if err != nil {
			lp.log.Errorf("Monitor", "Signal watcher init failed: %v", err)
		} else {
			lp.signalWatcher = w
		}
	} else {
		lp.log.Warnf("Monitor", "Signal watcher unavailable on this platform")
	}
}

// postConnectivity runs in watcher-callback context (arbitrary OS thread).
// It only forwards; all state changes happen on the loop goroutine.
func (lp *loop) postConnectivity(connected bool) {
	if err := lp.mailbox.Post(Message{Kind: MsgConnectivity, Connected: connected}); err != nil {
		lp.log.Warnf("Net", "Dropping connectivity event (connected=%v): %v", connected, err)
	}
}

// postSignal runs in watcher-callback context (possibly a driver thread with
// reentrancy constraints), so it must not block or call back into the OS.
func (lp *loop) postSignal(r platform.SignalReading) {
	if err := lp.mailbox.Post(Message{Kind: MsgSignal, Signal: r}); err != nil {
		lp.log.Warnf("Wlan", "Dropping signal event (quality=%d): %v", r.Quality, err)
	}
}

// serve drains the mailbox until a quit message arrives. Messages queued
// ahead of quit are processed first (FIFO, quit does not preempt).
func (lp *loop) serve() {
	for {
		msg := lp.mailbox.Receive()
		switch msg.Kind {
		case MsgQuit:
			return
		case MsgConnectivity:
			lp.handleConnectivity(msg.Connected)
		case MsgSignal:
			lp.handleSignal(msg.Signal)
		}
	}
}

func (lp *loop) handleConnectivity(connected bool) {
	was := lp.connected
	lp.connected = connected

	if connected != was {
		if connected {
			lp.log.Infof("Net", "Network connected")
		} else {
			lp.log.Infof("Net", "Network disconnected")
		}
	} else {
		lp.log.Debugf("Net", "Connectivity reading repeated (connected=%v)", connected)
	}

	var status uint32
	if connected {
		status = 1
	}
	lp.out.connectivity(core.Status{Status: status})
}

func (lp *loop) handleSignal(r platform.SignalReading) {
	if r.Disconnected {
		lp.signalCtx.Reset()
		lp.log.Infof("Wlan", "Wireless interface disconnected")
		// Quality 0, not-strong: no signal at all isn't a strong one. The
		// reset above only seeds the state machine for the next connection.
		lp.out.signal(core.SignalStatus{Strong: 0, Quality: 0, RSSI: 0}, false, false)
		return
	}

	flipped := lp.signalCtx.Apply(r.Quality)
	weak := lp.signalCtx.Weak()
	if flipped {
		drop, recover := lp.signalCtx.Thresholds()
		if weak {
			lp.log.Infof("Wlan", "Signal entered weak zone: quality=%d (drop<=%d)", r.Quality, drop)
		} else {
			lp.log.Infof("Wlan", "Signal recovered: quality=%d (recover>=%d)", r.Quality, recover)
		}
	} else {
		lp.log.Debugf("Wlan", "Signal quality=%d rssi=%d weak=%v", r.Quality, r.RSSI, weak)
	}

	strong := int32(1)
	if weak {
		strong = 0
	}
	lp.out.signal(
		core.SignalStatus{Strong: strong, Quality: r.Quality, RSSI: r.RSSI},
		flipped && weak,
		flipped && !weak,
	)
}

// teardown releases both watcher subscriptions. Best-effort: failures are
// logged and handle release proceeds regardless.
func (lp *loop) teardown() {
	if lp.connWatcher != nil {
		if err := lp.connWatcher.Close(); err != nil {
			lp.log.Warnf("Monitor", "Connectivity watcher close: %v", err)
		}
		lp.connWatcher = nil
	}
	if lp.signalWatcher != nil {
		if err := lp.signalWatcher.Close(); err != nil {
			lp.log.Warnf("Monitor", "Signal watcher close: %v", err)
		}
		lp.signalWatcher = nil
	}
}
