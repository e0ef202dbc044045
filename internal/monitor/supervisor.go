// Package monitor contains the monitoring engine: the mailbox that
// serializes OS notifications onto one consumer goroutine, the signal
// hysteresis state machine, the monitor loop, and the supervisor the
// embedding host talks to.
package monitor

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/notify"
	"github.com/SkyLord2/perception-network-status/internal/platform"
	"github.com/SkyLord2/perception-network-status/internal/probe"
)

// ErrAlreadyRegistered is returned by Register when output callbacks were
// already installed. A rejected registration has no side effects.
var ErrAlreadyRegistered = errors.New("monitor callbacks already registered")

// Supervisor owns the lifecycle of the monitor goroutine and the quality
// prober, and holds the host-facing callback registrations. There is no
// package-level mutable state: everything lives here, so embedding hosts
// can hold exactly one Supervisor for the process.
type Supervisor struct {
	cfg  core.Config
	plat *platform.Platform
	log  *core.Logger

	mu             sync.Mutex
	registered     bool
	onConnectivity func(core.Status)
	onSignal       func(core.SignalStatus)
	onQuality      func(core.QualitySample)

	thresholdDrop    uint32
	thresholdRecover uint32

	notifications *notify.Manager

	started atomic.Bool
	state   atomic.Int32

	runMu   sync.Mutex // guards mailbox/done hand-over between sessions
	mailbox *Mailbox
	done    chan struct{}
}

// NewSupervisor creates a supervisor for the given platform. log may be nil
// (the package default logger is used).
func NewSupervisor(cfg core.Config, plat *platform.Platform, log *core.Logger) *Supervisor {
	if log == nil {
		log = core.Log
	}
	s := &Supervisor{
		cfg:              cfg,
		plat:             plat,
		log:              log,
		thresholdDrop:    cfg.Signal.ThresholdDrop,
		thresholdRecover: cfg.Signal.ThresholdRecover,
	}
	if cfg.Notifications.Enabled && plat.Notifier != nil {
		s.notifications = notify.NewManager(cfg.Notifications, plat.Notifier, log)
	}
	return s
}

// Register installs the host's output callbacks. Each of the three status
// callbacks receives one value and must never block; onLog receives every
// formatted log line. Registration is accepted at most once; a second call
// fails with ErrAlreadyRegistered and changes nothing.
func (s *Supervisor) Register(
	onConnectivity func(core.Status),
	onSignal func(core.SignalStatus),
	onQuality func(core.QualitySample),
	onLog func(string),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registered {
		return ErrAlreadyRegistered
	}
	s.registered = true
	s.onConnectivity = onConnectivity
	s.onSignal = onSignal
	s.onQuality = onQuality

	if onLog != nil {
		s.log.SetSink(core.LogSink(onLog))
	}
	return nil
}

// Configure sets the signal hysteresis thresholds. Read once when the
// monitor starts; the pair is normalized at that point (recover is forced
// above drop, see core.NormalizeThresholds).
func (s *Supervisor) Configure(thresholdDrop, thresholdRecover uint32) {
	s.mu.Lock()
	s.thresholdDrop = thresholdDrop
	s.thresholdRecover = thresholdRecover
	s.mu.Unlock()
}

// State returns the monitor lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Start launches the monitor goroutine and the quality prober. Idempotent:
// starting an already-running supervisor is a logged no-op — no second
// goroutine, no duplicate subscriptions.
func (s *Supervisor) Start() error {
	if s.started.Swap(true) {
		s.log.Infof("Monitor", "Monitor already started, skipping")
		return nil
	}
	s.state.Store(int32(StateStarting))

	// Attach before the goroutine exists so a quit posted by an immediate
	// Shutdown is never lost.
	mb := NewMailbox()
	mb.Attach()
	done := make(chan struct{})

	s.runMu.Lock()
	s.mailbox = mb
	s.done = done
	s.runMu.Unlock()

	go s.run(mb, done)
	return nil
}

// Shutdown requests cooperative termination and waits for the monitor
// goroutine to finish draining. Safe to call when never started, and after
// the monitor already stopped.
func (s *Supervisor) Shutdown() {
	s.runMu.Lock()
	mb, done := s.mailbox, s.done
	s.runMu.Unlock()

	if mb == nil {
		return
	}
	if err := mb.Post(Message{Kind: MsgQuit}); err != nil {
		s.log.Debugf("Monitor", "Quit not delivered (loop already gone): %v", err)
	}
	<-done
}

// run is the monitor goroutine: subscribe, serve the mailbox, tear down.
// Mirrors the per-session lifetime of all monitor state — created here,
// destroyed here, never shared across sessions.
func (s *Supervisor) run(mb *Mailbox, done chan struct{}) {
	defer close(done)

	s.mu.Lock()
	drop, recover := s.thresholdDrop, s.thresholdRecover
	probeCfg := s.cfg.Probe
	s.mu.Unlock()

	lp := &loop{
		mailbox:   mb,
		plat:      s.plat,
		log:       s.log,
		signalCtx: NewSignalContext(drop, recover),
		out: outputs{
			connectivity: s.emitConnectivity,
			signal:       s.emitSignal,
		},
	}

	lp.subscribe()
	nd, nr := lp.signalCtx.Thresholds()
	s.log.Infof("Monitor", "Monitor running (thresholds drop=%d recover=%d)", nd, nr)
	s.state.Store(int32(StateRunning))

	var statsReader platform.TCPStatsReader
	if s.plat.NewTCPStatsReader != nil {
		r, err := s.plat.NewTCPStatsReader()
		if err != nil {
			s.log.Warnf("Monitor", "TCP statistics unavailable: %v", err)
		} else {
			statsReader = r
		}
	}
	prober := probe.NewProber(probeCfg, statsReader, s.emitQuality, s.log)
	prober.Start()

	lp.serve()

	s.state.Store(int32(StateStopping))
	prober.Stop()
	lp.teardown()
	mb.Detach()

	s.state.Store(int32(StateStopped))
	s.started.Store(false)
	s.log.Infof("Monitor", "Monitor stopped")
}

// emitConnectivity delivers a connectivity status to the host. Runs on the
// monitor loop goroutine.
func (s *Supervisor) emitConnectivity(st core.Status) {
	s.mu.Lock()
	cb := s.onConnectivity
	s.mu.Unlock()

	if cb == nil {
		s.log.Warnf("Monitor", "No connectivity listener registered, dropping status=%d", st.Status)
	} else {
		cb(st)
	}

	if s.notifications != nil {
		s.notifications.Connectivity(st.Status != 0)
	}
}

// emitSignal delivers a signal status to the host. Runs on the monitor loop
// goroutine.
func (s *Supervisor) emitSignal(st core.SignalStatus, becameWeak, recovered bool) {
	s.mu.Lock()
	cb := s.onSignal
	s.mu.Unlock()

	if cb == nil {
		s.log.Warnf("Monitor", "No signal listener registered, dropping quality=%d", st.Quality)
	} else {
		cb(st)
	}

	if s.notifications != nil {
		switch {
		case becameWeak:
			s.notifications.SignalWeak(st.Quality)
		case recovered:
			s.notifications.SignalRecovered(st.Quality)
		}
	}
}

// emitQuality delivers a probe sample to the host. Runs on the prober
// goroutine.
func (s *Supervisor) emitQuality(sample core.QualitySample) {
	s.mu.Lock()
	cb := s.onQuality
	s.mu.Unlock()

	if cb == nil {
		s.log.Warnf("Monitor", "No quality listener registered, dropping sample")
		return
	}
	cb(sample)
}
