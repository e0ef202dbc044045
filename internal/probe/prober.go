// Package probe implements the periodic link-quality prober: echo round-trip
// measurement with a TCP-handshake fallback, jitter/loss aggregation, and
// delta-based TCP retransmission accounting against system counters.
package probe

import (
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// Prober runs the quality probe loop on its own goroutine and invokes the
// sample callback once per cycle, from that goroutine. It shares nothing
// with the monitor loop except the callback it was given.
type Prober struct {
	cfg      core.ProbeConfig
	stats    platform.TCPStatsReader // nil when the platform has none
	onSample func(core.QualitySample)
	log      *core.Logger

	running atomic.Bool
	stopc   chan struct{}
	wg      sync.WaitGroup

	// baseline is the previous cycle's cumulative TCP counters. The mutex
	// guards against a future concurrent reader; today only the prober
	// goroutine touches it between Start and Stop.
	baselineMu sync.Mutex
	baseline   *platform.TCPCounters

	statsWarned bool

	// probe hooks, overridable in tests
	echoCycle      func(dst netip.Addr, count int, timeout time.Duration) []time.Duration
	handshakeCycle func(dst netip.Addr, port, count int, timeout time.Duration) []time.Duration
}

// NewProber creates a prober. stats may be nil; the TCP fields of every
// sample then stay zero. onSample may be nil (samples are logged only).
func NewProber(cfg core.ProbeConfig, stats platform.TCPStatsReader, onSample func(core.QualitySample), log *core.Logger) *Prober {
	if log == nil {
		log = core.Log
	}
	p := &Prober{
		cfg:      cfg,
		stats:    stats,
		onSample: onSample,
		log:      log,
	}
	p.echoCycle = p.runEchoCycle
	p.handshakeCycle = p.runHandshakeCycle
	return p
}

// Start launches the probe loop. Starting an already-running prober is a
// logged no-op.
func (p *Prober) Start() {
	if p.running.Swap(true) {
		p.log.Infof("Probe", "Quality prober already running, skipping")
		return
	}

	p.stopc = make(chan struct{})
	p.wg.Add(1)
	go p.run()

	p.log.Infof("Probe", "Quality prober started (target=%s, count=%d, interval=%s)",
		p.cfg.EffectiveTarget(), p.cfg.EffectiveCount(), p.cfg.IntervalDuration())
}

// Stop requests cooperative shutdown and joins the loop goroutine. The wait
// is bounded by one probe round. The TCP baseline resets so the next Start
// begins a fresh session.
func (p *Prober) Stop() {
	if !p.running.Swap(false) {
		return
	}
	close(p.stopc)
	p.wg.Wait()

	p.baselineMu.Lock()
	p.baseline = nil
	p.baselineMu.Unlock()

	p.log.Infof("Probe", "Quality prober stopped")
}

// Running reports whether the probe loop is active.
func (p *Prober) Running() bool {
	return p.running.Load()
}

func (p *Prober) run() {
	defer p.wg.Done()

	interval := p.cfg.IntervalDuration()
	for p.running.Load() {
		start := time.Now()

		sample := p.ProbeOnce()
		p.report(sample)

		elapsed := time.Since(start)
		if elapsed >= interval {
			continue // overran the interval: next cycle runs immediately
		}
		select {
		case <-time.After(interval - elapsed):
		case <-p.stopc:
			return
		}
	}
}

// ProbeOnce runs a single complete probe cycle and returns the sample.
// Exported for one-shot diagnostic use; the loop calls it once per interval.
func (p *Prober) ProbeOnce() core.QualitySample {
	count := p.cfg.EffectiveCount()
	timeout := p.cfg.TimeoutDuration()

	var summary rttSummary
	dst, err := resolveIPv4(p.cfg.EffectiveTarget(), timeout)
	if err != nil {
		p.log.Warnf("Probe", "Probe target unavailable: %v", err)
		summary = summarizeRTTs(nil, count)
	} else {
		rtts := p.echoCycle(dst, count, timeout)
		if len(rtts) == 0 {
			// Echo fully blocked (firewall policy, missing privileges):
			// substitute handshake timings for the whole cycle. The two
			// probe modes are never mixed within one cycle.
			p.log.Debugf("Probe", "All echo probes failed, falling back to TCP handshake timing")
			rtts = p.handshakeCycle(dst, p.cfg.EffectiveFallbackPort(), count, timeout)
		}
		summary = summarizeRTTs(rtts, count)
	}

	sample := core.QualitySample{
		LatencyAvgMS:      summary.avgMS,
		LatencyMinMS:      summary.minMS,
		LatencyMaxMS:      summary.maxMS,
		JitterMS:          summary.jitterMS,
		PacketLossPercent: summary.lossPercent,
	}

	delta, percent := p.advanceTCPBaseline()
	sample.TCPSegmentsSent = delta.SegmentsSent
	sample.TCPSegmentsRetransmitted = delta.SegmentsRetransmitted
	sample.TCPRetransmissionPercent = percent

	return sample
}

// runEchoCycle sends count echo probes sequentially and returns the
// successful round-trips in probe order. An unopenable ICMP socket yields
// zero successes, which triggers the handshake fallback upstream.
func (p *Prober) runEchoCycle(dst netip.Addr, count int, timeout time.Duration) []time.Duration {
	session, err := newEchoSession()
	if err != nil {
		p.log.Debugf("Probe", "Echo session unavailable: %v", err)
		return nil
	}
	defer session.Close()

	rtts := make([]time.Duration, 0, count)
	for seq := 0; seq < count; seq++ {
		if p.stopRequested() {
			break
		}
		if rtt, ok := session.probe(dst, seq, timeout); ok {
			rtts = append(rtts, rtt)
		}
	}
	return rtts
}

// runHandshakeCycle times count TCP connection establishments.
func (p *Prober) runHandshakeCycle(dst netip.Addr, port, count int, timeout time.Duration) []time.Duration {
	rtts := make([]time.Duration, 0, count)
	for i := 0; i < count; i++ {
		if p.stopRequested() {
			break
		}
		if rtt, ok := handshakeProbe(dst, port, timeout); ok {
			rtts = append(rtts, rtt)
		}
	}
	return rtts
}

// stopRequested reports whether Stop has been called for the current
// session. One-shot use outside Start/Stop never aborts mid-cycle.
func (p *Prober) stopRequested() bool {
	if p.stopc == nil {
		return false
	}
	select {
	case <-p.stopc:
		return true
	default:
		return false
	}
}

// advanceTCPBaseline reads the cumulative system counters and rolls the
// session baseline forward, returning the in-cycle delta and rate. Counter
// read failures and counter rollbacks both degrade to a zero-delta cycle.
func (p *Prober) advanceTCPBaseline() (platform.TCPCounters, float64) {
	if p.stats == nil {
		if !p.statsWarned {
			p.statsWarned = true
			p.log.Warnf("Probe", "TCP statistics unavailable on this platform, retransmission fields will stay zero")
		}
		return platform.TCPCounters{}, 0.0
	}

	current, err := p.stats.Read()
	if err != nil {
		p.log.Warnf("Probe", "TCP statistics read failed: %v", err)
		return platform.TCPCounters{}, 0.0
	}

	p.baselineMu.Lock()
	defer p.baselineMu.Unlock()

	delta, percent, newBaseline := computeIntervalStats(p.baseline, current)
	p.baseline = &newBaseline
	return delta, percent
}

func (p *Prober) report(sample core.QualitySample) {
	p.log.Infof("Probe", "Quality sample: avg=%dms min=%dms max=%dms jitter=%dms loss=%.1f%% retrans=%.2f%% segs=%d/%d",
		sample.LatencyAvgMS, sample.LatencyMinMS, sample.LatencyMaxMS, sample.JitterMS,
		sample.PacketLossPercent, sample.TCPRetransmissionPercent,
		sample.TCPSegmentsRetransmitted, sample.TCPSegmentsSent)

	if p.onSample != nil {
		p.onSample(sample)
	}
}
