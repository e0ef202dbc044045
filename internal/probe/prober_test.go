package probe

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/SkyLord2/perception-network-status/internal/core"
	"github.com/SkyLord2/perception-network-status/internal/platform"
)

type fakeStatsReader struct {
	readings []platform.TCPCounters
	calls    int
	err      error
}

func (f *fakeStatsReader) Read() (platform.TCPCounters, error) {
	if f.err != nil {
		return platform.TCPCounters{}, f.err
	}
	i := f.calls
	if i >= len(f.readings) {
		i = len(f.readings) - 1
	}
	f.calls++
	return f.readings[i], nil
}

func testProbeConfig() core.ProbeConfig {
	return core.ProbeConfig{
		Target:  "192.0.2.1", // TEST-NET, never probed: cycles are stubbed
		Count:   4,
		Timeout: "100ms",
	}
}

func quietLogger() *core.Logger {
	return core.NewLogger(core.LogConfig{Level: "off"})
}

func TestProbeOnceEchoCycle(t *testing.T) {
	p := NewProber(testProbeConfig(), nil, nil, quietLogger())
	var handshakeUsed bool
	p.echoCycle = func(dst netip.Addr, count int, timeout time.Duration) []time.Duration {
		if count != 4 {
			t.Errorf("count = %d, want 4", count)
		}
		return []time.Duration{
			10 * time.Millisecond,
			30 * time.Millisecond,
			20 * time.Millisecond,
		}
	}
	p.handshakeCycle = func(dst netip.Addr, port, count int, timeout time.Duration) []time.Duration {
		handshakeUsed = true
		return nil
	}

	sample := p.ProbeOnce()
	if handshakeUsed {
		t.Error("handshake fallback used although echo probes succeeded")
	}
	if sample.LatencyAvgMS != 20 || sample.LatencyMinMS != 10 || sample.LatencyMaxMS != 30 {
		t.Errorf("latency avg/min/max = %d/%d/%d", sample.LatencyAvgMS, sample.LatencyMinMS, sample.LatencyMaxMS)
	}
	if sample.PacketLossPercent != 25.0 {
		t.Errorf("loss = %v, want 25.0", sample.PacketLossPercent)
	}
}

func TestProbeOnceFallsBackToHandshake(t *testing.T) {
	p := NewProber(testProbeConfig(), nil, nil, quietLogger())
	p.echoCycle = func(dst netip.Addr, count int, timeout time.Duration) []time.Duration {
		return nil // echo fully blocked
	}
	p.handshakeCycle = func(dst netip.Addr, port, count int, timeout time.Duration) []time.Duration {
		if port != core.DefaultFallbackPort {
			t.Errorf("fallback port = %d, want %d", port, core.DefaultFallbackPort)
		}
		return []time.Duration{15 * time.Millisecond, 15 * time.Millisecond}
	}

	sample := p.ProbeOnce()
	if sample.LatencyAvgMS != 15 {
		t.Errorf("avg = %d, want 15", sample.LatencyAvgMS)
	}
	if sample.PacketLossPercent != 50.0 {
		t.Errorf("loss = %v, want 50.0", sample.PacketLossPercent)
	}
	if sample.JitterMS != 0 {
		t.Errorf("jitter = %d, want 0", sample.JitterMS)
	}
}

func TestProbeOnceAllProbesFailed(t *testing.T) {
	p := NewProber(testProbeConfig(), nil, nil, quietLogger())
	p.echoCycle = func(netip.Addr, int, time.Duration) []time.Duration { return nil }
	p.handshakeCycle = func(netip.Addr, int, int, time.Duration) []time.Duration { return nil }

	sample := p.ProbeOnce()
	if sample.LatencyAvgMS != 0 || sample.LatencyMinMS != 0 || sample.LatencyMaxMS != 0 || sample.JitterMS != 0 {
		t.Errorf("latency fields nonzero: %+v", sample)
	}
	if sample.PacketLossPercent != 100.0 {
		t.Errorf("loss = %v, want 100.0", sample.PacketLossPercent)
	}
}

func TestProbeOnceUnresolvableTarget(t *testing.T) {
	cfg := testProbeConfig()
	cfg.Target = "host.invalid"
	p := NewProber(cfg, nil, nil, quietLogger())
	p.echoCycle = func(netip.Addr, int, time.Duration) []time.Duration {
		t.Error("echo cycle ran for unresolvable target")
		return nil
	}

	sample := p.ProbeOnce()
	if sample.PacketLossPercent != 100.0 {
		t.Errorf("loss = %v, want 100.0", sample.PacketLossPercent)
	}
}

func TestProbeTCPBaselineProgression(t *testing.T) {
	stats := &fakeStatsReader{readings: []platform.TCPCounters{
		{SegmentsSent: 100, SegmentsRetransmitted: 10},
		{SegmentsSent: 150, SegmentsRetransmitted: 12},
	}}
	p := NewProber(testProbeConfig(), stats, nil, quietLogger())
	p.echoCycle = func(netip.Addr, int, time.Duration) []time.Duration {
		return []time.Duration{time.Millisecond}
	}

	// First cycle establishes the baseline: deltas are zero.
	first := p.ProbeOnce()
	if first.TCPSegmentsSent != 0 || first.TCPSegmentsRetransmitted != 0 || first.TCPRetransmissionPercent != 0.0 {
		t.Errorf("first cycle: sent=%d retrans=%d percent=%v, want zeros",
			first.TCPSegmentsSent, first.TCPSegmentsRetransmitted, first.TCPRetransmissionPercent)
	}

	// Second cycle reports the in-cycle delta.
	second := p.ProbeOnce()
	if second.TCPSegmentsSent != 50 || second.TCPSegmentsRetransmitted != 2 {
		t.Errorf("second cycle: sent=%d retrans=%d, want 50/2",
			second.TCPSegmentsSent, second.TCPSegmentsRetransmitted)
	}
	if second.TCPRetransmissionPercent != 4.0 {
		t.Errorf("second cycle percent = %v, want 4.0", second.TCPRetransmissionPercent)
	}
}

func TestProbeTCPStatsReadError(t *testing.T) {
	stats := &fakeStatsReader{err: errors.New("counters unavailable")}
	p := NewProber(testProbeConfig(), stats, nil, quietLogger())
	p.echoCycle = func(netip.Addr, int, time.Duration) []time.Duration {
		return []time.Duration{time.Millisecond}
	}

	sample := p.ProbeOnce()
	if sample.TCPSegmentsSent != 0 || sample.TCPRetransmissionPercent != 0.0 {
		t.Errorf("read error: sample carries TCP figures: %+v", sample)
	}
	if sample.LatencyAvgMS != 1 {
		t.Errorf("latency lost alongside TCP error: %+v", sample)
	}
}

func TestProberStartStop(t *testing.T) {
	cfg := testProbeConfig()
	cfg.Interval = "1h"

	samples := make(chan core.QualitySample, 1)
	p := NewProber(cfg, nil, func(s core.QualitySample) { samples <- s }, quietLogger())
	p.echoCycle = func(netip.Addr, int, time.Duration) []time.Duration {
		return []time.Duration{5 * time.Millisecond}
	}

	p.Start()
	p.Start() // no-op, no second goroutine
	if !p.Running() {
		t.Fatal("prober not running after Start")
	}

	select {
	case s := <-samples:
		if s.LatencyAvgMS != 5 {
			t.Errorf("sample avg = %d, want 5", s.LatencyAvgMS)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no sample delivered")
	}

	p.Stop()
	if p.Running() {
		t.Fatal("prober still running after Stop")
	}
	p.Stop() // idempotent
}
