package probe

import (
	"time"

	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// rttSummary aggregates the successful round-trips of one probe cycle.
// All values are whole milliseconds, matching the resolution the consumer
// receives.
type rttSummary struct {
	avgMS       uint32
	minMS       uint32
	maxMS       uint32
	jitterMS    uint32
	lossPercent float64
}

// summarizeRTTs computes min/max/avg/jitter/loss for one probe cycle.
// rtts holds only the successful round-trips, in probe order; attempts is the
// total number of probes sent. A cycle with zero successes reports zeroed
// latency figures and 100% loss — never a division error.
func summarizeRTTs(rtts []time.Duration, attempts int) rttSummary {
	if attempts <= 0 {
		return rttSummary{}
	}
	if len(rtts) == 0 {
		return rttSummary{lossPercent: 100.0}
	}

	ms := make([]uint32, len(rtts))
	for i, rtt := range rtts {
		ms[i] = uint32(rtt.Milliseconds())
	}

	var sum uint64
	minMS, maxMS := ms[0], ms[0]
	for _, v := range ms {
		sum += uint64(v)
		if v < minMS {
			minMS = v
		}
		if v > maxMS {
			maxMS = v
		}
	}

	return rttSummary{
		avgMS:       uint32(sum / uint64(len(ms))),
		minMS:       minMS,
		maxMS:       maxMS,
		jitterMS:    jitterMS(ms),
		lossPercent: float64(attempts-len(rtts)) / float64(attempts) * 100.0,
	}
}

// jitterMS is the mean absolute difference between consecutive round-trips
// in probe order. Fewer than two samples means no measurable jitter.
func jitterMS(ms []uint32) uint32 {
	if len(ms) < 2 {
		return 0
	}
	var sum uint64
	for i := 1; i < len(ms); i++ {
		a, b := ms[i-1], ms[i]
		if a > b {
			sum += uint64(a - b)
		} else {
			sum += uint64(b - a)
		}
	}
	return uint32(sum / uint64(len(ms)-1))
}

// computeIntervalStats turns a pair of cumulative TCP counter readings into
// an in-cycle delta and retransmission percentage.
//
// The baseline is the previous cycle's reading; nil means this is the first
// reading of a probe session. A current reading lower than the baseline on
// either counter means the system counters rolled over or reset — the cycle
// reports a zero delta rather than a negative (or wildly wrong) rate.
// The returned newBaseline is always the current reading.
func computeIntervalStats(baseline *platform.TCPCounters, current platform.TCPCounters) (delta platform.TCPCounters, percent float64, newBaseline platform.TCPCounters) {
	newBaseline = current

	if baseline == nil {
		return platform.TCPCounters{}, 0.0, newBaseline
	}

	sent := current.SegmentsSent - baseline.SegmentsSent
	retrans := current.SegmentsRetransmitted - baseline.SegmentsRetransmitted
	if sent < 0 || retrans < 0 {
		return platform.TCPCounters{}, 0.0, newBaseline
	}

	delta = platform.TCPCounters{SegmentsSent: sent, SegmentsRetransmitted: retrans}
	if sent > 0 {
		percent = float64(retrans) / float64(sent) * 100.0
	}
	return delta, percent, newBaseline
}
