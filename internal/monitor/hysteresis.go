package monitor

import "github.com/SkyLord2/perception-network-status/internal/core"

// SignalContext is the wireless signal hysteresis state machine. It is owned
// by the monitor loop goroutine; watcher callbacks never touch it — they only
// forward raw quality readings through the mailbox.
//
// Two thresholds form a dead zone: quality at or below the drop threshold
// marks the signal weak, quality at or above the recover threshold clears it,
// and anything strictly between leaves the previous state untouched. The dead
// zone is what keeps a signal hovering around one value from flapping.
type SignalContext struct {
	thresholdDrop    uint32
	thresholdRecover uint32
	weak             bool
	lastQuality      uint32
}

// NewSignalContext builds a context from raw configured thresholds,
// normalizing them so recover always sits above drop (see
// core.NormalizeThresholds).
func NewSignalContext(thresholdDrop, thresholdRecover uint32) *SignalContext {
	drop, recover := core.NormalizeThresholds(thresholdDrop, thresholdRecover)
	return &SignalContext{
		thresholdDrop:    drop,
		thresholdRecover: recover,
	}
}

// Apply feeds one successful quality reading through the state machine and
// reports whether the weak flag flipped.
func (c *SignalContext) Apply(quality uint32) (flipped bool) {
	wasWeak := c.weak

	switch {
	case quality <= c.thresholdDrop:
		c.weak = true
	case quality >= c.thresholdRecover:
		c.weak = false
	}
	// Dead zone: state unchanged.

	c.lastQuality = quality
	return c.weak != wasWeak
}

// Reset handles an interface disconnect: quality drops to zero and the weak
// state clears so the next connection starts from a clean slate. Disconnect
// is always reported to the consumer regardless of the previous state.
func (c *SignalContext) Reset() {
	c.weak = false
	c.lastQuality = 0
}

// Weak reports whether the signal is currently classified weak.
func (c *SignalContext) Weak() bool { return c.weak }

// LastQuality returns the most recent quality reading.
func (c *SignalContext) LastQuality() uint32 { return c.lastQuality }

// Thresholds returns the normalized (drop, recover) pair.
func (c *SignalContext) Thresholds() (uint32, uint32) {
	return c.thresholdDrop, c.thresholdRecover
}
