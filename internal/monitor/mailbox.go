package monitor

import (
	"errors"
	"sync"

	"github.com/SkyLord2/perception-network-status/internal/platform"
)

// ErrNotReady is returned by Post when no loop goroutine is attached to
// receive. Senders log it and move on; nothing blocks.
var ErrNotReady = errors.New("monitor loop not attached")

// MessageKind identifies the kind of message carried by the mailbox.
type MessageKind int

const (
	// MsgConnectivity carries a derived connected/disconnected reading.
	MsgConnectivity MessageKind = iota
	// MsgSignal carries a raw wireless signal reading.
	MsgSignal
	// MsgQuit asks the loop to drain and exit.
	MsgQuit
)

// Message is one unit of work posted to the monitor loop.
type Message struct {
	Kind      MessageKind
	Connected bool                   // MsgConnectivity
	Signal    platform.SignalReading // MsgSignal
}

// Mailbox is the ordered hand-off between watcher callbacks (any goroutine /
// OS thread) and the single monitor loop goroutine. Post never blocks the
// caller and never drops an accepted message; delivery order is the global
// FIFO order of accepted posts. The queue is unbounded: watcher callbacks
// run in OS notification context and must not stall on backpressure.
type Mailbox struct {
	mu    sync.Mutex
	queue []Message
	ready bool
	wake  chan struct{}
}

// NewMailbox creates an empty, detached mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{wake: make(chan struct{}, 1)}
}

// Attach marks the mailbox as having a consumer. Must be called before the
// loop goroutine starts receiving; posts before Attach fail with ErrNotReady.
func (m *Mailbox) Attach() {
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
}

// Detach marks the consumer gone. Subsequent posts fail with ErrNotReady.
func (m *Mailbox) Detach() {
	m.mu.Lock()
	m.ready = false
	m.queue = nil
	m.mu.Unlock()
}

// Post enqueues a message for the loop goroutine. Callable from any
// goroutine, non-blocking. Returns ErrNotReady when no consumer is attached.
func (m *Mailbox) Post(msg Message) error {
	m.mu.Lock()
	if !m.ready {
		m.mu.Unlock()
		return ErrNotReady
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

// Receive blocks until a message is available and returns it. Only the loop
// goroutine calls Receive.
func (m *Mailbox) Receive() Message {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			msg := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return msg
		}
		m.mu.Unlock()

		<-m.wake
	}
}
