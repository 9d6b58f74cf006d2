package core

import "sync"

// mailbox is an unbounded FIFO queue between one producer (a job's worker)
// and one consumer. Put never blocks and never drops.
type mailbox struct {
	mu     sync.Mutex
	queue  []Message
	closed bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// Put appends msg. Puts after Close are discarded.
func (m *mailbox) Put(msg Message) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()
	m.wake()
}

// Close marks the end of the stream. Messages already queued are still
// delivered.
func (m *mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
}

func (m *mailbox) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Drain calls fn for every message in order until the mailbox is closed and
// empty.
func (m *mailbox) Drain(fn func(Message)) {
	for {
		m.mu.Lock()
		batch := m.queue
		m.queue = nil
		closed := m.closed
		m.mu.Unlock()

		for _, msg := range batch {
			fn(msg)
		}
		if len(batch) == 0 {
			if closed {
				return
			}
			<-m.notify
		}
	}
}
