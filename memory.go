package xhlog

import "sync"

// MemoryAppender records events in a bounded ring buffer, preserving
// arrival order. Intended for tests and for sinks that drain in batches.
type MemoryAppender struct {
	name string

	mu     sync.Mutex
	events []*LoggingEvent
	max    int
	closed bool
}

// NewMemoryAppender creates a ring buffer holding at most max events;
// max <= 0 means unbounded.
func NewMemoryAppender(name string, max int) *MemoryAppender {
	return &MemoryAppender{name: name, max: max}
}

func (m *MemoryAppender) Name() string { return m.name }

func (m *MemoryAppender) Append(ev *LoggingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.events = append(m.events, ev)
	if m.max > 0 && len(m.events) > m.max {
		// drop oldest; copy down so the backing array does not pin history
		n := copy(m.events, m.events[len(m.events)-m.max:])
		m.events = m.events[:n]
	}
	return nil
}

// Events returns a snapshot in arrival order.
func (m *MemoryAppender) Events() []*LoggingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*LoggingEvent(nil), m.events...)
}

// Drain returns the buffered events in arrival order and empties the buffer.
func (m *MemoryAppender) Drain() []*LoggingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = nil
	return out
}

// Len reports the number of buffered events.
func (m *MemoryAppender) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *MemoryAppender) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
