package xhlog

import (
	"sync"
	"time"
)

// AsyncAppender decouples the dispatch path from a slow target by queueing
// events through a bounded channel drained by a single worker goroutine.
// Asynchrony is an explicit opt-in: the default dispatch stays synchronous
// so backpressure is visible to the caller. When the queue is full, Append
// blocks rather than dropping, preserving the no-silent-loss guarantee;
// ordering through the single worker matches arrival order.
type AsyncAppender struct {
	name   string
	target Appender
	queue  chan *LoggingEvent

	closeOnce sync.Once
	done      chan struct{}
	closed    chan struct{}
}

// NewAsyncAppender wraps target with a queue of the given depth (minimum 1)
// and starts the worker.
func NewAsyncAppender(name string, target Appender, depth int) *AsyncAppender {
	if depth < 1 {
		depth = 1
	}
	a := &AsyncAppender{
		name:   name,
		target: target,
		queue:  make(chan *LoggingEvent, depth),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncAppender) Name() string { return a.name }

func (a *AsyncAppender) run() {
	defer close(a.closed)
	for {
		select {
		case ev := <-a.queue:
			safeAppend(a.target, ev)
		case <-a.done:
			a.drain()
			return
		}
	}
}

func (a *AsyncAppender) drain() {
	for {
		select {
		case ev := <-a.queue:
			safeAppend(a.target, ev)
		default:
			return
		}
	}
}

func (a *AsyncAppender) Append(ev *LoggingEvent) error {
	select {
	case <-a.done:
		return ErrClosed
	default:
	}
	select {
	case a.queue <- ev:
		return nil
	case <-a.done:
		return ErrClosed
	}
}

// Flush is best-effort: it waits for the queue to empty with exponential
// backoff, then flushes the target if it buffers.
func (a *AsyncAppender) Flush() error {
	wait := time.Millisecond
	for len(a.queue) > 0 {
		select {
		case <-a.closed:
		default:
			time.Sleep(wait)
			if wait < 64*time.Millisecond {
				wait *= 2
			}
			continue
		}
		break
	}
	if f, ok := a.target.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close drains the queue, stops the worker and closes the target.
func (a *AsyncAppender) Close() error {
	a.closeOnce.Do(func() {
		close(a.done)
	})
	<-a.closed
	return a.target.Close()
}
