package xhlog

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by appenders that receive events after Close.
var ErrClosed = errors.New("xhlog: appender closed")

// Appender turns finished LoggingEvents into bytes or side effects.
//
// Append must be safe for concurrent calls from multiple dispatch paths:
// one appender instance may be attached to several loggers. An Append error
// is reported to the diagnostic channel by the dispatcher and never reaches
// the application's log call site. Close must be idempotent.
type Appender interface {
	Name() string
	Append(*LoggingEvent) error
	Close() error
}

// Flusher is implemented by appenders that buffer output.
type Flusher interface {
	Flush() error
}

// safeAppend delivers one event to one appender, isolating failures from
// sibling appenders and from the caller.
func safeAppend(a Appender, ev *LoggingEvent) {
	defer func() {
		if r := recover(); r != nil {
			reportDiag("dispatch", "appender "+a.Name()+" panicked", panicErr(r))
		}
	}()
	if err := a.Append(ev); err != nil {
		reportDiag("dispatch", "appender "+a.Name()+" failed", err)
	}
}

func panicErr(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New(anyString(r))
}

// ForwardingAppender fans events out to an attached list of appenders with
// the same ordering and isolation guarantees as logger dispatch. Use it to
// share one attachment point across several sinks.
type ForwardingAppender struct {
	name     string
	attached atomic.Value // holds []Appender; treat as immutable
	mu       sync.Mutex
	closed   atomic.Bool
}

func NewForwardingAppender(name string, targets ...Appender) *ForwardingAppender {
	f := &ForwardingAppender{name: name}
	f.attached.Store(append([]Appender(nil), targets...))
	return f
}

func (f *ForwardingAppender) Name() string { return f.name }

// AttachAppender appends a target; attachment order is delivery order.
func (f *ForwardingAppender) AttachAppender(a Appender) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.attached.Load().([]Appender)
	next := make([]Appender, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, a)
	f.attached.Store(next)
}

// DetachAppender removes a target by name.
func (f *ForwardingAppender) DetachAppender(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.attached.Load().([]Appender)
	for i, a := range cur {
		if a.Name() == name {
			next := make([]Appender, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			next = append(next, cur[i+1:]...)
			f.attached.Store(next)
			return true
		}
	}
	return false
}

func (f *ForwardingAppender) Append(ev *LoggingEvent) error {
	if f.closed.Load() {
		return ErrClosed
	}
	for _, a := range f.attached.Load().([]Appender) {
		safeAppend(a, ev)
	}
	return nil
}

func (f *ForwardingAppender) Flush() error {
	var err error
	for _, a := range f.attached.Load().([]Appender) {
		if fl, ok := a.(Flusher); ok {
			if ferr := fl.Flush(); ferr != nil && err == nil {
				err = ferr
			}
		}
	}
	return err
}

func (f *ForwardingAppender) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	var err error
	for _, a := range f.attached.Load().([]Appender) {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
