package xhlog

import (
	"bytes"
	"runtime"
	"strconv"
	"time"
)

// LoggingEvent is the immutable snapshot of one log call. It is created once
// per call and handed to every appender on the dispatch path, so it carries
// no shared mutable state after construction. Treat all fields as read-only.
type LoggingEvent struct {
	At         time.Time // UTC
	Level      Level
	LoggerName string
	Message    string
	Err        error
	Goroutine  uint64

	// CallerFile/CallerLine are populated only when the owning repository
	// has caller capture enabled; both are zero otherwise.
	CallerFile string
	CallerLine int

	// Properties is the ordered union of repository properties, the
	// diagnostic context stack and per-event fields, in that order.
	// Later entries shadow earlier ones on key collision.
	Properties []Field
}

// Property returns the effective value for a key, honoring shadowing.
func (e *LoggingEvent) Property(key string) (Field, bool) {
	for i := len(e.Properties) - 1; i >= 0; i-- {
		if e.Properties[i].K == key {
			return e.Properties[i], true
		}
	}
	return Field{}, false
}

func newLoggingEvent(l *Logger, level Level, msg string, err error, fields []Field, at time.Time) *LoggingEvent {
	repo := l.repo
	repoProps := repo.propertySnapshot()
	ctxProps := contextSnapshot()

	props := make([]Field, 0, len(repoProps)+len(ctxProps)+len(fields))
	props = append(props, repoProps...)
	props = append(props, ctxProps...)
	props = copyFields(props, fields)

	ev := &LoggingEvent{
		At:         at.UTC(),
		Level:      level,
		LoggerName: l.name,
		Message:    msg,
		Err:        err,
		Goroutine:  goroutineID(),
		Properties: props,
	}
	if repo.captureCaller {
		// Skip newLoggingEvent, Logger.log and the public entry point.
		if _, file, line, ok := runtime.Caller(3); ok {
			ev.CallerFile = file
			ev.CallerLine = line
		}
	}
	return ev
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the header of the current goroutine's stack.
// It sits on the hot path only when events are actually emitted.
func goroutineID() uint64 {
	var buf [32]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		if id, err := strconv.ParseUint(string(b[:i]), 10, 64); err == nil {
			return id
		}
	}
	return 0
}
