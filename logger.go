package xhlog

import (
	"sync"
	"sync/atomic"

	"github.com/trickstertwo/xclock"
)

// Logger is a named node in the severity-filtering hierarchy. Loggers are
// created by Repository.GetLogger, never directly, and live for the lifetime
// of their repository, so callers may cache references.
//
// Hot-path reads (level checks, appender dispatch) are lock-free: the
// appender list is copy-on-write behind an atomic.Value and the effective
// level is cached per node. Mutation goes through the repository.
type Logger struct {
	repo   *Repository
	name   string
	parent *Logger // nil for root; non-owning back-reference

	level     atomic.Pointer[Level] // nil = inherit from parent
	effective atomic.Pointer[Level] // cached; cleared subtree-wide on change

	appenders atomic.Value // holds []Appender; treat as immutable
	appMu     sync.Mutex
	additive  atomic.Bool
}

func newLogger(repo *Repository, name string, parent *Logger) *Logger {
	l := &Logger{repo: repo, name: name, parent: parent}
	l.appenders.Store([]Appender(nil))
	l.additive.Store(true)
	return l
}

// Name returns the dotted logger name; empty for root.
func (l *Logger) Name() string { return l.name }

// Parent returns the hierarchy parent, nil for root.
func (l *Logger) Parent() *Logger { return l.parent }

// Repository returns the owning repository.
func (l *Logger) Repository() *Repository { return l.repo }

// Level returns the explicitly assigned level, if any.
func (l *Logger) Level() (Level, bool) {
	if p := l.level.Load(); p != nil {
		return *p, true
	}
	return Level{}, false
}

// SetLevel assigns an explicit level and invalidates cached effective
// levels for this logger's subtree.
func (l *Logger) SetLevel(level Level) {
	lv := level
	l.level.Store(&lv)
	l.repo.invalidateEffective(l)
}

// ClearLevel removes the explicit level so the logger inherits again.
// Clearing the root level is rejected: the tree invariant requires a
// non-nil level at the root.
func (l *Logger) ClearLevel() {
	if l.parent == nil {
		reportDiag("logger", "refusing to clear root level", nil)
		return
	}
	l.level.Store(nil)
	l.repo.invalidateEffective(l)
}

// EffectiveLevel returns the nearest explicitly-set level walking up to
// root. The result is cached per node; configuration changes invalidate the
// cache, so the hot read path is a single atomic load.
func (l *Logger) EffectiveLevel() Level {
	if p := l.effective.Load(); p != nil {
		return *p
	}
	var eff Level
	if p := l.level.Load(); p != nil {
		eff = *p
	} else {
		eff = l.parent.EffectiveLevel()
	}
	l.effective.Store(&eff)
	return eff
}

// IsEnabledFor reports whether an event at level would be dispatched.
func (l *Logger) IsEnabledFor(level Level) bool {
	return level.AtLeast(l.EffectiveLevel())
}

// Additive reports whether events propagate past this logger's own
// appenders to ancestor appenders.
func (l *Logger) Additive() bool { return l.additive.Load() }

// SetAdditive toggles propagation to ancestor appenders. Default is true.
func (l *Logger) SetAdditive(v bool) { l.additive.Store(v) }

// Appenders returns a snapshot of the directly attached appenders in
// attachment order.
func (l *Logger) Appenders() []Appender {
	cur := l.appenders.Load().([]Appender)
	return append([]Appender(nil), cur...)
}

// AddAppender attaches an appender. Attachment order is delivery order.
// Attaching the same instance twice is a no-op.
func (l *Logger) AddAppender(a Appender) {
	l.appMu.Lock()
	defer l.appMu.Unlock()
	cur := l.appenders.Load().([]Appender)
	for _, have := range cur {
		if have == a {
			return
		}
	}
	next := make([]Appender, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, a)
	l.appenders.Store(next)
}

// RemoveAppender detaches the named appender without closing it; shared
// instances may still be attached elsewhere.
func (l *Logger) RemoveAppender(name string) bool {
	l.appMu.Lock()
	defer l.appMu.Unlock()
	cur := l.appenders.Load().([]Appender)
	for i, a := range cur {
		if a.Name() == name {
			next := make([]Appender, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			next = append(next, cur[i+1:]...)
			l.appenders.Store(next)
			return true
		}
	}
	return false
}

// RemoveAllAppenders detaches every appender without closing them.
func (l *Logger) RemoveAllAppenders() {
	l.appMu.Lock()
	defer l.appMu.Unlock()
	l.appenders.Store([]Appender(nil))
}

// Level entry points returning fluent builders.

func (l *Logger) Trace() *Event { return getEvent(l, LevelTrace) }
func (l *Logger) Debug() *Event { return getEvent(l, LevelDebug) }
func (l *Logger) Info() *Event  { return getEvent(l, LevelInfo) }
func (l *Logger) Warn() *Event  { return getEvent(l, LevelWarn) }
func (l *Logger) Error() *Event { return getEvent(l, LevelError) }
func (l *Logger) Fatal() *Event { return getEvent(l, LevelFatal) }

// Log emits one event directly, bypassing the fluent builder.
func (l *Logger) Log(level Level, msg string, err error, fields ...Field) {
	l.log(level, msg, err, fields)
}

func (l *Logger) log(level Level, msg string, err error, fields []Field) {
	if !l.IsEnabledFor(level) {
		return
	}
	at := xclock.Now()
	if c := l.repo.clock; c != nil {
		at = c.Now()
	}
	ev := newLoggingEvent(l, level, msg, err, fields, at)
	l.dispatch(ev)
}

// dispatch fans one event out along the additive ancestor chain: self
// first, then ancestors until a non-additive logger or root; within each
// node, appenders fire in attachment order. Delivery is synchronous on the
// calling goroutine, so a slow appender slows the log call rather than
// silently dropping events. Failures are isolated per appender.
func (l *Logger) dispatch(ev *LoggingEvent) {
	for node := l; node != nil; node = node.parent {
		for _, a := range node.appenders.Load().([]Appender) {
			safeAppend(a, ev)
		}
		if !node.additive.Load() {
			return
		}
	}
}
