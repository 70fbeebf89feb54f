package xhlog

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/trickstertwo/xclock"
)

// Repository owns one logger tree: the root, a name-keyed map of every node,
// the level map and repository-wide properties. Create one per logical
// application or module boundary; reconfiguration mutates levels and
// appender assignments in place so cached Logger references stay valid.
type Repository struct {
	name string

	mu      sync.RWMutex
	loggers map[string]*Logger
	root    *Logger

	levels *LevelMap

	propMu sync.Mutex
	props  atomic.Value // holds []Field; treat as immutable

	listeners atomic.Value // holds []ConfigurationListener; treat as immutable
	lsnMu     sync.Mutex

	configured atomic.Bool
	closed     atomic.Bool

	clock         xclock.Clock // nil = xclock.Now()
	captureCaller bool
}

// NewRepository creates a repository whose root logger is set to rootLevel.
// The root always carries an explicit level; that is the tree invariant
// every effective-level walk terminates on.
func NewRepository(name string, rootLevel Level) *Repository {
	r := &Repository{
		name:    name,
		loggers: make(map[string]*Logger),
		levels:  newLevelMap(),
	}
	r.root = newLogger(r, "", nil)
	r.root.SetLevel(rootLevel)
	r.props.Store([]Field(nil))
	r.listeners.Store([]ConfigurationListener(nil))
	return r
}

// Name returns the repository name.
func (r *Repository) Name() string { return r.name }

// Root returns the root logger.
func (r *Repository) Root() *Logger { return r.root }

// Levels returns the repository's level map.
func (r *Repository) Levels() *LevelMap { return r.levels }

// Configured reports whether a configuration has been applied.
func (r *Repository) Configured() bool { return r.configured.Load() }

// GetLogger returns the logger for a dotted name, creating it and any
// missing ancestors on first use. It is idempotent and safe under
// concurrent first-use: the double-checked lookup cannot race-create two
// nodes for one name. The empty name returns the root.
func (r *Repository) GetLogger(name string) *Logger {
	if name == "" {
		return r.root
	}
	r.mu.RLock()
	l, ok := r.loggers[name]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLoggerLocked(name)
}

func (r *Repository) getLoggerLocked(name string) *Logger {
	if name == "" {
		return r.root
	}
	if l, ok := r.loggers[name]; ok {
		return l
	}
	parent := r.root
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		parent = r.getLoggerLocked(name[:i])
	}
	l := newLogger(r, name, parent)
	r.loggers[name] = l
	return l
}

// LoggerNames returns the names of all existing loggers, root excluded.
func (r *Repository) LoggerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loggers))
	for n := range r.loggers {
		names = append(names, n)
	}
	return names
}

// invalidateEffective clears cached effective levels for a logger and its
// descendants. Configuration is rare relative to logging volume, so a full
// subtree sweep here keeps the read path a single atomic load.
func (r *Repository) invalidateEffective(at *Logger) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at.effective.Store(nil)
	if at.parent == nil {
		for _, l := range r.loggers {
			l.effective.Store(nil)
		}
		return
	}
	prefix := at.name + "."
	for n, l := range r.loggers {
		if strings.HasPrefix(n, prefix) {
			l.effective.Store(nil)
		}
	}
}

// SetProperty sets a repository-wide property visible in every event's
// property bag unless shadowed by a more specific scope.
func (r *Repository) SetProperty(key, value string) {
	r.propMu.Lock()
	defer r.propMu.Unlock()
	cur := r.props.Load().([]Field)
	next := make([]Field, 0, len(cur)+1)
	for _, f := range cur {
		if f.K != key {
			next = append(next, f)
		}
	}
	next = append(next, Str(key, value))
	r.props.Store(next)
}

// propertySnapshot returns the repository property bag; immutable.
func (r *Repository) propertySnapshot() []Field {
	return r.props.Load().([]Field)
}

// AddListener subscribes to configuration-changed notifications.
func (r *Repository) AddListener(l ConfigurationListener) {
	r.lsnMu.Lock()
	defer r.lsnMu.Unlock()
	cur := r.listeners.Load().([]ConfigurationListener)
	next := make([]ConfigurationListener, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, l)
	r.listeners.Store(next)
}

func (r *Repository) notifyConfigurationChanged(msgs []Diagnostic) {
	change := ConfigurationChange{Repository: r.name, Messages: msgs}
	for _, l := range r.listeners.Load().([]ConfigurationListener) {
		l.OnConfigurationChanged(change)
	}
}

// allLoggers returns root plus every named logger.
func (r *Repository) allLoggers() []*Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Logger, 0, len(r.loggers)+1)
	out = append(out, r.root)
	for _, l := range r.loggers {
		out = append(out, l)
	}
	return out
}

// distinctAppenders deduplicates shared instances across the tree.
func (r *Repository) distinctAppenders() []Appender {
	seen := make(map[Appender]struct{})
	var out []Appender
	for _, l := range r.allLoggers() {
		for _, a := range l.appenders.Load().([]Appender) {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// Flush flushes every attached appender that buffers.
func (r *Repository) Flush() error {
	var result *multierror.Error
	for _, a := range r.distinctAppenders() {
		if f, ok := a.(Flusher); ok {
			if err := f.Flush(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

// Close closes every attached appender exactly once, tolerating appenders
// already closed. The repository stays usable for level checks but events
// dispatched afterwards reach closed sinks, which reject them.
func (r *Repository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	var result *multierror.Error
	for _, a := range r.distinctAppenders() {
		if err := a.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
