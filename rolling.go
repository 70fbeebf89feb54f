package xhlog

import "sync"

// rollState is the rolling appender's lifecycle state. Transitions happen
// under the appender mutex, so the unsafe window between "old file moved
// away" and "new file opened" is invisible to in-process writers and, via
// the sink's advisory lock, to cooperating processes.
type rollState int

const (
	stateOpen rollState = iota
	stateRollPending
	stateRolling
	stateClosed
)

// RollingFileAppender writes to a live file and rotates it when its
// condition fires, delegating the rename/discard scheme to its strategy.
type RollingFileAppender struct {
	name      string
	layout    Layout
	condition RollingCondition
	strategy  RollingStrategy

	mu          sync.Mutex
	sink        *fileSink
	state       rollState
	headerDone  bool
	lastRollErr string // dedupes rotation failure diagnostics
}

// NewRollingFileAppender opens the live file at path. condition and
// strategy are owned by the appender afterwards and consulted only under
// its write lock.
func NewRollingFileAppender(name, path string, layout Layout, model LockModel,
	condition RollingCondition, strategy RollingStrategy,
) (*RollingFileAppender, error) {
	if layout == nil {
		layout = MustPatternLayout(DefaultPattern)
	}
	a := &RollingFileAppender{
		name:      name,
		layout:    layout,
		condition: condition,
		strategy:  strategy,
		sink:      newFileSink(path, model),
	}
	if err := a.sink.open(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *RollingFileAppender) Name() string { return a.name }

// Path returns the live file path; backups live at Path().<index>.
func (a *RollingFileAppender) Path() string { return a.sink.path }

func (a *RollingFileAppender) Append(ev *LoggingEvent) error {
	line := a.layout.Format(ev)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateClosed {
		return ErrClosed
	}
	if !a.headerDone {
		a.headerDone = true
		if h := a.layout.Header(); h != "" {
			if err := a.sink.write([]byte(h)); err != nil {
				return err
			}
		}
	}
	if err := a.sink.write([]byte(line)); err != nil {
		return err
	}
	if a.condition.IsMet(FileStatus{Path: a.sink.path, Size: a.sink.size, Now: ev.At}) {
		a.state = stateRollPending
		a.roll()
	}
	return nil
}

// roll performs the rotate-then-reopen sequence while the caller holds the
// appender mutex. On failure the appender keeps writing to the current
// over-threshold file, reports the error once per occurrence, and the next
// qualifying event retries.
func (a *RollingFileAppender) roll() {
	a.state = stateRolling
	if err := a.sink.lockForRoll(); err != nil {
		a.reportRollErr(err)
		a.state = stateOpen
		return
	}
	defer a.sink.unlockAfterRoll()

	if err := a.sink.detach(); err != nil {
		a.reportRollErr(err)
		a.state = stateOpen
		return
	}

	if err := a.strategy.Roll(a.sink.path); err != nil {
		a.reportRollErr(err)
		// keep writing to the live (over-threshold) file
		if a.sink.lockModel == LockExclusive {
			if rerr := a.sink.reattach(); rerr != nil {
				reportDiag("rolling", "reopen after failed roll", rerr)
			}
		}
		a.state = stateOpen
		return
	}
	a.lastRollErr = ""

	if a.sink.lockModel == LockExclusive {
		if err := a.sink.reattach(); err != nil {
			reportDiag("rolling", "reopen after roll", err)
		}
	} else {
		a.sink.size = 0
	}
	a.headerDone = false
	a.state = stateOpen
}

func (a *RollingFileAppender) reportRollErr(err error) {
	if err.Error() == a.lastRollErr {
		return
	}
	a.lastRollErr = err.Error()
	reportDiag("rolling", "rotation failed for "+a.sink.path, err)
}

func (a *RollingFileAppender) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateClosed {
		return nil
	}
	return a.sink.sync()
}

func (a *RollingFileAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateClosed {
		return nil
	}
	a.state = stateClosed
	if a.headerDone {
		if f := a.layout.Footer(); f != "" {
			a.sink.write([]byte(f)) //nolint:errcheck
		}
	}
	return a.sink.close()
}
