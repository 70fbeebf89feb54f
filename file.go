package xhlog

import "sync"

// FileAppender writes rendered events to a single file with no rotation.
type FileAppender struct {
	name   string
	layout Layout

	mu         sync.Mutex
	sink       *fileSink
	headerDone bool
	closed     bool
}

// NewFileAppender opens (or creates) the file at path for appending.
func NewFileAppender(name, path string, layout Layout, model LockModel) (*FileAppender, error) {
	if layout == nil {
		layout = MustPatternLayout(DefaultPattern)
	}
	a := &FileAppender{
		name:   name,
		layout: layout,
		sink:   newFileSink(path, model),
	}
	if err := a.sink.open(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *FileAppender) Name() string { return a.name }

// Path returns the live file path.
func (a *FileAppender) Path() string { return a.sink.path }

func (a *FileAppender) Append(ev *LoggingEvent) error {
	line := a.layout.Format(ev)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
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
	return a.sink.write([]byte(line))
}

func (a *FileAppender) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	return a.sink.sync()
}

func (a *FileAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.headerDone {
		if f := a.layout.Footer(); f != "" {
			a.sink.write([]byte(f)) //nolint:errcheck
		}
	}
	return a.sink.close()
}

// ReleaseReopen closes and reopens the handle so external rotation (e.g.
// logrotate with copytruncate disabled) can move the file underneath.
func (a *FileAppender) ReleaseReopen() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.sink.lockModel == LockMinimal {
		return nil // no handle held between writes
	}
	if err := a.sink.detach(); err != nil {
		return err
	}
	return a.sink.reattach()
}
