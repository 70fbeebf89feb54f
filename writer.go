package xhlog

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// WriterAppender renders events through its layout and writes them to an
// io.Writer behind a mutex, so one instance can be shared by several
// loggers. Writing to a terminal enables colored level output when the
// layout supports it.
type WriterAppender struct {
	name   string
	layout Layout

	mu         sync.Mutex
	out        io.Writer
	headerDone bool
	closed     bool
}

// NewWriterAppender wraps w. A nil layout gets the default pattern. When w
// is a terminal file and the layout is a PatternLayout, level coloring is
// switched on.
func NewWriterAppender(name string, w io.Writer, layout Layout) *WriterAppender {
	if layout == nil {
		layout = MustPatternLayout(DefaultPattern)
	}
	if p, ok := layout.(*PatternLayout); ok {
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			p.SetColor(true)
		}
	}
	return &WriterAppender{name: name, out: w, layout: layout}
}

// NewConsoleAppender writes to stdout with the default pattern.
func NewConsoleAppender(name string) *WriterAppender {
	return NewWriterAppender(name, os.Stdout, nil)
}

func (w *WriterAppender) Name() string { return w.name }

func (w *WriterAppender) Append(ev *LoggingEvent) error {
	line := w.layout.Format(ev)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if !w.headerDone {
		w.headerDone = true
		if h := w.layout.Header(); h != "" {
			if _, err := io.WriteString(w.out, h); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w.out, line)
	return err
}

func (w *WriterAppender) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f, ok := w.out.(interface{ Sync() error }); ok && !w.closed {
		// stdout/stderr report EINVAL for Sync on some platforms; that is
		// not a logging failure
		if f, isFile := w.out.(*os.File); isFile && (f == os.Stdout || f == os.Stderr) {
			return nil
		}
		return f.Sync()
	}
	return nil
}

// Close writes the layout footer once. The underlying writer is closed only
// if the appender owns it (it is an io.Closer other than stdout/stderr).
func (w *WriterAppender) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.headerDone {
		if f := w.layout.Footer(); f != "" {
			io.WriteString(w.out, f) //nolint:errcheck
		}
	}
	if c, ok := w.out.(io.Closer); ok {
		if f, isFile := w.out.(*os.File); isFile && (f == os.Stdout || f == os.Stderr) {
			return nil
		}
		return c.Close()
	}
	return nil
}
