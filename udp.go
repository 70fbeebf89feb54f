package xhlog

import (
	"net"
	"sync"
)

// DatagramAppender sends each rendered event as one UDP datagram. A send is
// a single non-blocking syscall per event; the appender never waits for
// delivery confirmation, and send failures are reported to the diagnostic
// channel, not retried.
type DatagramAppender struct {
	name   string
	layout Layout

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewDatagramAppender resolves addr (host:port) once at construction.
func NewDatagramAppender(name, addr string, layout Layout) (*DatagramAppender, error) {
	if layout == nil {
		layout = MustPatternLayout(DefaultPattern)
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	return &DatagramAppender{name: name, layout: layout, conn: conn}, nil
}

func (d *DatagramAppender) Name() string { return d.name }

func (d *DatagramAppender) Append(ev *LoggingEvent) error {
	payload := d.layout.Format(ev)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	_, err := d.conn.Write([]byte(payload))
	return err
}

func (d *DatagramAppender) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.conn.Close()
}
