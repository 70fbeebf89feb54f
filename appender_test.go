package xhlog

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// safeBuffer is a bytes.Buffer safe for cross-goroutine use in tests.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestMemoryAppenderBoundedOrder(t *testing.T) {
	m := NewMemoryAppender("mem", 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Append(testEvent(strconv.Itoa(i))))
	}
	events := m.Events()
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, strconv.Itoa(i+2), ev.Message, "oldest events are dropped, order preserved")
	}

	drained := m.Drain()
	assert.Len(t, drained, 3)
	assert.Zero(t, m.Len())

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Append(testEvent("late")), ErrClosed)
}

func TestForwardingAppenderFanOutAndIsolation(t *testing.T) {
	rec := captureDiags(t)
	healthy := NewMemoryAppender("healthy", 0)
	broken := &funcAppender{name: "broken", fn: func(*LoggingEvent) error {
		return errors.New("sink unavailable")
	}}

	fwd := NewForwardingAppender("fanout", broken, healthy)
	for i := 0; i < 3; i++ {
		require.NoError(t, fwd.Append(testEvent("fan")))
	}
	assert.Equal(t, 3, healthy.Len())
	assert.Len(t, rec.All(), 3)

	require.True(t, fwd.DetachAppender("broken"))
	require.False(t, fwd.DetachAppender("broken"))
	require.NoError(t, fwd.Append(testEvent("fan")))
	assert.Len(t, rec.All(), 3, "detached appender no longer fails")

	require.NoError(t, fwd.Close())
	require.NoError(t, fwd.Close())
	assert.ErrorIs(t, fwd.Append(testEvent("late")), ErrClosed)
	assert.ErrorIs(t, healthy.Append(testEvent("late")), ErrClosed, "close cascades to targets")
}

func TestAsyncAppenderPreservesOrder(t *testing.T) {
	mem := NewMemoryAppender("mem", 0)
	a := NewAsyncAppender("async", mem, 16)

	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, a.Append(testEvent(strconv.Itoa(i))))
	}
	require.NoError(t, a.Close())

	events := mem.Events()
	require.Len(t, events, n, "close drains the queue")
	for i, ev := range events {
		require.Equal(t, strconv.Itoa(i), ev.Message, "buffered events drain in arrival order")
	}
	assert.ErrorIs(t, a.Append(testEvent("late")), ErrClosed)
}

func TestAsyncAppenderFlush(t *testing.T) {
	mem := NewMemoryAppender("mem", 0)
	a := NewAsyncAppender("async", mem, 64)
	defer a.Close()

	for i := 0; i < 50; i++ {
		require.NoError(t, a.Append(testEvent("x")))
	}
	require.NoError(t, a.Flush())
	assert.Eventually(t, func() bool { return mem.Len() == 50 },
		2*time.Second, 5*time.Millisecond)
}

func TestDatagramAppenderSingleSend(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	a, err := NewDatagramAppender("udp", pc.LocalAddr().String(), msgLayout(t))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Append(testEvent("over the wire")))

	buf := make([]byte, 256)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "over the wire\n", string(buf[:n]))

	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Append(testEvent("late")), ErrClosed)
}

func TestRepositoryClosesSharedAppenderOnce(t *testing.T) {
	repo := newTestRepo(t, LevelInfo)

	var closes int
	shared := &countingCloser{funcAppender: funcAppender{
		name: "shared",
		fn:   func(*LoggingEvent) error { return nil },
	}, closes: &closes}

	repo.Root().AddAppender(shared)
	repo.GetLogger("a").AddAppender(shared)
	repo.GetLogger("b.c").AddAppender(shared)

	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close(), "repository close is idempotent")
	assert.Equal(t, 1, closes, "a shared appender instance closes exactly once")
}

type countingCloser struct {
	funcAppender
	closes *int
}

func (c *countingCloser) Close() error {
	*c.closes++
	return nil
}

func TestRepositoryCloseAggregatesErrors(t *testing.T) {
	repo := newTestRepo(t, LevelInfo)
	repo.Root().AddAppender(&closeFailer{name: "one"})
	repo.GetLogger("x").AddAppender(&closeFailer{name: "two"})

	err := repo.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one")
	assert.Contains(t, err.Error(), "two")
}

type closeFailer struct{ name string }

func (c *closeFailer) Name() string               { return c.name }
func (c *closeFailer) Append(*LoggingEvent) error { return nil }
func (c *closeFailer) Close() error               { return fmt.Errorf("%s: close failed", c.name) }
