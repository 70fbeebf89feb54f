package xhlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(msg string) *LoggingEvent {
	return &LoggingEvent{
		At:         testInstant,
		Level:      LevelInfo,
		LoggerName: "roll.test",
		Message:    msg,
	}
}

func msgLayout(t *testing.T) *PatternLayout {
	t.Helper()
	l, err := NewPatternLayout("%m%n")
	require.NoError(t, err)
	return l
}

func TestRollingAppenderSizeRotation(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "app.log")

	a, err := NewRollingFileAppender("roll", live, msgLayout(t), LockExclusive,
		NewSizeRollingCondition(64), NewIndexRollingStrategy(5))
	require.NoError(t, err)
	defer a.Close()

	line := strings.Repeat("x", 31) // 32 bytes with newline
	require.NoError(t, a.Append(testEvent(line)))
	_, err = os.Stat(backupPath(live, 0))
	assert.True(t, os.IsNotExist(err), "below threshold, no rotation yet")

	require.NoError(t, a.Append(testEvent(line)))
	b, err := os.ReadFile(backupPath(live, 0))
	require.NoError(t, err, "reaching the threshold rotates")
	assert.Equal(t, 2, strings.Count(string(b), "\n"), "history keeps both lines")

	require.NoError(t, a.Append(testEvent("fresh")))
	liveContent, err := os.ReadFile(live)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(liveContent), "writes continue into a fresh live file")
}

func TestRollingAppenderMinimalLockModel(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "shared.log")

	a, err := NewRollingFileAppender("roll", live, msgLayout(t), LockMinimal,
		NewSizeRollingCondition(1<<20), NewIndexRollingStrategy(3))
	require.NoError(t, err)

	require.NoError(t, a.Append(testEvent("one")))
	require.NoError(t, a.Append(testEvent("two")))
	require.NoError(t, a.Close())

	b, err := os.ReadFile(live)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(b))
}

type failingStrategy struct {
	calls int
	err   error
}

func (s *failingStrategy) Roll(string) error {
	s.calls++
	return s.err
}

func TestRollingAppenderRotationFailure(t *testing.T) {
	rec := captureDiags(t)
	dir := t.TempDir()
	live := filepath.Join(dir, "stuck.log")

	strat := &failingStrategy{err: errors.New("rename: permission denied")}
	a, err := NewRollingFileAppender("roll", live, msgLayout(t), LockExclusive,
		NewSizeRollingCondition(8), strat)
	require.NoError(t, err)
	defer a.Close()

	// Every append is over threshold, so every append retries the rotation.
	require.NoError(t, a.Append(testEvent("0123456789")))
	require.NoError(t, a.Append(testEvent("0123456789")))
	require.NoError(t, a.Append(testEvent("0123456789")))

	assert.Equal(t, 3, strat.calls, "retry happens on the next qualifying event, not in a loop")

	var rollDiags int
	for _, d := range rec.All() {
		if d.Component == "rolling" && strings.Contains(d.Message, "rotation failed") {
			rollDiags++
		}
	}
	assert.Equal(t, 1, rollDiags, "the same failure is reported once per occurrence")

	b, err := os.ReadFile(live)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(b), "\n"), "appender keeps writing the over-threshold file")
}

func TestRollingAppenderRotationFailureRecovers(t *testing.T) {
	rec := captureDiags(t)
	dir := t.TempDir()
	live := filepath.Join(dir, "flaky.log")

	strat := &failingStrategy{err: errors.New("transient")}
	a, err := NewRollingFileAppender("roll", live, msgLayout(t), LockExclusive,
		NewSizeRollingCondition(4), strat)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Append(testEvent("abcdef")))
	require.Equal(t, 1, strat.calls)

	// The strategy heals; the next qualifying event rotates for real.
	strat.err = nil
	inner := NewIndexRollingStrategy(3)
	a.strategy = strategyFunc(func(path string) error { return inner.Roll(path) })
	require.NoError(t, a.Append(testEvent("ghijkl")))

	_, err = os.Stat(backupPath(live, 0))
	assert.NoError(t, err)
	assert.NotEmpty(t, rec.All())

	// A later distinct failure is reported again.
	a.strategy = &failingStrategy{err: errors.New("disk full")}
	require.NoError(t, a.Append(testEvent("mnopqr")))
	var distinct int
	for _, d := range rec.All() {
		if d.Component == "rolling" && strings.Contains(d.Message, "rotation failed") {
			distinct++
		}
	}
	assert.Equal(t, 2, distinct)
}

type strategyFunc func(string) error

func (f strategyFunc) Roll(path string) error { return f(path) }

func TestRollingAppenderClosedRejectsAppends(t *testing.T) {
	dir := t.TempDir()
	a, err := NewRollingFileAppender("roll", filepath.Join(dir, "c.log"), msgLayout(t),
		LockExclusive, NewSizeRollingCondition(1<<20), NewIndexRollingStrategy(3))
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "close is idempotent")
	assert.ErrorIs(t, a.Append(testEvent("late")), ErrClosed)
}

func TestRollingAppenderCronRotation(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "cron.log")

	cond, err := NewCronRollingCondition("* * * * *") // every minute boundary
	require.NoError(t, err)
	a, err := NewRollingFileAppender("roll", live, msgLayout(t), LockExclusive,
		cond, NewIndexRollingStrategy(3))
	require.NoError(t, err)
	defer a.Close()

	ev := testEvent("first minute")
	require.NoError(t, a.Append(ev))
	_, statErr := os.Stat(backupPath(live, 0))
	require.NoError(t, statErr, "every-minute schedule consumes the first minute immediately")

	// Same minute: no second rotation.
	require.NoError(t, a.Append(testEvent("same minute")))
	_, statErr = os.Stat(backupPath(live, 1))
	assert.True(t, os.IsNotExist(statErr))

	// Next minute rotates again.
	next := testEvent("next minute")
	next.At = testInstant.Add(time.Minute)
	require.NoError(t, a.Append(next))
	_, statErr = os.Stat(backupPath(live, 1))
	assert.NoError(t, statErr)
}
