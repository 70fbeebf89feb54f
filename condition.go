package xhlog

import (
	"fmt"
	"time"
)

// FileStatus is the live-file snapshot a rolling condition is consulted
// with after each write.
type FileStatus struct {
	Path string
	Size int64
	Now  time.Time // the triggering event's timestamp
}

// RollingCondition decides when the rolling file appender must rotate.
// Conditions are consulted under the appender's write lock and may keep
// internal state (e.g. the last boundary already consumed).
type RollingCondition interface {
	IsMet(FileStatus) bool
}

// SizeRollingCondition rotates once the live file reaches MaxBytes.
type SizeRollingCondition struct {
	MaxBytes int64
}

func NewSizeRollingCondition(maxBytes int64) *SizeRollingCondition {
	return &SizeRollingCondition{MaxBytes: maxBytes}
}

func (c *SizeRollingCondition) IsMet(st FileStatus) bool {
	return c.MaxBytes > 0 && st.Size >= c.MaxBytes
}

// CalendarUnit is a fixed rotation boundary.
type CalendarUnit int

const (
	Hourly CalendarUnit = iota
	Daily
)

// ParseCalendarUnit maps a configuration value.
func ParseCalendarUnit(s string) (CalendarUnit, error) {
	switch s {
	case "hourly":
		return Hourly, nil
	case "daily", "":
		return Daily, nil
	}
	return Daily, fmt.Errorf("xhlog: unknown calendar unit %q", s)
}

// CalendarRollingCondition rotates on the first event observed after a
// fixed calendar boundary. The first call establishes the current period
// without rotating.
type CalendarRollingCondition struct {
	unit CalendarUnit
	last time.Time // truncated start of the last observed period
}

func NewCalendarRollingCondition(unit CalendarUnit) *CalendarRollingCondition {
	return &CalendarRollingCondition{unit: unit}
}

func (c *CalendarRollingCondition) truncate(t time.Time) time.Time {
	t = t.UTC()
	switch c.unit {
	case Hourly:
		return t.Truncate(time.Hour)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func (c *CalendarRollingCondition) IsMet(st FileStatus) bool {
	period := c.truncate(st.Now)
	if c.last.IsZero() {
		c.last = period
		return false
	}
	if period.Equal(c.last) {
		return false
	}
	c.last = period
	return true
}
