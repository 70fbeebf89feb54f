package xhlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cron-style rolling condition: five whitespace-separated fields
// (minute hour day-of-month month day-of-week), each `*`, a literal
// integer, or `*/N`. Day-of-week uses 0 = Sunday. The schedule matches an
// instant at minute granularity and every field must accept its unit.
//
// IsMet fires once per matching minute: the first event whose timestamp
// falls inside a matching minute triggers the roll; later events in the
// same minute do not, and the schedule re-arms as soon as a different
// minute matches.

type cronField struct {
	any     bool
	step    int // 0 = no step
	literal int
}

func (f cronField) matches(v int) bool {
	switch {
	case f.step > 0:
		return v%f.step == 0
	case f.any:
		return true
	default:
		return v == f.literal
	}
}

type cronSchedule struct {
	minute, hour, dom, month, dow cronField
}

type cronFieldSpec struct {
	name     string
	min, max int
}

var cronFieldSpecs = [5]cronFieldSpec{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

func parseCronSchedule(spec string) (cronSchedule, error) {
	var s cronSchedule
	fields := strings.Fields(spec)
	if len(fields) != 5 {
		return s, fmt.Errorf("xhlog: cron spec %q: want 5 fields, got %d", spec, len(fields))
	}
	out := [5]*cronField{&s.minute, &s.hour, &s.dom, &s.month, &s.dow}
	for i, raw := range fields {
		f, err := parseCronField(raw, cronFieldSpecs[i])
		if err != nil {
			return s, fmt.Errorf("xhlog: cron spec %q: %w", spec, err)
		}
		*out[i] = f
	}
	return s, nil
}

func parseCronField(raw string, spec cronFieldSpec) (cronField, error) {
	if raw == "*" {
		return cronField{any: true}, nil
	}
	if rest, ok := strings.CutPrefix(raw, "*/"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return cronField{}, fmt.Errorf("%s field %q: bad step", spec.name, raw)
		}
		if n <= 0 || n > spec.max-spec.min+1 {
			return cronField{}, fmt.Errorf("%s field %q: step out of range", spec.name, raw)
		}
		return cronField{step: n}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return cronField{}, fmt.Errorf("%s field %q: not an integer", spec.name, raw)
	}
	if n < spec.min || n > spec.max {
		return cronField{}, fmt.Errorf("%s field %q: value outside %d..%d", spec.name, raw, spec.min, spec.max)
	}
	return cronField{literal: n}, nil
}

// matches is a pure function of the truncated instant: two timestamps in
// the same minute always evaluate identically.
func (s cronSchedule) matches(t time.Time) bool {
	return s.minute.matches(t.Minute()) &&
		s.hour.matches(t.Hour()) &&
		s.dom.matches(t.Day()) &&
		s.month.matches(int(t.Month())) &&
		s.dow.matches(int(t.Weekday()))
}

// CronRollingCondition rotates when the event timestamp enters a minute
// accepted by the schedule.
type CronRollingCondition struct {
	schedule cronSchedule
	fired    time.Time // matching minute already consumed
}

// NewCronRollingCondition parses a five-field schedule spec.
func NewCronRollingCondition(spec string) (*CronRollingCondition, error) {
	s, err := parseCronSchedule(spec)
	if err != nil {
		return nil, err
	}
	return &CronRollingCondition{schedule: s}, nil
}

func (c *CronRollingCondition) IsMet(st FileStatus) bool {
	minute := st.Now.Truncate(time.Minute)
	if !c.schedule.matches(minute) {
		return false
	}
	if minute.Equal(c.fired) {
		return false
	}
	c.fired = minute
	return true
}

// Matches reports whether the schedule accepts the instant, without
// consuming it. Idempotent for timestamps within the same minute.
func (c *CronRollingCondition) Matches(t time.Time) bool {
	return c.schedule.matches(t.Truncate(time.Minute))
}
