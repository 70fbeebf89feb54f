package xhlog

import (
	"math"
	"strconv"
)

// Level is an ordered severity value with a display name.
// Numeric values mirror slog semantics; higher means more severe.
// Levels are immutable value types and safe to copy.
type Level struct {
	value int32
	name  string
}

// NewLevel builds a custom level. Register it with a repository's LevelMap
// so configuration can resolve it by name.
func NewLevel(value int32, name string) Level {
	return Level{value: value, name: name}
}

var (
	LevelAll   = Level{math.MinInt32, "ALL"}
	LevelTrace = Level{-8, "TRACE"}
	LevelDebug = Level{-4, "DEBUG"}
	LevelInfo  = Level{0, "INFO"}
	LevelWarn  = Level{4, "WARN"}
	LevelError = Level{8, "ERROR"}
	LevelFatal = Level{12, "FATAL"}
	LevelOff   = Level{math.MaxInt32, "OFF"}
)

// Value returns the numeric severity.
func (l Level) Value() int32 { return l.value }

// Name returns the display name.
func (l Level) Name() string { return l.name }

func (l Level) String() string {
	if l.name != "" {
		return l.name
	}
	return strconv.Itoa(int(l.value))
}

// AtLeast reports whether l is as severe as min.
func (l Level) AtLeast(min Level) bool { return l.value >= min.value }

// builtinLevels seeds every new LevelMap.
var builtinLevels = []Level{
	LevelAll, LevelTrace, LevelDebug, LevelInfo,
	LevelWarn, LevelError, LevelFatal, LevelOff,
}
