package xhlog

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Layout renders one LoggingEvent to text for an appender. Header and
// Footer are emitted once per appender lifetime (open and close) and may be
// empty.
type Layout interface {
	Format(*LoggingEvent) string
	Header() string
	Footer() string
}

// DefaultPattern is used when configuration supplies no pattern.
const DefaultPattern = "%d [%t] %p %c - %m%n"

// renderFailure replaces the output of a layout whose converter panicked,
// typically on a caller-supplied value with a broken String method.
const renderFailure = "!RENDER-PANIC!\n"

// converter appends one literal or computed segment of the formatted line.
type converter func(buf []byte, ev *LoggingEvent) []byte

// PatternLayout renders events through an ordered converter chain parsed
// from a pattern string.
//
// Verbs: %d/%date (optional {go-time-layout}), %p/%level, %c/%logger,
// %m/%message, %t/%thread, %e/%error, %X/%property{key}, %n, %%.
type PatternLayout struct {
	pattern    string
	converters []converter
	header     string
	footer     string
	color      bool
}

// NewPatternLayout parses a pattern; unknown verbs are configuration errors.
func NewPatternLayout(pattern string) (*PatternLayout, error) {
	p := &PatternLayout{pattern: pattern}
	if err := p.parse(pattern); err != nil {
		return nil, err
	}
	return p, nil
}

// MustPatternLayout is for patterns known good at compile time.
func MustPatternLayout(pattern string) *PatternLayout {
	p, err := NewPatternLayout(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// SetHeader sets static text emitted once when an appender opens.
func (p *PatternLayout) SetHeader(s string) { p.header = s }

// SetFooter sets static text emitted once when an appender closes.
func (p *PatternLayout) SetFooter(s string) { p.footer = s }

// SetColor toggles ANSI coloring of the level segment. Appenders writing to
// terminals enable this; file sinks leave it off.
func (p *PatternLayout) SetColor(v bool) { p.color = v }

func (p *PatternLayout) Header() string { return p.header }
func (p *PatternLayout) Footer() string { return p.footer }

func (p *PatternLayout) Format(ev *LoggingEvent) (out string) {
	defer func() {
		if r := recover(); r != nil {
			reportDiag("layout", "render panic", panicErr(r))
			out = renderFailure
		}
	}()
	buf := make([]byte, 0, 160)
	for _, c := range p.converters {
		buf = c(buf, ev)
	}
	return string(buf)
}

func (p *PatternLayout) parse(pattern string) error {
	var literal []byte
	flushLiteral := func() {
		if len(literal) == 0 {
			return
		}
		text := string(literal)
		literal = nil
		p.converters = append(p.converters, func(buf []byte, _ *LoggingEvent) []byte {
			return append(buf, text...)
		})
	}

	for i := 0; i < len(pattern); {
		ch := pattern[i]
		if ch != '%' {
			literal = append(literal, ch)
			i++
			continue
		}
		if i+1 >= len(pattern) {
			return fmt.Errorf("xhlog: pattern ends with bare %%: %q", pattern)
		}
		i++
		if pattern[i] == '%' {
			literal = append(literal, '%')
			i++
			continue
		}
		// longest alphabetic verb name, then optional {arg}
		j := i
		for j < len(pattern) && isAlpha(pattern[j]) {
			j++
		}
		verb := pattern[i:j]
		i = j
		var arg string
		if i < len(pattern) && pattern[i] == '{' {
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return fmt.Errorf("xhlog: unterminated {arg} in pattern %q", pattern)
			}
			arg = pattern[i+1 : i+end]
			i += end + 1
		}
		conv, err := p.converterFor(verb, arg)
		if err != nil {
			return err
		}
		flushLiteral()
		p.converters = append(p.converters, conv)
	}
	flushLiteral()
	return nil
}

func (p *PatternLayout) converterFor(verb, arg string) (converter, error) {
	switch verb {
	case "d", "date":
		layout := arg
		if layout == "" {
			layout = "2006-01-02 15:04:05"
		}
		f := newCachedTimeFormatter(layout)
		return func(buf []byte, ev *LoggingEvent) []byte {
			return f.append(buf, ev.At)
		}, nil
	case "p", "level":
		return func(buf []byte, ev *LoggingEvent) []byte {
			if p.color {
				buf = append(buf, levelColor(ev.Level)...)
				buf = append(buf, ev.Level.String()...)
				return append(buf, colorReset...)
			}
			return append(buf, ev.Level.String()...)
		}, nil
	case "c", "logger":
		return func(buf []byte, ev *LoggingEvent) []byte {
			if ev.LoggerName == "" {
				return append(buf, "root"...)
			}
			return append(buf, ev.LoggerName...)
		}, nil
	case "m", "message":
		return func(buf []byte, ev *LoggingEvent) []byte {
			return append(buf, ev.Message...)
		}, nil
	case "t", "thread":
		return func(buf []byte, ev *LoggingEvent) []byte {
			return strconv.AppendUint(buf, ev.Goroutine, 10)
		}, nil
	case "e", "error", "exception":
		return func(buf []byte, ev *LoggingEvent) []byte {
			if ev.Err != nil {
				buf = append(buf, ev.Err.Error()...)
			}
			return buf
		}, nil
	case "X", "property":
		if arg == "" {
			return nil, fmt.Errorf("xhlog: %%%s requires a {key}", verb)
		}
		key := arg
		return func(buf []byte, ev *LoggingEvent) []byte {
			if f, ok := ev.Property(key); ok {
				return appendFieldValue(buf, f)
			}
			return buf
		}, nil
	case "n", "newline":
		return func(buf []byte, _ *LoggingEvent) []byte {
			return append(buf, '\n')
		}, nil
	}
	return nil, fmt.Errorf("xhlog: unknown pattern verb %%%s", verb)
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// appendFieldValue renders a Field's value without reflection for every
// kind except KindAny.
func appendFieldValue(buf []byte, f Field) []byte {
	switch f.Kind {
	case KindString:
		return append(buf, f.Str...)
	case KindInt64:
		return strconv.AppendInt(buf, f.Int64, 10)
	case KindUint64:
		return strconv.AppendUint(buf, f.Uint64, 10)
	case KindFloat64:
		return strconv.AppendFloat(buf, f.Float64, 'g', -1, 64)
	case KindBool:
		return strconv.AppendBool(buf, f.Bool)
	case KindDuration:
		return append(buf, f.Dur.String()...)
	case KindTime:
		return f.Time.UTC().AppendFormat(buf, time.RFC3339Nano)
	case KindError:
		if f.Err != nil {
			return append(buf, f.Err.Error()...)
		}
		return buf
	case KindBytes:
		return append(buf, f.Bytes...)
	case KindAny:
		return append(buf, anyString(f.Any)...)
	}
	return buf
}

func anyString(v any) string { return fmt.Sprintf("%v", v) }

// Level color attributes for terminal sinks.
const colorReset = "\x1b[0m"

func levelColor(l Level) string {
	switch {
	case l.AtLeast(LevelError):
		return "\x1b[1;31m" // bold red
	case l.AtLeast(LevelWarn):
		return "\x1b[1;33m" // bold yellow
	case l.AtLeast(LevelInfo):
		return "\x1b[1;32m" // bold green
	default:
		return "\x1b[1;36m" // bold cyan
	}
}

// cachedTimeFormatter caches the formatted text for the current second.
// Log volume clusters within one second, so most calls are a single atomic
// load plus a copy. Staleness is impossible: the cache key is the truncated
// unix second of the timestamp being formatted. Layouts with sub-second
// tokens bypass the cache.
type cachedTimeFormatter struct {
	layout    string
	subSecond bool
	cache     atomic.Pointer[timeCacheEntry]
}

type timeCacheEntry struct {
	unixSec int64
	text    string
}

func newCachedTimeFormatter(layout string) *cachedTimeFormatter {
	return &cachedTimeFormatter{
		layout:    layout,
		subSecond: strings.Contains(layout, ".0") || strings.Contains(layout, ".9"),
	}
}

func (f *cachedTimeFormatter) append(buf []byte, t time.Time) []byte {
	if f.subSecond {
		return t.AppendFormat(buf, f.layout)
	}
	sec := t.Unix()
	if e := f.cache.Load(); e != nil && e.unixSec == sec {
		return append(buf, e.text...)
	}
	text := t.Format(f.layout)
	f.cache.Store(&timeCacheEntry{unixSec: sec, text: text})
	return append(buf, text...)
}
