package xhlog

// Facade helpers over the global repository.
// Usage: xhlog.GetLogger("svc.http").Info().Str("k", "v").Msg("hello")

// GetLogger returns a logger from the global repository.
func GetLogger(name string) *Logger { return R().GetLogger(name) }

// Root returns the global repository's root logger.
func Root() *Logger { return R().Root() }

// Flush flushes every appender in the global repository.
func Flush() error { return R().Flush() }

// Close closes every appender in the global repository.
func Close() error { return R().Close() }
