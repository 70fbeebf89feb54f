package xhlog

// Observer pattern for repository configuration changes.

// ConfigurationChange is delivered after a repository's configuration has
// been (re)applied. Messages carries the diagnostics collected while
// applying, so external configurators can surface warnings and errors.
type ConfigurationChange struct {
	Repository string
	Messages   []Diagnostic
}

// ConfigurationListener receives configuration-changed notifications.
// Implementations must be concurrency-safe.
type ConfigurationListener interface {
	OnConfigurationChanged(ConfigurationChange)
}

// ConfigurationListenerFunc adapter.
type ConfigurationListenerFunc func(ConfigurationChange)

func (f ConfigurationListenerFunc) OnConfigurationChanged(c ConfigurationChange) { f(c) }
