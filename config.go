package xhlog

import (
	"fmt"
	"io"
	"os"

	"github.com/trickstertwo/xclock"
)

// Configuration is the object graph an external configurator hands to a
// repository. The core does not parse configuration syntax; loaders produce
// these structures (the json tags exist for their convenience) and receive
// the collected diagnostics back through the configuration-changed
// notification.
type Configuration struct {
	Properties map[string]string `json:"properties,omitempty"`
	Appenders  []AppenderConfig  `json:"appenders,omitempty"`
	Root       *LoggerConfig     `json:"root,omitempty"`
	Loggers    []LoggerConfig    `json:"loggers,omitempty"`
}

// AppenderConfig instantiates one appender through the kind registry.
type AppenderConfig struct {
	Name      string           `json:"name"`
	Kind      string           `json:"kind"`
	Pattern   string           `json:"pattern,omitempty"`
	Header    string           `json:"header,omitempty"`
	Footer    string           `json:"footer,omitempty"`
	Target    string           `json:"target,omitempty"`     // file path, host:port, stdout/stderr
	LockModel string           `json:"lock_model,omitempty"` // exclusive | minimal
	Strategy  string           `json:"strategy,omitempty"`   // rolling only; default index
	MaxIndex  int              `json:"max_index,omitempty"`
	Capacity  int              `json:"capacity,omitempty"` // memory buffer or async queue depth
	Async     bool             `json:"async,omitempty"`
	Condition *ConditionConfig `json:"condition,omitempty"`
}

// ConditionConfig selects and parameterizes a rolling condition.
type ConditionConfig struct {
	Kind     string `json:"kind"` // size | calendar | cron
	MaxBytes int64  `json:"max_bytes,omitempty"`
	Unit     string `json:"unit,omitempty"` // hourly | daily
	Spec     string `json:"spec,omitempty"` // five-field cron
}

// LoggerConfig assigns level, appenders and additivity to one logger name.
type LoggerConfig struct {
	Name      string   `json:"name"`
	Level     string   `json:"level,omitempty"`
	Appenders []string `json:"appenders,omitempty"`
	Additive  *bool    `json:"additive,omitempty"`
}

// DefaultConfigLevel is the fallback when a configured level name does not
// resolve in the repository's level map.
var DefaultConfigLevel = LevelInfo

// ApplyConfiguration applies the object graph in place: existing Logger
// references stay valid, configured loggers get their appender lists and
// levels replaced. Caller errors (unknown level name, malformed cron field,
// unknown appender kind) never abort the whole configuration; they are
// collected, the offending piece falls back or is skipped, and the full
// list is returned and delivered to configuration listeners.
func (r *Repository) ApplyConfiguration(cfg Configuration) []Diagnostic {
	var msgs []Diagnostic
	note := func(component, message string, err error) {
		msgs = append(msgs, Diagnostic{
			At:        xclock.Now(),
			Component: component,
			Message:   message,
			Err:       err,
		})
	}

	for k, v := range cfg.Properties {
		r.SetProperty(k, v)
	}

	built := make(map[string]Appender, len(cfg.Appenders))
	for _, ac := range cfg.Appenders {
		if ac.Name == "" {
			note("config", "appender without a name skipped", nil)
			continue
		}
		a, err := buildAppender(ac)
		if err != nil {
			note("config", "appender "+ac.Name+" skipped", err)
			continue
		}
		built[ac.Name] = a
	}

	if cfg.Root != nil {
		r.applyLoggerConfig(r.root, *cfg.Root, built, note)
	}
	for _, lc := range cfg.Loggers {
		if lc.Name == "" {
			note("config", "logger config without a name skipped", nil)
			continue
		}
		r.applyLoggerConfig(r.GetLogger(lc.Name), lc, built, note)
	}

	r.configured.Store(true)
	r.notifyConfigurationChanged(msgs)
	return msgs
}

func (r *Repository) applyLoggerConfig(l *Logger, lc LoggerConfig, built map[string]Appender,
	note func(string, string, error),
) {
	if lc.Level != "" {
		level, ok := r.levels.Lookup(lc.Level)
		if !ok {
			note("config", fmt.Sprintf("logger %q: unknown level %q, using %s",
				l.name, lc.Level, DefaultConfigLevel), nil)
			level = DefaultConfigLevel
		}
		l.SetLevel(level)
	}
	if lc.Appenders != nil {
		l.RemoveAllAppenders()
		for _, name := range lc.Appenders {
			a, ok := built[name]
			if !ok {
				note("config", fmt.Sprintf("logger %q: no appender named %q", l.name, name), nil)
				continue
			}
			l.AddAppender(a)
		}
	}
	if lc.Additive != nil {
		l.SetAdditive(*lc.Additive)
	}
}

func buildAppender(ac AppenderConfig) (Appender, error) {
	pattern := ac.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	layout, err := NewPatternLayout(pattern)
	if err != nil {
		return nil, err
	}
	layout.SetHeader(ac.Header)
	layout.SetFooter(ac.Footer)

	f, err := appenderFactory(ac.Kind)
	if err != nil {
		return nil, err
	}
	a, err := f(ac, layout)
	if err != nil {
		return nil, err
	}
	if ac.Async {
		a = NewAsyncAppender(ac.Name+".async", a, ac.Capacity)
	}
	return a, nil
}

func consoleTarget(target string) (io.Writer, error) {
	switch target {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	return nil, fmt.Errorf("xhlog: unknown console target %q", target)
}
