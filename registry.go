package xhlog

import (
	"fmt"
	"sync"
)

// Registries mapping configuration kind names to constructors. Appender,
// condition and strategy kinds form a closed set of tagged variants;
// collaborators extend the set by registering a factory, never through
// reflection.

// AppenderFactory builds an appender from its configuration. The layout is
// already constructed from cfg.Pattern.
type AppenderFactory func(cfg AppenderConfig, layout Layout) (Appender, error)

// ConditionFactory builds a rolling condition from its configuration.
type ConditionFactory func(cfg ConditionConfig) (RollingCondition, error)

// StrategyFactory builds a rolling strategy from the appender configuration.
type StrategyFactory func(cfg AppenderConfig) (RollingStrategy, error)

var (
	registryMu sync.RWMutex
	appenders  = map[string]AppenderFactory{}
	conditions = map[string]ConditionFactory{}
	strategies = map[string]StrategyFactory{}
)

// RegisterAppenderKind makes a kind name available to ApplyConfiguration.
// Later registrations replace earlier ones.
func RegisterAppenderKind(kind string, f AppenderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	appenders[kind] = f
}

// RegisterConditionKind registers a rolling condition kind.
func RegisterConditionKind(kind string, f ConditionFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	conditions[kind] = f
}

// RegisterStrategyKind registers a rolling strategy kind.
func RegisterStrategyKind(kind string, f StrategyFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	strategies[kind] = f
}

func appenderFactory(kind string) (AppenderFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if f, ok := appenders[kind]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("xhlog: unknown appender kind %q", kind)
}

func conditionFactory(kind string) (ConditionFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if f, ok := conditions[kind]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("xhlog: unknown condition kind %q", kind)
}

func strategyFactory(kind string) (StrategyFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if f, ok := strategies[kind]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("xhlog: unknown strategy kind %q", kind)
}

func init() {
	RegisterAppenderKind("console", func(cfg AppenderConfig, layout Layout) (Appender, error) {
		w, err := consoleTarget(cfg.Target)
		if err != nil {
			return nil, err
		}
		return NewWriterAppender(cfg.Name, w, layout), nil
	})
	RegisterAppenderKind("file", func(cfg AppenderConfig, layout Layout) (Appender, error) {
		model, err := ParseLockModel(cfg.LockModel)
		if err != nil {
			return nil, err
		}
		return NewFileAppender(cfg.Name, cfg.Target, layout, model)
	})
	RegisterAppenderKind("rolling", func(cfg AppenderConfig, layout Layout) (Appender, error) {
		model, err := ParseLockModel(cfg.LockModel)
		if err != nil {
			return nil, err
		}
		if cfg.Condition == nil {
			return nil, fmt.Errorf("xhlog: rolling appender %q needs a condition", cfg.Name)
		}
		cf, err := conditionFactory(cfg.Condition.Kind)
		if err != nil {
			return nil, err
		}
		cond, err := cf(*cfg.Condition)
		if err != nil {
			return nil, err
		}
		strategyKind := cfg.Strategy
		if strategyKind == "" {
			strategyKind = "index"
		}
		sf, err := strategyFactory(strategyKind)
		if err != nil {
			return nil, err
		}
		strat, err := sf(cfg)
		if err != nil {
			return nil, err
		}
		return NewRollingFileAppender(cfg.Name, cfg.Target, layout, model, cond, strat)
	})
	RegisterAppenderKind("memory", func(cfg AppenderConfig, _ Layout) (Appender, error) {
		return NewMemoryAppender(cfg.Name, cfg.Capacity), nil
	})
	RegisterAppenderKind("udp", func(cfg AppenderConfig, layout Layout) (Appender, error) {
		return NewDatagramAppender(cfg.Name, cfg.Target, layout)
	})

	RegisterConditionKind("size", func(cfg ConditionConfig) (RollingCondition, error) {
		if cfg.MaxBytes <= 0 {
			return nil, fmt.Errorf("xhlog: size condition needs max_bytes > 0")
		}
		return NewSizeRollingCondition(cfg.MaxBytes), nil
	})
	RegisterConditionKind("calendar", func(cfg ConditionConfig) (RollingCondition, error) {
		unit, err := ParseCalendarUnit(cfg.Unit)
		if err != nil {
			return nil, err
		}
		return NewCalendarRollingCondition(unit), nil
	})
	RegisterConditionKind("cron", func(cfg ConditionConfig) (RollingCondition, error) {
		return NewCronRollingCondition(cfg.Spec)
	})

	RegisterStrategyKind("index", func(cfg AppenderConfig) (RollingStrategy, error) {
		max := cfg.MaxIndex
		if max <= 0 {
			max = 9
		}
		return NewIndexRollingStrategy(max), nil
	})
}
