package xhlog

import (
	"strings"
	"sync"
)

// LevelMap resolves level names to canonical Level values for one repository.
// Name lookup is case-insensitive. Unknown names resolve to a caller-supplied
// default rather than failing, so bad configuration degrades instead of
// aborting.
type LevelMap struct {
	mu      sync.RWMutex
	byName  map[string]Level
	byValue map[int32]Level
}

func newLevelMap() *LevelMap {
	m := &LevelMap{
		byName:  make(map[string]Level, len(builtinLevels)),
		byValue: make(map[int32]Level, len(builtinLevels)),
	}
	for _, l := range builtinLevels {
		m.add(l)
	}
	return m
}

func (m *LevelMap) add(l Level) {
	m.byName[strings.ToUpper(l.name)] = l
	m.byValue[l.value] = l
}

// Add registers a custom level. A level with the same name or the same value
// replaces the earlier registration, keeping the value-to-level mapping
// canonical repository-wide.
func (m *LevelMap) Add(l Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(l)
}

// Lookup resolves a level by name.
func (m *LevelMap) Lookup(name string) (Level, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.byName[strings.ToUpper(name)]
	return l, ok
}

// LookupDefault resolves a level by name, falling back to def.
func (m *LevelMap) LookupDefault(name string, def Level) Level {
	if l, ok := m.Lookup(name); ok {
		return l
	}
	return def
}

// LookupValue returns the canonical Level registered for a numeric value.
func (m *LevelMap) LookupValue(value int32) (Level, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.byValue[value]
	return l, ok
}
