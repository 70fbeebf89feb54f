package xhlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConfigurationBuildsGraph(t *testing.T) {
	repo := newTestRepo(t, LevelInfo)
	dir := t.TempDir()

	var notified []ConfigurationChange
	repo.AddListener(ConfigurationListenerFunc(func(c ConfigurationChange) {
		notified = append(notified, c)
	}))

	falseV := false
	msgs := repo.ApplyConfiguration(Configuration{
		Properties: map[string]string{"app": "billing"},
		Appenders: []AppenderConfig{
			{Name: "buffer", Kind: "memory", Capacity: 100},
			{
				Name: "roll", Kind: "rolling", Pattern: "%m%n",
				Target:    filepath.Join(dir, "app.log"),
				LockModel: "minimal",
				MaxIndex:  4,
				Condition: &ConditionConfig{Kind: "size", MaxBytes: 1 << 20},
			},
		},
		Root: &LoggerConfig{Level: "WARN"},
		Loggers: []LoggerConfig{
			{Name: "svc", Level: "DEBUG", Appenders: []string{"buffer", "roll"}, Additive: &falseV},
		},
	})
	require.Empty(t, msgs, "a clean configuration yields no diagnostics")
	require.Len(t, notified, 1)
	assert.Empty(t, notified[0].Messages)
	assert.True(t, repo.Configured())

	svc := repo.GetLogger("svc")
	assert.Equal(t, LevelDebug, svc.EffectiveLevel())
	assert.False(t, svc.Additive())
	assert.Len(t, svc.Appenders(), 2)
	assert.Equal(t, LevelWarn, repo.Root().EffectiveLevel())

	svc.Debug().Msg("configured")
	mem := svc.Appenders()[0].(*MemoryAppender)
	assert.Equal(t, 1, mem.Len())
	app, ok := mem.Events()[0].Property("app")
	require.True(t, ok)
	assert.Equal(t, "billing", app.Str)

	require.NoError(t, repo.Close())
}

func TestApplyConfigurationCollectsCallerErrors(t *testing.T) {
	repo := newTestRepo(t, LevelInfo)

	msgs := repo.ApplyConfiguration(Configuration{
		Appenders: []AppenderConfig{
			{Name: "ok", Kind: "memory"},
			{Name: "bad-kind", Kind: "smtp"},
			{
				Name: "bad-cron", Kind: "rolling", Target: "unused.log",
				Condition: &ConditionConfig{Kind: "cron", Spec: "61 * * * *"},
			},
			{Kind: "memory"}, // nameless
		},
		Loggers: []LoggerConfig{
			{Name: "a", Level: "LOUD", Appenders: []string{"ok"}},
			{Name: "b", Appenders: []string{"bad-kind"}},
		},
	})

	require.Len(t, msgs, 5, "every caller error is collected, none aborts the apply")

	a := repo.GetLogger("a")
	assert.Equal(t, DefaultConfigLevel, a.EffectiveLevel(), "unknown level falls back to the default")
	assert.Len(t, a.Appenders(), 1, "valid pieces still apply")
	assert.Empty(t, repo.GetLogger("b").Appenders(), "references to skipped appenders are reported")
}

func TestApplyConfigurationReplacesInPlace(t *testing.T) {
	repo := newTestRepo(t, LevelInfo)

	first := repo.ApplyConfiguration(Configuration{
		Appenders: []AppenderConfig{{Name: "m1", Kind: "memory"}},
		Loggers:   []LoggerConfig{{Name: "svc", Appenders: []string{"m1"}}},
	})
	require.Empty(t, first)
	old := repo.GetLogger("svc").Appenders()
	require.Len(t, old, 1)

	second := repo.ApplyConfiguration(Configuration{
		Appenders: []AppenderConfig{{Name: "m2", Kind: "memory"}},
		Loggers:   []LoggerConfig{{Name: "svc", Appenders: []string{"m2"}}},
	})
	require.Empty(t, second)

	replaced := repo.GetLogger("svc").Appenders()
	require.Len(t, replaced, 1)
	assert.NotSame(t, old[0], replaced[0], "appender assignment is replaced, not appended")
}

func TestApplyConfigurationAsyncWrapping(t *testing.T) {
	repo := newTestRepo(t, LevelInfo)

	msgs := repo.ApplyConfiguration(Configuration{
		Appenders: []AppenderConfig{{Name: "m", Kind: "memory", Async: true, Capacity: 8}},
		Loggers:   []LoggerConfig{{Name: "svc", Appenders: []string{"m"}}},
	})
	require.Empty(t, msgs)

	svc := repo.GetLogger("svc")
	require.Len(t, svc.Appenders(), 1)
	_, isAsync := svc.Appenders()[0].(*AsyncAppender)
	assert.True(t, isAsync)
	require.NoError(t, repo.Close())
}

func TestCustomLevelRegistration(t *testing.T) {
	notice := NewLevel(2, "NOTICE")
	repo := NewBuilder().
		WithRootLevel(LevelInfo).
		WithLevel(notice).
		Build()

	msgs := repo.ApplyConfiguration(Configuration{
		Appenders: []AppenderConfig{{Name: "m", Kind: "memory"}},
		Loggers:   []LoggerConfig{{Name: "svc", Level: "notice", Appenders: []string{"m"}}},
	})
	require.Empty(t, msgs, "custom levels resolve case-insensitively")
	assert.Equal(t, notice, repo.GetLogger("svc").EffectiveLevel())

	got, ok := repo.Levels().LookupValue(2)
	require.True(t, ok)
	assert.Equal(t, notice, got)
	assert.Equal(t, LevelWarn, repo.Levels().LookupDefault("missing", LevelWarn))
}

func TestGlobalFacade(t *testing.T) {
	prev := global.Load()
	t.Cleanup(func() { global.Store(prev) })

	repo := newTestRepo(t, LevelInfo)
	mem := NewMemoryAppender("mem", 0)
	repo.Root().AddAppender(mem)
	SetGlobal(repo)

	GetLogger("pkg.sub").Info().Msg("through the facade")
	assert.Equal(t, 1, mem.Len())
	assert.Same(t, repo.Root(), Root())
	require.NoError(t, Flush())
}
