package xhlog

import "github.com/trickstertwo/xclock"

// Builder separates repository construction from representation.
type Builder struct {
	name          string
	rootLevel     Level
	clock         xclock.Clock
	props         []Field
	listeners     []ConfigurationListener
	captureCaller bool
	levels        []Level
}

func NewBuilder() *Builder {
	return &Builder{name: "default", rootLevel: LevelInfo}
}

func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

func (b *Builder) WithRootLevel(l Level) *Builder {
	b.rootLevel = l
	return b
}

// WithClock injects the clock used for event timestamps; defaults to the
// process clock (xclock.Now).
func (b *Builder) WithClock(c xclock.Clock) *Builder {
	b.clock = c
	return b
}

func (b *Builder) WithProperty(k, v string) *Builder {
	b.props = append(b.props, Str(k, v))
	return b
}

// WithLevel registers a custom level in the repository's level map.
func (b *Builder) WithLevel(l Level) *Builder {
	b.levels = append(b.levels, l)
	return b
}

// WithCallerCapture enables file/line capture on every event. Off by
// default; it costs a runtime.Caller per emitted event.
func (b *Builder) WithCallerCapture() *Builder {
	b.captureCaller = true
	return b
}

func (b *Builder) AddListener(l ConfigurationListener) *Builder {
	b.listeners = append(b.listeners, l)
	return b
}

// Build constructs the repository.
func (b *Builder) Build() *Repository {
	r := NewRepository(b.name, b.rootLevel)
	r.clock = b.clock
	r.captureCaller = b.captureCaller
	for _, f := range b.props {
		r.SetProperty(f.K, f.Str)
	}
	for _, l := range b.levels {
		r.levels.Add(l)
	}
	for _, lsn := range b.listeners {
		r.AddListener(lsn)
	}
	return r
}
