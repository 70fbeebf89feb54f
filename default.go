package xhlog

import "sync/atomic"

// Global repository (Singleton + Facade).
var global atomic.Pointer[Repository]

// SetGlobal sets the process-wide repository.
func SetGlobal(r *Repository) { global.Store(r) }

// R returns the global repository; panics if unset to surface misconfig
// early. Build one with NewBuilder or call Default/New first.
func R() *Repository {
	r := global.Load()
	if r == nil {
		panic("xhlog: global repository not set. Build one and call xhlog.SetGlobal(...)")
	}
	return r
}

// Default creates a repository with an INFO root and a console appender
// attached at the root, so leaf loggers reach stdout through additivity.
func Default() *Repository {
	r := NewRepository("default", LevelInfo)
	r.Root().AddAppender(NewConsoleAppender("console"))
	return r
}

// New creates a default repository, sets it as global and returns it.
func New() *Repository {
	r := Default()
	SetGlobal(r)
	return r
}
