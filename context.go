package xhlog

import "sync"

// Diagnostic context: a process-wide stack of properties visible to every
// event emitted while a frame is held. Push returns a pop guard so the frame
// is released on all exit paths:
//
//	pop := xhlog.PushContext(xhlog.Str("request_id", id))
//	defer pop()
//
// Readers take an immutable snapshot; writers hold ctxMu. Frames are
// expected to be released LIFO per call chain, but out-of-order pops only
// remove their own frame.

type contextFrame struct {
	field Field
	seq   uint64
}

var (
	ctxMu     sync.Mutex
	ctxSeq    uint64
	ctxFrames []contextFrame
	ctxSnap   []Field // immutable; rebuilt on every mutation
)

// PushContext pushes one property onto the diagnostic context stack and
// returns the guard that removes it. The guard is idempotent.
func PushContext(f Field) (pop func()) {
	ctxMu.Lock()
	ctxSeq++
	seq := ctxSeq
	ctxFrames = append(ctxFrames, contextFrame{field: f, seq: seq})
	rebuildContextSnapshot()
	ctxMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ctxMu.Lock()
			defer ctxMu.Unlock()
			for i := len(ctxFrames) - 1; i >= 0; i-- {
				if ctxFrames[i].seq == seq {
					ctxFrames = append(ctxFrames[:i], ctxFrames[i+1:]...)
					rebuildContextSnapshot()
					return
				}
			}
		})
	}
}

// ClearContext drops every frame. Intended for test teardown.
func ClearContext() {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	ctxFrames = nil
	ctxSnap = nil
}

func rebuildContextSnapshot() {
	if len(ctxFrames) == 0 {
		ctxSnap = nil
		return
	}
	snap := make([]Field, len(ctxFrames))
	for i, fr := range ctxFrames {
		snap[i] = fr.field
	}
	ctxSnap = snap
}

// contextSnapshot returns the current stack bottom-up. The returned slice
// must be treated as immutable.
func contextSnapshot() []Field {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	return ctxSnap
}
