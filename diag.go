package xhlog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/trickstertwo/xclock"
)

// Internal diagnostics. Sink failures, rendering panics and rotation errors
// are reported here instead of propagating to the application's log call
// site. The sink is process-wide with explicit init/teardown; inject a
// custom sink in tests.

// Diagnostic is one internal runtime message.
type Diagnostic struct {
	At        time.Time
	Component string
	Message   string
	Err       error
}

func (d Diagnostic) String() string {
	if d.Err != nil {
		return fmt.Sprintf("xhlog: %s: %s: %v", d.Component, d.Message, d.Err)
	}
	return fmt.Sprintf("xhlog: %s: %s", d.Component, d.Message)
}

// DiagnosticSink receives internal runtime diagnostics.
// Implementations must not log through the runtime itself.
type DiagnosticSink func(Diagnostic)

var (
	diagMu   sync.Mutex
	diagSink DiagnosticSink = stderrDiagnosticSink
)

func stderrDiagnosticSink(d Diagnostic) {
	fmt.Fprintln(os.Stderr, d.String())
}

// SetDiagnosticSink replaces the process-wide diagnostic sink and returns
// the previous one so callers can restore it. A nil sink silences
// diagnostics.
func SetDiagnosticSink(s DiagnosticSink) DiagnosticSink {
	diagMu.Lock()
	defer diagMu.Unlock()
	prev := diagSink
	diagSink = s
	return prev
}

// ResetDiagnosticSink restores the default stderr sink.
func ResetDiagnosticSink() {
	SetDiagnosticSink(stderrDiagnosticSink)
}

func reportDiag(component, message string, err error) {
	diagMu.Lock()
	s := diagSink
	diagMu.Unlock()
	if s == nil {
		return
	}
	s(Diagnostic{At: xclock.Now(), Component: component, Message: message, Err: err})
}
