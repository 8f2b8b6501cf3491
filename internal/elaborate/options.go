package elaborate

import (
	"dropelab/internal/diag"
	"dropelab/internal/observ"
)

// Options configure a run. The zero value discards diagnostics and does
// not time phases.
type Options struct {
	Reporter diag.Reporter
	// Timer, when set, is charged one phase per pass step.
	Timer *observ.Timer
}

func (o *Options) reporter() diag.Reporter {
	if o == nil || o.Reporter == nil {
		return diag.NopReporter{}
	}
	return o.Reporter
}

func (o *Options) timer() *observ.Timer {
	if o == nil {
		return nil
	}
	return o.Timer
}
