package driver

import (
	"fmt"

	"dropelab/internal/trace"
)

// Mode selects what the driver does with each parsed file.
type Mode uint8

const (
	// ModeElaborate runs drop elaboration and prints the rewritten bodies.
	ModeElaborate Mode = iota
	// ModeClassify reports the drop style of every marker.
	ModeClassify
	// ModeDump parses and prints the input back.
	ModeDump
)

func (m Mode) String() string {
	switch m {
	case ModeElaborate:
		return "elaborate"
	case ModeClassify:
		return "classify"
	case ModeDump:
		return "dump"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

type Options struct {
	Mode Mode
	// Jobs bounds the number of files processed at once; <= 0 means
	// GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// Simplify runs CFG simplification on elaborated bodies.
	Simplify bool
	Cache    *DiskCache
	Progress ProgressSink
	// Timings records per-phase durations in FileResult.Timing.
	Timings bool
	Tracer  trace.Tracer
}

func (o *Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}
