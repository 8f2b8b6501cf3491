package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dropelab/internal/diag"
	"dropelab/internal/elaborate"
	"dropelab/internal/mir"
	"dropelab/internal/observ"
	"dropelab/internal/parser"
	"dropelab/internal/source"
	"dropelab/internal/trace"
)

func processFile(ctx context.Context, file *source.File, opts *Options) FileResult {
	started := time.Now()
	res := FileResult{Path: file.Path, FileID: file.ID, Bag: diag.NewBag(opts.maxDiagnostics())}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "file", trace.CurrentSpan(ctx)).
		WithExtra("path", file.Path)
	ctx = trace.WithSpan(ctx, span)
	defer func() {
		if res.Cached {
			span.End("cached")
		} else {
			span.End(res.Stats.String())
		}
	}()

	key := cacheKey(file, opts)
	if opts.Cache != nil {
		var payload CachePayload
		hit, err := opts.Cache.Get(key, &payload)
		if err == nil && hit {
			res.Output = payload.Output
			res.Stats = payload.Stats
			res.Timing = payload.Timing
			res.Failed = payload.Failed
			res.Cached = true
			for _, d := range payload.Diagnostics {
				res.Bag.Add(remapDiagnostic(d, file.ID))
			}
			emit(opts.Progress, Event{File: file.Path, Stage: StageRender, Status: StatusCached, Elapsed: time.Since(started)})
			return res
		}
	}

	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	// The pass and the validator can flag the same span twice.
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	emit(opts.Progress, Event{File: file.Path, Stage: StageParse, Status: StatusWorking})
	var parsed parser.Result
	timer.Measure("parse", func() {
		parsed = parser.ParseFile(file, parser.Options{
			Reporter:  reporter,
			MaxErrors: uint(opts.maxDiagnostics()), //nolint:gosec // maxDiagnostics is positive
		})
	})
	if !parsed.OK() {
		res.Failed = true
		emit(opts.Progress, Event{File: file.Path, Stage: StageParse, Status: StatusError, Elapsed: time.Since(started)})
		finish(opts, key, &res, timer)
		return res
	}
	if err := mir.Validate(parsed.Module); err != nil {
		diag.ReportError(reporter, diag.MirInvalidBody, source.Span{File: file.ID}, err.Error()).Emit()
		res.Failed = true
		emit(opts.Progress, Event{File: file.Path, Stage: StageParse, Status: StatusError, Elapsed: time.Since(started)})
		finish(opts, key, &res, timer)
		return res
	}

	m := parsed.Module
	var out strings.Builder
	switch opts.Mode {
	case ModeElaborate:
		emit(opts.Progress, Event{File: file.Path, Stage: StageElaborate, Status: StatusWorking})
		for i, f := range m.Funcs {
			if err := ctx.Err(); err != nil {
				break
			}
			if elaborated, ok := elaborateFunc(ctx, f, m, opts, reporter, timer, &res); ok {
				m.Funcs[i] = elaborated
			}
		}
		timer.Measure("render", func() { _ = mir.Dump(&out, m) })
	case ModeClassify:
		timer.Measure("classify", func() { renderClassify(ctx, &out, m) })
	case ModeDump:
		timer.Measure("render", func() { _ = mir.Dump(&out, m) })
	}
	res.Output = out.String()
	if res.Bag.HasErrors() {
		res.Failed = true
	}
	status := StatusDone
	if res.Failed {
		status = StatusError
	}
	emit(opts.Progress, Event{File: file.Path, Stage: StageRender, Status: status, Elapsed: time.Since(started)})
	finish(opts, key, &res, timer)
	return res
}

// elaborateFunc runs the pass on a copy of f. On an invariant violation
// the original body is kept and the failure is reported.
func elaborateFunc(ctx context.Context, f *mir.Func, m *mir.Module, opts *Options, reporter diag.Reporter, timer *observ.Timer, res *FileResult) (*mir.Func, bool) {
	work := f.Clone()
	result, err := elaborate.Run(ctx, work, m.Types, &elaborate.Options{Reporter: reporter, Timer: timer})
	if err != nil {
		var inv *elaborate.InvariantError
		if errors.As(err, &inv) {
			sp := inv.Span
			if sp.File != f.Span.File || sp.Empty() {
				sp = f.Span
			}
			diag.ReportError(reporter, diag.ElabInvariant, sp, inv.Error()).
				WithNote(f.Span, fmt.Sprintf("body of %s left unchanged", f.Name)).
				Emit()
			res.Aborted = append(res.Aborted, f.Name)
			return nil, false
		}
		diag.ReportError(reporter, diag.ElabInvariant, f.Span, err.Error()).Emit()
		return nil, false
	}
	res.Stats.Add(result.Stats)
	timer.Measure("apply", func() {
		result.Patch.Apply(work)
		if opts.Simplify {
			mir.SimplifyCFG(work)
		}
	})
	if err := mir.ValidateFunc(work, m.Types); err != nil {
		diag.ReportError(reporter, diag.MirInvalidBody, f.Span,
			fmt.Sprintf("elaborated body of %s is malformed: %v", f.Name, err)).Emit()
		return nil, false
	}
	return work, true
}

// renderClassify prints one line per drop marker:
//
//	bb3: drop L1 exact static
func renderClassify(ctx context.Context, out *strings.Builder, m *mir.Module) {
	for i, f := range m.Funcs {
		if i > 0 {
			out.WriteByte('\n')
		}
		fmt.Fprintf(out, "fn %s:\n", f.Name)
		for _, mr := range elaborate.ClassifyMarkers(ctx, f, m.Types) {
			kind := "drop"
			if mr.Kind == mir.TermDropAndReplace {
				kind = "replace"
			}
			fmt.Fprintf(out, "    bb%d: %s %s %s", mr.Block, kind, mir.FormatPlace(f, m.Types, mr.Place), mr.Lookup)
			if mr.Tracked() {
				fmt.Fprintf(out, " %s", mr.Style)
			}
			if mr.Cleanup {
				out.WriteString(" cleanup")
			}
			out.WriteByte('\n')
		}
	}
}

func finish(opts *Options, key Digest, res *FileResult, timer *observ.Timer) {
	if timer != nil {
		res.Timing = timer.Report()
	}
	if opts.Cache == nil || res.Cached {
		return
	}
	payload := CachePayload{
		Path:        res.Path,
		Output:      res.Output,
		Diagnostics: res.Bag.Items(),
		Stats:       res.Stats,
		Timing:      res.Timing,
		Failed:      res.Failed,
	}
	// A failed write only costs a recompute next time.
	_ = opts.Cache.Put(key, &payload)
}

// remapDiagnostic moves a cached diagnostic onto the file id assigned in
// this run. Every span of a cached entry belongs to its own file.
func remapDiagnostic(d diag.Diagnostic, id source.FileID) diag.Diagnostic {
	d.Primary.File = id
	if len(d.Notes) > 0 {
		notes := make([]diag.Note, len(d.Notes))
		for i, n := range d.Notes {
			n.Span.File = id
			notes[i] = n
		}
		d.Notes = notes
	}
	return d
}
