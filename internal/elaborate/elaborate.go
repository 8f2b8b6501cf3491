package elaborate

import (
	"context"
	"fmt"

	"dropelab/internal/dataflow"
	"dropelab/internal/diag"
	"dropelab/internal/dropgen"
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/observ"
	"dropelab/internal/trace"
	"dropelab/internal/types"
)

// Run elaborates the drops of f. It removes dead unwind edges from f
// directly; every other change is recorded in the returned patch.
//
// A body that breaks a precondition of the pass yields an *InvariantError
// and no result.
func Run(ctx context.Context, f *mir.Func, in *types.Interner, opts *Options) (res *Result, err error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFunc, "elaborate_drops", trace.CurrentSpan(ctx)).WithExtra("func", f.Name)
	detail := "ok"
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *InvariantError:
				if e.Func == "" {
					e.Func = f.Name
				}
				err = e
			case *mir.PatchError:
				err = &InvariantError{Func: f.Name, Span: f.Span, Msg: e.Error()}
			default:
				span.End("panic")
				panic(r)
			}
			res = nil
			detail = "aborted"
		}
		span.End(detail)
	}()

	r := &runner{tracer: tracer, parent: span.ID(), timer: opts.timer()}
	var md *movepath.MoveData
	var pruned []mir.BlockID
	r.phase("dead-unwinds", func() {
		md = movepath.Gather(f, in)
		pruned = RemoveDeadUnwinds(f, md)
	})

	c := &ctxt{
		f:        f,
		in:       in,
		md:       md,
		patch:    mir.NewPatch(f),
		reporter: opts.reporter(),
		flags:    make(map[movepath.Index]mir.LocalID),
		tracer:   tracer,
		span:     span.ID(),
	}
	r.phase("dataflow", func() {
		c.data = computeInitData(f, md)
		c.reachable = mir.Reachable(f)
	})
	r.phase("collect", c.collectDropFlags)
	r.phase("elaborate", c.elaborateDrops)
	r.phase("sweeps", func() {
		c.dropFlagsOnInit()
		c.dropFlagsForFnRets()
		c.dropFlagsForArgs()
		c.dropFlagsForLocs()
	})

	c.stats.Flags = len(c.flagOrder)
	c.stats.UnwindsPruned = len(pruned)
	c.stats.NewBlocks = c.patch.NumNewBlocks()
	c.stats.NewStatements = c.patch.NumNewStatements()
	detail = c.stats.String()
	return &Result{
		Patch:         c.patch,
		Flags:         c.flags,
		Moves:         md,
		PrunedUnwinds: pruned,
		Stats:         c.stats,
	}, nil
}

type runner struct {
	tracer trace.Tracer
	parent uint64
	timer  *observ.Timer
}

func (r *runner) phase(name string, fn func()) {
	sp := trace.Begin(r.tracer, trace.ScopePass, name, r.parent)
	r.timer.Measure(name, fn)
	sp.End("")
}

func computeInitData(f *mir.Func, md *movepath.MoveData) initData {
	return initData{
		inits:   dataflow.Iterate(f, dataflow.MaybeInitialized(md)).Cursor(),
		uninits: dataflow.Iterate(f, dataflow.MaybeUninitialized(md)).Cursor(),
	}
}

func (c *ctxt) elaborateDrops() {
	for i := range c.f.Blocks {
		if !c.reachable[i] {
			continue
		}
		bb := mir.BlockID(i) //nolint:gosec // bounded by block count
		block := &c.f.Blocks[i]
		loc := c.f.TerminatorLoc(bb)
		switch block.Term.Kind {
		case mir.TermDrop:
			d := block.Term.Drop
			c.data.seekBefore(loc)
			res := c.md.Find(d.Place)
			if res.Kind != movepath.Exact {
				c.stats.Markers++
				c.stats.Untracked++
				diag.ReportWarning(c.reporter, diag.ElabUntrackedDrop, block.Term.Span,
					fmt.Sprintf("drop of untracked value %s in bb%d", c.placeString(d.Place), bb)).Emit()
				if block.Cleanup {
					c.Bug(block.Term.Span, "untracked drop of %s in cleanup block bb%d", c.placeString(d.Place), bb)
				}
				continue
			}
			unwind := dropgen.InCleanup
			if !block.Cleanup {
				target := d.Unwind
				if target == mir.NoBlockID {
					target = c.patch.ResumeBlock()
				}
				unwind = dropgen.UnwindTo(target)
			}
			c.noteMarker(bb, d.Place, res, unwind)
			dropgen.ElaborateDrop(c, block.Term.Span, d.Place, res.Path, d.Target, unwind, bb)
		case mir.TermDropAndReplace:
			if block.Cleanup {
				c.Bug(block.Term.Span, "replace of %s in cleanup block bb%d", c.placeString(block.Term.Replace.Place), bb)
			}
			c.elaborateReplace(bb, loc)
		}
	}
}

// noteMarker counts and traces a tracked marker. The cursors must be
// positioned at the marker.
func (c *ctxt) noteMarker(bb mir.BlockID, place mir.Place, res movepath.LookupResult, unwind dropgen.Unwind) {
	style := c.DropStyle(res.Path, dropgen.Deep)
	c.stats.countStyle(style)
	if c.tracer != nil && c.tracer.Enabled() {
		trace.Point(c.tracer, trace.ScopeBlock, "marker",
			fmt.Sprintf("bb%d %s %s %s unwind=%s", bb, c.placeString(place), res, style, unwind), c.span)
	}
}
