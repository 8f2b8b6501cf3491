package elaborate

import (
	"context"

	"dropelab/internal/dataflow"
	"dropelab/internal/dropgen"
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/trace"
	"dropelab/internal/types"
)

// Classify maps the unioned maybe-live and maybe-dead bits of a drop and
// whether it covers more than one path to its style.
func Classify(live, dead, multi bool) dropgen.DropStyle {
	switch {
	case !live:
		return dropgen.StyleDead
	case !dead:
		return dropgen.StyleStatic
	case !multi:
		return dropgen.StyleConditional
	default:
		return dropgen.StyleOpen
	}
}

// initData queries both cursors at the same position.
type initData struct {
	inits   *dataflow.Cursor
	uninits *dataflow.Cursor
}

func (d *initData) seekBefore(loc mir.Location) {
	d.inits.SeekBefore(loc)
	d.uninits.SeekBefore(loc)
}

func (d *initData) maybeLiveDead(path movepath.Index) (live, dead bool) {
	return d.inits.Contains(path), d.uninits.Contains(path)
}

func dropStyle(md *movepath.MoveData, data *initData, path movepath.Index, mode dropgen.DropFlagMode) dropgen.DropStyle {
	if mode == dropgen.Shallow {
		live, dead := data.maybeLiveDead(path)
		return Classify(live, dead, false)
	}
	var live, dead bool
	n := 0
	md.OnAllDropChildren(path, func(child movepath.Index) {
		l, d := data.maybeLiveDead(child)
		live = live || l
		dead = dead || d
		n++
	})
	return Classify(live, dead, n != 1)
}

// MarkerReport describes one reachable drop or replace of a body.
type MarkerReport struct {
	Block   mir.BlockID
	Kind    mir.TermKind
	Place   mir.Place
	Lookup  movepath.LookupResult
	Style   dropgen.DropStyle
	Cleanup bool
}

// Tracked reports whether the marker's place has its own move path. Style
// is meaningful only for tracked markers.
func (m *MarkerReport) Tracked() bool {
	return m.Lookup.Kind == movepath.Exact
}

// ClassifyMarkers reports the deep drop style of every reachable marker of
// f without rewriting anything. Styles are computed the way Run sees them,
// after dead unwinds are pruned from a copy of f.
func ClassifyMarkers(ctx context.Context, f *mir.Func, in *types.Interner) []MarkerReport {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFunc, "classify", trace.CurrentSpan(ctx)).WithExtra("func", f.Name)
	defer span.End("")

	f = f.Clone()
	md := movepath.Gather(f, in)
	RemoveDeadUnwinds(f, md)
	data := computeInitData(f, md)
	reachable := mir.Reachable(f)

	var out []MarkerReport
	for i := range f.Blocks {
		if !reachable[i] {
			continue
		}
		bb := mir.BlockID(i) //nolint:gosec // bounded by block count
		term := &f.Blocks[i].Term
		place, ok := dropTarget(term)
		if !ok {
			continue
		}
		rep := MarkerReport{
			Block:   bb,
			Kind:    term.Kind,
			Place:   place,
			Lookup:  md.Find(place),
			Cleanup: f.Blocks[i].Cleanup,
		}
		if rep.Tracked() {
			data.seekBefore(f.TerminatorLoc(bb))
			rep.Style = dropStyle(md, &data, rep.Lookup.Path, dropgen.Deep)
		}
		out = append(out, rep)
	}
	return out
}
