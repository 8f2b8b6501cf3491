package dataflow

import (
	"github.com/willf/bitset"

	"dropelab/internal/mir"
	"dropelab/internal/movepath"
)

// initAnalysis implements both maybe-init and maybe-uninit; uninit flips
// which flag state sets a bit.
type initAnalysis struct {
	md     *movepath.MoveData
	uninit bool
	// flagged holds the paths that have a drop flag in the body.
	flagged map[movepath.Index]bool
}

// MaybeInitialized computes which move paths may be initialized.
func MaybeInitialized(md *movepath.MoveData) Analysis {
	return newInitAnalysis(md, false)
}

// MaybeUninitialized computes which move paths may be uninitialized.
func MaybeUninitialized(md *movepath.MoveData) Analysis {
	return newInitAnalysis(md, true)
}

func newInitAnalysis(md *movepath.MoveData, uninit bool) *initAnalysis {
	a := &initAnalysis{md: md, uninit: uninit, flagged: make(map[movepath.Index]bool)}
	for _, l := range md.Func().Locals {
		if l.FlagOf == nil {
			continue
		}
		if res := md.Find(*l.FlagOf); res.Kind == movepath.Exact {
			a.flagged[res.Path] = true
		}
	}
	return a
}

func (a *initAnalysis) Name() string {
	if a.uninit {
		return "maybe_uninit"
	}
	return "maybe_init"
}

func (a *initAnalysis) Domain() uint {
	return uint(len(a.md.Paths))
}

func (a *initAnalysis) update(state *bitset.BitSet, path movepath.Index, s movepath.DropFlagState) {
	bit := uint(path) //nolint:gosec // move path indices are non-negative
	if (s == movepath.Present) != a.uninit {
		state.Set(bit)
	} else {
		state.Clear(bit)
	}
}

func (a *initAnalysis) StartState(state *bitset.BitSet) {
	if a.uninit {
		for i, n := uint(0), a.Domain(); i < n; i++ {
			state.Set(i)
		}
	}
	a.md.FlagEffectsForEntry(func(p movepath.Index, s movepath.DropFlagState) {
		a.update(state, p, s)
	})
}

func (a *initAnalysis) Effect(state *bitset.BitSet, loc mir.Location) {
	a.md.FlagEffectsForLocation(loc, func(p movepath.Index, s movepath.DropFlagState) {
		a.update(state, p, s)
	})
}

func (a *initAnalysis) EdgeEffect(state *bitset.BitSet, term *mir.Terminator, e Edge) {
	switch e.Kind {
	case EdgeCallReturn:
		a.md.OnLookupResult(a.md.Find(term.Call.Dst), func(p movepath.Index) {
			a.update(state, p, movepath.Present)
		})
	case EdgeSwitchCase:
		onAllInactiveVariants(a.md, term.SwitchTag.Place, e.Variant, func(p movepath.Index) {
			a.update(state, p, movepath.Absent)
		})
	case EdgeSwitchDefault:
		// the cased variants hold nothing on this edge, so their subtrees
		// are neither maybe-init nor maybe-uninit
		onAllCasedVariants(a.md, &term.SwitchTag, func(p movepath.Index) {
			state.Clear(uint(p)) //nolint:gosec // move path indices are non-negative
		})
	case EdgeFlagSet, EdgeFlagUnset:
		// a flag test only rules states out: a set flag clears maybe-uninit,
		// an unset one clears maybe-init
		if (e.Kind == EdgeFlagSet) != a.uninit {
			return
		}
		flag := a.md.Func().Locals[term.If.Cond.Place.Local].FlagOf
		res := a.md.Find(*flag)
		if res.Kind != movepath.Exact {
			return
		}
		s := movepath.Absent
		if e.Kind == EdgeFlagSet {
			s = movepath.Present
		}
		a.onFlagCovered(res.Path, func(p movepath.Index) { a.update(state, p, s) })
	}
}

// onFlagCovered visits path and the part of its subtree whose state the
// flag of path stands for: descendants with a flag of their own are
// skipped together with their subtrees.
func (a *initAnalysis) onFlagCovered(path movepath.Index, fn func(movepath.Index)) {
	fn(path)
	for _, child := range a.md.Children(path) {
		if !a.flagged[child] {
			a.onFlagCovered(child, fn)
		}
	}
}

// onAllInactiveVariants visits the downcast subtrees of place for every
// variant other than active.
func onAllInactiveVariants(md *movepath.MoveData, place mir.Place, active int, fn func(movepath.Index)) {
	res := md.Find(place)
	if res.Kind != movepath.Exact {
		return
	}
	for _, child := range md.Children(res.Path) {
		proj := md.Paths[child].Place.Proj
		last := proj[len(proj)-1]
		if last.Kind == mir.PlaceProjDowncast && last.Variant != active {
			md.OnAllChildren(child, fn)
		}
	}
}

// onAllCasedVariants visits the downcast subtrees of the switched place for
// every variant with an explicit case.
func onAllCasedVariants(md *movepath.MoveData, sw *mir.SwitchTagTerm, fn func(movepath.Index)) {
	res := md.Find(sw.Place)
	if res.Kind != movepath.Exact {
		return
	}
	for _, child := range md.Children(res.Path) {
		proj := md.Paths[child].Place.Proj
		last := proj[len(proj)-1]
		if last.Kind != mir.PlaceProjDowncast {
			continue
		}
		for _, c := range sw.Cases {
			if c.Variant == last.Variant {
				md.OnAllChildren(child, fn)
				break
			}
		}
	}
}
