package dataflow

import (
	"github.com/willf/bitset"

	"dropelab/internal/mir"
)

// Analysis is a forward gen/kill problem over a fixed bit domain.
type Analysis interface {
	Name() string
	// Domain is the number of bits in a state.
	Domain() uint
	// StartState fills the state on entry to the function.
	StartState(state *bitset.BitSet)
	// Effect applies the statement or terminator at loc.
	Effect(state *bitset.BitSet, loc mir.Location)
	// EdgeEffect applies what happens only along one outgoing edge.
	EdgeEffect(state *bitset.BitSet, term *mir.Terminator, e Edge)
}

// Results holds the fixpoint entry state of every block.
type Results struct {
	Analysis Analysis
	Func     *mir.Func

	entry      []*bitset.BitSet
	Iterations int
}

// Iterate solves a over f. Unreachable blocks keep an empty entry state.
func Iterate(f *mir.Func, a Analysis) *Results {
	n := a.Domain()
	res := &Results{Analysis: a, Func: f, entry: make([]*bitset.BitSet, len(f.Blocks))}
	for i := range res.entry {
		res.entry[i] = bitset.New(n)
	}
	if len(f.Blocks) == 0 {
		return res
	}
	a.StartState(res.entry[f.Entry])

	rpo := mir.ReversePostorder(f)
	queued := make([]bool, len(f.Blocks))
	queue := make([]mir.BlockID, 0, len(rpo))
	for _, bb := range rpo {
		queue = append(queue, bb)
		queued[bb] = true
	}

	for len(queue) > 0 {
		bb := queue[0]
		queue = queue[1:]
		queued[bb] = false
		res.Iterations++

		state := res.entry[bb].Clone()
		block := &f.Blocks[bb]
		for i := range block.Instrs {
			a.Effect(state, mir.Location{Block: bb, Index: i})
		}
		a.Effect(state, f.TerminatorLoc(bb))

		for _, e := range Edges(f, bb) {
			out := state
			if e.Kind != EdgePlain {
				out = state.Clone()
				a.EdgeEffect(out, &block.Term, e)
			}
			if join(res.entry[e.To], out) && !queued[e.To] {
				queue = append(queue, e.To)
				queued[e.To] = true
			}
		}
	}
	return res
}

func join(dst, src *bitset.BitSet) bool {
	before := dst.Count()
	dst.InPlaceUnion(src)
	return dst.Count() != before
}

// EntrySet returns the state on entry to bb. Callers must not modify it.
func (r *Results) EntrySet(bb mir.BlockID) *bitset.BitSet {
	return r.entry[bb]
}

// Cursor returns a new cursor positioned nowhere.
func (r *Results) Cursor() *Cursor {
	return &Cursor{res: r, state: bitset.New(r.Analysis.Domain()), block: mir.NoBlockID}
}
