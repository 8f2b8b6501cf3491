package elaborate

import (
	"dropelab/internal/dataflow"
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
)

// RemoveDeadUnwinds clears the unwind edge of every drop or replace whose
// drop subtree is not maybe-initialized at the drop: such a drop cannot run
// a destructor, so it cannot unwind. It edits f in place and returns the
// blocks it changed.
func RemoveDeadUnwinds(f *mir.Func, md *movepath.MoveData) []mir.BlockID {
	inits := dataflow.Iterate(f, dataflow.MaybeInitialized(md)).Cursor()
	var dead []mir.BlockID
	for i := range f.Blocks {
		bb := mir.BlockID(i) //nolint:gosec // bounded by block count
		term := &f.Blocks[i].Term
		place, ok := dropTarget(term)
		if !ok {
			continue
		}
		if _, hasUnwind := term.UnwindTarget(); !hasUnwind {
			continue
		}
		res := md.Find(place)
		if res.Kind != movepath.Exact {
			continue
		}
		inits.SeekBefore(f.TerminatorLoc(bb))
		live := false
		md.OnAllDropChildren(res.Path, func(child movepath.Index) {
			live = live || inits.Contains(child)
		})
		if !live {
			dead = append(dead, bb)
		}
	}
	for _, bb := range dead {
		f.Blocks[bb].Term.ClearUnwind()
	}
	return dead
}

// dropTarget returns the dropped place of a drop or replace terminator.
func dropTarget(term *mir.Terminator) (mir.Place, bool) {
	switch term.Kind {
	case mir.TermDrop:
		return term.Drop.Place, true
	case mir.TermDropAndReplace:
		return term.Replace.Place, true
	}
	return mir.Place{}, false
}
