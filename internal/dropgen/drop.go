package dropgen

import (
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/source"
	"dropelab/internal/types"
)

// BoxFree is the callee of the call that releases an own box allocation
// after its contents have been dropped.
const BoxFree = "box_free"

type dropCtxt struct {
	e      Elaborator
	span   source.Span
	place  mir.Place
	path   movepath.Index
	succ   mir.BlockID
	unwind Unwind
}

type fieldDrop struct {
	place mir.Place
	path  movepath.Index
}

// ElaborateDrop replaces the terminator of bb, a drop of place tracked by
// path, with the elaborated form. succ is where control continues after
// the drop and unwind where it goes if the drop panics.
func ElaborateDrop(e Elaborator, span source.Span, place mir.Place, path movepath.Index, succ mir.BlockID, unwind Unwind, bb mir.BlockID) {
	d := &dropCtxt{e: e, span: span, place: place, path: path, succ: succ, unwind: unwind}
	d.elaborateDrop(bb)
}

func (d *dropCtxt) patch() *mir.Patch {
	return d.e.Patch()
}

func (d *dropCtxt) elaborateDrop(bb mir.BlockID) {
	switch d.e.DropStyle(d.path, Deep) {
	case StyleDead:
		d.patch().PatchTerminator(bb, d.term(mir.Goto(d.succ)))
	case StyleStatic:
		d.patch().PatchTerminator(bb, d.term(mir.Drop(d.place, d.succ, d.unwind.IntoOption())))
	case StyleConditional:
		drop := d.completeDrop(true, d.succ, d.unwind)
		d.patch().PatchTerminator(bb, d.term(mir.Goto(drop)))
	case StyleOpen:
		drop := d.openDrop()
		d.patch().PatchTerminator(bb, d.term(mir.Goto(drop)))
	}
}

func (d *dropCtxt) term(t mir.Terminator) mir.Terminator {
	t.Span = d.span
	return t
}

func (d *dropCtxt) types() *types.Interner {
	return d.e.Types()
}

func (d *dropCtxt) placeType(place mir.Place) mir.PlaceTy {
	ty, ok := mir.PlaceType(d.e.Func(), d.types(), place)
	if !ok {
		d.e.Bug(d.span, "cannot type place %s", mir.FormatPlace(d.e.Func(), d.types(), place))
	}
	return ty
}

func (d *dropCtxt) newBlock(unwind Unwind, term mir.Terminator) mir.BlockID {
	return d.patch().NewBlock(mir.Block{Term: d.term(term), Cleanup: unwind.IsCleanup()})
}

func (d *dropCtxt) dropBlock(target mir.BlockID, unwind Unwind) mir.BlockID {
	return d.newBlock(unwind, mir.Drop(d.place, target, unwind.IntoOption()))
}

func (d *dropCtxt) gotoBlock(target mir.BlockID, unwind Unwind) mir.BlockID {
	return d.newBlock(unwind, mir.Goto(target))
}

// elaboratedDropBlock creates a drop block for the current place and
// elaborates it in turn.
func (d *dropCtxt) elaboratedDropBlock() mir.BlockID {
	blk := d.dropBlock(d.succ, d.unwind)
	d.elaborateDrop(blk)
	return blk
}

// completeDrop drops the whole place behind a test of its shallow flag,
// optionally clearing the deep flags first.
func (d *dropCtxt) completeDrop(clearFlags bool, succ mir.BlockID, unwind Unwind) mir.BlockID {
	drop := d.dropBlock(succ, unwind)
	if clearFlags {
		drop = d.dropFlagResetBlock(Deep, drop, unwind)
	}
	return d.dropFlagTestBlock(drop, succ, unwind)
}

// dropFlagResetBlock clears the flags and continues to succ. Unwind paths
// never read the flags again, so in cleanup mode it is succ itself.
func (d *dropCtxt) dropFlagResetBlock(mode DropFlagMode, succ mir.BlockID, unwind Unwind) mir.BlockID {
	if unwind.IsCleanup() {
		return succ
	}
	blk := d.newBlock(unwind, mir.Goto(succ))
	d.e.ClearDropFlag(mir.Location{Block: blk, Index: 0}, d.path, mode)
	return blk
}

func (d *dropCtxt) dropFlagTestBlock(onSet, onUnset mir.BlockID, unwind Unwind) mir.BlockID {
	switch d.e.DropStyle(d.path, Shallow) {
	case StyleDead:
		return onUnset
	case StyleStatic:
		return onSet
	}
	flag, ok := d.e.DropFlag(d.path)
	if !ok {
		d.e.Bug(d.span, "no drop flag for %s", mir.FormatPlace(d.e.Func(), d.types(), d.place))
	}
	return d.newBlock(unwind, mir.If(mir.Copy(mir.LocalPlace(flag)), onSet, onUnset))
}

func (d *dropCtxt) dropSubpath(place mir.Place, path movepath.Index, succ mir.BlockID, unwind Unwind) mir.BlockID {
	if path != movepath.NoIndex {
		sub := &dropCtxt{e: d.e, span: d.span, place: place, path: path, succ: succ, unwind: unwind}
		return sub.elaboratedDropBlock()
	}
	sub := &dropCtxt{e: d.e, span: d.span, place: place, path: d.path, succ: succ, unwind: unwind}
	return sub.completeDrop(false, succ, unwind)
}

// dropHalfladder chains drops of fields in reverse, so the first field is
// dropped first. Element i of the result continues into element i-1.
func (d *dropCtxt) dropHalfladder(unwindLadder []Unwind, succ mir.BlockID, fields []fieldDrop) []mir.BlockID {
	out := make([]mir.BlockID, 0, len(fields)+1)
	out = append(out, succ)
	for i, j := len(fields)-1, 0; i >= 0; i, j = i-1, j+1 {
		succ = d.dropSubpath(fields[i].place, fields[i].path, succ, unwindLadder[j])
		out = append(out, succ)
	}
	return out
}

// dropLadder builds the normal ladder and, when unwinding is possible, a
// matching cleanup ladder so a panic in field k still drops fields k+1..n.
func (d *dropCtxt) dropLadder(fields []fieldDrop, succ mir.BlockID, unwind Unwind) (mir.BlockID, Unwind) {
	kept := make([]fieldDrop, 0, len(fields))
	for _, fd := range fields {
		if d.types().NeedsDrop(d.placeType(fd.place).Type) {
			kept = append(kept, fd)
		}
	}
	fields = kept

	unwindLadder := make([]Unwind, len(fields)+1)
	for i := range unwindLadder {
		unwindLadder[i] = InCleanup
	}
	if target, ok := unwind.Target(); ok {
		half := d.dropHalfladder(unwindLadder, target, fields)
		for i, bb := range half {
			unwindLadder[i] = UnwindTo(bb)
		}
	}
	normal := d.dropHalfladder(unwindLadder, succ, fields)
	return normal[len(normal)-1], unwindLadder[len(unwindLadder)-1]
}

func (d *dropCtxt) dropLadderBottom() (mir.BlockID, Unwind) {
	return d.dropFlagResetBlock(Shallow, d.succ, d.unwind), d.unwind
}
