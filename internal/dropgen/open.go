package dropgen

import (
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/types"
)

// openDrop drops the parts of the place one by one.
func (d *dropCtxt) openDrop() mir.BlockID {
	ty := d.placeType(d.place)
	tt, _ := d.types().Lookup(ty.Type)
	switch tt.Kind {
	case types.KindTuple:
		return d.openDropForFields(ty.Type)
	case types.KindStruct:
		if d.types().HasDestructor(ty.Type) {
			d.e.Bug(d.span, "open drop of %s, which has a destructor", types.Label(d.types(), ty.Type))
		}
		return d.openDropForFields(ty.Type)
	case types.KindEnum:
		return d.openDropForEnum(ty.Type)
	case types.KindArray:
		return d.openDropForArray(tt)
	case types.KindOwn:
		return d.openDropForOwn()
	}
	d.e.Bug(d.span, "open drop of non-aggregate type %s", types.Label(d.types(), ty.Type))
	return mir.NoBlockID
}

// fieldsOf lists the fields of base, which is tracked by path.
func (d *dropCtxt) fieldsOf(base mir.Place, path movepath.Index, id types.TypeID, variant int) []fieldDrop {
	n := d.types().NumFields(id, variant)
	out := make([]fieldDrop, n)
	for i := 0; i < n; i++ {
		out[i] = fieldDrop{place: base.Field(i), path: d.e.FieldSubpath(path, i)}
	}
	return out
}

func (d *dropCtxt) openDropForFields(id types.TypeID) mir.BlockID {
	fields := d.fieldsOf(d.place, d.path, id, -1)
	succ, unwind := d.dropLadderBottom()
	bb, _ := d.dropLadder(fields, succ, unwind)
	return bb
}

func (d *dropCtxt) openDropForEnum(id types.TypeID) mir.BlockID {
	if d.types().NumVariants(id) == 0 {
		return d.newBlock(d.unwind, mir.Terminator{Kind: mir.TermUnreachable})
	}
	succ, unwind := d.dropLadderBottom()
	bb, _ := d.openDropForMultivariant(id, succ, unwind)
	return bb
}

// openDropForMultivariant switches on the active variant and drops the
// fields of each tracked variant with its own ladder. Untracked variants
// share one default arm that drops the whole place, or just continues
// when none of them holds anything to drop.
func (d *dropCtxt) openDropForMultivariant(id types.TypeID, succ mir.BlockID, unwind Unwind) (mir.BlockID, Unwind) {
	n := d.types().NumVariants(id)
	variants := make([]int, 0, n)
	normalBlocks := make([]mir.BlockID, 0, n+1)
	var unwindBlocks []mir.BlockID
	unwindTarget, canUnwind := unwind.Target()

	haveOtherwise := false
	haveOtherwiseWithDropGlue := false
	for v := 0; v < n; v++ {
		sub := d.e.DowncastSubpath(d.path, v)
		if sub == movepath.NoIndex {
			haveOtherwise = true
			for i, n := 0, d.types().NumFields(id, v); i < n; i++ {
				if ft, ok := d.types().Field(id, v, i); ok && d.types().NeedsDrop(ft) {
					haveOtherwiseWithDropGlue = true
				}
			}
			continue
		}
		fields := d.fieldsOf(d.place.Downcast(v), sub, id, v)
		variants = append(variants, v)
		if canUnwind {
			ladder := make([]Unwind, len(fields)+1)
			for i := range ladder {
				ladder[i] = InCleanup
			}
			half := d.dropHalfladder(ladder, unwindTarget, fields)
			unwindBlocks = append(unwindBlocks, half[len(half)-1])
		}
		normal, _ := d.dropLadder(fields, succ, unwind)
		normalBlocks = append(normalBlocks, normal)
	}

	switch {
	case !haveOtherwise:
		// the last tracked variant becomes the default arm
		variants = variants[:len(variants)-1]
	case !haveOtherwiseWithDropGlue:
		normalBlocks = append(normalBlocks, d.gotoBlock(succ, unwind))
		if canUnwind {
			unwindBlocks = append(unwindBlocks, d.gotoBlock(unwindTarget, InCleanup))
		}
	default:
		normalBlocks = append(normalBlocks, d.dropBlock(succ, unwind))
		if canUnwind {
			unwindBlocks = append(unwindBlocks, d.dropBlock(unwindTarget, InCleanup))
		}
	}

	normal := d.switchBlock(normalBlocks, variants, succ, unwind)
	if !canUnwind {
		return normal, unwind
	}
	return normal, UnwindTo(d.switchBlock(unwindBlocks, variants, unwindTarget, InCleanup))
}

// switchBlock dispatches on the active variant, behind the shallow flag
// of the enum itself so a moved-out enum is never inspected.
func (d *dropCtxt) switchBlock(blocks []mir.BlockID, variants []int, succ mir.BlockID, unwind Unwind) mir.BlockID {
	sw := mir.SwitchTagTerm{Place: d.place, Default: blocks[len(blocks)-1]}
	for i, v := range variants {
		sw.Cases = append(sw.Cases, mir.SwitchTagCase{Variant: v, Target: blocks[i]})
	}
	blk := d.newBlock(unwind, mir.Terminator{Kind: mir.TermSwitchTag, SwitchTag: sw})
	return d.dropFlagTestBlock(blk, succ, unwind)
}

func (d *dropCtxt) openDropForArray(tt types.Type) mir.BlockID {
	size := tt.Count
	fields := make([]fieldDrop, size)
	tracked := false
	for i := uint32(0); i < size; i++ {
		fields[i] = fieldDrop{
			place: d.place.Project(mir.ConstIndexProj(i, size, false)),
			path:  d.e.ArraySubpath(d.path, i, size),
		}
		tracked = tracked || fields[i].path != movepath.NoIndex
	}
	if !tracked {
		return d.completeDrop(false, d.succ, d.unwind)
	}
	succ, unwind := d.dropLadderBottom()
	bb, _ := d.dropLadder(fields, succ, unwind)
	return bb
}

// openDropForOwn drops the boxed value and then frees the allocation, on
// both the normal and the unwind path.
func (d *dropCtxt) openDropForOwn() mir.BlockID {
	interior := d.place.Deref()
	interiorPath := d.e.DerefSubpath(d.path)

	succ := d.boxFreeBlock(d.succ, d.unwind)
	unwindSucc := d.unwind
	if target, ok := d.unwind.Target(); ok {
		unwindSucc = UnwindTo(d.boxFreeBlock(target, InCleanup))
	}
	return d.dropSubpath(interior, interiorPath, succ, unwindSucc)
}

func (d *dropCtxt) boxFreeBlock(target mir.BlockID, unwind Unwind) mir.BlockID {
	blk := d.freeCallBlock(target, unwind)
	return d.dropFlagTestBlock(blk, target, unwind)
}

func (d *dropCtxt) freeCallBlock(target mir.BlockID, unwind Unwind) mir.BlockID {
	unit := d.patch().NewTemp(d.types().Builtins().Unit, d.span)
	call := mir.Terminator{Kind: mir.TermCall, Call: mir.CallTerm{
		Callee:  BoxFree,
		Args:    []mir.Operand{mir.Move(d.place)},
		HasDst:  true,
		Dst:     mir.LocalPlace(unit),
		Target:  target,
		Cleanup: mir.NoBlockID,
	}}
	blk := d.newBlock(unwind, call)
	d.e.ClearDropFlag(mir.Location{Block: blk, Index: 0}, d.path, Shallow)
	return blk
}
