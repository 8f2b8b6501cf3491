package movepath

import (
	"dropelab/internal/mir"
	"dropelab/internal/types"
)

type builder struct {
	md  *MoveData
	loc mir.Location
}

// Gather builds the move-path index for f. It never fails: moves the index
// cannot represent are collected in MoveData.Illegal.
func Gather(f *mir.Func, in *types.Interner) *MoveData {
	md := &MoveData{
		f:           f,
		types:       in,
		locals:      make([]Index, len(f.Locals)),
		projections: make(map[projKey]Index),
		locMoves:    make(map[mir.Location][]int),
		locInits:    make(map[mir.Location][]int),
	}
	for i := range f.Locals {
		l := mir.LocalID(i) //nolint:gosec // bounded by len(Locals)
		md.locals[i] = md.newPath(NoIndex, mir.LocalPlace(l), mir.PlaceTy{Type: f.Locals[i].Type, Variant: -1})
	}

	b := &builder{md: md}
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for si := range bb.Instrs {
			b.loc = mir.Location{Block: mir.BlockID(bi), Index: si} //nolint:gosec // bounded by block count
			b.gatherStatement(&bb.Instrs[si])
		}
		b.loc = f.TerminatorLoc(mir.BlockID(bi)) //nolint:gosec // bounded by block count
		b.gatherTerminator(&bb.Term)
	}

	for _, arg := range f.Args() {
		md.Inits = append(md.Inits, Init{Path: md.locals[arg], Kind: InitDeep, Arg: true})
	}
	return md
}

func (md *MoveData) newPath(parent Index, place mir.Place, ty mir.PlaceTy) Index {
	id := Index(len(md.Paths)) //nolint:gosec // bounded by path count
	mp := MovePath{Place: place, Ty: ty, Parent: parent, FirstChild: NoIndex, NextSibling: NoIndex}
	if parent != NoIndex {
		mp.NextSibling = md.Paths[parent].FirstChild
		md.Paths[parent].FirstChild = id
	}
	md.Paths = append(md.Paths, mp)
	return id
}

func (b *builder) gatherStatement(ins *mir.Instr) {
	if ins.Kind != mir.InstrAssign {
		return
	}
	b.createMovePath(ins.Assign.Dst)
	b.gatherInit(ins.Assign.Dst, InitDeep)
	for _, op := range ins.Assign.Src.Operands() {
		b.gatherOperand(op)
	}
}

func (b *builder) gatherTerminator(term *mir.Terminator) {
	switch term.Kind {
	case mir.TermReturn:
		if len(b.md.f.Locals) > 0 {
			b.gatherMove(mir.LocalPlace(mir.ReturnLocal))
		}
	case mir.TermIf:
		b.gatherOperand(term.If.Cond)
	case mir.TermDrop:
		b.gatherMove(term.Drop.Place)
	case mir.TermDropAndReplace:
		b.createMovePath(term.Replace.Place)
		b.gatherOperand(term.Replace.Value)
		b.gatherInit(term.Replace.Place, InitDeep)
	case mir.TermCall:
		for _, arg := range term.Call.Args {
			b.gatherOperand(arg)
		}
		if term.Call.Target != mir.NoBlockID && term.Call.HasDst {
			b.createMovePath(term.Call.Dst)
			b.gatherInit(term.Call.Dst, InitNonPanicPathOnly)
		}
	}
}

func (b *builder) gatherOperand(op mir.Operand) {
	if op.Kind == mir.OperandMove {
		b.gatherMove(op.Place)
	}
}

func (b *builder) gatherMove(place mir.Place) {
	path, reason := b.movePathFor(place)
	if reason != "" {
		b.md.Illegal = append(b.md.Illegal, IllegalMove{Place: place, Loc: b.loc, Reason: reason})
		return
	}
	b.md.Moves = append(b.md.Moves, MoveOut{Path: path, Loc: b.loc})
	b.md.locMoves[b.loc] = append(b.md.locMoves[b.loc], len(b.md.Moves)-1)
}

func (b *builder) gatherInit(place mir.Place, kind InitKind) {
	res := b.md.Find(place)
	if res.Kind != Exact {
		return
	}
	b.md.Inits = append(b.md.Inits, Init{Path: res.Path, Loc: b.loc, Kind: kind})
	b.md.locInits[b.loc] = append(b.md.locInits[b.loc], len(b.md.Inits)-1)
}

// createMovePath makes sure every trackable prefix of place has a path.
func (b *builder) createMovePath(place mir.Place) {
	_, _ = b.movePathFor(place)
}

// movePathFor walks place, creating paths for each projection, and stops
// with a reason at the first projection the index cannot track.
func (b *builder) movePathFor(place mir.Place) (Index, string) {
	md := b.md
	base, ok := md.LocalPath(place.Local)
	if !ok {
		return NoIndex, "unknown local"
	}
	for i, elem := range place.Proj {
		ty := md.Paths[base].Ty
		tt, ok := md.types.Lookup(ty.Type)
		if !ok {
			return NoIndex, "untyped place"
		}
		switch {
		case tt.Kind == types.KindReference || tt.Kind == types.KindPointer:
			return NoIndex, "cannot move out of borrowed content"
		case md.types.HasDestructor(ty.Type):
			return NoIndex, "cannot move out of type with destructor"
		case tt.Kind == types.KindArray && elem.Kind == mir.PlaceProjIndex:
			return NoIndex, "cannot move out of array by dynamic index"
		}
		key := projKey{base: base, elem: elem}
		if sub, ok := md.projections[key]; ok {
			base = sub
			continue
		}
		subTy, ok := mir.ProjectType(md.types, ty, elem)
		if !ok {
			return NoIndex, "ill-typed projection"
		}
		sub := md.newPath(base, mir.Place{Local: place.Local, Proj: append([]mir.PlaceProj(nil), place.Proj[:i+1]...)}, subTy)
		md.projections[key] = sub
		base = sub
	}
	return base, ""
}
