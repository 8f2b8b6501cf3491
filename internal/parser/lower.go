package parser

import (
	"fmt"

	"dropelab/internal/diag"
	"dropelab/internal/mir"
	"dropelab/internal/source"
	"dropelab/internal/token"
	"dropelab/internal/types"
)

// lowerer resolves the syntax tree against the type table and builds MIR.
type lowerer struct {
	types *types.Interner
	rep   *countingReporter
}

func (l *lowerer) err(code diag.Code, at token.Token, msg string) {
	l.errAt(code, at.Span, msg)
}

func (l *lowerer) errAt(code diag.Code, sp source.Span, msg string) {
	l.rep.Report(code, diag.SevError, sp, msg, nil)
}

func (l *lowerer) errWithNote(code diag.Code, at token.Token, msg string, prev token.Token, note string) {
	diag.ReportError(l.rep, code, at.Span, msg).WithNote(prev.Span, note).Emit()
}

func (l *lowerer) lowerFile(f *file) *mir.Module {
	l.declareTypes(f.types)
	mod := &mir.Module{Types: l.types}
	seen := make(map[string]token.Token, len(f.funcs))
	for _, decl := range f.funcs {
		if prev, dup := seen[decl.name.Text]; dup {
			l.errWithNote(diag.SynDuplicateName, decl.name, fmt.Sprintf("function %s is declared twice", decl.name.Text), prev, "first declared here")
			continue
		}
		seen[decl.name.Text] = decl.name
		if fn := l.lowerFn(decl); fn != nil {
			mod.Funcs = append(mod.Funcs, fn)
		}
	}
	return mod
}

// fnLowerer carries the per-function state.
type fnLowerer struct {
	*lowerer
	fn     *mir.Func
	blocks int
}

func (l *lowerer) lowerFn(decl *fnDecl) *mir.Func {
	fl := fnLowerer{lowerer: l, fn: &mir.Func{Name: decl.name.Text, Span: decl.span, Entry: 0}}
	fn := fl.fn
	if len(decl.locals) == 0 {
		l.err(diag.SynUnknownLocal, decl.name, fmt.Sprintf("function %s declares no return local L0", decl.name.Text))
		return nil
	}
	fn.Locals = make([]mir.Local, len(decl.locals))
	for i, ld := range decl.locals {
		ty, _ := l.resolveType(ld.ty)
		fn.Locals[i] = mir.Local{Type: ty, Name: ld.name, Span: ld.tok.Span, Arg: ld.arg}
	}
	// Flags may name any local, so they resolve once every local has a type.
	for i, ld := range decl.locals {
		if ld.flag == nil {
			continue
		}
		if pl, ok := fl.place(*ld.flag); ok {
			fn.Locals[i].FlagOf = &pl
		}
	}

	fl.blocks = len(decl.blocks)
	if fl.blocks == 0 {
		l.err(diag.SynBadBlockRef, decl.name, fmt.Sprintf("function %s has no blocks", decl.name.Text))
		return nil
	}
	byID := make([]*blockDecl, fl.blocks)
	for _, bd := range decl.blocks {
		id := int(bd.ref.id)
		if id >= fl.blocks {
			l.err(diag.SynBadBlockRef, bd.ref.tok, fmt.Sprintf("%s is out of range, blocks must be numbered bb0 to bb%d", bd.ref.tok.Text, fl.blocks-1))
			continue
		}
		if prev := byID[id]; prev != nil {
			l.errWithNote(diag.SynDuplicateBlock, bd.ref.tok, fmt.Sprintf("%s is declared twice", bd.ref.tok.Text), prev.ref.tok, "first declared here")
			continue
		}
		byID[id] = bd
	}

	fn.Blocks = make([]mir.Block, fl.blocks)
	for i, bd := range byID {
		id := mir.BlockID(i) //nolint:gosec // bounded by len(blocks)
		fn.Blocks[i].ID = id
		if bd == nil {
			l.err(diag.SynBadBlockRef, decl.name, fmt.Sprintf("bb%d is never declared in %s", i, decl.name.Text))
			continue
		}
		fl.lowerBlock(&fn.Blocks[i], bd)
	}
	return fn
}

func (fl *fnLowerer) lowerBlock(out *mir.Block, bd *blockDecl) {
	out.Cleanup = bd.cleanup
	for _, st := range bd.stmts {
		if st.nop {
			out.Instrs = append(out.Instrs, mir.Instr{Kind: mir.InstrNop, Span: st.span})
			continue
		}
		dst, ok := fl.place(st.dst)
		if !ok {
			continue
		}
		src, ok := fl.rvalue(st.src, dst)
		if !ok {
			continue
		}
		ins := mir.Assign(dst, src)
		ins.Span = st.span
		out.Instrs = append(out.Instrs, ins)
	}
	if bd.term != nil {
		if term, ok := fl.term(bd.term); ok {
			out.Term = term
		}
	}
}

func (fl *fnLowerer) block(ref blockRef) (mir.BlockID, bool) {
	if ref.id == mir.NoBlockID {
		return mir.NoBlockID, true
	}
	if int(ref.id) >= fl.blocks {
		fl.err(diag.SynBadBlockRef, ref.tok, fmt.Sprintf("%s is not declared in %s", ref.tok.Text, fl.fn.Name))
		return mir.NoBlockID, false
	}
	return ref.id, true
}

func (fl *fnLowerer) blocksOf(refs ...blockRef) ([]mir.BlockID, bool) {
	out := make([]mir.BlockID, len(refs))
	allOK := true
	for i, ref := range refs {
		id, ok := fl.block(ref)
		out[i] = id
		allOK = allOK && ok
	}
	return out, allOK
}

func (fl *fnLowerer) term(t *termExpr) (mir.Terminator, bool) {
	out := mir.Terminator{Kind: t.kind, Span: t.span}
	switch t.kind {
	case mir.TermGoto:
		target, ok := fl.block(t.target)
		if !ok {
			return out, false
		}
		out.Goto.Target = target
	case mir.TermIf:
		cond, ok := fl.operand(t.cond)
		ids, idsOK := fl.blocksOf(t.target, t.els)
		if !ok || !idsOK {
			return out, false
		}
		out.If = mir.IfTerm{Cond: cond, Then: ids[0], Else: ids[1]}
	case mir.TermSwitchTag:
		return fl.switchTag(t, out)
	case mir.TermReturn, mir.TermResume, mir.TermUnreachable:
	case mir.TermDrop:
		pl, ok := fl.place(t.place)
		ids, idsOK := fl.blocksOf(t.target, t.unwind)
		if !ok || !idsOK {
			return out, false
		}
		out.Drop = mir.DropTerm{Place: pl, Target: ids[0], Unwind: ids[1]}
	case mir.TermDropAndReplace:
		pl, ok := fl.place(t.place)
		val, valOK := fl.operand(t.value)
		ids, idsOK := fl.blocksOf(t.target, t.unwind)
		if !ok || !valOK || !idsOK {
			return out, false
		}
		out.Replace = mir.DropAndReplaceTerm{Place: pl, Value: val, Target: ids[0], Unwind: ids[1]}
	case mir.TermCall:
		call := mir.CallTerm{Callee: t.callee, HasDst: t.hasDst}
		allOK := true
		if t.hasDst {
			dst, ok := fl.place(t.dst)
			call.Dst = dst
			allOK = ok
		}
		for _, a := range t.args {
			op, ok := fl.operand(a)
			call.Args = append(call.Args, op)
			allOK = allOK && ok
		}
		ids, idsOK := fl.blocksOf(t.target, t.unwind)
		if !allOK || !idsOK {
			return out, false
		}
		call.Target, call.Cleanup = ids[0], ids[1]
		out.Call = call
	}
	return out, true
}

func (fl *fnLowerer) switchTag(t *termExpr, out mir.Terminator) (mir.Terminator, bool) {
	pl, ok := fl.place(t.place)
	if !ok {
		return out, false
	}
	ty, _ := mir.PlaceType(fl.fn, fl.types, pl)
	if tt, _ := fl.types.Lookup(ty.Type); tt.Kind != types.KindEnum || ty.Variant >= 0 {
		fl.errAt(diag.SynBadProjection, t.place.span, fmt.Sprintf("switch_tag needs an enum place, found %s", types.Label(fl.types, ty.Type)))
		return out, false
	}
	st := mir.SwitchTagTerm{Place: pl, Default: mir.NoBlockID}
	allOK := true
	for _, c := range t.cases {
		v, vOK := fl.variant(ty.Type, c.variant)
		target, tOK := fl.block(c.target)
		if !vOK || !tOK {
			allOK = false
			continue
		}
		st.Cases = append(st.Cases, mir.SwitchTagCase{Variant: v, Target: target})
	}
	deflt, ok := fl.block(t.deflt)
	if !ok || !allOK {
		return out, false
	}
	st.Default = deflt
	out.SwitchTag = st
	return out, true
}

func (l *lowerer) variant(enum types.TypeID, ref variantRef) (int, bool) {
	if ref.name != nil {
		if v, ok := l.types.VariantIndex(enum, ref.name.Text); ok {
			return v, true
		}
		l.err(diag.SynUnknownVariant, *ref.name, fmt.Sprintf("%s has no variant %s", types.Label(l.types, enum), ref.name.Text))
		return 0, false
	}
	if ref.index < 0 || ref.index >= l.types.NumVariants(enum) {
		l.errAt(diag.SynUnknownVariant, ref.span, fmt.Sprintf("%s has no variant #%d", types.Label(l.types, enum), ref.index))
		return 0, false
	}
	return ref.index, true
}

// place resolves a place expression, turning field and variant names into
// indexes by walking the place type.
func (fl *fnLowerer) place(pe placeExpr) (mir.Place, bool) {
	local, ok := fl.local(pe.local)
	if !ok {
		return mir.Place{}, false
	}
	out := mir.LocalPlace(local)
	ty := mir.PlaceTy{Type: fl.fn.LocalType(local), Variant: -1}
	if ty.Type == types.NoTypeID {
		return mir.Place{}, false
	}
	for _, pr := range pe.projs {
		proj := mir.PlaceProj{Kind: pr.kind}
		switch pr.kind {
		case mir.PlaceProjField:
			proj.FieldIdx = pr.index
			if pr.name != nil {
				idx, ok := fl.fieldIndex(ty, pr.name.Text)
				if !ok {
					fl.err(diag.SynBadProjection, *pr.name, fmt.Sprintf("%s has no field %s", types.Label(fl.types, ty.Type), pr.name.Text))
					return mir.Place{}, false
				}
				proj.FieldIdx = idx
			}
		case mir.PlaceProjDowncast:
			proj.Variant = pr.index
			if pr.name != nil {
				if tt, _ := fl.types.Lookup(ty.Type); tt.Kind == types.KindEnum {
					v, ok := fl.variant(ty.Type, variantRef{name: pr.name, span: pr.span})
					if !ok {
						return mir.Place{}, false
					}
					proj.Variant = v
				}
			}
		case mir.PlaceProjIndex:
			idx, ok := fl.local(pr.indexLocal)
			if !ok {
				return mir.Place{}, false
			}
			proj.IndexLocal = idx
		case mir.PlaceProjConstIndex:
			if (pr.fromEnd && (pr.offset == 0 || pr.offset > pr.minLength)) || (!pr.fromEnd && pr.offset >= pr.minLength) {
				fl.errAt(diag.SynBadProjection, pr.span, fmt.Sprintf("offset %d is outside the minimum length %d", pr.offset, pr.minLength))
				return mir.Place{}, false
			}
			proj.Offset, proj.MinLength, proj.FromEnd = pr.offset, pr.minLength, pr.fromEnd
		}
		next, ok := mir.ProjectType(fl.types, ty, proj)
		if !ok {
			fl.errAt(diag.SynBadProjection, pr.span, fmt.Sprintf("%s projection does not apply to %s", pr.kind, types.Label(fl.types, ty.Type)))
			return mir.Place{}, false
		}
		ty = next
		out.Proj = append(out.Proj, proj)
	}
	return out, true
}

// fieldIndex resolves a field name. Tuples and variants only have numbered
// fields, which the parser already turned into indexes.
func (fl *fnLowerer) fieldIndex(ty mir.PlaceTy, name string) (int, bool) {
	if ty.Variant >= 0 {
		return 0, false
	}
	return fl.types.FieldIndex(ty.Type, name)
}

func (fl *fnLowerer) local(ref localRef) (mir.LocalID, bool) {
	if int(ref.id) >= len(fl.fn.Locals) {
		fl.err(diag.SynUnknownLocal, ref.tok, fmt.Sprintf("%s is not declared in %s", ref.tok.Text, fl.fn.Name))
		return mir.NoLocalID, false
	}
	return ref.id, true
}

func (fl *fnLowerer) operand(op operandExpr) (mir.Operand, bool) {
	if op.kind == mir.OperandConst {
		return mir.Operand{Kind: mir.OperandConst, Const: op.konst}, true
	}
	pl, ok := fl.place(op.place)
	if !ok {
		return mir.Operand{}, false
	}
	return mir.Operand{Kind: op.kind, Place: pl}, true
}

func (fl *fnLowerer) operands(ops []operandExpr) ([]mir.Operand, bool) {
	out := make([]mir.Operand, 0, len(ops))
	allOK := true
	for _, o := range ops {
		op, ok := fl.operand(o)
		out = append(out, op)
		allOK = allOK && ok
	}
	return out, allOK
}

// rvalue lowers the right-hand side of an assignment. Tuples and arrays
// take their type from the destination.
func (fl *fnLowerer) rvalue(rv rvalueExpr, dst mir.Place) (mir.RValue, bool) {
	switch rv.kind {
	case mir.RValueUse:
		op, ok := fl.operand(rv.use)
		return mir.Use(op), ok
	case mir.RValueBinaryOp:
		left, lok := fl.operand(rv.left)
		right, rok := fl.operand(rv.right)
		return mir.RValue{Kind: mir.RValueBinaryOp, Binary: mir.BinaryOp{Op: rv.op, Left: left, Right: right}}, lok && rok
	case mir.RValueRef:
		pl, ok := fl.place(rv.ref)
		return mir.RValue{Kind: mir.RValueRef, Ref: mir.RefOp{Place: pl, Mutable: rv.mutable}}, ok
	}

	fields, ok := fl.operands(rv.fields)
	if !ok {
		return mir.RValue{}, false
	}
	agg := mir.Aggregate{Kind: rv.agg, Fields: fields}
	switch rv.agg {
	case mir.AggTuple, mir.AggArray:
		dstTy, _ := mir.PlaceType(fl.fn, fl.types, dst)
		agg.Type = dstTy.Type
	case mir.AggStruct:
		id, ok := fl.nominal(rv.aggName, types.KindStruct)
		if !ok {
			return mir.RValue{}, false
		}
		agg.Type = id
		if !fl.checkArity(rv, fl.types.NumFields(id, -1)) {
			return mir.RValue{}, false
		}
	case mir.AggEnum:
		id, ok := fl.nominal(rv.aggName, types.KindEnum)
		if !ok {
			return mir.RValue{}, false
		}
		v, ok := fl.variant(id, rv.variant)
		if !ok {
			return mir.RValue{}, false
		}
		agg.Type, agg.Variant = id, v
		if !fl.checkArity(rv, fl.types.NumFields(id, v)) {
			return mir.RValue{}, false
		}
	}
	return mir.RValue{Kind: mir.RValueAggregate, Aggregate: agg}, true
}

func (fl *fnLowerer) nominal(name token.Token, kind types.Kind) (types.TypeID, bool) {
	id, ok := fl.types.Named(name.Text)
	if !ok {
		fl.err(diag.SynUnknownType, name, fmt.Sprintf("unknown type %s", name.Text))
		return types.NoTypeID, false
	}
	if tt, _ := fl.types.Lookup(id); tt.Kind != kind {
		fl.err(diag.SynUnknownType, name, fmt.Sprintf("%s is not a %s", name.Text, kind))
		return types.NoTypeID, false
	}
	return id, true
}

func (fl *fnLowerer) checkArity(rv rvalueExpr, want int) bool {
	if len(rv.fields) == want {
		return true
	}
	fl.errAt(diag.SynBadArgumentCount, rv.span, fmt.Sprintf("%s takes %d fields, got %d", rv.aggName.Text, want, len(rv.fields)))
	return false
}
