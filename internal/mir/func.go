package mir

import (
	"dropelab/internal/source"
	"dropelab/internal/types"
)

type Func struct {
	Name string
	Span source.Span

	Locals []Local
	Blocks []Block
	Entry  BlockID
}

// TerminatorLoc returns the location of bb's terminator.
func (f *Func) TerminatorLoc(bb BlockID) Location {
	return Location{Block: bb, Index: len(f.Blocks[bb].Instrs)}
}

// StartLocation is the first statement of the entry block.
func (f *Func) StartLocation() Location {
	return Location{Block: f.Entry, Index: 0}
}

// Args returns the parameters in declaration order.
func (f *Func) Args() []LocalID {
	var out []LocalID
	for i := range f.Locals {
		if f.Locals[i].Arg {
			out = append(out, LocalID(i)) //nolint:gosec // bounded by len(Locals)
		}
	}
	return out
}

// Block returns the block with the given id or nil.
func (f *Func) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}

// LocalType returns the declared type of a local.
func (f *Func) LocalType(id LocalID) types.TypeID {
	if id < 0 || int(id) >= len(f.Locals) {
		return types.NoTypeID
	}
	return f.Locals[id].Type
}

// Clone returns a deep copy of the body, so passes can run on a scratch copy.
func (f *Func) Clone() *Func {
	out := &Func{Name: f.Name, Span: f.Span, Entry: f.Entry}
	out.Locals = append([]Local(nil), f.Locals...)
	out.Blocks = make([]Block, len(f.Blocks))
	for i := range f.Blocks {
		out.Blocks[i] = cloneBlock(&f.Blocks[i])
	}
	return out
}

func cloneBlock(b *Block) Block {
	nb := Block{ID: b.ID, Cleanup: b.Cleanup, Term: cloneTerm(b.Term)}
	nb.Instrs = make([]Instr, len(b.Instrs))
	for i, ins := range b.Instrs {
		nb.Instrs[i] = cloneInstr(ins)
	}
	return nb
}

func cloneInstr(ins Instr) Instr {
	ins.Assign.Dst = clonePlace(ins.Assign.Dst)
	ins.Assign.Src = cloneRValue(ins.Assign.Src)
	return ins
}

func cloneRValue(rv RValue) RValue {
	rv.Use = cloneOperand(rv.Use)
	rv.Binary.Left = cloneOperand(rv.Binary.Left)
	rv.Binary.Right = cloneOperand(rv.Binary.Right)
	rv.Aggregate.Fields = cloneOperands(rv.Aggregate.Fields)
	rv.Ref.Place = clonePlace(rv.Ref.Place)
	return rv
}

func cloneTerm(t Terminator) Terminator {
	t.If.Cond = cloneOperand(t.If.Cond)
	t.SwitchTag.Place = clonePlace(t.SwitchTag.Place)
	t.SwitchTag.Cases = append([]SwitchTagCase(nil), t.SwitchTag.Cases...)
	t.Drop.Place = clonePlace(t.Drop.Place)
	t.Replace.Place = clonePlace(t.Replace.Place)
	t.Replace.Value = cloneOperand(t.Replace.Value)
	t.Call.Args = cloneOperands(t.Call.Args)
	t.Call.Dst = clonePlace(t.Call.Dst)
	return t
}

func clonePlace(p Place) Place {
	if len(p.Proj) == 0 {
		return Place{Local: p.Local}
	}
	return Place{Local: p.Local, Proj: append([]PlaceProj(nil), p.Proj...)}
}

func cloneOperand(op Operand) Operand {
	op.Place = clonePlace(op.Place)
	return op
}

func cloneOperands(ops []Operand) []Operand {
	if ops == nil {
		return nil
	}
	out := make([]Operand, len(ops))
	for i, op := range ops {
		out[i] = cloneOperand(op)
	}
	return out
}
