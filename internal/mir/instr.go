package mir

import (
	"dropelab/internal/source"
	"dropelab/internal/types"
)

// InstrKind enumerates instruction kinds in MIR.
type InstrKind uint8

const (
	// InstrAssign represents an assignment instruction.
	InstrAssign InstrKind = iota
	// InstrNop represents a no-op instruction.
	InstrNop
)

// Instr represents a MIR statement. Statements never branch or unwind.
type Instr struct {
	Kind   InstrKind
	Span   source.Span
	Assign AssignInstr
}

// AssignInstr represents an assignment instruction.
type AssignInstr struct {
	Dst Place
	Src RValue
}

// Assign builds an assignment statement.
func Assign(dst Place, src RValue) Instr {
	return Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: dst, Src: src}}
}

// OperandKind distinguishes operand types.
type OperandKind uint8

const (
	// OperandConst represents a constant operand.
	OperandConst OperandKind = iota
	// OperandCopy represents a copy operand.
	OperandCopy
	// OperandMove represents a move operand; the source is uninitialized afterwards.
	OperandMove
)

// Operand represents a MIR operand.
type Operand struct {
	Kind  OperandKind
	Const Const
	Place Place
}

func Copy(p Place) Operand { return Operand{Kind: OperandCopy, Place: p} }
func Move(p Place) Operand { return Operand{Kind: OperandMove, Place: p} }

// BoolConst returns a boolean constant operand.
func BoolConst(v bool) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstBool, BoolValue: v}}
}

// IntConst returns an integer constant operand.
func IntConst(v int64) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstInt, IntValue: v}}
}

// StringConst returns a string constant operand.
func StringConst(s string) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstString, StringValue: s}}
}

// UnitConst returns the unit constant.
func UnitConst() Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstUnit}}
}

// ConstKind distinguishes constant kinds.
type ConstKind uint8

const (
	ConstUnit ConstKind = iota
	ConstBool
	ConstInt
	ConstString
)

// Const represents a MIR constant.
type Const struct {
	Kind        ConstKind
	IntValue    int64
	BoolValue   bool
	StringValue string
}

// RValueKind distinguishes right-hand value kinds.
type RValueKind uint8

const (
	// RValueUse represents a use of a value.
	RValueUse RValueKind = iota
	// RValueBinaryOp represents a binary operation.
	RValueBinaryOp
	// RValueAggregate builds a struct, tuple, array or enum variant.
	RValueAggregate
	// RValueRef takes a reference; it never moves.
	RValueRef
)

// RValue represents a right-hand value in MIR.
type RValue struct {
	Kind RValueKind

	Use       Operand
	Binary    BinaryOp
	Aggregate Aggregate
	Ref       RefOp
}

// Use wraps an operand as an rvalue.
func Use(op Operand) RValue {
	return RValue{Kind: RValueUse, Use: op}
}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
)

var binOpText = [...]string{
	BinAdd: "+",
	BinSub: "-",
	BinMul: "*",
	BinEq:  "==",
	BinNe:  "!=",
	BinLt:  "<",
	BinLe:  "<=",
	BinGt:  ">",
	BinGe:  ">=",
	BinAnd: "&&",
	BinOr:  "||",
}

func (op BinOp) String() string {
	if int(op) < len(binOpText) {
		return binOpText[op]
	}
	return "?"
}

// ParseBinOp maps operator text back to a BinOp.
func ParseBinOp(s string) (BinOp, bool) {
	for i, txt := range binOpText {
		if txt == s {
			return BinOp(i), true //nolint:gosec // bounded by table size
		}
	}
	return 0, false
}

// BinaryOp represents a binary operation.
type BinaryOp struct {
	Op    BinOp
	Left  Operand
	Right Operand
}

// AggKind distinguishes aggregate shapes.
type AggKind uint8

const (
	AggTuple AggKind = iota
	AggStruct
	AggArray
	AggEnum
)

// Aggregate builds a value from its parts. Variant is used for AggEnum.
type Aggregate struct {
	Kind    AggKind
	Type    types.TypeID
	Variant int
	Fields  []Operand
}

// RefOp borrows a place.
type RefOp struct {
	Place   Place
	Mutable bool
}

// Operands returns the operands read by the rvalue.
func (rv *RValue) Operands() []Operand {
	switch rv.Kind {
	case RValueUse:
		return []Operand{rv.Use}
	case RValueBinaryOp:
		return []Operand{rv.Binary.Left, rv.Binary.Right}
	case RValueAggregate:
		return rv.Aggregate.Fields
	}
	return nil
}
