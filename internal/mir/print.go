package mir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"dropelab/internal/types"
)

// Dump writes the textual form of a module: type declarations first, then
// every function. The output is accepted back by internal/parser.
func Dump(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	if err := DumpTypes(w, m.Types); err != nil {
		return err
	}
	hasTypes := m.Types != nil && len(m.Types.Nominals()) > 0
	for i, f := range m.Funcs {
		if i > 0 || hasTypes {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := DumpFunc(w, f, m.Types); err != nil {
			return err
		}
	}
	return nil
}

// DumpTypes writes one declaration per nominal type.
func DumpTypes(w io.Writer, typesIn *types.Interner) error {
	if typesIn == nil {
		return nil
	}
	for _, id := range typesIn.Nominals() {
		if _, err := fmt.Fprintln(w, formatTypeDecl(typesIn, id)); err != nil {
			return err
		}
	}
	return nil
}

func formatTypeDecl(typesIn *types.Interner, id types.TypeID) string {
	var sb strings.Builder
	if info, ok := typesIn.StructInfo(id); ok {
		sb.WriteString("type " + info.Name + " = struct ")
		if info.HasDestructor {
			sb.WriteString("drop ")
		}
		sb.WriteByte('{')
		for i, field := range info.Fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(" " + field.Name + ": " + types.Label(typesIn, field.Type))
		}
		if len(info.Fields) > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
		return sb.String()
	}
	info, _ := typesIn.EnumInfo(id)
	sb.WriteString("type " + info.Name + " = enum {")
	for i, v := range info.Variants {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(" " + v.Name)
		if len(v.Fields) > 0 {
			parts := make([]string, len(v.Fields))
			for j, ft := range v.Fields {
				parts[j] = types.Label(typesIn, ft)
			}
			sb.WriteString("(" + strings.Join(parts, ", ") + ")")
		}
	}
	if len(info.Variants) > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteByte('}')
	return sb.String()
}

// DumpFunc writes a single function body.
func DumpFunc(w io.Writer, f *Func, typesIn *types.Interner) error {
	if w == nil || f == nil {
		return nil
	}
	p := printer{f: f, types: typesIn}
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s:\n", f.Name)
	sb.WriteString("  locals:\n")
	for i := range f.Locals {
		l := &f.Locals[i]
		fmt.Fprintf(&sb, "    L%d: %s", i, types.Label(typesIn, l.Type))
		if l.Arg {
			sb.WriteString(" arg")
		}
		if l.Name != "" {
			sb.WriteString(" name=" + l.Name)
		}
		if l.FlagOf != nil {
			sb.WriteString(" flag=" + p.place(*l.FlagOf))
		}
		sb.WriteByte('\n')
	}
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(&sb, "  bb%d", i)
		if bb.Cleanup {
			sb.WriteString(" cleanup")
		}
		sb.WriteString(":\n")
		for j := range bb.Instrs {
			fmt.Fprintf(&sb, "    %s\n", p.instr(&bb.Instrs[j]))
		}
		fmt.Fprintf(&sb, "    %s\n", p.term(&bb.Term))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatPlace renders a place, naming fields and variants when the types
// are known.
func FormatPlace(f *Func, typesIn *types.Interner, pl Place) string {
	return printer{f: f, types: typesIn}.place(pl)
}

// FormatInstr renders a statement.
func FormatInstr(f *Func, typesIn *types.Interner, ins *Instr) string {
	return printer{f: f, types: typesIn}.instr(ins)
}

// FormatTerm renders a terminator.
func FormatTerm(f *Func, typesIn *types.Interner, term *Terminator) string {
	return printer{f: f, types: typesIn}.term(term)
}

type printer struct {
	f     *Func
	types *types.Interner
}

func (p printer) placeTy(pl Place) (PlaceTy, bool) {
	if p.f == nil || p.types == nil {
		return PlaceTy{}, false
	}
	return PlaceType(p.f, p.types, pl)
}

func (p printer) place(pl Place) string {
	if !pl.IsValid() {
		return "L?"
	}
	out := fmt.Sprintf("L%d", pl.Local)
	var ty PlaceTy
	known := false
	if p.f != nil && p.types != nil {
		ty = PlaceTy{Type: p.f.LocalType(pl.Local), Variant: -1}
		known = ty.Type != types.NoTypeID
	}
	for _, proj := range pl.Proj {
		switch proj.Kind {
		case PlaceProjDeref:
			out = "(*" + out + ")"
		case PlaceProjField:
			out += "." + p.fieldName(ty, known, proj.FieldIdx)
		case PlaceProjIndex:
			out += fmt.Sprintf("[L%d]", proj.IndexLocal)
		case PlaceProjConstIndex:
			if proj.FromEnd {
				out += fmt.Sprintf("[-%d of %d]", proj.Offset, proj.MinLength)
			} else {
				out += fmt.Sprintf("[%d of %d]", proj.Offset, proj.MinLength)
			}
		case PlaceProjDowncast:
			out = "(" + out + " as " + p.variantName(ty.Type, known, proj.Variant) + ")"
		default:
			out += ".<?>"
		}
		if known {
			ty, known = ProjectType(p.types, ty, proj)
		}
	}
	return out
}

func (p printer) fieldName(ty PlaceTy, known bool, idx int) string {
	if known {
		if info, ok := p.types.StructInfo(ty.Type); ok && idx >= 0 && idx < len(info.Fields) {
			return info.Fields[idx].Name
		}
	}
	return strconv.Itoa(idx)
}

func (p printer) variantName(enum types.TypeID, known bool, v int) string {
	if known {
		if info, ok := p.types.EnumInfo(enum); ok && v >= 0 && v < len(info.Variants) {
			return info.Variants[v].Name
		}
	}
	return "#" + strconv.Itoa(v)
}

func (p printer) instr(ins *Instr) string {
	if ins == nil {
		return "<instr?>"
	}
	switch ins.Kind {
	case InstrAssign:
		return fmt.Sprintf("%s = %s", p.place(ins.Assign.Dst), p.rvalue(&ins.Assign.Src))
	case InstrNop:
		return "nop"
	default:
		return "<instr?>"
	}
}

func (p printer) term(term *Terminator) string {
	if term == nil {
		return "unreachable"
	}
	switch term.Kind {
	case TermGoto:
		return fmt.Sprintf("goto bb%d", term.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if %s then bb%d else bb%d", p.operand(&term.If.Cond), term.If.Then, term.If.Else)
	case TermSwitchTag:
		st := &term.SwitchTag
		ty, known := p.placeTy(st.Place)
		var sb strings.Builder
		sb.WriteString("switch_tag " + p.place(st.Place) + " {")
		for _, c := range st.Cases {
			fmt.Fprintf(&sb, " %s -> bb%d;", p.variantName(ty.Type, known, c.Variant), c.Target)
		}
		if st.Default != NoBlockID {
			fmt.Fprintf(&sb, " default -> bb%d;", st.Default)
		}
		sb.WriteString(" }")
		return sb.String()
	case TermReturn:
		return "return"
	case TermResume:
		return "resume"
	case TermNone, TermUnreachable:
		return "unreachable"
	case TermDrop:
		return fmt.Sprintf("drop %s -> bb%d%s", p.place(term.Drop.Place), term.Drop.Target, unwindSuffix(term.Drop.Unwind))
	case TermDropAndReplace:
		r := &term.Replace
		return fmt.Sprintf("replace %s <- %s -> bb%d%s", p.place(r.Place), p.operand(&r.Value), r.Target, unwindSuffix(r.Unwind))
	case TermCall:
		c := &term.Call
		var sb strings.Builder
		if c.HasDst {
			sb.WriteString(p.place(c.Dst) + " = ")
		}
		sb.WriteString("call " + c.Callee + "(" + p.operands(c.Args) + ")")
		if c.Target != NoBlockID {
			fmt.Fprintf(&sb, " -> bb%d", c.Target)
		}
		sb.WriteString(unwindSuffix(c.Cleanup))
		return sb.String()
	default:
		return "<term?>"
	}
}

func unwindSuffix(bb BlockID) string {
	if bb == NoBlockID {
		return ""
	}
	return fmt.Sprintf(" unwind bb%d", bb)
}

func (p printer) operands(ops []Operand) string {
	parts := make([]string, len(ops))
	for i := range ops {
		parts[i] = p.operand(&ops[i])
	}
	return strings.Join(parts, ", ")
}

func (p printer) operand(op *Operand) string {
	if op == nil {
		return "<op?>"
	}
	switch op.Kind {
	case OperandConst:
		return formatConst(&op.Const)
	case OperandCopy:
		return "copy " + p.place(op.Place)
	case OperandMove:
		return "move " + p.place(op.Place)
	default:
		return "<op?>"
	}
}

func formatConst(c *Const) string {
	switch c.Kind {
	case ConstUnit:
		return "const ()"
	case ConstInt:
		return fmt.Sprintf("const %d", c.IntValue)
	case ConstBool:
		if c.BoolValue {
			return "const true"
		}
		return "const false"
	case ConstString:
		return "const " + strconv.Quote(c.StringValue)
	default:
		return "const ?"
	}
}

func (p printer) rvalue(rv *RValue) string {
	if rv == nil {
		return "<rvalue?>"
	}
	switch rv.Kind {
	case RValueUse:
		return p.operand(&rv.Use)
	case RValueBinaryOp:
		return fmt.Sprintf("(%s %s %s)", p.operand(&rv.Binary.Left), rv.Binary.Op, p.operand(&rv.Binary.Right))
	case RValueRef:
		if rv.Ref.Mutable {
			return "&mut " + p.place(rv.Ref.Place)
		}
		return "&" + p.place(rv.Ref.Place)
	case RValueAggregate:
		agg := &rv.Aggregate
		fields := p.operands(agg.Fields)
		switch agg.Kind {
		case AggTuple:
			if len(agg.Fields) == 1 {
				return "(" + fields + ",)"
			}
			return "(" + fields + ")"
		case AggArray:
			return "[" + fields + "]"
		case AggStruct:
			return types.Label(p.types, agg.Type) + "(" + fields + ")"
		case AggEnum:
			out := types.Label(p.types, agg.Type) + "::" + p.variantName(agg.Type, p.types != nil, agg.Variant)
			if len(agg.Fields) > 0 {
				out += "(" + fields + ")"
			}
			return out
		}
	}
	return "<rvalue?>"
}
