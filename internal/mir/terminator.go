package mir

import "dropelab/internal/source"

type TermKind uint8

const (
	TermNone TermKind = iota
	TermGoto
	TermIf
	TermSwitchTag
	TermReturn
	TermResume
	TermUnreachable
	TermDrop
	TermDropAndReplace
	TermCall
)

func (k TermKind) String() string {
	switch k {
	case TermNone:
		return "none"
	case TermGoto:
		return "goto"
	case TermIf:
		return "if"
	case TermSwitchTag:
		return "switch_tag"
	case TermReturn:
		return "return"
	case TermResume:
		return "resume"
	case TermUnreachable:
		return "unreachable"
	case TermDrop:
		return "drop"
	case TermDropAndReplace:
		return "replace"
	case TermCall:
		return "call"
	default:
		return "?"
	}
}

type Terminator struct {
	Kind TermKind
	Span source.Span

	Goto      GotoTerm
	If        IfTerm
	SwitchTag SwitchTagTerm
	Drop      DropTerm
	Replace   DropAndReplaceTerm
	Call      CallTerm
}

type GotoTerm struct {
	Target BlockID
}

type IfTerm struct {
	Cond Operand
	Then BlockID
	Else BlockID
}

type SwitchTagCase struct {
	Variant int
	Target  BlockID
}

// SwitchTagTerm branches on the active variant of an enum place.
// Default may be NoBlockID when the cases are exhaustive.
type SwitchTagTerm struct {
	Place   Place
	Cases   []SwitchTagCase
	Default BlockID
}

// DropTerm runs the destructor of Place. Unwind is NoBlockID when the drop
// cannot unwind or sits on a cleanup path.
type DropTerm struct {
	Place  Place
	Target BlockID
	Unwind BlockID
}

// DropAndReplaceTerm drops Place and then assigns Value to it on both exits.
type DropAndReplaceTerm struct {
	Place  Place
	Value  Operand
	Target BlockID
	Unwind BlockID
}

// CallTerm calls a named function. Target is NoBlockID for diverging calls.
type CallTerm struct {
	Callee  string
	Args    []Operand
	HasDst  bool
	Dst     Place
	Target  BlockID
	Cleanup BlockID
}

func Goto(target BlockID) Terminator {
	return Terminator{Kind: TermGoto, Goto: GotoTerm{Target: target}}
}

func If(cond Operand, then, els BlockID) Terminator {
	return Terminator{Kind: TermIf, If: IfTerm{Cond: cond, Then: then, Else: els}}
}

func Drop(place Place, target, unwind BlockID) Terminator {
	return Terminator{Kind: TermDrop, Drop: DropTerm{Place: place, Target: target, Unwind: unwind}}
}

// UnwindTarget returns the unwind/cleanup successor, if the terminator has one.
func (t *Terminator) UnwindTarget() (BlockID, bool) {
	var bb BlockID
	switch t.Kind {
	case TermDrop:
		bb = t.Drop.Unwind
	case TermDropAndReplace:
		bb = t.Replace.Unwind
	case TermCall:
		bb = t.Call.Cleanup
	default:
		return NoBlockID, false
	}
	return bb, bb != NoBlockID
}

// ClearUnwind removes the unwind edge of drops and calls.
func (t *Terminator) ClearUnwind() {
	switch t.Kind {
	case TermDrop:
		t.Drop.Unwind = NoBlockID
	case TermDropAndReplace:
		t.Replace.Unwind = NoBlockID
	case TermCall:
		t.Call.Cleanup = NoBlockID
	}
}

// MapTargets rewrites every successor edge through fn. NoBlockID edges are
// left alone.
func (t *Terminator) MapTargets(fn func(BlockID) BlockID) {
	m := func(id BlockID) BlockID {
		if id == NoBlockID {
			return id
		}
		return fn(id)
	}
	switch t.Kind {
	case TermGoto:
		t.Goto.Target = m(t.Goto.Target)
	case TermIf:
		t.If.Then = m(t.If.Then)
		t.If.Else = m(t.If.Else)
	case TermSwitchTag:
		if len(t.SwitchTag.Cases) > 0 {
			t.SwitchTag.Cases = append([]SwitchTagCase(nil), t.SwitchTag.Cases...)
		}
		for j := range t.SwitchTag.Cases {
			t.SwitchTag.Cases[j].Target = m(t.SwitchTag.Cases[j].Target)
		}
		t.SwitchTag.Default = m(t.SwitchTag.Default)
	case TermDrop:
		t.Drop.Target = m(t.Drop.Target)
		t.Drop.Unwind = m(t.Drop.Unwind)
	case TermDropAndReplace:
		t.Replace.Target = m(t.Replace.Target)
		t.Replace.Unwind = m(t.Replace.Unwind)
	case TermCall:
		t.Call.Target = m(t.Call.Target)
		t.Call.Cleanup = m(t.Call.Cleanup)
	}
}

// Successors lists the successor blocks of a terminator, normal edges first.
func Successors(t *Terminator) []BlockID {
	var out []BlockID
	add := func(id BlockID) {
		if id != NoBlockID {
			out = append(out, id)
		}
	}
	switch t.Kind {
	case TermGoto:
		add(t.Goto.Target)
	case TermIf:
		add(t.If.Then)
		add(t.If.Else)
	case TermSwitchTag:
		for _, c := range t.SwitchTag.Cases {
			add(c.Target)
		}
		add(t.SwitchTag.Default)
	case TermDrop:
		add(t.Drop.Target)
		add(t.Drop.Unwind)
	case TermDropAndReplace:
		add(t.Replace.Target)
		add(t.Replace.Unwind)
	case TermCall:
		add(t.Call.Target)
		add(t.Call.Cleanup)
	}
	return out
}
