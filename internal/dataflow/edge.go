package dataflow

import "dropelab/internal/mir"

// EdgeKind says which terminator effect, if any, applies along an edge.
type EdgeKind uint8

const (
	EdgePlain EdgeKind = iota
	// EdgeCallReturn is the normal return of a call with a destination.
	EdgeCallReturn
	// EdgeSwitchCase is an explicit case of a switch_tag; Variant is active.
	EdgeSwitchCase
	// EdgeSwitchDefault is the default arm of a switch_tag; none of the
	// explicitly cased variants is active.
	EdgeSwitchDefault
	// EdgeFlagSet and EdgeFlagUnset leave an `if` on a drop flag; the
	// flag's place is initialized on the first and not on the second.
	EdgeFlagSet
	EdgeFlagUnset
)

type Edge struct {
	From    mir.BlockID
	To      mir.BlockID
	Kind    EdgeKind
	Variant int
}

// Edges lists the outgoing edges of bb. Switch arms, call returns and flag
// tests carry their kind; everything else is plain.
func Edges(f *mir.Func, bb mir.BlockID) []Edge {
	term := &f.Blocks[bb].Term
	var out []Edge
	switch term.Kind {
	case mir.TermSwitchTag:
		for _, c := range term.SwitchTag.Cases {
			out = append(out, Edge{From: bb, To: c.Target, Kind: EdgeSwitchCase, Variant: c.Variant})
		}
		if term.SwitchTag.Default != mir.NoBlockID {
			out = append(out, Edge{From: bb, To: term.SwitchTag.Default, Kind: EdgeSwitchDefault})
		}
	case mir.TermCall:
		if term.Call.Target != mir.NoBlockID {
			kind := EdgePlain
			if term.Call.HasDst {
				kind = EdgeCallReturn
			}
			out = append(out, Edge{From: bb, To: term.Call.Target, Kind: kind})
		}
		if term.Call.Cleanup != mir.NoBlockID {
			out = append(out, Edge{From: bb, To: term.Call.Cleanup})
		}
	case mir.TermIf:
		then, els := EdgePlain, EdgePlain
		if isFlagTest(f, term.If.Cond) {
			then, els = EdgeFlagSet, EdgeFlagUnset
		}
		out = append(out,
			Edge{From: bb, To: term.If.Then, Kind: then},
			Edge{From: bb, To: term.If.Else, Kind: els})
	default:
		for _, s := range mir.Successors(term) {
			out = append(out, Edge{From: bb, To: s})
		}
	}
	return out
}

func isFlagTest(f *mir.Func, cond mir.Operand) bool {
	if cond.Kind == mir.OperandConst || !cond.Place.IsLocal() {
		return false
	}
	l := cond.Place.Local
	return l >= 0 && int(l) < len(f.Locals) && f.Locals[l].FlagOf != nil
}
