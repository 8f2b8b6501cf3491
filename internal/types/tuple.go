package types

import "slices"

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// RegisterTuple returns the tuple type with the given elements, reusing an
// existing registration when the element list matches.
func (in *Interner) RegisterTuple(elems []TypeID) TypeID {
	for slot := 1; slot < len(in.tuples); slot++ {
		if slices.Equal(in.tuples[slot].Elems, elems) {
			return in.Intern(Type{Kind: KindTuple, Payload: toSlot(slot, "tuple")})
		}
	}
	in.tuples = append(in.tuples, TupleInfo{Elems: slices.Clone(elems)})
	slot := toSlot(len(in.tuples)-1, "tuple")
	return in.internRaw(Type{Kind: KindTuple, Payload: slot})
}

// TupleInfo returns the element types for a tuple TypeID.
func (in *Interner) TupleInfo(id TypeID) (*TupleInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.tuples) {
		return nil, false
	}
	return &in.tuples[tt.Payload], true
}
