package types

type dropState uint8

const (
	dropUnknown dropState = iota
	dropVisiting
	dropYes
	dropNo
)

// NeedsDrop reports whether dropping a value of the type does any work.
// Strings and own boxes always do; aggregates do when a member does or when
// a struct carries a user destructor. References, pointers and scalars never.
func (in *Interner) NeedsDrop(id TypeID) bool {
	switch in.needsDrop[id] {
	case dropYes:
		return true
	case dropNo, dropVisiting:
		// recursive types only recurse through own, which already answers yes
		return false
	}
	in.needsDrop[id] = dropVisiting
	res := in.computeNeedsDrop(id)
	if res {
		in.needsDrop[id] = dropYes
	} else {
		in.needsDrop[id] = dropNo
	}
	return res
}

func (in *Interner) computeNeedsDrop(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindString, KindOwn:
		return true
	case KindArray:
		return tt.Count > 0 && in.NeedsDrop(tt.Elem)
	case KindStruct:
		info := in.structInfo(id)
		if info == nil {
			return false
		}
		if info.HasDestructor {
			return true
		}
		for _, f := range info.Fields {
			if in.NeedsDrop(f.Type) {
				return true
			}
		}
	case KindTuple:
		info, _ := in.TupleInfo(id)
		if info == nil {
			return false
		}
		for _, elem := range info.Elems {
			if in.NeedsDrop(elem) {
				return true
			}
		}
	case KindEnum:
		info := in.enumInfo(id)
		if info == nil {
			return false
		}
		for _, v := range info.Variants {
			for _, f := range v.Fields {
				if in.NeedsDrop(f) {
					return true
				}
			}
		}
	}
	return false
}

// HasDestructor reports a user-written destructor on the type itself.
func (in *Interner) HasDestructor(id TypeID) bool {
	info := in.structInfo(id)
	return info != nil && info.HasDestructor
}

// NumFields returns the field count of a struct, tuple or enum variant.
// variant is ignored for non-enum types.
func (in *Interner) NumFields(id TypeID, variant int) int {
	tt, ok := in.Lookup(id)
	if !ok {
		return 0
	}
	switch tt.Kind {
	case KindStruct:
		if info := in.structInfo(id); info != nil {
			return len(info.Fields)
		}
	case KindTuple:
		if info, ok := in.TupleInfo(id); ok {
			return len(info.Elems)
		}
	case KindEnum:
		if info := in.enumInfo(id); info != nil && variant >= 0 && variant < len(info.Variants) {
			return len(info.Variants[variant].Fields)
		}
	}
	return 0
}

// Field returns the type of field index of a struct, tuple, or the given
// variant of an enum.
func (in *Interner) Field(id TypeID, variant, index int) (TypeID, bool) {
	if index < 0 || index >= in.NumFields(id, variant) {
		return NoTypeID, false
	}
	switch in.MustLookup(id).Kind {
	case KindStruct:
		return in.structInfo(id).Fields[index].Type, true
	case KindTuple:
		info, _ := in.TupleInfo(id)
		return info.Elems[index], true
	case KindEnum:
		return in.enumInfo(id).Variants[variant].Fields[index], true
	}
	return NoTypeID, false
}

// Elem returns the element type of arrays, pointers, references and own boxes.
func (in *Interner) Elem(id TypeID) (TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok {
		return NoTypeID, false
	}
	switch tt.Kind {
	case KindArray, KindPointer, KindReference, KindOwn:
		return tt.Elem, true
	}
	return NoTypeID, false
}

// NumVariants returns the variant count of an enum, zero otherwise.
func (in *Interner) NumVariants(id TypeID) int {
	if info := in.enumInfo(id); info != nil {
		return len(info.Variants)
	}
	return 0
}
