package types

import (
	"slices"

	"dropelab/internal/source"
)

// StructField describes a single field inside a nominal struct type.
type StructField struct {
	Name string
	Type TypeID
}

// StructInfo stores metadata for a struct type.
type StructInfo struct {
	Name   string
	Decl   source.Span
	Fields []StructField
	// HasDestructor marks a user-written destructor. Fields of such a struct
	// are never moved out individually.
	HasDestructor bool
}

// RegisterStruct allocates a nominal struct type slot and returns its TypeID.
func (in *Interner) RegisterStruct(name string, decl source.Span) TypeID {
	in.structs = append(in.structs, StructInfo{Name: name, Decl: decl})
	slot := toSlot(len(in.structs)-1, "struct")
	id := in.internRaw(Type{Kind: KindStruct, Payload: slot})
	in.bindName(name, id)
	return id
}

// SetStructFields stores the resolved field descriptors for the struct type.
func (in *Interner) SetStructFields(typeID TypeID, fields []StructField) {
	info := in.structInfo(typeID)
	if info == nil {
		return
	}
	info.Fields = slices.Clone(fields)
	clear(in.needsDrop)
}

// SetDestructor marks the struct as carrying a user destructor.
func (in *Interner) SetDestructor(typeID TypeID, has bool) {
	info := in.structInfo(typeID)
	if info == nil {
		return
	}
	info.HasDestructor = has
	clear(in.needsDrop)
}

// StructInfo returns metadata for the provided struct TypeID.
func (in *Interner) StructInfo(typeID TypeID) (*StructInfo, bool) {
	info := in.structInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// FieldIndex resolves a field name to its position.
func (in *Interner) FieldIndex(typeID TypeID, name string) (int, bool) {
	info := in.structInfo(typeID)
	if info == nil {
		return 0, false
	}
	idx := slices.IndexFunc(info.Fields, func(f StructField) bool { return f.Name == name })
	return idx, idx >= 0
}

func (in *Interner) structInfo(typeID TypeID) *StructInfo {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindStruct {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.structs) {
		return nil
	}
	return &in.structs[tt.Payload]
}
