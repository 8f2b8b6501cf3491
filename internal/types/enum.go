package types

import (
	"slices"

	"dropelab/internal/source"
)

// EnumVariantInfo stores metadata for a single enum variant.
type EnumVariantInfo struct {
	Name   string
	Fields []TypeID
}

// EnumInfo stores metadata for an enum type.
type EnumInfo struct {
	Name     string
	Decl     source.Span
	Variants []EnumVariantInfo
}

// RegisterEnum allocates a nominal enum type slot and returns its TypeID.
func (in *Interner) RegisterEnum(name string, decl source.Span) TypeID {
	in.enums = append(in.enums, EnumInfo{Name: name, Decl: decl})
	slot := toSlot(len(in.enums)-1, "enum")
	id := in.internRaw(Type{Kind: KindEnum, Payload: slot})
	in.bindName(name, id)
	return id
}

// SetEnumVariants stores the resolved variants for the enum type.
func (in *Interner) SetEnumVariants(typeID TypeID, variants []EnumVariantInfo) {
	info := in.enumInfo(typeID)
	if info == nil {
		return
	}
	info.Variants = make([]EnumVariantInfo, len(variants))
	for i, v := range variants {
		info.Variants[i] = EnumVariantInfo{Name: v.Name, Fields: slices.Clone(v.Fields)}
	}
	clear(in.needsDrop)
}

// EnumInfo returns metadata for the provided enum TypeID.
func (in *Interner) EnumInfo(typeID TypeID) (*EnumInfo, bool) {
	info := in.enumInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// VariantIndex resolves a variant name to its position.
func (in *Interner) VariantIndex(typeID TypeID, name string) (int, bool) {
	info := in.enumInfo(typeID)
	if info == nil {
		return 0, false
	}
	idx := slices.IndexFunc(info.Variants, func(v EnumVariantInfo) bool { return v.Name == name })
	return idx, idx >= 0
}

func (in *Interner) enumInfo(typeID TypeID) *EnumInfo {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindEnum {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.enums) {
		return nil
	}
	return &in.enums[tt.Payload]
}
