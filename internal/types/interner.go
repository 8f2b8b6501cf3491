package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	String  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Nominal types get a fresh id per registration.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	structs  []StructInfo
	tuples   []TupleInfo
	enums    []EnumInfo
	byName   map[string]TypeID

	needsDrop map[TypeID]dropState
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:     make(map[typeKey]TypeID, 64),
		byName:    make(map[string]TypeID),
		needsDrop: make(map[TypeID]dropState),
	}
	in.structs = append(in.structs, StructInfo{}) // reserve 0 as invalid sentinel
	in.tuples = append(in.tuples, TupleInfo{})
	in.enums = append(in.enums, EnumInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Named returns the nominal type registered under name.
func (in *Interner) Named(name string) (TypeID, bool) {
	id, ok := in.byName[name]
	return id, ok
}

// Len reports the number of interned types including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}

func (in *Interner) bindName(name string, id TypeID) {
	if name != "" {
		in.byName[name] = id
	}
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Mutable bool
	Payload uint32
}

func toSlot(i int, what string) uint32 {
	slot, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("%s info overflow: %w", what, err))
	}
	return slot
}

// Nominals returns struct and enum types in registration order.
func (in *Interner) Nominals() []TypeID {
	var out []TypeID
	for i, tt := range in.types {
		if tt.Kind == KindStruct || tt.Kind == KindEnum {
			out = append(out, TypeID(i)) //nolint:gosec // bounded by len(types)
		}
	}
	return out
}
