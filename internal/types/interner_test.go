package types

import (
	"testing"

	"dropelab/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID || b.String == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	unit, _ := in.Lookup(b.Unit)
	if unit.Kind != KindUnit {
		t.Fatalf("expected unit kind, got %v", unit.Kind)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().String
	arr1 := in.Intern(MakeArray(elem, 3))
	arr2 := in.Intern(MakeArray(elem, 3))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Intern(MakeArray(elem, 4)) == arr1 {
		t.Fatalf("array length must affect identity")
	}
	tup1 := in.RegisterTuple([]TypeID{elem, in.Builtins().Int})
	tup2 := in.RegisterTuple([]TypeID{elem, in.Builtins().Int})
	if tup1 != tup2 {
		t.Fatalf("tuple types should be deduplicated")
	}
}

func TestReferenceMutabilityAffectsIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int
	mut := in.Intern(MakeReference(elem, true))
	imm := in.Intern(MakeReference(elem, false))
	if mut == imm {
		t.Fatalf("mutable and immutable references must differ")
	}
}

func TestNominalLookupByName(t *testing.T) {
	in := NewInterner()
	pair := in.RegisterStruct("Pair", source.Span{})
	in.SetStructFields(pair, []StructField{{Name: "a", Type: in.Builtins().String}, {Name: "b", Type: in.Builtins().Int}})
	got, ok := in.Named("Pair")
	if !ok || got != pair {
		t.Fatalf("Named(Pair) = %v, %v", got, ok)
	}
	if idx, ok := in.FieldIndex(pair, "b"); !ok || idx != 1 {
		t.Fatalf("FieldIndex(b) = %d, %v", idx, ok)
	}
	if Label(in, in.Intern(MakeArray(pair, 2))) != "[Pair; 2]" {
		t.Fatalf("unexpected label %q", Label(in, in.Intern(MakeArray(pair, 2))))
	}
}
