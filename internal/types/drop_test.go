package types

import (
	"testing"

	"dropelab/internal/source"
)

func TestNeedsDrop(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	plain := in.RegisterStruct("Plain", source.Span{})
	in.SetStructFields(plain, []StructField{{Name: "x", Type: b.Int}})

	guard := in.RegisterStruct("Guard", source.Span{})
	in.SetStructFields(guard, []StructField{{Name: "x", Type: b.Int}})
	in.SetDestructor(guard, true)

	holder := in.RegisterStruct("Holder", source.Span{})
	in.SetStructFields(holder, []StructField{{Name: "s", Type: b.String}, {Name: "n", Type: b.Int}})

	list := in.RegisterStruct("List", source.Span{})
	in.SetStructFields(list, []StructField{{Name: "next", Type: in.Intern(MakeOwn(list))}})

	opt := in.RegisterEnum("Opt", source.Span{})
	in.SetEnumVariants(opt, []EnumVariantInfo{{Name: "None"}, {Name: "Some", Fields: []TypeID{b.String}}})

	tests := []struct {
		name string
		id   TypeID
		want bool
	}{
		{"int", b.Int, false},
		{"string", b.String, true},
		{"ref string", in.Intern(MakeReference(b.String, false)), false},
		{"ptr string", in.Intern(MakePointer(b.String)), false},
		{"own int", in.Intern(MakeOwn(b.Int)), true},
		{"plain struct", plain, false},
		{"destructor struct", guard, true},
		{"struct with string", holder, true},
		{"recursive list", list, true},
		{"enum with string arm", opt, true},
		{"empty array", in.Intern(MakeArray(b.String, 0)), false},
		{"array of strings", in.Intern(MakeArray(b.String, 2)), true},
		{"tuple of ints", in.RegisterTuple([]TypeID{b.Int, b.Bool}), false},
	}
	for _, tt := range tests {
		if got := in.NeedsDrop(tt.id); got != tt.want {
			t.Errorf("NeedsDrop(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if !in.HasDestructor(guard) || in.HasDestructor(holder) {
		t.Fatalf("HasDestructor mismatch")
	}
}

func TestFieldLookup(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	opt := in.RegisterEnum("Opt", source.Span{})
	in.SetEnumVariants(opt, []EnumVariantInfo{{Name: "None"}, {Name: "Some", Fields: []TypeID{b.String}}})

	if ft, ok := in.Field(opt, 1, 0); !ok || ft != b.String {
		t.Fatalf("Field(Opt::Some, 0) = %v, %v", ft, ok)
	}
	if _, ok := in.Field(opt, 0, 0); ok {
		t.Fatalf("None has no fields")
	}
	tup := in.RegisterTuple([]TypeID{b.Int, b.String})
	if ft, ok := in.Field(tup, -1, 1); !ok || ft != b.String {
		t.Fatalf("Field(tuple, 1) = %v, %v", ft, ok)
	}
	if in.NumVariants(opt) != 2 {
		t.Fatalf("NumVariants = %d", in.NumVariants(opt))
	}
}
