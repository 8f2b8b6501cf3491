package mir_test

import (
	"dropelab/internal/mir"
	"dropelab/internal/source"
	"dropelab/internal/types"
)

// testTypes registers the nominal types shared by the tests in this package.
type testTypes struct {
	in   *types.Interner
	pair types.TypeID // struct Pair { a: string, b: string }
	opt  types.TypeID // enum Opt { None, Some(string) }
}

func newTestTypes() testTypes {
	in := types.NewInterner()
	str := in.Builtins().String
	pair := in.RegisterStruct("Pair", source.Span{})
	in.SetStructFields(pair, []types.StructField{{Name: "a", Type: str}, {Name: "b", Type: str}})
	opt := in.RegisterEnum("Opt", source.Span{})
	in.SetEnumVariants(opt, []types.EnumVariantInfo{{Name: "None"}, {Name: "Some", Fields: []types.TypeID{str}}})
	return testTypes{in: in, pair: pair, opt: opt}
}

func ret() mir.Terminator {
	return mir.Terminator{Kind: mir.TermReturn}
}

func resume() mir.Terminator {
	return mir.Terminator{Kind: mir.TermResume}
}
