package parser_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dropelab/internal/diag"
	"dropelab/internal/mir"
	"dropelab/internal/parser"
	"dropelab/internal/source"
	"dropelab/internal/types"
)

func parse(t *testing.T, src string) (parser.Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.mir", []byte(src))
	bag := diag.NewBag(32)
	res := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return res, bag
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

const roundTripSrc = `type Pair = struct { a: string, b: string }
type Guard = struct drop { id: int }
type Opt = enum { None, Some(string) }

fn main:
  locals:
    L0: ()
    L1: Pair name=p
    L2: string arg name=s
    L3: Opt
    L4: bool flag=L1.a
    L5: [string; 2]
    L6: &mut Pair
    L7: int
  bb0:
    L1 = Pair(copy L2, const "x\n")
    L3 = Opt::Some(move L1.a)
    L4 = const true
    L7 = (const 1 + const -2)
    L6 = &mut L1
    nop
    switch_tag L3 { None -> bb1; Some -> bb2; }
  bb1:
    L5 = [move L1.b, const "y"]
    drop L5[1 of 2] -> bb2 unwind bb3
  bb2:
    L0 = call consume(move (L3 as Some).0, copy (*L6).b) -> bb4 unwind bb3
  bb3 cleanup:
    drop L1 -> bb5
  bb4:
    replace L1.b <- const "z" -> bb6 unwind bb3
  bb5 cleanup:
    resume
  bb6:
    return

fn tuple:
  locals:
    L0: (int, string)
    L1: own Guard
    L2: (string,)
    L3: &int
    L4: [Opt; 3]
  bb0:
    L0 = (const 1, const "a")
    L2 = (const "b",)
    L3 = &L0.0
    L4[-1 of 3] = Opt::None
    L0 = call make() -> bb1
  bb1:
    drop (*L1) -> bb2
  bb2:
    if copy (L4[0 of 3] as Some).0 then bb3 else bb3
  bb3:
    call abort()
`

func TestParseRoundTrip(t *testing.T) {
	res, bag := parse(t, roundTripSrc)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if !res.OK() {
		t.Fatalf("parse failed with %d errors", res.Errors)
	}
	if err := mir.Validate(res.Module); err != nil {
		t.Fatalf("parsed module does not validate: %v", err)
	}
	var sb strings.Builder
	if err := mir.Dump(&sb, res.Module); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(roundTripSrc, sb.String()); diff != "" {
		t.Fatalf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestParseResolvesNames(t *testing.T) {
	res, bag := parse(t, roundTripSrc)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	f, ok := res.Module.Func("main")
	if !ok {
		t.Fatal("main not found")
	}
	if got := f.Args(); !cmp.Equal(got, []mir.LocalID{2}) {
		t.Fatalf("args = %v", got)
	}
	flag := f.Locals[4].FlagOf
	if flag == nil || !flag.Equal(mir.LocalPlace(1).Field(0)) {
		t.Fatalf("flag of L4 = %v, want L1.0", flag)
	}

	call := f.Blocks[2].Term
	if call.Kind != mir.TermCall || call.Call.Target != 4 || call.Call.Cleanup != 3 {
		t.Fatalf("bb2 terminator = %+v", call)
	}
	want := mir.LocalPlace(3).Downcast(1).Field(0)
	if got := call.Call.Args[0].Place; !got.Equal(want) {
		t.Fatalf("first arg = %+v, want %+v", got, want)
	}

	st := f.Blocks[0].Term.SwitchTag
	if diff := cmp.Diff([]mir.SwitchTagCase{{Variant: 0, Target: 1}, {Variant: 1, Target: 2}}, st.Cases); diff != "" {
		t.Fatalf("switch cases (-want +got):\n%s", diff)
	}
	if st.Default != mir.NoBlockID {
		t.Fatalf("default = %d, want none", st.Default)
	}
	if !f.Blocks[3].Cleanup || f.Blocks[4].Cleanup {
		t.Fatal("cleanup markers not preserved")
	}

	tup, _ := res.Module.Func("tuple")
	abort := tup.Blocks[3].Term.Call
	if abort.Target != mir.NoBlockID || abort.Cleanup != mir.NoBlockID || abort.HasDst {
		t.Fatalf("abort call = %+v", abort)
	}
	if got := tup.Blocks[0].Instrs[3].Assign.Dst.Proj[0]; got != mir.ConstIndexProj(1, 3, true) {
		t.Fatalf("const index = %+v", got)
	}
}

func TestParseTypes(t *testing.T) {
	in := types.NewInterner()
	fs := source.NewFileSet()
	id := fs.AddVirtual("types.mir", []byte(`
type List = enum { Nil, Cons(string, own List) }
type Node = struct { next: *Node, prev: &Node }
type Wrap = struct { inner: Later }
type Later = struct drop { }
`))
	bag := diag.NewBag(8)
	res := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}, Types: in})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if res.Module.Types != in {
		t.Fatal("module does not use the provided interner")
	}
	list, ok := in.Named("List")
	if !ok {
		t.Fatal("List not registered")
	}
	if !in.NeedsDrop(list) {
		t.Fatal("List holds a string and must need drop")
	}
	wrap, _ := in.Named("Wrap")
	if !in.NeedsDrop(wrap) {
		t.Fatal("Wrap holds a type with a destructor")
	}
	node, _ := in.Named("Node")
	if in.NeedsDrop(node) {
		t.Fatal("pointers and references do not need drop")
	}
}

func TestParseDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Code
	}{
		{
			name: "unknown type",
			src:  "fn f:\n  locals:\n    L0: Foo\n  bb0:\n    return\n",
			want: []diag.Code{diag.SynUnknownType},
		},
		{
			name: "unknown local",
			src:  "fn f:\n  locals:\n    L0: int\n  bb0:\n    L3 = const 1\n    return\n",
			want: []diag.Code{diag.SynUnknownLocal},
		},
		{
			name: "duplicate block",
			src:  "fn f:\n  locals:\n    L0: ()\n  bb0:\n    return\n  bb0:\n    return\n",
			want: []diag.Code{diag.SynDuplicateBlock, diag.SynBadBlockRef},
		},
		{
			name: "bad block ref",
			src:  "fn f:\n  locals:\n    L0: ()\n  bb0:\n    goto bb3\n",
			want: []diag.Code{diag.SynBadBlockRef},
		},
		{
			name: "missing terminator",
			src:  "fn f:\n  locals:\n    L0: ()\n  bb0:\n    nop\n  bb1:\n    return\n",
			want: []diag.Code{diag.SynMissingTerm},
		},
		{
			name: "recursive type",
			src:  "type List = struct { head: int, tail: List }\n",
			want: []diag.Code{diag.SynRecursiveType},
		},
		{
			name: "recursive through tuple",
			src:  "type A = enum { One((int, A)) }\n",
			want: []diag.Code{diag.SynRecursiveType},
		},
		{
			name: "field on int",
			src:  "fn f:\n  locals:\n    L0: int\n  bb0:\n    L0.a = const 1\n    return\n",
			want: []diag.Code{diag.SynBadProjection},
		},
		{
			name: "unknown variant",
			src:  "type Opt = enum { None }\nfn f:\n  locals:\n    L0: ()\n    L1: Opt\n  bb0:\n    switch_tag L1 { Some -> bb0; }\n",
			want: []diag.Code{diag.SynUnknownVariant},
		},
		{
			name: "duplicate type",
			src:  "type A = struct { }\ntype A = enum { }\n",
			want: []diag.Code{diag.SynDuplicateName},
		},
		{
			name: "duplicate function",
			src:  "fn f:\n  locals:\n    L0: ()\n  bb0:\n    return\nfn f:\n  locals:\n    L0: ()\n  bb0:\n    return\n",
			want: []diag.Code{diag.SynDuplicateName},
		},
		{
			name: "struct arity",
			src:  "type P = struct { a: int }\nfn f:\n  locals:\n    L0: P\n  bb0:\n    L0 = P(const 1, const 2)\n    return\n",
			want: []diag.Code{diag.SynBadArgumentCount},
		},
		{
			name: "locals out of order",
			src:  "fn f:\n  locals:\n    L1: ()\n  bb0:\n    return\n",
			want: []diag.Code{diag.SynUnexpectedToken},
		},
		{
			name: "truncated terminator",
			src:  "fn f:\n  locals:\n    L0: ()\n  bb0:\n    goto\n",
			want: []diag.Code{diag.SynUnexpectedToken},
		},
		{
			name: "lexical error",
			src:  "fn f:\n  locals:\n    L0: ()\n  bb0:\n    return @\n",
			want: []diag.Code{diag.LexUnknownChar, diag.SynUnexpectedToken},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, bag := parse(t, tt.src)
			if res.Module != nil || res.OK() {
				t.Fatal("expected parse to fail")
			}
			if diff := cmp.Diff(tt.want, codes(bag)); diff != "" {
				t.Fatalf("codes (-want +got):\n%s", diff)
			}
			if res.Errors != uint(len(tt.want)) {
				t.Fatalf("Errors = %d, want %d", res.Errors, len(tt.want))
			}
		})
	}
}

func TestParseRecoversAtNextDeclaration(t *testing.T) {
	src := "fn broken:\n  locals:\n    L0: ()\n  bb0:\n    goto )\n" +
		"type A = struct { x: ( }\n" +
		"fn ok:\n  locals:\n    L0: ()\n  bb0:\n    return\n"
	_, bag := parse(t, src)
	if diff := cmp.Diff([]diag.Code{diag.SynUnexpectedToken, diag.SynUnexpectedToken}, codes(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestParseMaxErrors(t *testing.T) {
	src := strings.Repeat("fn f: oops\n", 10)
	fs := source.NewFileSet()
	id := fs.AddVirtual("many.mir", []byte(src))
	bag := diag.NewBag(32)
	res := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 3})
	if res.Errors != 3 || bag.Len() != 3 {
		t.Fatalf("errors = %d, reported = %d, want 3", res.Errors, bag.Len())
	}
}
