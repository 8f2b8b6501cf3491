package movepath_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/source"
	"dropelab/internal/types"
)

type effect struct {
	Path  movepath.Index
	State movepath.DropFlagState
}

// fixture builds
//
//	fn f(L1: Holder) {
//	  bb0: L2 = move L1.s; L3 = move L1.n; L5 = copy (*L4).n; L2 = move (*L4).s; drop L1 -> bb1
//	  bb1: L6 = Opt::Some(move L2); L2 = move (L6 as Some).0; drop L6 -> bb2
//	  bb2: L3 = call mk() -> bb3
//	  bb3: return
//	}
func fixture() (*mir.Func, *types.Interner) {
	in := types.NewInterner()
	b := in.Builtins()
	holder := in.RegisterStruct("Holder", source.Span{})
	in.SetStructFields(holder, []types.StructField{{Name: "s", Type: b.String}, {Name: "n", Type: b.Int}})
	opt := in.RegisterEnum("Opt", source.Span{})
	in.SetEnumVariants(opt, []types.EnumVariantInfo{{Name: "None"}, {Name: "Some", Fields: []types.TypeID{b.String}}})
	ref := in.Intern(types.MakeReference(holder, false))

	l := mir.LocalPlace
	f := &mir.Func{
		Name: "f",
		Locals: []mir.Local{
			{Type: b.Unit},
			{Type: holder, Arg: true},
			{Type: b.String},
			{Type: b.Int},
			{Type: ref},
			{Type: b.Int},
			{Type: opt},
		},
		Blocks: []mir.Block{
			{
				Instrs: []mir.Instr{
					mir.Assign(l(2), mir.Use(mir.Move(l(1).Field(0)))),
					mir.Assign(l(3), mir.Use(mir.Move(l(1).Field(1)))),
					mir.Assign(l(5), mir.Use(mir.Copy(l(4).Deref().Field(1)))),
					mir.Assign(l(2), mir.Use(mir.Move(l(4).Deref().Field(0)))),
				},
				Term: mir.Drop(l(1), 1, mir.NoBlockID),
			},
			{
				Instrs: []mir.Instr{
					mir.Assign(l(6), mir.RValue{Kind: mir.RValueAggregate, Aggregate: mir.Aggregate{
						Kind: mir.AggEnum, Type: opt, Variant: 1, Fields: []mir.Operand{mir.Move(l(2))},
					}}),
					mir.Assign(l(2), mir.Use(mir.Move(l(6).Downcast(1).Field(0)))),
				},
				Term: mir.Drop(l(6), 2, mir.NoBlockID),
			},
			{Term: mir.Terminator{Kind: mir.TermCall, Call: mir.CallTerm{
				Callee: "mk", HasDst: true, Dst: l(3), Target: 3, Cleanup: mir.NoBlockID,
			}}},
			{Term: mir.Terminator{Kind: mir.TermReturn}},
		},
	}
	return f, in
}

// Paths: mp0..mp6 are the locals, then L1.s=7, L1.n=8, (L6 as Some)=9,
// (L6 as Some).0=10.
func TestFind(t *testing.T) {
	f, in := fixture()
	md := movepath.Gather(f, in)
	l := mir.LocalPlace

	tests := []struct {
		name  string
		place mir.Place
		want  movepath.LookupResult
	}{
		{"local", l(1), movepath.LookupResult{Kind: movepath.Exact, Path: 1}},
		{"moved field", l(1).Field(0), movepath.LookupResult{Kind: movepath.Exact, Path: 7}},
		{"second field", l(1).Field(1), movepath.LookupResult{Kind: movepath.Exact, Path: 8}},
		{"through borrow", l(4).Deref().Field(0), movepath.LookupResult{Kind: movepath.Parent, Path: 4}},
		{"untracked variant", l(6).Downcast(0), movepath.LookupResult{Kind: movepath.Parent, Path: 6}},
		{"variant field", l(6).Downcast(1).Field(0), movepath.LookupResult{Kind: movepath.Exact, Path: 10}},
		{"unknown local", l(9), movepath.LookupResult{Kind: movepath.NoMatch, Path: movepath.NoIndex}},
	}
	for _, tt := range tests {
		if got := md.Find(tt.place); got != tt.want {
			t.Errorf("%s: Find = %s, want %s", tt.name, got, tt.want)
		}
	}
	if len(md.Paths) != 11 {
		t.Fatalf("paths = %d, want 11", len(md.Paths))
	}
}

func TestIllegalMoves(t *testing.T) {
	f, in := fixture()
	md := movepath.Gather(f, in)
	if len(md.Illegal) != 1 {
		t.Fatalf("illegal moves = %+v, want one", md.Illegal)
	}
	got := md.Illegal[0]
	if got.Loc != (mir.Location{Block: 0, Index: 3}) || got.Reason != "cannot move out of borrowed content" {
		t.Fatalf("unexpected illegal move %+v", got)
	}
	if moves := md.MovesAt(mir.Location{Block: 0, Index: 3}); len(moves) != 0 {
		t.Fatalf("illegal move was recorded: %+v", moves)
	}
}

func TestChildren(t *testing.T) {
	f, in := fixture()
	md := movepath.Gather(f, in)

	var all []movepath.Index
	md.OnAllChildren(1, func(p movepath.Index) { all = append(all, p) })
	if diff := cmp.Diff([]movepath.Index{1, 8, 7}, all); diff != "" {
		t.Fatalf("OnAllChildren mismatch (-want +got):\n%s", diff)
	}

	var drops []movepath.Index
	md.OnAllDropChildren(1, func(p movepath.Index) { drops = append(drops, p) })
	if diff := cmp.Diff([]movepath.Index{1, 7}, drops); diff != "" {
		t.Fatalf("OnAllDropChildren mismatch (-want +got):\n%s", diff)
	}

	some, ok := md.ChildMatching(6, func(p mir.PlaceProj) bool {
		return p.Kind == mir.PlaceProjDowncast && p.Variant == 1
	})
	if !ok || some != 9 {
		t.Fatalf("ChildMatching(Some) = %d, %v", some, ok)
	}
	if _, ok := md.ChildMatching(6, func(p mir.PlaceProj) bool { return p.Variant == 0 && p.Kind == mir.PlaceProjDowncast }); ok {
		t.Fatalf("ChildMatching(None) found a path")
	}
	if got := md.Children(6); len(got) != 1 || got[0] != 9 {
		t.Fatalf("Children(L6) = %v", got)
	}
}

func TestFlagEffects(t *testing.T) {
	f, in := fixture()
	md := movepath.Gather(f, in)

	collect := func(run func(func(movepath.Index, movepath.DropFlagState))) []effect {
		var out []effect
		run(func(p movepath.Index, s movepath.DropFlagState) { out = append(out, effect{p, s}) })
		return out
	}

	tests := []struct {
		name string
		loc  mir.Location
		want []effect
	}{
		{
			name: "move then deep init",
			loc:  mir.Location{Block: 0, Index: 0},
			want: []effect{{7, movepath.Absent}, {2, movepath.Present}},
		},
		{
			name: "drop moves the whole subtree",
			loc:  f.TerminatorLoc(0),
			want: []effect{{1, movepath.Absent}, {8, movepath.Absent}, {7, movepath.Absent}},
		},
		{
			name: "call destination waits for the return edge",
			loc:  f.TerminatorLoc(2),
			want: nil,
		},
		{
			name: "return moves the return place",
			loc:  f.TerminatorLoc(3),
			want: []effect{{0, movepath.Absent}},
		},
	}
	for _, tt := range tests {
		got := collect(func(fn func(movepath.Index, movepath.DropFlagState)) { md.FlagEffectsForLocation(tt.loc, fn) })
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: effects mismatch (-want +got):\n%s", tt.name, diff)
		}
	}

	entry := collect(md.FlagEffectsForEntry)
	want := []effect{{1, movepath.Present}, {8, movepath.Present}, {7, movepath.Present}}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Fatalf("entry effects mismatch (-want +got):\n%s", diff)
	}

	inits := md.InitsAt(f.TerminatorLoc(2))
	if len(inits) != 1 || inits[0].Kind != movepath.InitNonPanicPathOnly || inits[0].Path != 3 {
		t.Fatalf("call init = %+v", inits)
	}
}

func TestNeedsDropVariant(t *testing.T) {
	f, in := fixture()
	md := movepath.Gather(f, in)
	for _, p := range []movepath.Index{6, 9, 10, 7} {
		if !md.NeedsDrop(p) {
			t.Errorf("%s should need drop", md.String(p))
		}
	}
	for _, p := range []movepath.Index{3, 8, 4} {
		if md.NeedsDrop(p) {
			t.Errorf("%s should not need drop", md.String(p))
		}
	}
}
