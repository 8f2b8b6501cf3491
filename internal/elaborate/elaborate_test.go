package elaborate_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dropelab/internal/diag"
	"dropelab/internal/dropgen"
	"dropelab/internal/elaborate"
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/observ"
	"dropelab/internal/source"
	"dropelab/internal/trace"
	"dropelab/internal/types"
)

// render lists every block as "bbN: stmts; term".
func render(f *mir.Func, in *types.Interner) []string {
	out := make([]string, 0, len(f.Blocks))
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		parts := make([]string, 0, len(bb.Instrs)+1)
		for j := range bb.Instrs {
			parts = append(parts, mir.FormatInstr(f, in, &bb.Instrs[j]))
		}
		parts = append(parts, mir.FormatTerm(f, in, &bb.Term))
		prefix := fmt.Sprintf("bb%d", i)
		if bb.Cleanup {
			prefix += " cleanup"
		}
		out = append(out, prefix+": "+strings.Join(parts, "; "))
	}
	return out
}

func ret() mir.Terminator    { return mir.Terminator{Kind: mir.TermReturn} }
func resume() mir.Terminator { return mir.Terminator{Kind: mir.TermResume} }

func call(callee string, dst mir.Place, target, cleanup mir.BlockID) mir.Terminator {
	return mir.Terminator{Kind: mir.TermCall, Call: mir.CallTerm{
		Callee: callee, HasDst: true, Dst: dst, Target: target, Cleanup: cleanup,
	}}
}

func replace(place mir.Place, value mir.Operand, target, unwind mir.BlockID) mir.Terminator {
	return mir.Terminator{Kind: mir.TermDropAndReplace, Replace: mir.DropAndReplaceTerm{
		Place: place, Value: value, Target: target, Unwind: unwind,
	}}
}

var l = mir.LocalPlace

// deadDrop drops an argument after moving it out on every path.
func deadDrop(in *types.Interner) *mir.Func {
	b := in.Builtins()
	return &mir.Func{
		Name:   "dead",
		Locals: []mir.Local{{Type: b.Unit}, {Type: b.String, Arg: true}, {Type: b.String}},
		Blocks: []mir.Block{
			{Instrs: []mir.Instr{mir.Assign(l(2), mir.Use(mir.Move(l(1))))}, Term: mir.Drop(l(1), 1, 2)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
}

// conditionalDrop moves its argument out on one branch only.
func conditionalDrop(in *types.Interner) *mir.Func {
	b := in.Builtins()
	return &mir.Func{
		Name:   "conditional",
		Locals: []mir.Local{{Type: b.Unit}, {Type: b.String, Arg: true}, {Type: b.String}, {Type: b.Bool, Arg: true}},
		Blocks: []mir.Block{
			{Term: mir.If(mir.Copy(l(3)), 1, 2)},
			{Instrs: []mir.Instr{mir.Assign(l(2), mir.Use(mir.Move(l(1))))}, Term: mir.Goto(2)},
			{Term: mir.Drop(l(1), 3, 4)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
}

// openStruct moves one field of a struct argument out on one branch.
func openStruct(in *types.Interner) *mir.Func {
	b := in.Builtins()
	pair := in.RegisterStruct("Pair", source.Span{})
	in.SetStructFields(pair, []types.StructField{{Name: "a", Type: b.String}, {Name: "b", Type: b.String}})
	return &mir.Func{
		Name:   "open",
		Locals: []mir.Local{{Type: b.Unit}, {Type: pair, Arg: true}, {Type: b.String}, {Type: b.Bool, Arg: true}},
		Blocks: []mir.Block{
			{Term: mir.If(mir.Copy(l(3)), 1, 2)},
			{Instrs: []mir.Instr{mir.Assign(l(2), mir.Use(mir.Move(l(1).Field(0))))}, Term: mir.Goto(2)},
			{Term: mir.Drop(l(1), 3, 4)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
}

// replaceMaybeMoved replaces an argument that may have been moved out.
func replaceMaybeMoved(in *types.Interner) *mir.Func {
	b := in.Builtins()
	return &mir.Func{
		Name: "replace",
		Locals: []mir.Local{
			{Type: b.Unit}, {Type: b.String, Arg: true}, {Type: b.String, Arg: true},
			{Type: b.Bool, Arg: true}, {Type: b.String},
		},
		Blocks: []mir.Block{
			{Term: mir.If(mir.Copy(l(3)), 1, 2)},
			{Instrs: []mir.Instr{mir.Assign(l(4), mir.Use(mir.Move(l(1))))}, Term: mir.Goto(2)},
			{Term: replace(l(1), mir.Move(l(2)), 3, 4)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
}

// callNoCleanup initializes a local through a call without a cleanup edge
// on one branch.
func callNoCleanup(in *types.Interner) *mir.Func {
	b := in.Builtins()
	return &mir.Func{
		Name:   "call",
		Locals: []mir.Local{{Type: b.Unit}, {Type: b.String}, {Type: b.Bool, Arg: true}},
		Blocks: []mir.Block{
			{Term: mir.If(mir.Copy(l(2)), 1, 2)},
			{Term: call("make", l(1), 2, mir.NoBlockID)},
			{Term: mir.Drop(l(1), 3, 4)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
}

// openEnum moves one field of a two-field variant out on one branch. The
// other variant is untracked but holds a string.
func openEnum(in *types.Interner) *mir.Func {
	b := in.Builtins()
	e := in.RegisterEnum("E", source.Span{})
	in.SetEnumVariants(e, []types.EnumVariantInfo{
		{Name: "A", Fields: []types.TypeID{b.String, b.String}},
		{Name: "B", Fields: []types.TypeID{b.String}},
	})
	return &mir.Func{
		Name:   "open_enum",
		Locals: []mir.Local{{Type: b.Unit}, {Type: e, Arg: true}, {Type: b.String}, {Type: b.Bool, Arg: true}},
		Blocks: []mir.Block{
			{Term: mir.If(mir.Copy(l(3)), 1, 2)},
			{Instrs: []mir.Instr{mir.Assign(l(2), mir.Use(mir.Move(l(1).Downcast(0).Field(0))))}, Term: mir.Goto(2)},
			{Term: mir.Drop(l(1), 3, 4)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
}

// openArray moves element minLength-relative index 0 out of a two-element
// array argument on one branch.
func openArray(in *types.Interner, minLength uint32) *mir.Func {
	b := in.Builtins()
	arr := in.Intern(types.MakeArray(b.String, 2))
	elem := l(1).Project(mir.ConstIndexProj(0, minLength, false))
	return &mir.Func{
		Name:   "open_array",
		Locals: []mir.Local{{Type: b.Unit}, {Type: arr, Arg: true}, {Type: b.String}, {Type: b.Bool, Arg: true}},
		Blocks: []mir.Block{
			{Term: mir.If(mir.Copy(l(3)), 1, 2)},
			{Instrs: []mir.Instr{mir.Assign(l(2), mir.Use(mir.Move(elem)))}, Term: mir.Goto(2)},
			{Term: mir.Drop(l(1), 3, 4)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
}

func run(t *testing.T, f *mir.Func, in *types.Interner, opts *elaborate.Options) *elaborate.Result {
	t.Helper()
	res, err := elaborate.Run(context.Background(), f, in, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func apply(t *testing.T, f *mir.Func, in *types.Interner, res *elaborate.Result) {
	t.Helper()
	res.Patch.Apply(f)
	if err := mir.ValidateFunc(f, in); err != nil {
		t.Fatalf("invalid body after elaboration: %v\n%s", err, strings.Join(render(f, in), "\n"))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		live, dead, multi bool
		want              dropgen.DropStyle
	}{
		{false, false, false, dropgen.StyleDead},
		{false, false, true, dropgen.StyleDead},
		{false, true, false, dropgen.StyleDead},
		{false, true, true, dropgen.StyleDead},
		{true, false, false, dropgen.StyleStatic},
		{true, false, true, dropgen.StyleStatic},
		{true, true, false, dropgen.StyleConditional},
		{true, true, true, dropgen.StyleOpen},
	}
	for _, tt := range tests {
		if got := elaborate.Classify(tt.live, tt.dead, tt.multi); got != tt.want {
			t.Errorf("Classify(%v, %v, %v) = %s, want %s", tt.live, tt.dead, tt.multi, got, tt.want)
		}
	}
}

func TestRunDead(t *testing.T) {
	in := types.NewInterner()
	f := deadDrop(in)
	res := run(t, f, in, nil)

	if diff := cmp.Diff([]mir.BlockID{0}, res.PrunedUnwinds); diff != "" {
		t.Fatalf("pruned unwinds mismatch (-want +got):\n%s", diff)
	}
	if len(res.Flags) != 0 {
		t.Fatalf("flags = %v, want none", res.Flags)
	}
	apply(t, f, in, res)
	want := []string{
		"bb0: L2 = move L1; goto bb1",
		"bb1: return",
		"bb2 cleanup: resume",
	}
	if diff := cmp.Diff(want, render(f, in)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	wantStats := elaborate.Stats{Markers: 1, Dead: 1, UnwindsPruned: 1}
	if diff := cmp.Diff(wantStats, res.Stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestRunConditional(t *testing.T) {
	in := types.NewInterner()
	f := conditionalDrop(in)
	res := run(t, f, in, nil)

	if diff := cmp.Diff(map[movepath.Index]mir.LocalID{1: 4}, res.Flags); diff != "" {
		t.Fatalf("flags mismatch (-want +got):\n%s", diff)
	}
	apply(t, f, in, res)
	want := []string{
		"bb0: L4 = const false; L4 = const true; if copy L3 then bb1 else bb2",
		"bb1: L4 = const false; L2 = move L1; goto bb2",
		"bb2: goto bb7",
		"bb3: return",
		"bb4 cleanup: resume",
		"bb5: drop L1 -> bb3 unwind bb4",
		"bb6: L4 = const false; goto bb5",
		"bb7: if copy L4 then bb6 else bb3",
	}
	if diff := cmp.Diff(want, render(f, in)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	flag := f.Locals[4]
	if !flag.Internal || flag.Type != in.Builtins().Bool || flag.FlagOf == nil || !flag.FlagOf.Equal(l(1)) {
		t.Fatalf("flag local = %+v", flag)
	}
	if res.Stats.Conditional != 1 || res.Stats.Flags != 1 || res.Stats.NewBlocks != 3 {
		t.Fatalf("stats = %+v", res.Stats)
	}
}

func TestRunOpenStruct(t *testing.T) {
	in := types.NewInterner()
	f := openStruct(in)
	res := run(t, f, in, nil)

	// Only L1.a is ambiguous; the struct itself is always initialized.
	path := res.Moves.Find(l(1).Field(0))
	if path.Kind != movepath.Exact {
		t.Fatalf("Find(L1.a) = %s", path)
	}
	if diff := cmp.Diff(map[movepath.Index]mir.LocalID{path.Path: 4}, res.Flags); diff != "" {
		t.Fatalf("flags mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Open != 1 || res.Stats.Markers != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	apply(t, f, in, res)

	// Every drop of L1.a sits behind the flag; L1.b is dropped outright.
	var guarded, unguarded int
	for _, line := range render(f, in) {
		switch {
		case strings.Contains(line, "drop L1.a"):
			guarded++
		case strings.Contains(line, "drop L1.b"):
			unguarded++
		case strings.Contains(line, "drop L1 "):
			t.Errorf("whole struct still dropped: %s", line)
		}
	}
	if guarded == 0 || unguarded == 0 {
		t.Fatalf("field drops missing: a=%d b=%d", guarded, unguarded)
	}
}

func TestRunReplace(t *testing.T) {
	in := types.NewInterner()
	f := replaceMaybeMoved(in)
	res := run(t, f, in, nil)
	apply(t, f, in, res)

	want := []string{
		"bb0: L5 = const false; L5 = const true; if copy L3 then bb1 else bb2",
		"bb1: L5 = const false; L4 = move L1; goto bb2",
		"bb2: goto bb9",
		"bb3: return",
		"bb4 cleanup: resume",
		"bb5 cleanup: L5 = const true; L1 = move L2; goto bb4",
		"bb6: L5 = const true; L1 = move L2; goto bb3",
		"bb7: drop L1 -> bb6 unwind bb5",
		"bb8: L5 = const false; goto bb7",
		"bb9: if copy L5 then bb8 else bb6",
	}
	if diff := cmp.Diff(want, render(f, in)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Replaces != 1 || res.Stats.Conditional != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
}

func TestRunReplaceInCleanupIsFatal(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	f := &mir.Func{
		Name:   "bad_replace",
		Locals: []mir.Local{{Type: b.Unit}, {Type: b.String, Arg: true}, {Type: b.String, Arg: true}},
		Blocks: []mir.Block{
			{Term: mir.Drop(l(1), 1, 2)},
			{Term: ret()},
			{Term: replace(l(2), mir.StringConst("x"), 3, mir.NoBlockID), Cleanup: true},
			{Term: resume(), Cleanup: true},
		},
	}
	res, err := elaborate.Run(context.Background(), f, in, nil)
	if res != nil {
		t.Fatalf("Run returned a result for a malformed body")
	}
	var inv *elaborate.InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("Run error = %v, want *InvariantError", err)
	}
	if inv.Func != "bad_replace" || !strings.Contains(inv.Msg, "cleanup block bb2") {
		t.Fatalf("InvariantError = %+v", inv)
	}
	if !strings.HasPrefix(err.Error(), "drop elaboration of bad_replace: ") {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestRunFlagsCallWithoutCleanupAtCall(t *testing.T) {
	in := types.NewInterner()
	f := callNoCleanup(in)
	res := run(t, f, in, nil)
	apply(t, f, in, res)

	want := []string{
		"bb0: L3 = const false; if copy L2 then bb1 else bb2",
		"bb1: L3 = const true; L1 = call make() -> bb2",
		"bb2: goto bb7",
		"bb3: return",
		"bb4 cleanup: resume",
		"bb5: drop L1 -> bb3 unwind bb4",
		"bb6: L3 = const false; goto bb5",
		"bb7: if copy L3 then bb6 else bb3",
	}
	if diff := cmp.Diff(want, render(f, in)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestRunFlagsCallReturn(t *testing.T) {
	in := types.NewInterner()
	f := callNoCleanup(in)
	f.Blocks[1].Term.Call.Cleanup = 4
	res := run(t, f, in, nil)
	apply(t, f, in, res)

	// With a cleanup edge the flag is set in the return block instead.
	got := render(f, in)
	if got[1] != "bb1: L1 = call make() -> bb2 unwind bb4" {
		t.Fatalf("call block = %q", got[1])
	}
	if got[2] != "bb2: L3 = const true; goto bb7" {
		t.Fatalf("return block = %q", got[2])
	}
}

func TestRunReplaceUntracked(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	ref := in.Intern(types.MakeReference(b.String, true))
	f := &mir.Func{
		Name:   "replace_deref",
		Locals: []mir.Local{{Type: b.Unit}, {Type: ref, Arg: true}, {Type: b.String, Arg: true}},
		Blocks: []mir.Block{
			{Term: replace(l(1).Deref(), mir.Move(l(2)), 1, 2)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
	bag := diag.NewBag(10)
	res := run(t, f, in, &elaborate.Options{Reporter: diag.BagReporter{Bag: bag}})
	apply(t, f, in, res)

	// No flags: the drop stays unconditional and both exits assign.
	want := []string{
		"bb0: drop (*L1) -> bb4 unwind bb3",
		"bb1: return",
		"bb2 cleanup: resume",
		"bb3 cleanup: (*L1) = move L2; goto bb2",
		"bb4: (*L1) = move L2; goto bb1",
	}
	if diff := cmp.Diff(want, render(f, in)); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
	wantStats := elaborate.Stats{Markers: 1, Replaces: 1, Untracked: 1, NewBlocks: 2}
	if diff := cmp.Diff(wantStats, res.Stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestRunOpenArray(t *testing.T) {
	in := types.NewInterner()
	f := openArray(in, 2)
	res := run(t, f, in, nil)

	path := res.Moves.Find(l(1).Project(mir.ConstIndexProj(0, 2, false)))
	if path.Kind != movepath.Exact {
		t.Fatalf("Find(L1[0 of 2]) = %s", path)
	}
	if diff := cmp.Diff(map[movepath.Index]mir.LocalID{path.Path: 4}, res.Flags); diff != "" {
		t.Fatalf("flags mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Open != 1 || res.Stats.Markers != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	apply(t, f, in, res)

	var first, second int
	for _, line := range render(f, in) {
		switch {
		case strings.Contains(line, "drop L1[0 of 2]"):
			first++
		case strings.Contains(line, "drop L1[1 of 2]"):
			second++
		case strings.Contains(line, "drop L1 "):
			t.Errorf("whole array still dropped: %s", line)
		}
	}
	if first == 0 || second == 0 {
		t.Fatalf("element drops missing: [0]=%d [1]=%d", first, second)
	}
}

func TestRunArrayLengthMismatchIsFatal(t *testing.T) {
	in := types.NewInterner()
	f := openArray(in, 3)
	res, err := elaborate.Run(context.Background(), f, in, nil)
	if res != nil {
		t.Fatalf("Run returned a result for a malformed body")
	}
	var inv *elaborate.InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("Run error = %v, want *InvariantError", err)
	}
	if !strings.Contains(inv.Msg, "min length 3") || !strings.Contains(inv.Msg, "array of length 2") {
		t.Fatalf("InvariantError = %+v", inv)
	}
}

func TestRunOpenEnum(t *testing.T) {
	in := types.NewInterner()
	f := openEnum(in)
	res := run(t, f, in, nil)

	path := res.Moves.Find(l(1).Downcast(0).Field(0))
	if path.Kind != movepath.Exact {
		t.Fatalf("Find((L1 as A).0) = %s", path)
	}
	if len(res.Flags) != 1 || res.Flags[path.Path] == 0 {
		t.Fatalf("flags = %v, want one for (L1 as A).0", res.Flags)
	}
	if res.Stats.Open != 1 || res.Stats.Markers != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	apply(t, f, in, res)

	// One dispatch on the normal path and one on the unwind path, each
	// with a case for A and a default arm for the untracked B.
	var switches, cleanupSwitches int
	for _, line := range render(f, in) {
		if !strings.Contains(line, "switch_tag L1 { A -> bb") {
			continue
		}
		if !strings.Contains(line, "default -> bb") {
			t.Errorf("switch without default arm: %s", line)
		}
		switches++
		if strings.Contains(line, " cleanup: ") {
			cleanupSwitches++
		}
	}
	if switches != 2 || cleanupSwitches != 1 {
		t.Fatalf("switches = %d, cleanup switches = %d", switches, cleanupSwitches)
	}
}

func TestRunFlagsIgnoreUnreachableCalls(t *testing.T) {
	in := types.NewInterner()
	f := callNoCleanup(in)
	// Never reached, but returns into the block holding the drop.
	f.Blocks = append(f.Blocks, mir.Block{Term: call("make", l(1), 2, 4)})
	res := run(t, f, in, nil)
	apply(t, f, in, res)

	got := render(f, in)
	if got[1] != "bb1: L3 = const true; L1 = call make() -> bb2" {
		t.Fatalf("call block = %q", got[1])
	}
	if strings.Contains(got[2], "const true") {
		t.Fatalf("unreachable call set the flag: %q", got[2])
	}
	if got[5] != "bb5: L1 = call make() -> bb2 unwind bb4" {
		t.Fatalf("unreachable block = %q", got[5])
	}
}

func TestRunUntrackedDiagnostics(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	ref := in.Intern(types.MakeReference(b.String, false))
	f := &mir.Func{
		Name: "untracked",
		Locals: []mir.Local{
			{Type: b.Unit}, {Type: ref}, {Type: b.String, Arg: true}, {Type: b.Bool, Arg: true},
		},
		Blocks: []mir.Block{
			{Term: mir.If(mir.Copy(l(3)), 1, 2)},
			{
				Instrs: []mir.Instr{mir.Assign(l(1), mir.RValue{Kind: mir.RValueRef, Ref: mir.RefOp{Place: l(2)}})},
				Term:   mir.Goto(2),
			},
			{Term: mir.Drop(l(1).Deref(), 3, 4)},
			{Term: ret()},
			{Term: resume(), Cleanup: true},
		},
	}
	bag := diag.NewBag(10)
	res := run(t, f, in, &elaborate.Options{Reporter: diag.BagReporter{Bag: bag}})

	var codes []diag.Code
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	if diff := cmp.Diff([]diag.Code{diag.ElabUntrackedMaybeDead, diag.ElabUntrackedDrop}, codes); diff != "" {
		t.Fatalf("diagnostic codes mismatch (-want +got):\n%s", diff)
	}
	if res.Patch.IsPatched(2) {
		t.Fatalf("untracked drop was rewritten")
	}
	if res.Stats.Untracked != 1 || len(res.Flags) != 0 {
		t.Fatalf("stats = %+v flags = %v", res.Stats, res.Flags)
	}
}

func TestRunFlagsResetOnEntry(t *testing.T) {
	fixtures := []func(*types.Interner) *mir.Func{conditionalDrop, openStruct, openEnum, replaceMaybeMoved, callNoCleanup}
	for _, fixture := range fixtures {
		in := types.NewInterner()
		f := fixture(in)
		t.Run(f.Name, func(t *testing.T) {
			res := run(t, f, in, nil)
			apply(t, f, in, res)
			entry := render(f, in)[f.Entry]
			for _, flag := range res.Flags {
				if !strings.Contains(entry, fmt.Sprintf("L%d = const false", flag)) {
					t.Errorf("flag L%d not reset on entry: %s", flag, entry)
				}
			}
		})
	}
}

func TestRunIdempotent(t *testing.T) {
	fixtures := []func(*types.Interner) *mir.Func{deadDrop, conditionalDrop, openStruct, openEnum, replaceMaybeMoved, callNoCleanup}
	for _, fixture := range fixtures {
		in := types.NewInterner()
		f := fixture(in)
		t.Run(f.Name, func(t *testing.T) {
			res := run(t, f, in, nil)
			apply(t, f, in, res)

			for _, m := range elaborate.ClassifyMarkers(context.Background(), f, in) {
				if !m.Tracked() {
					continue
				}
				if m.Style != dropgen.StyleStatic && m.Style != dropgen.StyleDead {
					t.Errorf("bb%d %s is %s after elaboration", m.Block, mir.FormatPlace(f, in, m.Place), m.Style)
				}
			}
		})
	}
}

func TestClassifyMarkers(t *testing.T) {
	in := types.NewInterner()
	f := conditionalDrop(in)
	before := render(f, in)

	got := elaborate.ClassifyMarkers(context.Background(), f, in)
	if len(got) != 1 {
		t.Fatalf("ClassifyMarkers = %+v", got)
	}
	m := got[0]
	if m.Block != 2 || m.Kind != mir.TermDrop || !m.Place.Equal(l(1)) || m.Style != dropgen.StyleConditional || m.Cleanup {
		t.Fatalf("marker = %+v", m)
	}
	if diff := cmp.Diff(before, render(f, in)); diff != "" {
		t.Fatalf("ClassifyMarkers modified its input (-want +got):\n%s", diff)
	}
}

func TestRunTraceAndTimer(t *testing.T) {
	in := types.NewInterner()
	f := conditionalDrop(in)
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	timer := observ.NewTimer()

	if _, err := elaborate.Run(ctx, f, in, &elaborate.Options{Timer: timer}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindSpanBegin || ev.Kind == trace.KindPoint {
			names = append(names, ev.Name)
		}
	}
	for _, want := range []string{"elaborate_drops", "dead-unwinds", "dataflow", "collect", "elaborate", "sweeps", "marker"} {
		if !slices.Contains(names, want) {
			t.Errorf("trace has no %q event: %v", want, names)
		}
	}
	var phases []string
	for _, p := range timer.Report().Phases {
		phases = append(phases, p.Name)
	}
	if diff := cmp.Diff([]string{"dead-unwinds", "dataflow", "collect", "elaborate", "sweeps"}, phases); diff != "" {
		t.Fatalf("timer phases mismatch (-want +got):\n%s", diff)
	}
}

func TestInvariantErrorMessage(t *testing.T) {
	err := &elaborate.InvariantError{Msg: "boom"}
	if err.Error() != "drop elaboration: boom" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
