package mir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"dropelab/internal/mir"
)

func TestPatchApply(t *testing.T) {
	tt := newTestTypes()
	b := tt.in.Builtins()
	f := &mir.Func{
		Name:   "f",
		Locals: []mir.Local{{Type: b.Unit}, {Type: b.Int}},
		Blocks: []mir.Block{
			{
				Instrs: []mir.Instr{
					mir.Assign(mir.LocalPlace(1), mir.Use(mir.IntConst(1))),
					mir.Assign(mir.LocalPlace(1), mir.Use(mir.IntConst(2))),
				},
				Term: mir.Goto(1),
			},
			{Term: ret()},
		},
	}

	p := mir.NewPatch(f)
	flag := p.NewTemp(b.Bool, f.Span)
	if flag != 2 {
		t.Fatalf("new temp = L%d, want L2", flag)
	}
	nb := p.NewBlock(mir.Block{Term: mir.Goto(1)})
	if nb != 2 {
		t.Fatalf("new block = bb%d, want bb2", nb)
	}
	p.PatchTerminator(0, mir.Goto(nb))
	if !p.IsPatched(0) || p.IsPatched(1) {
		t.Fatalf("IsPatched mismatch")
	}
	p.AddAssign(mir.Location{Block: 0, Index: 1}, mir.LocalPlace(flag), mir.Use(mir.BoolConst(true)))
	p.AddAssign(mir.Location{Block: 0, Index: 0}, mir.LocalPlace(flag), mir.Use(mir.BoolConst(false)))
	p.AddAssign(mir.Location{Block: 0, Index: 1}, mir.LocalPlace(flag), mir.Use(mir.BoolConst(false)))
	p.AddAssign(mir.Location{Block: nb, Index: 0}, mir.LocalPlace(flag), mir.Use(mir.BoolConst(true)))

	// Nothing is visible before Apply.
	if len(f.Blocks) != 2 || len(f.Blocks[0].Instrs) != 2 {
		t.Fatalf("patch leaked into the body before Apply")
	}

	p.Apply(f)

	var got []string
	for _, ins := range f.Blocks[0].Instrs {
		got = append(got, mir.FormatInstr(f, tt.in, &ins))
	}
	want := []string{
		"L2 = const false",
		"L1 = const 1",
		"L2 = const true",
		"L2 = const false",
		"L1 = const 2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bb0 statements mismatch (-want +got):\n%s", diff)
	}
	if f.Blocks[0].Term.Goto.Target != 2 || len(f.Blocks[2].Instrs) != 1 {
		t.Fatalf("new block not wired: %+v", f.Blocks[2])
	}
	if !f.Locals[2].Internal {
		t.Fatalf("flag temp should be internal")
	}
	if p.NumNewStatements() != 4 || p.NumPatchedTerminators() != 1 || p.NumNewBlocks() != 1 || p.NumNewLocals() != 1 {
		t.Fatalf("unexpected stats")
	}
}

func TestPatchResumeBlock(t *testing.T) {
	withResume := &mir.Func{Blocks: []mir.Block{{Term: ret()}, {Term: resume(), Cleanup: true}}}
	if got := mir.NewPatch(withResume).ResumeBlock(); got != 1 {
		t.Fatalf("existing resume block not reused: bb%d", got)
	}

	without := &mir.Func{Blocks: []mir.Block{{Term: ret()}}}
	p := mir.NewPatch(without)
	first := p.ResumeBlock()
	if first != 1 || p.ResumeBlock() != first || p.NumNewBlocks() != 1 {
		t.Fatalf("resume block should be created once")
	}
	if blk := p.NewBlocks()[0]; !blk.Cleanup || blk.Term.Kind != mir.TermResume {
		t.Fatalf("resume block malformed: %+v", blk)
	}
}

func TestPatchTerminatorTwicePanics(t *testing.T) {
	f := &mir.Func{Blocks: []mir.Block{{Term: ret()}}}
	p := mir.NewPatch(f)
	p.PatchTerminator(0, mir.Terminator{Kind: mir.TermUnreachable})
	defer func() {
		perr, ok := recover().(*mir.PatchError)
		if !ok || perr.Block != 0 {
			t.Fatalf("expected *PatchError for bb0, got %v", perr)
		}
	}()
	p.PatchTerminator(0, mir.Terminator{Kind: mir.TermUnreachable})
}
