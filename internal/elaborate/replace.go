package elaborate

import (
	"dropelab/internal/dropgen"
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
)

// elaborateReplace desugars `replace place = value` into a drop of place
// followed by the assignment on both exits:
//
//	bbN: drop place -> normal unwind cleanup
//	normal:  place = value; goto target
//	cleanup: place = value; goto unwind
//
// The drop is then elaborated like any other.
func (c *ctxt) elaborateReplace(bb mir.BlockID, loc mir.Location) {
	term := &c.f.Blocks[bb].Term
	r := term.Replace

	unwind := r.Unwind
	if unwind == mir.NoBlockID {
		unwind = c.patch.ResumeBlock()
	}
	assign := mir.Assign(r.Place, mir.Use(r.Value))
	assign.Span = term.Span

	unwindBB := c.patch.NewBlock(mir.Block{
		Instrs:  []mir.Instr{assign},
		Term:    mir.Terminator{Kind: mir.TermGoto, Span: term.Span, Goto: mir.GotoTerm{Target: unwind}},
		Cleanup: true,
	})
	targetBB := c.patch.NewBlock(mir.Block{
		Instrs: []mir.Instr{assign},
		Term:   mir.Terminator{Kind: mir.TermGoto, Span: term.Span, Goto: mir.GotoTerm{Target: r.Target}},
	})
	c.stats.Replaces++

	res := c.md.Find(r.Place)
	if res.Kind != movepath.Exact {
		// Behind a borrow or index: the place is initialized by
		// construction, so the drop stays unconditional.
		c.stats.Markers++
		c.stats.Untracked++
		drop := mir.Drop(r.Place, targetBB, unwindBB)
		drop.Span = term.Span
		c.patch.PatchTerminator(bb, drop)
		return
	}

	c.data.seekBefore(loc)
	c.noteMarker(bb, r.Place, res, dropgen.UnwindTo(unwindBB))
	dropgen.ElaborateDrop(c, term.Span, r.Place, res.Path, targetBB, dropgen.UnwindTo(unwindBB), bb)

	c.md.OnAllChildren(res.Path, func(child movepath.Index) {
		c.setDropFlag(mir.Location{Block: targetBB, Index: 0}, child, movepath.Present)
		c.setDropFlag(mir.Location{Block: unwindBB, Index: 0}, child, movepath.Present)
	})
}
