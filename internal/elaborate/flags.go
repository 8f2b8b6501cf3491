package elaborate

import (
	"dropelab/internal/diag"
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/source"
)

func (c *ctxt) createDropFlag(path movepath.Index, span source.Span) {
	if _, ok := c.flags[path]; ok {
		return
	}
	place := c.md.Path(path).Place
	l := c.patch.NewLocal(mir.Local{
		Type:     c.in.Builtins().Bool,
		Span:     span,
		Internal: true,
		FlagOf:   &place,
	})
	c.flags[path] = l
	c.flagOrder = append(c.flagOrder, path)
}

func (c *ctxt) setDropFlag(loc mir.Location, path movepath.Index, state movepath.DropFlagState) {
	flag, ok := c.flags[path]
	if !ok {
		return
	}
	c.patch.AddAssign(loc, mir.LocalPlace(flag), mir.Use(mir.BoolConst(state.Value())))
}

// collectDropFlags allocates a flag for every drop child that is maybe-init
// and maybe-uninit at some reachable drop or replace.
func (c *ctxt) collectDropFlags() {
	for i := range c.f.Blocks {
		bb := mir.BlockID(i) //nolint:gosec // bounded by block count
		if !c.reachable[i] {
			continue
		}
		term := &c.f.Blocks[i].Term
		place, ok := dropTarget(term)
		if !ok {
			continue
		}
		c.data.seekBefore(c.f.TerminatorLoc(bb))

		res := c.md.Find(place)
		switch res.Kind {
		case movepath.Parent:
			if _, dead := c.data.maybeLiveDead(res.Path); dead {
				parent := c.md.Path(res.Path).Place
				diag.ReportError(c.reporter, diag.ElabUntrackedMaybeDead, term.Span,
					"drop of untracked "+c.placeString(place)+" whose parent may be uninitialized").
					WithNote(c.f.Locals[parent.Local].Span, "parent is "+c.placeString(parent)).
					Emit()
			}
			continue
		case movepath.NoMatch:
			continue
		}
		c.md.OnAllDropChildren(res.Path, func(child movepath.Index) {
			if live, dead := c.data.maybeLiveDead(child); live && dead {
				c.createDropFlag(child, term.Span)
			}
		})
	}
}

// dropFlagsOnInit resets every flag at function entry.
func (c *ctxt) dropFlagsOnInit() {
	loc := c.f.StartLocation()
	for _, path := range c.flagOrder {
		c.setDropFlag(loc, path, movepath.Absent)
	}
}

// dropFlagsForFnRets marks call destinations initialized at the start of
// the return block. Calls without a cleanup edge are handled at the call
// itself by dropFlagsForLocs.
func (c *ctxt) dropFlagsForFnRets() {
	for i := range c.f.Blocks {
		bb := mir.BlockID(i) //nolint:gosec // bounded by block count
		if !c.reachable[i] {
			continue
		}
		term := &c.f.Blocks[i].Term
		if term.Kind != mir.TermCall || term.Call.Target == mir.NoBlockID || term.Call.Cleanup == mir.NoBlockID {
			continue
		}
		if c.patch.IsPatched(bb) {
			c.Bug(term.Span, "call in bb%d was patched", bb)
		}
		if !term.Call.HasDst {
			continue
		}
		loc := mir.Location{Block: term.Call.Target, Index: 0}
		c.md.OnLookupResult(c.md.Find(term.Call.Dst), func(path movepath.Index) {
			c.setDropFlag(loc, path, movepath.Present)
		})
	}
}

func (c *ctxt) dropFlagsForArgs() {
	loc := c.f.StartLocation()
	c.md.FlagEffectsForEntry(func(path movepath.Index, state movepath.DropFlagState) {
		c.setDropFlag(loc, path, state)
	})
}

// dropFlagsForLocs applies the move and init effects of every statement
// and terminator of reachable blocks to the flags. Drops were expanded
// already and the expansion maintains its own flags.
func (c *ctxt) dropFlagsForLocs() {
	for i := range c.f.Blocks {
		bb := mir.BlockID(i) //nolint:gosec // bounded by block count
		if !c.reachable[i] {
			continue
		}
		block := &c.f.Blocks[i]
		for j := 0; j <= len(block.Instrs); j++ {
			loc := mir.Location{Block: bb, Index: j}
			if j == len(block.Instrs) {
				switch block.Term.Kind {
				case mir.TermDrop:
					continue
				case mir.TermDropAndReplace:
					if !c.patch.IsPatched(bb) {
						c.Bug(block.Term.Span, "replace in bb%d was not elaborated", bb)
					}
					// The replace target is reinitialized on both exits by
					// the desugared blocks; only moves out of the value
					// still need recording here.
					c.md.FlagEffectsForLocation(loc, func(path movepath.Index, state movepath.DropFlagState) {
						if state == movepath.Absent {
							c.setDropFlag(loc, path, state)
						}
					})
					continue
				case mir.TermResume:
				default:
					if c.patch.IsPatched(bb) {
						c.Bug(block.Term.Span, "unexpected patch of %s in bb%d", block.Term.Kind, bb)
					}
				}
			}
			c.md.FlagEffectsForLocation(loc, func(path movepath.Index, state movepath.DropFlagState) {
				c.setDropFlag(loc, path, state)
			})
		}

		term := &block.Term
		if term.Kind == mir.TermCall && term.Call.Target != mir.NoBlockID && term.Call.Cleanup == mir.NoBlockID && term.Call.HasDst {
			if c.patch.IsPatched(bb) {
				c.Bug(term.Span, "call in bb%d was patched", bb)
			}
			loc := c.f.TerminatorLoc(bb)
			c.md.OnLookupResult(c.md.Find(term.Call.Dst), func(path movepath.Index) {
				c.setDropFlag(loc, path, movepath.Present)
			})
		}
	}
}
