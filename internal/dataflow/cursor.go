package dataflow

import (
	"github.com/willf/bitset"

	"dropelab/internal/mir"
	"dropelab/internal/movepath"
)

// Cursor answers state queries at locations inside one block at a time.
// Seeking forward within a block is incremental; any other seek restarts
// from the block entry state.
type Cursor struct {
	res   *Results
	state *bitset.BitSet
	block mir.BlockID
	// applied is the number of statements whose effect is in state.
	applied int
}

// SeekBefore positions the cursor just before the statement or terminator
// at loc takes effect.
func (c *Cursor) SeekBefore(loc mir.Location) {
	if c.block != loc.Block || c.applied > loc.Index {
		c.state = c.res.entry[loc.Block].Clone()
		c.block = loc.Block
		c.applied = 0
	}
	for ; c.applied < loc.Index; c.applied++ {
		c.res.Analysis.Effect(c.state, mir.Location{Block: loc.Block, Index: c.applied})
	}
}

// SeekToBlockStart positions the cursor at the entry state of bb.
func (c *Cursor) SeekToBlockStart(bb mir.BlockID) {
	c.SeekBefore(mir.Location{Block: bb, Index: 0})
}

// Contains reports whether path's bit is set at the current position.
func (c *Cursor) Contains(path movepath.Index) bool {
	return path >= 0 && c.state.Test(uint(path))
}

// State exposes the current state. Callers must not modify it.
func (c *Cursor) State() *bitset.BitSet {
	return c.state
}
