package elaborate

import (
	"fmt"

	"dropelab/internal/dropgen"
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
)

// Result is what one run produced. Patch has not been applied.
type Result struct {
	Patch *mir.Patch
	// Flags maps each tracked path that needed a runtime flag to the flag
	// local the patch allocates for it.
	Flags map[movepath.Index]mir.LocalID
	Moves *movepath.MoveData
	// PrunedUnwinds lists the blocks whose unwind edge was removed from
	// the input body.
	PrunedUnwinds []mir.BlockID
	Stats         Stats
}

// Stats counts what the pass saw and did.
type Stats struct {
	Markers       int `json:"markers" msgpack:"markers"`
	Replaces      int `json:"replaces" msgpack:"replaces"`
	Dead          int `json:"dead" msgpack:"dead"`
	Static        int `json:"static" msgpack:"static"`
	Conditional   int `json:"conditional" msgpack:"conditional"`
	Open          int `json:"open" msgpack:"open"`
	Untracked     int `json:"untracked" msgpack:"untracked"`
	Flags         int `json:"flags" msgpack:"flags"`
	UnwindsPruned int `json:"unwinds_pruned" msgpack:"unwinds_pruned"`
	NewBlocks     int `json:"new_blocks" msgpack:"new_blocks"`
	NewStatements int `json:"new_statements" msgpack:"new_statements"`
}

func (s *Stats) countStyle(style dropgen.DropStyle) {
	s.Markers++
	switch style {
	case dropgen.StyleDead:
		s.Dead++
	case dropgen.StyleStatic:
		s.Static++
	case dropgen.StyleConditional:
		s.Conditional++
	case dropgen.StyleOpen:
		s.Open++
	}
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Markers += o.Markers
	s.Replaces += o.Replaces
	s.Dead += o.Dead
	s.Static += o.Static
	s.Conditional += o.Conditional
	s.Open += o.Open
	s.Untracked += o.Untracked
	s.Flags += o.Flags
	s.UnwindsPruned += o.UnwindsPruned
	s.NewBlocks += o.NewBlocks
	s.NewStatements += o.NewStatements
}

func (s Stats) String() string {
	return fmt.Sprintf("%d markers (%d dead, %d static, %d conditional, %d open, %d untracked), %d flags, %d unwinds pruned",
		s.Markers, s.Dead, s.Static, s.Conditional, s.Open, s.Untracked, s.Flags, s.UnwindsPruned)
}
