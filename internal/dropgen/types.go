package dropgen

import (
	"fmt"

	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/source"
	"dropelab/internal/types"
)

// DropStyle is the shape a drop elaborates to.
type DropStyle uint8

const (
	StyleDead DropStyle = iota
	StyleStatic
	StyleConditional
	StyleOpen
)

func (s DropStyle) String() string {
	switch s {
	case StyleDead:
		return "dead"
	case StyleStatic:
		return "static"
	case StyleConditional:
		return "conditional"
	case StyleOpen:
		return "open"
	default:
		return fmt.Sprintf("DropStyle(%d)", s)
	}
}

// DropFlagMode selects whether a query covers a path alone or its whole
// drop subtree.
type DropFlagMode uint8

const (
	Shallow DropFlagMode = iota
	Deep
)

func (m DropFlagMode) String() string {
	if m == Deep {
		return "deep"
	}
	return "shallow"
}

type DropFlagState = movepath.DropFlagState

const (
	Present = movepath.Present
	Absent  = movepath.Absent
)

// Unwind is where a generated block goes when a drop panics. In cleanup
// mode the block is already on an unwind path and has no unwind edge.
type Unwind struct {
	cleanup bool
	target  mir.BlockID
}

// InCleanup marks blocks that run during unwinding.
var InCleanup = Unwind{cleanup: true, target: mir.NoBlockID}

// UnwindTo unwinds into bb.
func UnwindTo(bb mir.BlockID) Unwind {
	return Unwind{target: bb}
}

func (u Unwind) IsCleanup() bool {
	return u.cleanup
}

// Target returns the unwind block when not in cleanup mode.
func (u Unwind) Target() (mir.BlockID, bool) {
	if u.cleanup {
		return mir.NoBlockID, false
	}
	return u.target, true
}

// IntoOption is the terminator-level unwind edge: NoBlockID in cleanup mode.
func (u Unwind) IntoOption() mir.BlockID {
	if u.cleanup {
		return mir.NoBlockID
	}
	return u.target
}

func (u Unwind) String() string {
	if u.cleanup {
		return "in-cleanup"
	}
	return fmt.Sprintf("to(bb%d)", u.target)
}

// Elaborator is what the expansion needs from the pass driving it.
type Elaborator interface {
	Patch() *mir.Patch
	Func() *mir.Func
	Types() *types.Interner

	DropStyle(path movepath.Index, mode DropFlagMode) DropStyle
	// DropFlag returns the flag local of path, if one was allocated.
	DropFlag(path movepath.Index) (mir.LocalID, bool)
	// ClearDropFlag records flag := false for path (Shallow) or for every
	// path in its subtree (Deep) at loc.
	ClearDropFlag(loc mir.Location, path movepath.Index, mode DropFlagMode)

	// The subpath lookups return movepath.NoIndex when the child is not
	// tracked.
	FieldSubpath(path movepath.Index, field int) movepath.Index
	DerefSubpath(path movepath.Index) movepath.Index
	DowncastSubpath(path movepath.Index, variant int) movepath.Index
	ArraySubpath(path movepath.Index, index, size uint32) movepath.Index

	// Bug reports a broken invariant at span. It does not return.
	Bug(span source.Span, format string, args ...any)
}
