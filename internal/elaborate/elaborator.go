package elaborate

import (
	"fmt"

	"dropelab/internal/diag"
	"dropelab/internal/dropgen"
	"dropelab/internal/mir"
	"dropelab/internal/movepath"
	"dropelab/internal/source"
	"dropelab/internal/trace"
	"dropelab/internal/types"
)

// ctxt is the state of one run over one body. It implements
// dropgen.Elaborator.
type ctxt struct {
	f     *mir.Func
	in    *types.Interner
	md    *movepath.MoveData
	data  initData
	patch *mir.Patch

	reporter diag.Reporter
	tracer   trace.Tracer
	span     uint64

	flags     map[movepath.Index]mir.LocalID
	flagOrder []movepath.Index
	reachable []bool
	stats     Stats
}

var _ dropgen.Elaborator = (*ctxt)(nil)

func (c *ctxt) Patch() *mir.Patch      { return c.patch }
func (c *ctxt) Func() *mir.Func        { return c.f }
func (c *ctxt) Types() *types.Interner { return c.in }

func (c *ctxt) DropStyle(path movepath.Index, mode dropgen.DropFlagMode) dropgen.DropStyle {
	return dropStyle(c.md, &c.data, path, mode)
}

func (c *ctxt) DropFlag(path movepath.Index) (mir.LocalID, bool) {
	l, ok := c.flags[path]
	return l, ok
}

func (c *ctxt) ClearDropFlag(loc mir.Location, path movepath.Index, mode dropgen.DropFlagMode) {
	if mode == dropgen.Shallow {
		c.setDropFlag(loc, path, movepath.Absent)
		return
	}
	c.md.OnAllChildren(path, func(child movepath.Index) {
		c.setDropFlag(loc, child, movepath.Absent)
	})
}

func (c *ctxt) child(path movepath.Index, pred func(mir.PlaceProj) bool) movepath.Index {
	if sub, ok := c.md.ChildMatching(path, pred); ok {
		return sub
	}
	return movepath.NoIndex
}

func (c *ctxt) FieldSubpath(path movepath.Index, field int) movepath.Index {
	return c.child(path, func(p mir.PlaceProj) bool {
		return p.Kind == mir.PlaceProjField && p.FieldIdx == field
	})
}

func (c *ctxt) DerefSubpath(path movepath.Index) movepath.Index {
	return c.child(path, func(p mir.PlaceProj) bool { return p.Kind == mir.PlaceProjDeref })
}

func (c *ctxt) DowncastSubpath(path movepath.Index, variant int) movepath.Index {
	return c.child(path, func(p mir.PlaceProj) bool {
		return p.Kind == mir.PlaceProjDowncast && p.Variant == variant
	})
}

// ArraySubpath finds the constant-index child for element index. Children
// indexed from the end or against a different length are never produced
// by the index builder for a fixed-size array.
func (c *ctxt) ArraySubpath(path movepath.Index, index, size uint32) movepath.Index {
	return c.child(path, func(p mir.PlaceProj) bool {
		if p.Kind != mir.PlaceProjConstIndex {
			return false
		}
		if p.MinLength != size || p.FromEnd {
			c.Bug(c.f.Span, "constant index %d (min length %d, from end %t) on array of length %d",
				p.Offset, p.MinLength, p.FromEnd, size)
		}
		return p.Offset == index
	})
}

func (c *ctxt) Bug(span source.Span, format string, args ...any) {
	panic(&InvariantError{Func: c.f.Name, Span: span, Msg: fmt.Sprintf(format, args...)})
}

func (c *ctxt) placeString(place mir.Place) string {
	return mir.FormatPlace(c.f, c.in, place)
}
