package mir

import (
	"fmt"
	"slices"

	"dropelab/internal/source"
	"dropelab/internal/types"
)

type BlockID int32
type LocalID int32

const (
	NoBlockID BlockID = -1
	NoLocalID LocalID = -1
)

// ReturnLocal is the return place of every function body.
const ReturnLocal LocalID = 0

type Local struct {
	Type types.TypeID
	Name string
	Span source.Span
	// Arg marks a by-value parameter, initialized on entry.
	Arg bool
	// Internal marks temporaries introduced by passes (drop flags, unit
	// destinations of generated calls).
	Internal bool
	// FlagOf is set on drop flags: the flag is true exactly when the place
	// is initialized.
	FlagOf *Place
}

type PlaceProjKind uint8

const (
	PlaceProjDeref PlaceProjKind = iota
	PlaceProjField
	PlaceProjIndex
	PlaceProjConstIndex
	PlaceProjDowncast
)

func (k PlaceProjKind) String() string {
	switch k {
	case PlaceProjDeref:
		return "deref"
	case PlaceProjField:
		return "field"
	case PlaceProjIndex:
		return "index"
	case PlaceProjConstIndex:
		return "const_index"
	case PlaceProjDowncast:
		return "downcast"
	default:
		return fmt.Sprintf("PlaceProjKind(%d)", k)
	}
}

// PlaceProj is one projection step. It is comparable so move-path tables can
// key on it directly.
type PlaceProj struct {
	Kind PlaceProjKind

	FieldIdx   int
	IndexLocal LocalID

	// ConstIndex: element Offset of an array known to hold at least
	// MinLength elements, counted from the back when FromEnd is set.
	Offset    uint32
	MinLength uint32
	FromEnd   bool

	Variant int
}

func DerefProj() PlaceProj          { return PlaceProj{Kind: PlaceProjDeref} }
func FieldProj(idx int) PlaceProj   { return PlaceProj{Kind: PlaceProjField, FieldIdx: idx} }
func IndexProj(l LocalID) PlaceProj { return PlaceProj{Kind: PlaceProjIndex, IndexLocal: l} }
func DowncastProj(v int) PlaceProj  { return PlaceProj{Kind: PlaceProjDowncast, Variant: v} }
func ConstIndexProj(offset, minLength uint32, fromEnd bool) PlaceProj {
	return PlaceProj{Kind: PlaceProjConstIndex, Offset: offset, MinLength: minLength, FromEnd: fromEnd}
}

type Place struct {
	Local LocalID
	Proj  []PlaceProj
}

// LocalPlace returns the place naming a whole local.
func LocalPlace(id LocalID) Place {
	return Place{Local: id}
}

func (p Place) IsValid() bool {
	return p.Local != NoLocalID
}

// Project returns a new place extended by proj. The receiver is not aliased.
func (p Place) Project(proj PlaceProj) Place {
	out := make([]PlaceProj, len(p.Proj), len(p.Proj)+1)
	copy(out, p.Proj)
	return Place{Local: p.Local, Proj: append(out, proj)}
}

func (p Place) Field(idx int) Place  { return p.Project(FieldProj(idx)) }
func (p Place) Deref() Place         { return p.Project(DerefProj()) }
func (p Place) Downcast(v int) Place { return p.Project(DowncastProj(v)) }
func (p Place) Equal(q Place) bool   { return p.Local == q.Local && slices.Equal(p.Proj, q.Proj) }
func (p Place) IsLocal() bool        { return len(p.Proj) == 0 }

// Location addresses a statement inside a block. Index == len(Instrs)
// addresses the terminator.
type Location struct {
	Block BlockID
	Index int
}

func (l Location) String() string {
	return fmt.Sprintf("bb%d[%d]", l.Block, l.Index)
}

// Compare orders locations by block, then statement index.
func (l Location) Compare(o Location) int {
	if l.Block != o.Block {
		if l.Block < o.Block {
			return -1
		}
		return 1
	}
	switch {
	case l.Index < o.Index:
		return -1
	case l.Index > o.Index:
		return 1
	}
	return 0
}
