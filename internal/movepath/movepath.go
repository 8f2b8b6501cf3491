package movepath

import (
	"fmt"

	"dropelab/internal/mir"
	"dropelab/internal/types"
)

// Index identifies a move path.
type Index int32

const NoIndex Index = -1

// MovePath is one node of the tree. Children are linked through
// FirstChild/NextSibling in creation order, newest first.
type MovePath struct {
	Place       mir.Place
	Ty          mir.PlaceTy
	Parent      Index
	FirstChild  Index
	NextSibling Index
}

// InitKind says how much of a path an initialization covers.
type InitKind uint8

const (
	// InitDeep initializes the path and everything below it.
	InitDeep InitKind = iota
	// InitShallow initializes only the path itself.
	InitShallow
	// InitNonPanicPathOnly is a call destination, initialized only on the
	// normal return edge.
	InitNonPanicPathOnly
)

func (k InitKind) String() string {
	switch k {
	case InitDeep:
		return "deep"
	case InitShallow:
		return "shallow"
	case InitNonPanicPathOnly:
		return "non-panic"
	default:
		return fmt.Sprintf("InitKind(%d)", k)
	}
}

// DropFlagState is the value a drop flag takes after an effect.
type DropFlagState uint8

const (
	Present DropFlagState = iota
	Absent
)

// Value is the boolean stored into the flag.
func (s DropFlagState) Value() bool {
	return s == Present
}

func (s DropFlagState) String() string {
	if s == Present {
		return "present"
	}
	return "absent"
}

// MoveOut records a move out of a path.
type MoveOut struct {
	Path Index
	Loc  mir.Location
}

// Init records an initialization. Arg inits happen on function entry and
// carry no location.
type Init struct {
	Path Index
	Loc  mir.Location
	Kind InitKind
	Arg  bool
}

// IllegalMove is a move the index cannot track, such as a move out of a
// borrow. The move is dropped from the index.
type IllegalMove struct {
	Place  mir.Place
	Loc    mir.Location
	Reason string
}

// LookupKind classifies a Find result.
type LookupKind uint8

const (
	// Exact: the place has its own path.
	Exact LookupKind = iota
	// Parent: only an ancestor of the place is tracked.
	Parent
	// NoMatch: nothing about the place is tracked.
	NoMatch
)

// LookupResult is the answer of Find.
type LookupResult struct {
	Kind LookupKind
	Path Index
}

func (r LookupResult) String() string {
	switch r.Kind {
	case Exact:
		return fmt.Sprintf("exact(mp%d)", r.Path)
	case Parent:
		return fmt.Sprintf("parent(mp%d)", r.Path)
	default:
		return "no-match"
	}
}

type projKey struct {
	base Index
	elem mir.PlaceProj
}

// MoveData is the finished index for one body.
type MoveData struct {
	Paths   []MovePath
	Moves   []MoveOut
	Inits   []Init
	Illegal []IllegalMove

	f           *mir.Func
	types       *types.Interner
	locals      []Index
	projections map[projKey]Index
	locMoves    map[mir.Location][]int
	locInits    map[mir.Location][]int
}

// Func returns the body the index was built for.
func (md *MoveData) Func() *mir.Func { return md.f }

// Types returns the type table used to resolve path types.
func (md *MoveData) Types() *types.Interner { return md.types }

// Path returns the path with index i.
func (md *MoveData) Path(i Index) *MovePath {
	return &md.Paths[i]
}

// LocalPath returns the root path of a local.
func (md *MoveData) LocalPath(l mir.LocalID) (Index, bool) {
	if l < 0 || int(l) >= len(md.locals) {
		return NoIndex, false
	}
	return md.locals[l], true
}

// Find resolves place to its path or to the nearest tracked ancestor.
func (md *MoveData) Find(place mir.Place) LookupResult {
	res, ok := md.LocalPath(place.Local)
	if !ok {
		return LookupResult{Kind: NoMatch, Path: NoIndex}
	}
	for _, elem := range place.Proj {
		sub, ok := md.projections[projKey{base: res, elem: elem}]
		if !ok {
			return LookupResult{Kind: Parent, Path: res}
		}
		res = sub
	}
	return LookupResult{Kind: Exact, Path: res}
}

// Children returns the direct children of path.
func (md *MoveData) Children(path Index) []Index {
	var out []Index
	for c := md.Paths[path].FirstChild; c != NoIndex; c = md.Paths[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildMatching returns the direct child whose last projection satisfies pred.
func (md *MoveData) ChildMatching(path Index, pred func(mir.PlaceProj) bool) (Index, bool) {
	for c := md.Paths[path].FirstChild; c != NoIndex; c = md.Paths[c].NextSibling {
		proj := md.Paths[c].Place.Proj
		if len(proj) > 0 && pred(proj[len(proj)-1]) {
			return c, true
		}
	}
	return NoIndex, false
}

// OnAllChildren calls fn for path and every path below it, pre-order.
// Paths whose contents cannot differ in drop state are not descended into.
func (md *MoveData) OnAllChildren(path Index, fn func(Index)) {
	fn(path)
	if md.isTerminal(path) {
		return
	}
	for c := md.Paths[path].FirstChild; c != NoIndex; c = md.Paths[c].NextSibling {
		md.OnAllChildren(c, fn)
	}
}

// OnAllDropChildren is OnAllChildren restricted to paths whose type needs
// drop.
func (md *MoveData) OnAllDropChildren(path Index, fn func(Index)) {
	md.OnAllChildren(path, func(child Index) {
		if md.NeedsDrop(child) {
			fn(child)
		}
	})
}

// OnLookupResult calls fn for the subtree of an exact match and does nothing
// otherwise.
func (md *MoveData) OnLookupResult(res LookupResult, fn func(Index)) {
	if res.Kind == Exact {
		md.OnAllChildren(res.Path, fn)
	}
}

// NeedsDrop reports whether the value at path needs dropping. A downcast
// path only considers the fields of its variant.
func (md *MoveData) NeedsDrop(path Index) bool {
	ty := md.Paths[path].Ty
	if ty.Variant < 0 {
		return md.types.NeedsDrop(ty.Type)
	}
	for i, n := 0, md.types.NumFields(ty.Type, ty.Variant); i < n; i++ {
		if ft, ok := md.types.Field(ty.Type, ty.Variant, i); ok && md.types.NeedsDrop(ft) {
			return true
		}
	}
	return false
}

func (md *MoveData) isTerminal(path Index) bool {
	ty := md.Paths[path].Ty
	tt, ok := md.types.Lookup(ty.Type)
	if !ok {
		return true
	}
	switch tt.Kind {
	case types.KindReference, types.KindPointer:
		return true
	}
	return md.types.HasDestructor(ty.Type)
}

// MovesAt returns the move-outs recorded at loc.
func (md *MoveData) MovesAt(loc mir.Location) []MoveOut {
	idx := md.locMoves[loc]
	out := make([]MoveOut, len(idx))
	for i, mi := range idx {
		out[i] = md.Moves[mi]
	}
	return out
}

// InitsAt returns the initializations recorded at loc.
func (md *MoveData) InitsAt(loc mir.Location) []Init {
	idx := md.locInits[loc]
	out := make([]Init, len(idx))
	for i, ii := range idx {
		out[i] = md.Inits[ii]
	}
	return out
}

// FlagEffectsForLocation reports how the statement or terminator at loc
// changes drop-flag state: moved-out subtrees become Absent, deep inits make
// their subtree Present, shallow inits only the path itself. Call
// destinations are left to the return edge.
func (md *MoveData) FlagEffectsForLocation(loc mir.Location, fn func(Index, DropFlagState)) {
	for _, mi := range md.locMoves[loc] {
		md.OnAllChildren(md.Moves[mi].Path, func(child Index) { fn(child, Absent) })
	}
	for _, ii := range md.locInits[loc] {
		init := md.Inits[ii]
		switch init.Kind {
		case InitDeep:
			md.OnAllChildren(init.Path, func(child Index) { fn(child, Present) })
		case InitShallow:
			fn(init.Path, Present)
		case InitNonPanicPathOnly:
		}
	}
}

// FlagEffectsForEntry marks every by-value argument Present.
func (md *MoveData) FlagEffectsForEntry(fn func(Index, DropFlagState)) {
	for _, arg := range md.f.Args() {
		md.OnLookupResult(md.Find(mir.LocalPlace(arg)), func(child Index) { fn(child, Present) })
	}
}

// String renders a path for traces and test failures.
func (md *MoveData) String(path Index) string {
	if path == NoIndex {
		return "mp?"
	}
	return fmt.Sprintf("mp%d(%s)", path, mir.FormatPlace(md.f, md.types, md.Paths[path].Place))
}
