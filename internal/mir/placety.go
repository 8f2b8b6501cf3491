package mir

import "dropelab/internal/types"

// PlaceTy is the type of a place together with the enum variant selected by
// a trailing downcast (-1 when none).
type PlaceTy struct {
	Type    types.TypeID
	Variant int
}

// PlaceType resolves the type of place by walking its projections.
// It returns false when a projection does not fit the type it is applied to.
func PlaceType(f *Func, in *types.Interner, place Place) (PlaceTy, bool) {
	ty := PlaceTy{Type: f.LocalType(place.Local), Variant: -1}
	if ty.Type == types.NoTypeID {
		return PlaceTy{}, false
	}
	for _, proj := range place.Proj {
		next, ok := ProjectType(in, ty, proj)
		if !ok {
			return PlaceTy{}, false
		}
		ty = next
	}
	return ty, true
}

// ProjectType applies a single projection to ty.
func ProjectType(in *types.Interner, ty PlaceTy, proj PlaceProj) (PlaceTy, bool) {
	tt, ok := in.Lookup(ty.Type)
	if !ok {
		return PlaceTy{}, false
	}
	switch proj.Kind {
	case PlaceProjDeref:
		switch tt.Kind {
		case types.KindReference, types.KindPointer, types.KindOwn:
			return PlaceTy{Type: tt.Elem, Variant: -1}, true
		}
	case PlaceProjField:
		if tt.Kind == types.KindEnum && ty.Variant < 0 {
			return PlaceTy{}, false
		}
		if ft, ok := in.Field(ty.Type, ty.Variant, proj.FieldIdx); ok {
			return PlaceTy{Type: ft, Variant: -1}, true
		}
	case PlaceProjIndex, PlaceProjConstIndex:
		if tt.Kind == types.KindArray {
			return PlaceTy{Type: tt.Elem, Variant: -1}, true
		}
	case PlaceProjDowncast:
		if tt.Kind == types.KindEnum && proj.Variant >= 0 && proj.Variant < in.NumVariants(ty.Type) {
			return PlaceTy{Type: ty.Type, Variant: proj.Variant}, true
		}
	}
	return PlaceTy{}, false
}
