package types

import (
	"fmt"
	"strings"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnit:
		return "()"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindPointer:
		return "*" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindReference:
		if tt.Mutable {
			return "&mut " + labelDepth(typesIn, tt.Elem, depth+1)
		}
		return "&" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindOwn:
		return "own " + labelDepth(typesIn, tt.Elem, depth+1)
	case KindArray:
		return fmt.Sprintf("[%s; %d]", labelDepth(typesIn, tt.Elem, depth+1), tt.Count)
	case KindStruct:
		if info, ok := typesIn.StructInfo(id); ok && info.Name != "" {
			return info.Name
		}
		return "?"
	case KindEnum:
		if info, ok := typesIn.EnumInfo(id); ok && info.Name != "" {
			return info.Name
		}
		return "?"
	case KindTuple:
		info, ok := typesIn.TupleInfo(id)
		if !ok {
			return "(?)"
		}
		parts := make([]string, len(info.Elems))
		for i, elem := range info.Elems {
			parts[i] = labelDepth(typesIn, elem, depth+1)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "?"
	}
}
