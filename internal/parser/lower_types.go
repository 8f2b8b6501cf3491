package parser

import (
	"fmt"

	"dropelab/internal/diag"
	"dropelab/internal/token"
	"dropelab/internal/types"
)

var builtinTypeNames = map[string]func(types.Builtins) types.TypeID{
	"bool":   func(b types.Builtins) types.TypeID { return b.Bool },
	"int":    func(b types.Builtins) types.TypeID { return b.Int },
	"string": func(b types.Builtins) types.TypeID { return b.String },
}

// declareTypes registers every nominal first so declarations can refer to
// each other in any order, then resolves their contents.
func (l *lowerer) declareTypes(decls []*typeDecl) {
	ids := make([]types.TypeID, len(decls))
	declared := make(map[string]*typeDecl, len(decls))
	for i, d := range decls {
		name := d.name.Text
		if prev, dup := declared[name]; dup {
			l.errWithNote(diag.SynDuplicateName, d.name, fmt.Sprintf("type %s is declared twice", name), prev.name, "first declared here")
			continue
		}
		if _, builtin := builtinTypeNames[name]; builtin {
			l.err(diag.SynDuplicateName, d.name, fmt.Sprintf("type %s shadows a builtin type", name))
			continue
		}
		if _, taken := l.types.Named(name); taken {
			l.err(diag.SynDuplicateName, d.name, fmt.Sprintf("type %s is already declared", name))
			continue
		}
		declared[name] = d
		if d.enum {
			ids[i] = l.types.RegisterEnum(name, d.span)
		} else {
			ids[i] = l.types.RegisterStruct(name, d.span)
		}
	}

	for i, d := range decls {
		if ids[i] == types.NoTypeID {
			continue
		}
		if d.enum {
			l.resolveVariants(ids[i], d)
		} else {
			l.resolveFields(ids[i], d)
		}
	}

	for i, d := range decls {
		if ids[i] != types.NoTypeID && l.containsByValue(ids[i], ids[i], make(map[types.TypeID]bool)) {
			l.err(diag.SynRecursiveType, d.name, fmt.Sprintf("type %s contains itself by value; put it behind own, a pointer or a reference", d.name.Text))
		}
	}
}

func (l *lowerer) resolveFields(id types.TypeID, d *typeDecl) {
	fields := make([]types.StructField, 0, len(d.fields))
	seen := make(map[string]token.Token, len(d.fields))
	for _, fd := range d.fields {
		if prev, dup := seen[fd.name.Text]; dup {
			l.errWithNote(diag.SynDuplicateName, fd.name, fmt.Sprintf("field %s is declared twice", fd.name.Text), prev, "first declared here")
			continue
		}
		seen[fd.name.Text] = fd.name
		ty, ok := l.resolveType(fd.ty)
		if !ok {
			continue
		}
		fields = append(fields, types.StructField{Name: fd.name.Text, Type: ty})
	}
	l.types.SetStructFields(id, fields)
	l.types.SetDestructor(id, d.hasDrop)
}

func (l *lowerer) resolveVariants(id types.TypeID, d *typeDecl) {
	variants := make([]types.EnumVariantInfo, 0, len(d.variants))
	seen := make(map[string]token.Token, len(d.variants))
	for _, vd := range d.variants {
		if prev, dup := seen[vd.name.Text]; dup {
			l.errWithNote(diag.SynDuplicateName, vd.name, fmt.Sprintf("variant %s is declared twice", vd.name.Text), prev, "first declared here")
			continue
		}
		seen[vd.name.Text] = vd.name
		v := types.EnumVariantInfo{Name: vd.name.Text}
		for _, fe := range vd.fields {
			if ty, ok := l.resolveType(fe); ok {
				v.Fields = append(v.Fields, ty)
			}
		}
		variants = append(variants, v)
	}
	l.types.SetEnumVariants(id, variants)
}

func (l *lowerer) resolveType(te *typeExpr) (types.TypeID, bool) {
	switch te.kind {
	case typeNamed:
		if builtin, ok := builtinTypeNames[te.name.Text]; ok {
			return builtin(l.types.Builtins()), true
		}
		if id, ok := l.types.Named(te.name.Text); ok {
			return id, true
		}
		l.err(diag.SynUnknownType, te.name, fmt.Sprintf("unknown type %s", te.name.Text))
		return types.NoTypeID, false
	case typeTuple:
		if len(te.elems) == 0 {
			return l.types.Builtins().Unit, true
		}
		elems := make([]types.TypeID, len(te.elems))
		for i, e := range te.elems {
			ty, ok := l.resolveType(e)
			if !ok {
				return types.NoTypeID, false
			}
			elems[i] = ty
		}
		return l.types.RegisterTuple(elems), true
	}

	elem, ok := l.resolveType(te.elems[0])
	if !ok {
		return types.NoTypeID, false
	}
	switch te.kind {
	case typeArray:
		return l.types.Intern(types.MakeArray(elem, te.count)), true
	case typePointer:
		return l.types.Intern(types.MakePointer(elem)), true
	case typeRef:
		return l.types.Intern(types.MakeReference(elem, te.mutable)), true
	case typeOwn:
		return l.types.Intern(types.MakeOwn(elem)), true
	}
	return types.NoTypeID, false
}

// containsByValue reports whether target is reachable from id without
// passing through an indirection.
func (l *lowerer) containsByValue(id, target types.TypeID, seen map[types.TypeID]bool) bool {
	for _, child := range l.byValueParts(id) {
		if child == target {
			return true
		}
		if seen[child] {
			continue
		}
		seen[child] = true
		if l.containsByValue(child, target, seen) {
			return true
		}
	}
	return false
}

func (l *lowerer) byValueParts(id types.TypeID) []types.TypeID {
	tt, ok := l.types.Lookup(id)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case types.KindArray:
		return []types.TypeID{tt.Elem}
	case types.KindStruct:
		info, _ := l.types.StructInfo(id)
		out := make([]types.TypeID, len(info.Fields))
		for i, f := range info.Fields {
			out[i] = f.Type
		}
		return out
	case types.KindTuple:
		info, _ := l.types.TupleInfo(id)
		return info.Elems
	case types.KindEnum:
		info, _ := l.types.EnumInfo(id)
		var out []types.TypeID
		for _, v := range info.Variants {
			out = append(out, v.Fields...)
		}
		return out
	}
	return nil
}
