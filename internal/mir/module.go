package mir

import "dropelab/internal/types"

// Module is one parsed input: the shared type table and its function bodies
// in declaration order.
type Module struct {
	Types *types.Interner
	Funcs []*Func
}

// Func returns the body with the given name.
func (m *Module) Func(name string) (*Func, bool) {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
