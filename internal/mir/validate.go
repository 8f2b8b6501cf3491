package mir

import (
	"errors"
	"fmt"

	"dropelab/internal/types"
)

// Validate checks MIR module invariants.
// Returns error if any invariant is violated.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if err := ValidateFunc(f, m.Types); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks a single body.
func ValidateFunc(f *Func, typesIn *types.Interner) error {
	if f == nil {
		return nil
	}
	if f.Block(f.Entry) == nil {
		return fmt.Errorf("entry block bb%d does not exist", f.Entry)
	}

	var errs []error

	// 1. Check all blocks terminated
	if err := validateBlocksTerminated(f); err != nil {
		errs = append(errs, err)
	}

	// 2. Check block targets exist
	if err := validateBlockTargets(f); err != nil {
		errs = append(errs, err)
	}

	// 3. Check cleanup discipline on unwind edges
	if err := validateCleanup(f); err != nil {
		errs = append(errs, err)
	}

	// 4. Check local IDs exist and places type-check
	if err := validatePlaces(f, typesIn); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validateBlocksTerminated checks that every block ends with a terminator.
func validateBlocksTerminated(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
	}
	return errors.Join(errs...)
}

// validateBlockTargets checks that all block target IDs exist.
func validateBlockTargets(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		term := &f.Blocks[i].Term
		for _, succ := range Successors(term) {
			if f.Block(succ) == nil {
				errs = append(errs, fmt.Errorf("bb%d: %s target bb%d does not exist", i, term.Kind, succ))
			}
		}
		if term.Kind == TermSwitchTag {
			seen := make(map[int]bool)
			for _, c := range term.SwitchTag.Cases {
				if seen[c.Variant] {
					errs = append(errs, fmt.Errorf("bb%d: switch_tag has duplicate case for variant %d", i, c.Variant))
				}
				seen[c.Variant] = true
			}
		}
	}
	return errors.Join(errs...)
}

// validateCleanup checks that cleanup blocks never unwind, unwind edges land
// in cleanup blocks, and cleanup code stays on the cleanup path.
func validateCleanup(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		unwind, hasUnwind := bb.Term.UnwindTarget()
		if bb.Cleanup {
			if hasUnwind {
				errs = append(errs, fmt.Errorf("bb%d: cleanup block has unwind edge to bb%d", i, unwind))
			}
			if bb.Term.Kind == TermDropAndReplace {
				errs = append(errs, fmt.Errorf("bb%d: replace in cleanup block", i))
			}
			if bb.Term.Kind == TermReturn {
				errs = append(errs, fmt.Errorf("bb%d: return from cleanup block", i))
			}
			for _, succ := range Successors(&bb.Term) {
				if t := f.Block(succ); t != nil && !t.Cleanup {
					errs = append(errs, fmt.Errorf("bb%d: cleanup block jumps to non-cleanup bb%d", i, succ))
				}
			}
			continue
		}
		if bb.Term.Kind == TermResume {
			errs = append(errs, fmt.Errorf("bb%d: resume outside cleanup block", i))
		}
		if hasUnwind {
			if t := f.Block(unwind); t != nil && !t.Cleanup {
				errs = append(errs, fmt.Errorf("bb%d: unwind edge to non-cleanup bb%d", i, unwind))
			}
		}
	}
	return errors.Join(errs...)
}

// validatePlaces checks that all LocalID references are valid and that
// projections fit their base types.
func validatePlaces(f *Func, typesIn *types.Interner) error {
	var errs []error

	localExists := func(id LocalID) bool {
		return id >= 0 && int(id) < len(f.Locals)
	}

	checkPlace := func(p Place, context string) {
		if !localExists(p.Local) {
			errs = append(errs, fmt.Errorf("%s: local L%d does not exist", context, p.Local))
			return
		}
		for _, proj := range p.Proj {
			if proj.Kind == PlaceProjIndex && !localExists(proj.IndexLocal) {
				errs = append(errs, fmt.Errorf("%s: index local L%d does not exist", context, proj.IndexLocal))
				return
			}
		}
		if typesIn == nil {
			return
		}
		ty := PlaceTy{Type: f.LocalType(p.Local), Variant: -1}
		for _, proj := range p.Proj {
			if proj.Kind == PlaceProjConstIndex {
				tt, _ := typesIn.Lookup(ty.Type)
				if tt.Kind == types.KindArray && (proj.MinLength != tt.Count || (!proj.FromEnd && proj.Offset >= proj.MinLength)) {
					errs = append(errs, fmt.Errorf("%s: constant index %d of %d on array of length %d",
						context, proj.Offset, proj.MinLength, tt.Count))
					return
				}
			}
			next, ok := ProjectType(typesIn, ty, proj)
			if !ok {
				errs = append(errs, fmt.Errorf("%s: %s projection does not apply to %s",
					context, proj.Kind, types.Label(typesIn, ty.Type)))
				return
			}
			ty = next
		}
	}

	checkOperand := func(op Operand, context string) {
		if op.Kind == OperandCopy || op.Kind == OperandMove {
			checkPlace(op.Place, context)
		}
	}

	for i := range f.Locals {
		if l := &f.Locals[i]; l.FlagOf != nil {
			checkPlace(*l.FlagOf, fmt.Sprintf("L%d flag", i))
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			if ins.Kind != InstrAssign {
				continue
			}
			ctx := fmt.Sprintf("bb%d instr %d", i, j)
			checkPlace(ins.Assign.Dst, ctx)
			if ins.Assign.Src.Kind == RValueRef {
				checkPlace(ins.Assign.Src.Ref.Place, ctx)
			}
			for _, op := range ins.Assign.Src.Operands() {
				checkOperand(op, ctx)
			}
		}

		ctx := fmt.Sprintf("bb%d terminator", i)
		switch bb.Term.Kind {
		case TermIf:
			checkOperand(bb.Term.If.Cond, ctx)
		case TermSwitchTag:
			checkPlace(bb.Term.SwitchTag.Place, ctx)
		case TermDrop:
			checkPlace(bb.Term.Drop.Place, ctx)
		case TermDropAndReplace:
			checkPlace(bb.Term.Replace.Place, ctx)
			checkOperand(bb.Term.Replace.Value, ctx)
		case TermCall:
			if bb.Term.Call.HasDst {
				checkPlace(bb.Term.Call.Dst, ctx)
			}
			for _, arg := range bb.Term.Call.Args {
				checkOperand(arg, ctx)
			}
		}
	}

	return errors.Join(errs...)
}
