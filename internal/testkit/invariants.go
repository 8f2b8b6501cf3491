// Package testkit holds checks shared by front-end tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"dropelab/internal/mir"
	"dropelab/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed
// module:
// 1) every function span is non-empty, inside sf, and follows the previous one
// 2) every local, statement and terminator span is non-empty and inside
// its function's span
func CheckSpanInvariants(m *mir.Module, sf *source.File) error {
	if m == nil || sf == nil {
		return fmt.Errorf("nil module or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var prevEnd uint32
	for _, f := range m.Funcs {
		if err := checkSpan(f.Span, sf.ID); err != nil {
			return fmt.Errorf("fn %s: %w", f.Name, err)
		}
		if f.Span.End > lenContent {
			return fmt.Errorf("fn %s: span end beyond content: %d > %d", f.Name, f.Span.End, lenContent)
		}
		if f.Span.Start < prevEnd {
			return fmt.Errorf("fn %s: span %v overlaps the previous function", f.Name, f.Span)
		}
		prevEnd = f.Span.End

		within := func(what string, sp source.Span) error {
			if err := checkSpan(sp, sf.ID); err != nil {
				return fmt.Errorf("fn %s: %s: %w", f.Name, what, err)
			}
			if sp.Start < f.Span.Start || sp.End > f.Span.End {
				return fmt.Errorf("fn %s: %s span %v is outside function span %v", f.Name, what, sp, f.Span)
			}
			return nil
		}
		for i := range f.Locals {
			if err := within(fmt.Sprintf("L%d", i), f.Locals[i].Span); err != nil {
				return err
			}
		}
		for i := range f.Blocks {
			bb := &f.Blocks[i]
			for j := range bb.Instrs {
				if err := within(fmt.Sprintf("bb%d[%d]", i, j), bb.Instrs[j].Span); err != nil {
					return err
				}
			}
			if err := within(fmt.Sprintf("bb%d terminator", i), bb.Term.Span); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkSpan(sp source.Span, file source.FileID) error {
	if sp.End <= sp.Start {
		return fmt.Errorf("empty span: %v", sp)
	}
	if sp.File != file {
		return fmt.Errorf("span points to different file id: got=%d want=%d", sp.File, file)
	}
	return nil
}
