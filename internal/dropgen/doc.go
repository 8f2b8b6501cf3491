// Package dropgen expands one drop of a tracked place into the blocks that
// drop exactly the parts that are still initialized.
//
// The expansion is driven by an Elaborator, which answers what is known
// about each move path (its drop style and flag) and records the new blocks
// in a mir.Patch. Four shapes come out:
//
//	Dead         the drop becomes a goto
//	Static       the drop stays an unconditional drop
//	Conditional  a test of the path's flag guards the drop
//	Open         parts are dropped one by one: a ladder over the fields of
//	             a struct, tuple or array, a switch over the variants of an
//	             enum, or the contents and then the allocation of an own box
package dropgen
