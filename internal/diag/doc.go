// Package diag defines the diagnostic model shared by the MIR reader, the
// validator and the drop elaboration pass.
//
// # Data model
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string form (see codes.go), a short Message, the Primary span and
// optional Notes pointing at related places.
//
// # Emitting diagnostics
//
// Producers depend on Reporter only. BagReporter collects into a Bag,
// DedupReporter filters repeats, NopReporter discards. ReportBuilder lets a
// producer attach notes before calling Emit.
//
// The elaboration pass uses Reporter for its delayed findings: a drop whose
// target is not tracked by move analysis and may be uninitialized is
// reported with ElabUntrackedMaybeDead and the pass keeps going.
//
// Package diag does not format for terminals; see internal/diagfmt.
package diag
