// Package elaborate is the drop elaboration pass.
//
// Every drop and replace terminator in the input may run a destructor on a
// place that is no longer (or only partly) initialized. Run decides, from
// the maybe-init and maybe-uninit dataflow results, whether each drop is
// dead, static, conditional or open, allocates boolean drop flags where
// only a runtime check can tell, and records the rewritten control flow in
// a mir.Patch. The caller applies the patch.
//
// Phases, in order:
//
//	dead-unwinds  remove unwind edges of drops that cannot drop anything
//	dataflow      maybe-init and maybe-uninit over the pruned body
//	collect       allocate a flag for every ambiguous drop child
//	elaborate     expand each drop through dropgen, desugar replaces
//	sweeps        keep the flags current: entry reset, call returns,
//	              arguments, then every statement and terminator
//
// Only the pruning phase writes to the body directly; everything else goes
// through the patch so the dataflow cursors stay valid.
package elaborate
