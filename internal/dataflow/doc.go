// Package dataflow runs forward may-analyses over move paths.
//
// Both analyses track one bit per move path. MaybeInitialized sets the bit
// when some path into a location leaves the value initialized;
// MaybeUninitialized sets it when some path leaves it uninitialized. A path
// is definitely initialized exactly when it is maybe-init and not
// maybe-uninit. States are joined by union and iterated to a fixpoint over
// the reachable blocks in reverse postorder.
package dataflow
