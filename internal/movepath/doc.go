// Package movepath builds the move-path index of a function body: a tree of
// the places whose initialization state is tracked, together with the
// locations where each path is moved out of or initialized.
//
// Paths are created for every local and for every place that is moved,
// assigned or dropped, projection by projection. A projection through a
// reference or raw pointer, a dynamic index, or into a type with a user
// destructor ends the chain; Find then reports the nearest tracked ancestor.
package movepath
