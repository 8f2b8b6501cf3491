package elaborate

import (
	"fmt"

	"dropelab/internal/source"
)

// InvariantError aborts the pass when the body breaks a precondition, such
// as a replace inside a cleanup block.
type InvariantError struct {
	Func string
	Span source.Span
	Msg  string
}

func (e *InvariantError) Error() string {
	if e.Func == "" {
		return "drop elaboration: " + e.Msg
	}
	return fmt.Sprintf("drop elaboration of %s: %s", e.Func, e.Msg)
}
