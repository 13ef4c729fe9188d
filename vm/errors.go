package vm

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel Call returns (wrapped with the requested
// name) when image has no function by that name.
var ErrNotFound = errors.New("💥 RuntimeError: function not found")

func notFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

// StackImbalanceError is the VM's internal post-condition check: after
// a function runs to STOP, the operand stack pointer must have
// returned to its initial depth. Seeing this means the bytecode that
// reached the VM did not come out of a well-formed compile — a
// compiler bug, never a user-script error — so Call panics with it
// rather than returning it as an ordinary error.
type StackImbalanceError struct {
	Function string
}

func (e *StackImbalanceError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: stack pointer unbalanced after call to %q", e.Function)
}
