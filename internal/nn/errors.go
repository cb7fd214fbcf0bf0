package nn

import "fmt"

// StateError reports a component method invoked out of its required
// sequence, such as Backward before a matching Forward. It signals a
// programming-contract violation and is not recoverable at runtime.
type StateError struct {
	Op     string // Method that was called
	Reason string // What the required sequence was
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s: invalid call sequence: %s", e.Op, e.Reason)
}

// DivergenceError reports a non-finite (NaN or ±Inf) loss value. Training
// must abort the in-progress epoch rather than propagate corrupted
// gradients; the caller may lower the learning rate and retry.
type DivergenceError struct {
	Value float64 // The non-finite loss value
}

// Error implements the error interface.
func (e *DivergenceError) Error() string {
	return fmt.Sprintf("loss diverged to %v", e.Value)
}
