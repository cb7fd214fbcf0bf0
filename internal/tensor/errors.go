package tensor

import "fmt"

// ShapeError reports a dimension mismatch between an operand and the shape
// an operation requires.
//
// Shapes are reported as []int: one element for vectors, two (rows, cols)
// for matrices.
type ShapeError struct {
	Op   string // Operation that detected the mismatch (e.g. "MatVec")
	Want []int  // Expected shape
	Got  []int  // Actual shape
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %v, got %v", e.Op, e.Want, e.Got)
}

// shapeErr is a convenience constructor used throughout the package.
func shapeErr(op string, want, got []int) error {
	return &ShapeError{Op: op, Want: want, Got: got}
}
