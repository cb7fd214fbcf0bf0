// Package tensor provides the dense vector and matrix primitives used by
// the rest of gradnet.
//
// All values are float64; a network never mixes precisions. Operations that
// combine operands of incompatible dimensions return a *ShapeError naming
// the expected and actual shapes instead of silently truncating.
//
// The primitives are deliberately explicit: MatVec, Outer and friends are
// written as plain loops so that every arithmetic step of a forward or
// backward pass can be read directly from the source.
package tensor
