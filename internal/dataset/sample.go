package dataset

import "github.com/gradnet-ml/gradnet/internal/tensor"

// Sample is one labeled input: a fixed-length feature vector and its class
// index. Samples are treated as immutable once constructed.
type Sample struct {
	Input tensor.Vector
	Label int
}

// Source is an ordered, finite, restartable sequence of samples.
//
// Implementations must return a stable sample for a given index across
// calls; the trainer re-reads samples every epoch in a shuffled order.
type Source interface {
	// Len returns the total sample count.
	Len() int
	// At returns the i-th sample, 0 <= i < Len().
	At(i int) Sample
}

// InMemory is a Source backed by a slice.
type InMemory []Sample

// Len implements Source.
func (s InMemory) Len() int { return len(s) }

// At implements Source.
func (s InMemory) At(i int) Sample { return s[i] }

// OneHot converts a class index into a one-hot vector of length classes:
// zero everywhere except a 1 at the label's index.
func OneHot(label, classes int) tensor.Vector {
	v := tensor.NewVector(classes)
	v[label] = 1
	return v
}
