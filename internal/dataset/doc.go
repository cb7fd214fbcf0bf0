// Package dataset defines the sample model the trainer consumes and loads
// MNIST-style IDX files into it.
//
// A Source is an ordered, finite, restartable sequence of samples with a
// count queryable up front, which is all the trainer needs for batch-size
// arithmetic. InMemory is the only implementation here; the IDX loader
// produces one.
package dataset
