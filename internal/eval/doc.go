// Package eval measures a trained network's classification quality over
// a labeled dataset: overall and per-class accuracy, mean loss, and mean
// prediction confidence.
package eval
