package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// xavier builds an (outDim × inDim) weight matrix with Xavier/Glorot
// uniform initialization: U(−b, b) with b = sqrt(6/(fan_in + fan_out)).
//
// Drawing from an explicit rand.Source keeps initialization reproducible
// for a fixed seed, which the deterministic training tests rely on.
func xavier(outDim, inDim int, src rand.Source) *tensor.Matrix {
	bound := math.Sqrt(6.0 / float64(inDim+outDim))
	dist := distuv.Uniform{Min: -bound, Max: bound, Src: src}

	m := tensor.NewMatrix(outDim, inDim)
	for i := range m.Data {
		m.Data[i] = dist.Rand()
	}
	return m
}
