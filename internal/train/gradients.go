package train

import (
	"github.com/gradnet-ml/gradnet/internal/nn"
	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// GradientSet is the batch gradient accumulator: one weight-gradient
// matrix and one bias-gradient vector per layer, each shaped exactly like
// the corresponding parameter.
//
// A set is allocated once and reused for every batch: zeroed at the start,
// summed into across the batch's samples, averaged and applied at batch
// end. Workers running in parallel each own a private set that is merged
// into the shared one at the batch-boundary synchronization point.
type GradientSet struct {
	grads []nn.Gradient
}

// NewGradientSet allocates a zeroed accumulator matching the network's
// parameter shapes.
func NewGradientSet(net *nn.Network) *GradientSet {
	layers := net.Layers()
	grads := make([]nn.Gradient, len(layers))
	for i, layer := range layers {
		grads[i] = nn.Gradient{
			Weights: tensor.NewMatrix(layer.OutDim(), layer.InDim()),
			Bias:    tensor.NewVector(layer.OutDim()),
		}
	}
	return &GradientSet{grads: grads}
}

// Zero resets every accumulated gradient to zero in place.
func (g *GradientSet) Zero() {
	for _, grad := range g.grads {
		grad.Weights.Zero()
		grad.Bias.Zero()
	}
}

// Accumulate sums one sample's per-layer gradients into the set.
func (g *GradientSet) Accumulate(sample []nn.Gradient) error {
	if len(sample) != len(g.grads) {
		return &tensor.ShapeError{
			Op:   "GradientSet.Accumulate",
			Want: []int{len(g.grads)},
			Got:  []int{len(sample)},
		}
	}
	for i, s := range sample {
		if err := tensor.AddMatInPlace(g.grads[i].Weights, s.Weights); err != nil {
			return err
		}
		if err := tensor.AddInPlace(g.grads[i].Bias, s.Bias); err != nil {
			return err
		}
	}
	return nil
}

// Merge adds another set's accumulated gradients into this one.
func (g *GradientSet) Merge(other *GradientSet) error {
	return g.Accumulate(other.grads)
}

// Scale multiplies every accumulated gradient by f. Dividing by the
// batch's sample count turns the accumulated sums into averages.
func (g *GradientSet) Scale(f float64) {
	for _, grad := range g.grads {
		tensor.ScaleMatInPlace(grad.Weights, f)
		tensor.ScaleInPlace(grad.Bias, f)
	}
}

// Gradients exposes the accumulated per-layer gradients, layer-0-first,
// in the form Network.ApplyGradients consumes.
func (g *GradientSet) Gradients() []nn.Gradient {
	return g.grads
}
