package nn

import (
	"math"

	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// Loss is a scalar training objective together with its gradient with
// respect to the network's final output.
//
// Compute returns a *DivergenceError if the loss comes out non-finite,
// signaling the trainer to abort the current epoch rather than propagate
// corrupted gradients.
type Loss interface {
	Compute(output, target tensor.Vector) (float64, tensor.Vector, error)
}

// CrossEntropy is the categorical cross-entropy loss, paired with a
// Softmax output layer.
//
// Because the Softmax Jacobian and the cross-entropy derivative cancel
// analytically, the returned gradient is simply output − target; the
// output layer's Backward applies it without an activation derivative.
type CrossEntropy struct{}

// logClamp keeps log(output) finite when softmax underflows a class
// probability to exactly zero.
const logClamp = 1e-300

// Compute returns −Σ target_i·ln(output_i) and the folded gradient
// output − target.
func (CrossEntropy) Compute(output, target tensor.Vector) (float64, tensor.Vector, error) {
	if len(output) != len(target) {
		return 0, nil, &tensor.ShapeError{Op: "CrossEntropy.Compute", Want: []int{len(target)}, Got: []int{len(output)}}
	}

	loss := 0.0
	grad := make(tensor.Vector, len(output))
	for i, o := range output {
		if t := target[i]; t != 0 {
			loss -= t * math.Log(math.Max(o, logClamp))
		}
		grad[i] = o - target[i]
	}

	if !isFinite(loss) {
		return 0, nil, &DivergenceError{Value: loss}
	}
	return loss, grad, nil
}

// MSE is the mean-squared-error loss, usable with any output activation:
//
//	L = Σ (output_i − target_i)² / n
//	∂L/∂output_i = 2(output_i − target_i) / n
type MSE struct{}

// Compute returns the mean squared error and its gradient.
func (MSE) Compute(output, target tensor.Vector) (float64, tensor.Vector, error) {
	if len(output) != len(target) {
		return 0, nil, &tensor.ShapeError{Op: "MSE.Compute", Want: []int{len(target)}, Got: []int{len(output)}}
	}

	n := float64(len(output))
	loss := 0.0
	grad := make(tensor.Vector, len(output))
	for i, o := range output {
		d := o - target[i]
		loss += d * d / n
		grad[i] = 2 * d / n
	}

	if !isFinite(loss) {
		return 0, nil, &DivergenceError{Value: loss}
	}
	return loss, grad, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
