package nn

import (
	"fmt"
	"math"

	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// Activation identifies one of the closed set of layer nonlinearities.
//
// The set is a fixed enumeration: adding an activation means extending the
// enum and its Apply/Derivative switches, never subclassing. The numeric
// values double as the activation codes of the checkpoint format.
type Activation uint8

// The supported activation kinds.
const (
	Identity Activation = iota
	Sigmoid
	ReLU
	Softmax // output layer only; its derivative is folded into cross-entropy
)

// Valid reports whether a is one of the defined activation kinds.
func (a Activation) Valid() bool {
	return a <= Softmax
}

// String returns the activation's name.
func (a Activation) String() string {
	switch a {
	case Identity:
		return "identity"
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	case Softmax:
		return "softmax"
	default:
		return fmt.Sprintf("activation(%d)", uint8(a))
	}
}

// Apply computes the activation over a pre-activation vector z and returns
// a new output vector. z is not modified.
func (a Activation) Apply(z tensor.Vector) tensor.Vector {
	switch a {
	case Identity:
		return z.Clone()
	case Sigmoid:
		return tensor.Map(z, stableSigmoid)
	case ReLU:
		return tensor.Map(z, func(x float64) float64 { return math.Max(0, x) })
	case Softmax:
		return softmax(z)
	default:
		panic(fmt.Sprintf("unknown activation %d", uint8(a)))
	}
}

// Derivative returns the element-wise activation derivative evaluated at
// pre-activation z, given the already-computed output Apply(z). Passing
// the cached output lets Sigmoid reuse σ(z) instead of recomputing it.
//
// Softmax has no element-wise derivative: its Jacobian is folded
// analytically into the cross-entropy gradient (output − target), so
// requesting it is a sequencing error.
func (a Activation) Derivative(z, output tensor.Vector) (tensor.Vector, error) {
	switch a {
	case Identity:
		out := make(tensor.Vector, len(z))
		for i := range out {
			out[i] = 1
		}
		return out, nil
	case Sigmoid:
		// σ'(z) = σ(z)·(1−σ(z)), with σ(z) already cached in output.
		return tensor.Map(output, func(s float64) float64 { return s * (1 - s) }), nil
	case ReLU:
		return tensor.Map(z, func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		}), nil
	case Softmax:
		return nil, &StateError{
			Op:     "Activation.Derivative",
			Reason: "softmax derivative is folded into the cross-entropy gradient",
		}
	default:
		panic(fmt.Sprintf("unknown activation %d", uint8(a)))
	}
}

// stableSigmoid computes 1/(1+exp(−x)) without overflowing for large
// negative x.
func stableSigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// softmax computes exp(z_i)/Σ exp(z_j) with the maximum logit subtracted
// before exponentiating, so no exponent ever exceeds zero.
func softmax(z tensor.Vector) tensor.Vector {
	maxLogit := math.Inf(-1)
	for _, x := range z {
		if x > maxLogit {
			maxLogit = x
		}
	}

	out := make(tensor.Vector, len(z))
	sum := 0.0
	for i, x := range z {
		e := math.Exp(x - maxLogit)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
