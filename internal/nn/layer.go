package nn

import (
	"golang.org/x/exp/rand"

	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// Layer is one affine transform plus activation.
//
// It owns a weight matrix of shape (out_dim × in_dim) and a bias vector of
// length out_dim. Forward caches the input, the pre-activation z = W·x + b,
// and the output, which Backward then consumes; the two calls must be
// strictly paired per sample.
type Layer struct {
	weights    *tensor.Matrix // out_dim × in_dim
	bias       tensor.Vector  // out_dim
	activation Activation

	// Forward-pass cache, valid between a Forward and its matching Backward.
	input  tensor.Vector
	preAct tensor.Vector
	output tensor.Vector
	hasFwd bool
}

// Gradient holds the loss gradients for one layer's parameters, shaped
// exactly like the parameters themselves.
type Gradient struct {
	Weights *tensor.Matrix // out_dim × in_dim
	Bias    tensor.Vector  // out_dim
}

// NewLayer creates a layer with Xavier-initialized weights and zero biases
// drawn from src, so construction is reproducible under a fixed seed.
func NewLayer(inDim, outDim int, activation Activation, src rand.Source) *Layer {
	return &Layer{
		weights:    xavier(outDim, inDim, src),
		bias:       tensor.NewVector(outDim),
		activation: activation,
	}
}

// NewLayerFromParams creates a layer around existing parameter buffers,
// taking ownership of them. Used when reconstructing a network from a
// checkpoint.
func NewLayerFromParams(weights *tensor.Matrix, bias tensor.Vector, activation Activation) (*Layer, error) {
	if weights.Rows != len(bias) {
		return nil, &tensor.ShapeError{
			Op:   "NewLayerFromParams",
			Want: []int{weights.Rows},
			Got:  []int{len(bias)},
		}
	}
	return &Layer{weights: weights, bias: bias, activation: activation}, nil
}

// InDim returns the layer's input dimension.
func (l *Layer) InDim() int { return l.weights.Cols }

// OutDim returns the layer's output dimension.
func (l *Layer) OutDim() int { return l.weights.Rows }

// Activation returns the layer's activation kind.
func (l *Layer) Activation() Activation { return l.activation }

// Weights returns the layer's weight matrix. The layer retains ownership;
// callers must not hold the reference across a parameter update.
func (l *Layer) Weights() *tensor.Matrix { return l.weights }

// Bias returns the layer's bias vector. Same ownership rules as Weights.
func (l *Layer) Bias() tensor.Vector { return l.bias }

// Forward computes output = activation(W·input + b) and caches the values
// Backward needs. Returns a *tensor.ShapeError if len(input) != InDim().
func (l *Layer) Forward(input tensor.Vector) (tensor.Vector, error) {
	z, err := tensor.MatVec(l.weights, input)
	if err != nil {
		return nil, err
	}
	if err := tensor.AddInPlace(z, l.bias); err != nil {
		return nil, err
	}

	l.input = input
	l.preAct = z
	l.output = l.activation.Apply(z)
	l.hasFwd = true
	return l.output, nil
}

// Backward converts the gradient of the loss with respect to this layer's
// output into the gradient with respect to its input, plus the parameter
// gradients:
//
//	delta     = outputGrad ⊙ activation'(z)
//	dW        = delta ⊗ cachedInput
//	db        = delta
//	inputGrad = transpose(W)·delta
//
// For a Softmax output layer the caller passes the already-folded
// cross-entropy gradient (output − target) and delta is used as-is.
//
// Backward must follow a matching Forward on the same sample; calling it
// out of order returns a *StateError. The cache is consumed: a second
// Backward without a fresh Forward also fails.
func (l *Layer) Backward(outputGrad tensor.Vector) (tensor.Vector, Gradient, error) {
	if !l.hasFwd {
		return nil, Gradient{}, &StateError{
			Op:     "Layer.Backward",
			Reason: "no matching Forward call cached",
		}
	}
	if len(outputGrad) != l.OutDim() {
		return nil, Gradient{}, &tensor.ShapeError{
			Op:   "Layer.Backward",
			Want: []int{l.OutDim()},
			Got:  []int{len(outputGrad)},
		}
	}
	l.hasFwd = false

	var delta tensor.Vector
	if l.activation == Softmax {
		// Jacobian already folded into the loss gradient.
		delta = outputGrad.Clone()
	} else {
		deriv, err := l.activation.Derivative(l.preAct, l.output)
		if err != nil {
			return nil, Gradient{}, err
		}
		delta, err = tensor.MulElem(outputGrad, deriv)
		if err != nil {
			return nil, Gradient{}, err
		}
	}

	inputGrad, err := tensor.MatTVec(l.weights, delta)
	if err != nil {
		return nil, Gradient{}, err
	}

	grad := Gradient{
		Weights: tensor.Outer(delta, l.input),
		Bias:    delta,
	}
	return inputGrad, grad, nil
}
