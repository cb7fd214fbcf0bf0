package nn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// Network is an ordered, non-empty composition of layers.
//
// Invariant: the input dimension of layer i+1 equals the output dimension
// of layer i. Layer 0's input dimension is the dataset feature count and
// the last layer's output dimension is the class count.
//
// The network exclusively owns its layers' parameter buffers. During a
// training run the trainer holds the only mutable reference; evaluation
// and checkpointing happen at batch boundaries, never mid-update.
type Network struct {
	layers []*Layer
}

// New assembles a network from explicit layers, validating the dimension
// chain. Returns a *tensor.ShapeError on the first mismatched pair and an
// error if no layers are given.
func New(layers ...*Layer) (*Network, error) {
	if len(layers) == 0 {
		return nil, &StateError{Op: "nn.New", Reason: "a network needs at least one layer"}
	}
	for i := 1; i < len(layers); i++ {
		if layers[i].InDim() != layers[i-1].OutDim() {
			return nil, &tensor.ShapeError{
				Op:   "nn.New",
				Want: []int{layers[i-1].OutDim()},
				Got:  []int{layers[i].InDim()},
			}
		}
	}
	return &Network{layers: layers}, nil
}

// NewMLP builds a fully-connected network from a chain of layer sizes,
// e.g. sizes [784, 16, 16, 10] gives three layers. Hidden layers use the
// hidden activation, the final layer uses output.
func NewMLP(sizes []int, hidden, output Activation, src rand.Source) (*Network, error) {
	if len(sizes) < 2 {
		return nil, &StateError{Op: "nn.NewMLP", Reason: "need an input size and at least one layer size"}
	}
	for _, size := range sizes {
		if size <= 0 {
			return nil, &StateError{Op: "nn.NewMLP", Reason: fmt.Sprintf("layer size %d must be positive", size)}
		}
	}
	layers := make([]*Layer, len(sizes)-1)
	for i := range layers {
		act := hidden
		if i == len(layers)-1 {
			act = output
		}
		layers[i] = NewLayer(sizes[i], sizes[i+1], act, src)
	}
	return New(layers...)
}

// Layers returns the network's layers in order. Callers must treat the
// slice as read-only.
func (n *Network) Layers() []*Layer { return n.layers }

// InDim returns the feature count the network expects.
func (n *Network) InDim() int { return n.layers[0].InDim() }

// OutDim returns the network's class count.
func (n *Network) OutDim() int { return n.layers[len(n.layers)-1].OutDim() }

// Forward chains Layer.Forward left to right and returns the final
// layer's output.
func (n *Network) Forward(input tensor.Vector) (tensor.Vector, error) {
	out := input
	var err error
	for _, layer := range n.layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Predict returns the argmax class index of Forward(input). Ties resolve
// to the lowest index.
func (n *Network) Predict(input tensor.Vector) (int, error) {
	out, err := n.Forward(input)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(out), nil
}

// Backward chains Layer.Backward right to left, feeding each layer's input
// gradient to the preceding layer as its output gradient. lossGrad is the
// gradient of the loss with respect to the network's final output.
//
// The returned gradients are ordered layer-0-first and shaped exactly like
// the corresponding parameters. Backward must follow a matching Forward.
func (n *Network) Backward(lossGrad tensor.Vector) ([]Gradient, error) {
	grads := make([]Gradient, len(n.layers))
	grad := lossGrad
	for i := len(n.layers) - 1; i >= 0; i-- {
		inputGrad, layerGrad, err := n.layers[i].Backward(grad)
		if err != nil {
			return nil, err
		}
		grads[i] = layerGrad
		grad = inputGrad
	}
	return grads, nil
}

// ApplyGradients performs the gradient-descent update in place:
//
//	W -= learningRate * weightGradient
//	b -= learningRate * biasGradient
//
// for every layer. No new parameter buffers are allocated.
func (n *Network) ApplyGradients(grads []Gradient, learningRate float64) error {
	if len(grads) != len(n.layers) {
		return &tensor.ShapeError{
			Op:   "Network.ApplyGradients",
			Want: []int{len(n.layers)},
			Got:  []int{len(grads)},
		}
	}
	for i, layer := range n.layers {
		g := grads[i]
		if g.Weights.Rows != layer.OutDim() || g.Weights.Cols != layer.InDim() {
			return &tensor.ShapeError{
				Op:   "Network.ApplyGradients",
				Want: []int{layer.OutDim(), layer.InDim()},
				Got:  []int{g.Weights.Rows, g.Weights.Cols},
			}
		}
		if len(g.Bias) != layer.OutDim() {
			return &tensor.ShapeError{
				Op:   "Network.ApplyGradients",
				Want: []int{layer.OutDim()},
				Got:  []int{len(g.Bias)},
			}
		}
		w := layer.weights
		for j, gw := range g.Weights.Data {
			w.Data[j] -= learningRate * gw
		}
		for j, gb := range g.Bias {
			layer.bias[j] -= learningRate * gb
		}
	}
	return nil
}

// Clone returns a deep copy of the network: same topology and activation
// kinds, independent parameter buffers and forward caches. Worker
// goroutines clone the network so concurrent forward/backward passes never
// share a layer cache.
func (n *Network) Clone() *Network {
	layers := make([]*Layer, len(n.layers))
	for i, l := range n.layers {
		layers[i] = &Layer{
			weights:    l.weights.Clone(),
			bias:       l.bias.Clone(),
			activation: l.activation,
		}
	}
	return &Network{layers: layers}
}

// Snapshot returns a deep copy of every layer's parameters, layer-0-first.
// Evaluation-equivalence tests and point-in-time checkpoints use it to
// observe parameters without aliasing live buffers.
func (n *Network) Snapshot() []Gradient {
	snap := make([]Gradient, len(n.layers))
	for i, layer := range n.layers {
		snap[i] = Gradient{
			Weights: layer.weights.Clone(),
			Bias:    layer.bias.Clone(),
		}
	}
	return snap
}
