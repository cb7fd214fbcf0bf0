package nn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/gradnet-ml/gradnet/internal/tensor"
)

func TestNewRejectsBrokenDimChain(t *testing.T) {
	src := rand.NewSource(1)
	_, err := New(NewLayer(4, 3, Sigmoid, src), NewLayer(2, 1, Sigmoid, src))
	var shapeErr *tensor.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []int{3}, shapeErr.Want)
	assert.Equal(t, []int{2}, shapeErr.Got)
}

func TestNewRejectsEmptyNetwork(t *testing.T) {
	_, err := New()
	var stateErr *StateError
	require.True(t, errors.As(err, &stateErr))
}

func TestNewMLPTopology(t *testing.T) {
	net, err := NewMLP([]int{784, 16, 16, 10}, Sigmoid, Softmax, rand.NewSource(1))
	require.NoError(t, err)

	require.Len(t, net.Layers(), 3)
	assert.Equal(t, 784, net.InDim())
	assert.Equal(t, 10, net.OutDim())
	assert.Equal(t, Sigmoid, net.Layers()[0].Activation())
	assert.Equal(t, Sigmoid, net.Layers()[1].Activation())
	assert.Equal(t, Softmax, net.Layers()[2].Activation())
}

func TestNewMLPNeedsTwoSizes(t *testing.T) {
	_, err := NewMLP([]int{5}, Sigmoid, Softmax, rand.NewSource(1))
	require.Error(t, err)
}

func TestNewMLPRejectsNonPositiveSizes(t *testing.T) {
	var stateErr *StateError

	_, err := NewMLP([]int{2, 0, 1}, Sigmoid, Softmax, rand.NewSource(1))
	require.True(t, errors.As(err, &stateErr))

	_, err = NewMLP([]int{-3, 4}, Sigmoid, Softmax, rand.NewSource(1))
	require.True(t, errors.As(err, &stateErr))
}

func TestForwardOutputLength(t *testing.T) {
	net, err := NewMLP([]int{3, 5, 2}, Sigmoid, Softmax, rand.NewSource(1))
	require.NoError(t, err)

	out, err := net.Forward(tensor.Vector{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestPredictTieBreaksToLowestIndex(t *testing.T) {
	// Zero weights and equal biases on units 0 and 1 force an exact tie.
	layer, err := NewLayerFromParams(tensor.NewMatrix(3, 2), tensor.Vector{0.5, 0.5, 0.1}, Identity)
	require.NoError(t, err)
	net, err := New(layer)
	require.NoError(t, err)

	class, err := net.Predict(tensor.Vector{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
}

func TestApplyGradients(t *testing.T) {
	w, err := tensor.NewMatrixFromData(1, 2, []float64{1, 2})
	require.NoError(t, err)
	layer, err := NewLayerFromParams(w, tensor.Vector{3}, Identity)
	require.NoError(t, err)
	net, err := New(layer)
	require.NoError(t, err)

	gw, err := tensor.NewMatrixFromData(1, 2, []float64{10, 20})
	require.NoError(t, err)
	grads := []Gradient{{Weights: gw, Bias: tensor.Vector{30}}}

	require.NoError(t, net.ApplyGradients(grads, 0.1))
	assert.InDelta(t, 0.0, layer.Weights().At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, layer.Weights().At(0, 1), 1e-12)
	assert.InDelta(t, 0.0, layer.Bias()[0], 1e-12)
}

func TestApplyGradientsShapeChecks(t *testing.T) {
	net, err := NewMLP([]int{2, 2}, Sigmoid, Sigmoid, rand.NewSource(1))
	require.NoError(t, err)

	var shapeErr *tensor.ShapeError

	err = net.ApplyGradients(nil, 0.1)
	require.True(t, errors.As(err, &shapeErr), "gradient count mismatch")

	bad := []Gradient{{Weights: tensor.NewMatrix(3, 2), Bias: tensor.NewVector(2)}}
	err = net.ApplyGradients(bad, 0.1)
	require.True(t, errors.As(err, &shapeErr), "weight shape mismatch")
}

func TestCloneIsIndependent(t *testing.T) {
	net, err := NewMLP([]int{2, 3, 2}, Sigmoid, Softmax, rand.NewSource(5))
	require.NoError(t, err)

	clone := net.Clone()
	input := tensor.Vector{0.3, -0.4}

	want, err := net.Forward(input)
	require.NoError(t, err)
	got, err := clone.Forward(input)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	clone.Layers()[0].Weights().Set(0, 0, 99)
	assert.NotEqual(t, 99.0, net.Layers()[0].Weights().At(0, 0))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	net, err := NewMLP([]int{2, 2}, Sigmoid, Sigmoid, rand.NewSource(5))
	require.NoError(t, err)

	snap := net.Snapshot()
	before := snap[0].Weights.At(0, 0)
	net.Layers()[0].Weights().Set(0, 0, before+1)
	assert.Equal(t, before, snap[0].Weights.At(0, 0))
}

// TestBackwardMatchesFiniteDifferences checks every analytic parameter
// gradient against a central finite difference of the loss.
func TestBackwardMatchesFiniteDifferences(t *testing.T) {
	net, err := NewMLP([]int{2, 3, 2}, Sigmoid, Sigmoid, rand.NewSource(42))
	require.NoError(t, err)
	loss := MSE{}
	rng := rand.New(rand.NewSource(99))

	lossAt := func(input, target tensor.Vector) float64 {
		out, err := net.Forward(input)
		require.NoError(t, err)
		l, _, err := loss.Compute(out, target)
		require.NoError(t, err)
		return l
	}

	const eps = 1e-6
	for trial := 0; trial < 20; trial++ {
		input := tensor.Vector{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		target := tensor.Vector{rng.Float64(), rng.Float64()}

		out, err := net.Forward(input)
		require.NoError(t, err)
		_, lossGrad, err := loss.Compute(out, target)
		require.NoError(t, err)
		grads, err := net.Backward(lossGrad)
		require.NoError(t, err)

		for li, layer := range net.Layers() {
			weights := layer.Weights()
			for j := range weights.Data {
				orig := weights.Data[j]
				weights.Data[j] = orig + eps
				plus := lossAt(input, target)
				weights.Data[j] = orig - eps
				minus := lossAt(input, target)
				weights.Data[j] = orig

				numeric := (plus - minus) / (2 * eps)
				assert.InDelta(t, numeric, grads[li].Weights.Data[j], 1e-5,
					"layer %d weight %d, trial %d", li, j, trial)
			}

			bias := layer.Bias()
			for j := range bias {
				orig := bias[j]
				bias[j] = orig + eps
				plus := lossAt(input, target)
				bias[j] = orig - eps
				minus := lossAt(input, target)
				bias[j] = orig

				numeric := (plus - minus) / (2 * eps)
				assert.InDelta(t, numeric, grads[li].Bias[j], 1e-5,
					"layer %d bias %d, trial %d", li, j, trial)
			}
		}
	}
}
