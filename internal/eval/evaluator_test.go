package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradnet-ml/gradnet/internal/dataset"
	"github.com/gradnet-ml/gradnet/internal/nn"
	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// passthroughNet builds a single identity layer whose output equals its
// input, making predictions fully controlled by the test data.
func passthroughNet(t *testing.T, dim int) *nn.Network {
	t.Helper()
	w := tensor.NewMatrix(dim, dim)
	for i := 0; i < dim; i++ {
		w.Set(i, i, 1)
	}
	layer, err := nn.NewLayerFromParams(w, tensor.NewVector(dim), nn.Identity)
	require.NoError(t, err)
	net, err := nn.New(layer)
	require.NoError(t, err)
	return net
}

func TestEvaluate(t *testing.T) {
	net := passthroughNet(t, 2)
	samples := dataset.InMemory{
		{Input: tensor.Vector{0.9, 0.1}, Label: 0}, // correct
		{Input: tensor.Vector{0.2, 0.8}, Label: 1}, // correct
		{Input: tensor.Vector{0.6, 0.4}, Label: 1}, // wrong
		{Input: tensor.Vector{0.3, 0.7}, Label: 1}, // correct
	}

	result, err := Evaluate(net, samples, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Correct)
	assert.Equal(t, 4, result.Total)
	assert.InDelta(t, 0.75, result.Accuracy(), 1e-12)

	require.Len(t, result.PerClass, 2)
	assert.Equal(t, ClassCount{Correct: 1, Total: 1}, result.PerClass[0])
	assert.Equal(t, ClassCount{Correct: 2, Total: 3}, result.PerClass[1])

	// Winning activations: 0.9, 0.8, 0.6, 0.7.
	assert.InDelta(t, 0.75, result.MeanConfidence, 1e-12)
	assert.Equal(t, 0.0, result.MeanLoss, "no loss requested")
}

func TestEvaluateTieCountsAsLowestIndex(t *testing.T) {
	net := passthroughNet(t, 2)
	samples := dataset.InMemory{
		{Input: tensor.Vector{0.5, 0.5}, Label: 0},
		{Input: tensor.Vector{0.5, 0.5}, Label: 1},
	}

	result, err := Evaluate(net, samples, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Correct, "ties resolve to class 0")
}

func TestEvaluateMeanLoss(t *testing.T) {
	net := passthroughNet(t, 2)
	samples := dataset.InMemory{
		{Input: tensor.Vector{1, 0}, Label: 0},
		{Input: tensor.Vector{0, 1}, Label: 1},
	}

	result, err := Evaluate(net, samples, nn.MSE{})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, result.MeanLoss, 1e-12)
	assert.InDelta(t, 1.0, result.Accuracy(), 1e-12)
}

func TestEvaluateEmptyDataset(t *testing.T) {
	net := passthroughNet(t, 2)
	_, err := Evaluate(net, dataset.InMemory{}, nil)
	require.Error(t, err)
}

func TestEvaluateLabelOutOfRange(t *testing.T) {
	net := passthroughNet(t, 2)
	samples := dataset.InMemory{{Input: tensor.Vector{1, 0}, Label: 5}}
	_, err := Evaluate(net, samples, nil)
	require.Error(t, err)
}

func TestClassCountAccuracy(t *testing.T) {
	assert.Equal(t, 0.0, ClassCount{}.Accuracy())
	assert.InDelta(t, 0.5, ClassCount{Correct: 1, Total: 2}.Accuracy(), 1e-12)
}
