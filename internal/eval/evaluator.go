package eval

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gradnet-ml/gradnet/internal/dataset"
	"github.com/gradnet-ml/gradnet/internal/nn"
)

// ClassCount tallies predictions for one class label.
type ClassCount struct {
	Correct int
	Total   int
}

// Accuracy returns the class's hit rate, or 0 when the class is absent
// from the dataset.
func (c ClassCount) Accuracy() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total)
}

// Result summarizes one evaluation pass.
type Result struct {
	Correct int
	Total   int

	// PerClass is indexed by label, one entry per output unit.
	PerClass []ClassCount

	// MeanLoss is the mean per-sample loss, or 0 when no loss was given.
	MeanLoss float64

	// MeanConfidence is the mean of the winning output activation across
	// all samples.
	MeanConfidence float64
}

// Accuracy returns the overall hit rate.
func (r Result) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Evaluate runs every sample in src through the network and tallies the
// predictions against the labels. Ties between equal output activations
// resolve to the lowest index, matching Network.Predict. When loss is
// non-nil the per-sample losses are averaged into Result.MeanLoss.
//
// Evaluate calls Forward on the network and must not run concurrently
// with training on the same network.
func Evaluate(net *nn.Network, src dataset.Source, loss nn.Loss) (Result, error) {
	n := src.Len()
	if n == 0 {
		return Result{}, fmt.Errorf("eval: dataset is empty")
	}

	classes := net.OutDim()
	result := Result{PerClass: make([]ClassCount, classes)}
	confidences := make([]float64, 0, n)
	lossSum := 0.0

	for i := 0; i < n; i++ {
		sample := src.At(i)
		if sample.Label < 0 || sample.Label >= classes {
			return Result{}, fmt.Errorf("eval: sample %d has label %d outside [0, %d)", i, sample.Label, classes)
		}

		output, err := net.Forward(sample.Input)
		if err != nil {
			return Result{}, err
		}
		predicted := floats.MaxIdx(output)
		confidences = append(confidences, output[predicted])

		result.Total++
		result.PerClass[sample.Label].Total++
		if predicted == sample.Label {
			result.Correct++
			result.PerClass[sample.Label].Correct++
		}

		if loss != nil {
			target := dataset.OneHot(sample.Label, classes)
			l, _, err := loss.Compute(output, target)
			if err != nil {
				return Result{}, err
			}
			lossSum += l
		}
	}

	if loss != nil {
		result.MeanLoss = lossSum / float64(n)
	}
	result.MeanConfidence = stat.Mean(confidences, nil)
	return result, nil
}
