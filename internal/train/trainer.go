package train

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/gradnet-ml/gradnet/internal/dataset"
	"github.com/gradnet-ml/gradnet/internal/nn"
	"github.com/gradnet-ml/gradnet/internal/parallel"
)

// State is the trainer's position in its lifecycle.
type State int32

// Trainer states. Parameters mutate only in StateRunning; StateFinishing
// covers the save-on-cancel path between the last applied batch and the
// final checkpoint write.
const (
	StateIdle State = iota
	StateRunning
	StateFinishing
	StateStopped
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinishing:
		return "finishing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Progress is handed to the Config.Progress callback after every applied
// batch.
type Progress struct {
	Epoch   int     // Current epoch, 0-based
	Epochs  int     // Total epochs configured
	Batch   int     // Current batch within the epoch, 0-based
	Batches int     // Total batches in the epoch
	AvgLoss float64 // Mean per-sample loss over the epoch so far
}

// Config holds the trainer's hyperparameters and collaborators. All
// configuration is passed explicitly; the trainer reads no process-wide
// globals, so a fixed Seed reproduces a run exactly.
type Config struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64

	// Loss defaults to CrossEntropy when nil.
	Loss nn.Loss

	// Parallel controls the optional per-batch worker fan-out. The zero
	// value keeps the batch loop sequential.
	Parallel parallel.Config

	// Checkpoint, when non-nil, persists the network at every epoch
	// boundary and on cancellation.
	Checkpoint Saver

	// Progress, when non-nil, is called after every applied batch.
	Progress func(Progress)
}

// Trainer runs the mini-batch gradient-descent loop.
//
// It holds the only mutable reference to the network for the duration of
// Run; evaluating or saving the network concurrently with Run is a
// caller error except through the trainer's own batch-boundary hooks.
type Trainer struct {
	net    *nn.Network
	cfg    Config
	rng    *rand.Rand
	shared *GradientSet

	state    atomic.Int32
	cancel   atomic.Bool
	canceled bool

	// batchHook runs after every applied batch, before the cancellation
	// flag is polled. Tests use it to cancel at an exact batch boundary.
	batchHook func(epoch, batch int)
}

// New creates a trainer for the network. The trainer assumes exclusive
// write access to the network until Run returns.
func New(net *nn.Network, cfg Config) (*Trainer, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("train: epochs must be positive, got %d", cfg.Epochs)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("train: batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("train: learning rate must be positive, got %v", cfg.LearningRate)
	}
	if cfg.Loss == nil {
		cfg.Loss = nn.CrossEntropy{}
	}

	return &Trainer{
		net:    net,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		shared: NewGradientSet(net),
	}, nil
}

// Cancel requests a cooperative stop. Safe to call from any goroutine,
// typically a signal handler. The trainer observes the flag at the next
// batch boundary, saves a checkpoint, and stops without starting another
// batch.
func (t *Trainer) Cancel() {
	t.cancel.Store(true)
}

// State returns the trainer's current lifecycle state.
func (t *Trainer) State() State {
	return State(t.state.Load())
}

// Canceled reports whether the last Run stopped early on a cancellation
// request.
func (t *Trainer) Canceled() bool {
	return t.canceled
}

// Run trains the network over src for the configured number of epochs.
//
// Each epoch shuffles the sample order with the seeded generator and
// partitions it into batches. Each batch zeroes the accumulator, sums the
// per-sample gradients, averages them over the batch's sample count, and
// applies the update in place. The cancellation flag is polled only after
// a batch's update has been applied, so a checkpoint written on the way
// out always reflects a whole number of completed batches.
//
// A *nn.DivergenceError from the loss aborts the in-progress epoch
// immediately — the divergent batch's update is not applied — and is
// returned to the caller, who may lower the learning rate and retry from
// the last valid parameters.
func (t *Trainer) Run(src dataset.Source) error {
	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return &nn.StateError{Op: "Trainer.Run", Reason: "trainer has already run"}
	}
	if src.Len() == 0 {
		t.state.Store(int32(StateStopped))
		return fmt.Errorf("train: dataset is empty")
	}

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		stopped, err := t.runEpoch(src, epoch)
		if err != nil {
			t.state.Store(int32(StateStopped))
			return err
		}
		if stopped {
			return nil
		}
		if err := t.saveCheckpoint(); err != nil {
			t.state.Store(int32(StateStopped))
			return err
		}
	}

	t.state.Store(int32(StateStopped))
	return nil
}

func (t *Trainer) runEpoch(src dataset.Source, epoch int) (stopped bool, err error) {
	n := src.Len()
	perm := t.rng.Perm(n)
	batches := (n + t.cfg.BatchSize - 1) / t.cfg.BatchSize

	lossSum := 0.0
	seen := 0
	for b := 0; b < batches; b++ {
		start := b * t.cfg.BatchSize
		end := min(start+t.cfg.BatchSize, n)

		batchLoss, err := t.runBatch(src, perm[start:end])
		if err != nil {
			return false, fmt.Errorf("epoch %d, batch %d: %w", epoch, b, err)
		}
		lossSum += batchLoss
		seen += end - start

		if t.cfg.Progress != nil {
			t.cfg.Progress(Progress{
				Epoch:   epoch,
				Epochs:  t.cfg.Epochs,
				Batch:   b,
				Batches: batches,
				AvgLoss: lossSum / float64(seen),
			})
		}
		if t.batchHook != nil {
			t.batchHook(epoch, b)
		}

		// Cancellation is observed only here, after the update has been
		// applied, never mid-batch.
		if t.cancel.Load() {
			t.state.Store(int32(StateFinishing))
			if err := t.saveCheckpoint(); err != nil {
				t.state.Store(int32(StateStopped))
				return false, err
			}
			t.state.Store(int32(StateStopped))
			t.canceled = true
			return true, nil
		}
	}
	return false, nil
}

// runBatch computes the averaged gradient over one batch and applies it.
// Returns the batch's summed per-sample loss.
func (t *Trainer) runBatch(src dataset.Source, indices []int) (float64, error) {
	t.shared.Zero()

	lossSum := 0.0
	chunks := t.cfg.Parallel.NumChunks(len(indices))
	if chunks == 1 {
		loss, err := t.accumulate(t.net, t.shared, src, indices)
		if err != nil {
			return 0, err
		}
		lossSum = loss
	} else {
		// Each worker gets a clone of the network (its own forward caches)
		// and a private accumulator; both are merged only after ForChunks
		// returns, the batch-boundary serialization point.
		sets := make([]*GradientSet, chunks)
		losses := make([]float64, chunks)
		errs := make([]error, chunks)
		parallel.ForChunks(len(indices), t.cfg.Parallel, func(c, start, end int) {
			worker := t.net.Clone()
			set := NewGradientSet(worker)
			losses[c], errs[c] = t.accumulate(worker, set, src, indices[start:end])
			sets[c] = set
		})
		for _, err := range errs {
			if err != nil {
				return 0, err
			}
		}
		for c, set := range sets {
			if err := t.shared.Merge(set); err != nil {
				return 0, err
			}
			lossSum += losses[c]
		}
	}

	t.shared.Scale(1 / float64(len(indices)))
	if err := t.net.ApplyGradients(t.shared.Gradients(), t.cfg.LearningRate); err != nil {
		return 0, err
	}
	return lossSum, nil
}

// accumulate runs forward, loss, and backward for each indexed sample,
// summing the per-layer gradients into set.
func (t *Trainer) accumulate(net *nn.Network, set *GradientSet, src dataset.Source, indices []int) (float64, error) {
	classes := net.OutDim()
	lossSum := 0.0
	for _, i := range indices {
		sample := src.At(i)
		if sample.Label < 0 || sample.Label >= classes {
			return 0, fmt.Errorf("sample %d has label %d outside [0, %d)", i, sample.Label, classes)
		}
		output, err := net.Forward(sample.Input)
		if err != nil {
			return 0, err
		}

		target := dataset.OneHot(sample.Label, classes)
		loss, lossGrad, err := t.cfg.Loss.Compute(output, target)
		if err != nil {
			return 0, err
		}

		grads, err := net.Backward(lossGrad)
		if err != nil {
			return 0, err
		}
		if err := set.Accumulate(grads); err != nil {
			return 0, err
		}
		lossSum += loss
	}
	return lossSum, nil
}

func (t *Trainer) saveCheckpoint() error {
	if t.cfg.Checkpoint == nil {
		return nil
	}
	if err := t.cfg.Checkpoint.Save(t.net); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
