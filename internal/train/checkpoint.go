package train

import (
	"github.com/gradnet-ml/gradnet/internal/nn"
	"github.com/gradnet-ml/gradnet/internal/serialization"
)

// Saver persists a network at epoch boundaries and on cancellation.
type Saver interface {
	Save(net *nn.Network) error
}

// CheckpointFile saves checkpoints to a fixed path, atomically replacing
// any previous checkpoint.
type CheckpointFile struct {
	Path string
}

// Save writes the network to the configured path.
func (c CheckpointFile) Save(net *nn.Network) error {
	return serialization.Save(net, c.Path)
}
