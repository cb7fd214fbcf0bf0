package serialization

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gradnet-ml/gradnet/internal/nn"
)

// Save writes the network's checkpoint to path.
//
// The checkpoint is written to a temporary file in the same directory and
// renamed over path only once fully flushed, so an existing checkpoint is
// never left half-overwritten. A failed attempt is retried once; the
// second failure is returned.
func Save(net *nn.Network, path string) error {
	err := saveOnce(net, path)
	if err == nil {
		return nil
	}
	// One retry covers transient storage hiccups; anything persistent is
	// the caller's decision.
	if retryErr := saveOnce(net, path); retryErr == nil {
		return nil
	}
	return err
}

func saveOnce(net *nn.Network, path string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ckpt-*")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = WriteTo(w, net); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move checkpoint into place: %w", err)
	}
	return nil
}

// WriteTo writes the checkpoint to an arbitrary writer. Useful for
// buffers and tests; Save adds the atomic-rename file discipline on top.
func WriteTo(w io.Writer, net *nn.Network) error {
	if _, err := w.Write([]byte(MagicBytes)); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}

	layers := net.Layers()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(layers))); err != nil {
		return fmt.Errorf("failed to write layer count: %w", err)
	}

	for i, layer := range layers {
		if err := binary.Write(w, binary.LittleEndian, uint32(layer.InDim())); err != nil {
			return fmt.Errorf("failed to write layer %d input dim: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(layer.OutDim())); err != nil {
			return fmt.Errorf("failed to write layer %d output dim: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint8(layer.Activation())); err != nil {
			return fmt.Errorf("failed to write layer %d activation: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, layer.Weights().Data); err != nil {
			return fmt.Errorf("failed to write layer %d weights: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, []float64(layer.Bias())); err != nil {
			return fmt.Errorf("failed to write layer %d biases: %w", i, err)
		}
	}
	return nil
}
