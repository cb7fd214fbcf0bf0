package serialization

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gradnet-ml/gradnet/internal/nn"
	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// Load reads a checkpoint from path and reconstructs its network.
//
// The magic and version are validated before anything else is read.
// Structural problems return an error matching ErrFormat; inconsistent
// dimensions between consecutive layers return a *tensor.ShapeError
// before that layer's parameter buffers are allocated.
func Load(path string) (*nn.Network, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer file.Close()

	net, err := ReadFrom(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", path, err)
	}
	return net, nil
}

// ReadFrom reads a checkpoint from an arbitrary reader.
func ReadFrom(r io.Reader) (*nn.Network, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, wrapTruncated("magic bytes", err)
	}
	if string(magic) != MagicBytes {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, magic)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, wrapTruncated("version", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	var layerCount uint32
	if err := binary.Read(r, binary.LittleEndian, &layerCount); err != nil {
		return nil, wrapTruncated("layer count", err)
	}
	if layerCount == 0 || layerCount > maxLayerCount {
		return nil, fmt.Errorf("%w: layer count %d out of range", ErrFormat, layerCount)
	}

	layers := make([]*nn.Layer, 0, layerCount)
	prevOut := -1
	for i := 0; i < int(layerCount); i++ {
		layer, err := readLayer(r, i, prevOut)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
		prevOut = layer.OutDim()
	}

	return nn.New(layers...)
}

// readLayer reads one layer record. The declared dimensions are validated
// against the previous layer's output dimension before any parameter
// buffer is allocated.
func readLayer(r io.Reader, index, prevOut int) (*nn.Layer, error) {
	var inDim, outDim uint32
	if err := binary.Read(r, binary.LittleEndian, &inDim); err != nil {
		return nil, wrapTruncated(fmt.Sprintf("layer %d input dim", index), err)
	}
	if err := binary.Read(r, binary.LittleEndian, &outDim); err != nil {
		return nil, wrapTruncated(fmt.Sprintf("layer %d output dim", index), err)
	}
	if inDim == 0 || outDim == 0 || inDim > maxLayerDim || outDim > maxLayerDim {
		return nil, fmt.Errorf("%w: layer %d dimensions %dx%d out of range", ErrFormat, index, outDim, inDim)
	}
	if prevOut >= 0 && int(inDim) != prevOut {
		return nil, &tensor.ShapeError{
			Op:   "serialization.Load",
			Want: []int{prevOut},
			Got:  []int{int(inDim)},
		}
	}

	var code uint8
	if err := binary.Read(r, binary.LittleEndian, &code); err != nil {
		return nil, wrapTruncated(fmt.Sprintf("layer %d activation", index), err)
	}
	activation := nn.Activation(code)
	if !activation.Valid() {
		return nil, fmt.Errorf("%w: layer %d has unknown activation code %d", ErrFormat, index, code)
	}

	weights := make([]float64, int(inDim)*int(outDim))
	if err := binary.Read(r, binary.LittleEndian, weights); err != nil {
		return nil, wrapTruncated(fmt.Sprintf("layer %d weights", index), err)
	}
	bias := make([]float64, outDim)
	if err := binary.Read(r, binary.LittleEndian, bias); err != nil {
		return nil, wrapTruncated(fmt.Sprintf("layer %d biases", index), err)
	}

	w, err := tensor.NewMatrixFromData(int(outDim), int(inDim), weights)
	if err != nil {
		return nil, err
	}
	return nn.NewLayerFromParams(w, bias, activation)
}

// wrapTruncated maps short reads onto ErrTruncated, keeping the section
// name for the message.
func wrapTruncated(section string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: while reading %s", ErrTruncated, section)
	}
	return fmt.Errorf("failed to read %s: %w", section, err)
}
