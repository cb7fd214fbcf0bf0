package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/gradnet-ml/gradnet/internal/nn"
	"github.com/gradnet-ml/gradnet/internal/tensor"
)

func testNetwork(t *testing.T) *nn.Network {
	t.Helper()
	net, err := nn.NewMLP([]int{3, 4, 2}, nn.Sigmoid, nn.Softmax, rand.NewSource(17))
	require.NoError(t, err)
	return net
}

func TestSaveLoadRoundTrip(t *testing.T) {
	net := testNetwork(t)
	path := filepath.Join(t.TempDir(), "model.ckpt")

	require.NoError(t, Save(net, path))
	loaded, err := Load(path)
	require.NoError(t, err)

	require.Len(t, loaded.Layers(), len(net.Layers()))
	for i, want := range net.Layers() {
		got := loaded.Layers()[i]
		assert.Equal(t, want.InDim(), got.InDim())
		assert.Equal(t, want.OutDim(), got.OutDim())
		assert.Equal(t, want.Activation(), got.Activation())
		// float64 values must survive bit-exactly.
		assert.Equal(t, want.Weights().Data, got.Weights().Data)
		assert.Equal(t, want.Bias(), got.Bias())
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.ckpt")

	first := testNetwork(t)
	require.NoError(t, Save(first, path))

	second, err := nn.NewMLP([]int{3, 4, 2}, nn.Sigmoid, nn.Softmax, rand.NewSource(99))
	require.NoError(t, err)
	require.NoError(t, Save(second, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, second.Layers()[0].Weights().Data, loaded.Layers()[0].Weights().Data)

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.ckpt", entries[0].Name())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ckpt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := ReadFrom(bytes.NewReader([]byte("JUNKxxxxxxxxxxxx")))
	assert.True(t, errors.Is(err, ErrInvalidMagic))
	assert.True(t, errors.Is(err, ErrFormat), "specific errors match the format category")
}

func TestReadRejectsUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicBytes)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(99)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))

	_, err := ReadFrom(&buf)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestReadRejectsZeroLayers(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicBytes)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(FormatVersion)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0)))

	_, err := ReadFrom(&buf)
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestReadRejectsTruncatedData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, testNetwork(t)))
	full := buf.Bytes()

	// Cut in the middle of the header, a layer record, and the payload.
	for _, cut := range []int{2, 6, 13, len(full) / 2, len(full) - 1} {
		_, err := ReadFrom(bytes.NewReader(full[:cut]))
		assert.Truef(t, errors.Is(err, ErrTruncated), "cut at %d: %v", cut, err)
	}
}

func TestReadRejectsBadActivationCode(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicBytes)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(FormatVersion)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2))) // in
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // out
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(200)))

	_, err := ReadFrom(&buf)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Contains(t, err.Error(), "activation code")
}

func TestReadRejectsBrokenDimChain(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicBytes)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(FormatVersion)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2)))

	// Layer 0: 2 in, 3 out, sigmoid.
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(3)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint8(nn.Sigmoid)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, make([]float64, 2*3+3)))

	// Layer 1 declares 4 inputs against layer 0's 3 outputs.
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(4)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))

	_, err := ReadFrom(&buf)
	var shapeErr *tensor.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []int{3}, shapeErr.Want)
	assert.Equal(t, []int{4}, shapeErr.Got)
}

func TestReadRejectsAbsurdDimensions(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(MagicBytes)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(FormatVersion)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1<<30)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))

	_, err := ReadFrom(&buf)
	assert.True(t, errors.Is(err, ErrFormat))
}
