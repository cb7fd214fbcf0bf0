package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gradnet-ml/gradnet/internal/tensor"
)

// IDX magic numbers (big-endian), per the original MNIST distribution.
const (
	idxImageMagic = 2051 // 0x00000803: unsigned byte, 3 dimensions
	idxLabelMagic = 2049 // 0x00000801: unsigned byte, 1 dimension
)

// NumClasses is the MNIST class count.
const NumClasses = 10

// ImagePixels is the flattened size of one 28x28 MNIST image.
const ImagePixels = 28 * 28

// LoadMNIST loads an MNIST dataset split from the standard IDX files in
// dir: train-{images,labels}-idx?-ubyte for the training split,
// t10k-{images,labels}-idx?-ubyte for the test split. Pixels are
// normalized from 0–255 to [0, 1].
func LoadMNIST(dir string, train bool) (InMemory, error) {
	imageFile := filepath.Join(dir, "t10k-images-idx3-ubyte")
	labelFile := filepath.Join(dir, "t10k-labels-idx1-ubyte")
	if train {
		imageFile = filepath.Join(dir, "train-images-idx3-ubyte")
		labelFile = filepath.Join(dir, "train-labels-idx1-ubyte")
	}
	return LoadIDX(imageFile, labelFile)
}

// LoadIDX loads one image file and its matching label file.
func LoadIDX(imageFile, labelFile string) (InMemory, error) {
	images, err := readIDXImages(imageFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	labels, err := readIDXLabels(labelFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(images), len(labels))
	}

	samples := make(InMemory, len(images))
	for i, img := range images {
		input := make(tensor.Vector, len(img))
		for j, px := range img {
			input[j] = float64(px) / 255.0
		}
		if labels[i] >= NumClasses {
			return nil, fmt.Errorf("label out of range at sample %d: %d", i, labels[i])
		}
		samples[i] = Sample{Input: input, Label: int(labels[i])}
	}
	return samples, nil
}

// readIDXImages reads an IDX image file.
//
// Layout:
//
//	magic number: 4 bytes (2051)
//	number of images, rows, cols: 4 bytes each
//	pixel data: unsigned bytes (0-255)
func readIDXImages(filename string) ([][]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != idxImageMagic {
		return nil, fmt.Errorf("invalid image magic number: got %d, want %d", magic, idxImageMagic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(file, binary.BigEndian, &numImages); err != nil {
		return nil, err
	}
	if err := binary.Read(file, binary.BigEndian, &numRows); err != nil {
		return nil, err
	}
	if err := binary.Read(file, binary.BigEndian, &numCols); err != nil {
		return nil, err
	}

	imageSize := int(numRows * numCols)
	images := make([][]byte, numImages)
	for i := range images {
		images[i] = make([]byte, imageSize)
		if _, err := io.ReadFull(file, images[i]); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
	}
	return images, nil
}

// readIDXLabels reads an IDX label file.
//
// Layout:
//
//	magic number: 4 bytes (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
func readIDXLabels(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != idxLabelMagic {
		return nil, fmt.Errorf("invalid label magic number: got %d, want %d", magic, idxLabelMagic)
	}

	var numLabels uint32
	if err := binary.Read(file, binary.BigEndian, &numLabels); err != nil {
		return nil, err
	}

	labels := make([]byte, numLabels)
	if _, err := io.ReadFull(file, labels); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}
