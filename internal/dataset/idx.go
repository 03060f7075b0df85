package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/tensor"
)

const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049

	// maxIDXSide bounds rows and cols read from a header.
	maxIDXSide = 1 << 14
)

// LoadIDX reads an MNIST-style pair of IDX files into a Set.
//
// Files ending in ".gz" are decompressed on the fly. limit > 0 caps the
// number of examples read. Images get shape [rows, cols, 1] and the set has
// 10 classes.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images, rows, cols: 4 bytes each, big endian
//	pixel data: unsigned bytes (0-255)
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func LoadIDX(imagesPath, labelsPath string, limit int) (*Set, error) {
	images, rows, cols, err := readIDXImages(imagesPath, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", imagesPath)
	}
	labels, err := readIDXLabels(labelsPath, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", labelsPath)
	}
	if len(images) != len(labels) {
		return nil, errors.Errorf("dataset: %d images but %d labels", len(images), len(labels))
	}
	if len(images) == 0 {
		return nil, ErrEmpty
	}

	set := &Set{NumClasses: 10, Examples: make([]Example, len(images))}
	shape := tensor.Shape{rows, cols, 1}
	for i, raw := range images {
		data := make([]float64, len(raw))
		for j, b := range raw {
			data[j] = float64(b)
		}
		img, err := tensor.FromSlice(shape, data)
		if err != nil {
			return nil, err
		}
		set.Examples[i] = Example{Image: img, Label: int(labels[i])}
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// openIDX opens path, transparently un-gzipping *.gz files.
func openIDX(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return bufio.NewReader(file), file.Close, nil
	}
	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, nil, errors.Wrap(err, "gzip")
	}
	return gz, func() error {
		gz.Close()
		return file.Close()
	}, nil
}

func readHeader(r io.Reader, magic uint32, fields ...*uint32) error {
	var got uint32
	if err := binary.Read(r, binary.BigEndian, &got); err != nil {
		return errors.Wrap(err, "failed to read magic")
	}
	if got != magic {
		return errors.Errorf("invalid magic number: got %d, want %d", got, magic)
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return errors.Wrap(err, "failed to read header")
		}
	}
	return nil
}

func readIDXImages(path string, limit int) ([][]byte, int, int, error) {
	r, closeFn, err := openIDX(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer closeFn()

	var numImages, numRows, numCols uint32
	if err := readHeader(r, idxImagesMagic, &numImages, &numRows, &numCols); err != nil {
		return nil, 0, 0, err
	}
	rows, cols := int(numRows), int(numCols)
	if rows <= 0 || cols <= 0 || rows > maxIDXSide || cols > maxIDXSide {
		return nil, 0, 0, errors.Errorf("invalid image size %dx%d", rows, cols)
	}

	n := capCount(numImages, limit)
	imageSize := rows * cols
	// The count comes from the header, so grow with the data actually read.
	var images [][]byte
	for i := 0; i < n; i++ {
		img := make([]byte, imageSize)
		if _, err := io.ReadFull(r, img); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, 0, 0, errors.Wrapf(err, "failed to read image %d of %d", i, n)
		}
		images = append(images, img)
	}
	return images, rows, cols, nil
}

func readIDXLabels(path string, limit int) ([]byte, error) {
	r, closeFn, err := openIDX(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var numLabels uint32
	if err := readHeader(r, idxLabelsMagic, &numLabels); err != nil {
		return nil, err
	}

	n := capCount(numLabels, limit)
	labels, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read labels")
	}
	if len(labels) < n {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "failed to read labels: got %d of %d", len(labels), n)
	}
	return labels, nil
}

// capCount applies limit to a header count.
func capCount(count uint32, limit int) int {
	n := int(count)
	if limit > 0 && limit < n {
		n = limit
	}
	return n
}
