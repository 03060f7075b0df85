package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tinycnn/internal/tensor"
)

func writeIDX(t *testing.T, dir string, gz bool, images [][]byte, rows, cols int, labels []byte) (string, string) {
	t.Helper()

	var img bytes.Buffer
	require.NoError(t, binary.Write(&img, binary.BigEndian, []uint32{idxImagesMagic, uint32(len(images)), uint32(rows), uint32(cols)}))
	for _, im := range images {
		img.Write(im)
	}
	var lbl bytes.Buffer
	require.NoError(t, binary.Write(&lbl, binary.BigEndian, []uint32{idxLabelsMagic, uint32(len(labels))}))
	lbl.Write(labels)

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if gz {
			path += ".gz"
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, err := w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			data = buf.Bytes()
		}
		require.NoError(t, os.WriteFile(path, data, 0o600))
		return path
	}
	return write("images-idx3-ubyte", img.Bytes()), write("labels-idx1-ubyte", lbl.Bytes())
}

func TestLoadIDX(t *testing.T) {
	images := [][]byte{
		{0, 255, 10, 20, 30, 40},
		{1, 2, 3, 4, 5, 6},
		{9, 9, 9, 9, 9, 9},
	}
	labels := []byte{7, 1, 7}

	for _, gz := range []bool{false, true} {
		imgPath, lblPath := writeIDX(t, t.TempDir(), gz, images, 2, 3, labels)

		set, err := LoadIDX(imgPath, lblPath, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, set.Len())
		assert.Equal(t, 10, set.NumClasses)
		assert.Equal(t, tensor.Shape{2, 3, 1}, set.Shape())
		assert.Equal(t, 255.0, set.Examples[0].Image.At(0, 1, 0))
		assert.Equal(t, 40.0, set.Examples[0].Image.At(1, 2, 0))
		assert.Equal(t, 1, set.Examples[1].Label)

		limited, err := LoadIDX(imgPath, lblPath, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, limited.Len())
	}
}

func TestLoadIDX_BadMagic(t *testing.T) {
	imgPath, lblPath := writeIDX(t, t.TempDir(), false, [][]byte{{1}}, 1, 1, []byte{0})

	_, err := LoadIDX(lblPath, imgPath, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic number")

	_, err = LoadIDX(filepath.Join(t.TempDir(), "missing"), lblPath, 0)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadIDX_CorruptHeader(t *testing.T) {
	dir := t.TempDir()
	writeRaw := func(name string, header []uint32, body []byte) string {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.BigEndian, header))
		buf.Write(body)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
		return path
	}
	labels := writeRaw("labels", []uint32{idxLabelsMagic, 1}, []byte{0})

	// Claims two billion images but holds one.
	images := writeRaw("many", []uint32{idxImagesMagic, 1 << 31, 2, 2}, []byte{1, 2, 3, 4})
	_, err := LoadIDX(images, labels, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	// rows*cols would wrap around in 32 bits.
	images = writeRaw("wide", []uint32{idxImagesMagic, 1, 1 << 16, 1 << 16}, nil)
	_, err = LoadIDX(images, labels, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid image size")

	// Claims more labels than the file holds.
	images = writeRaw("one", []uint32{idxImagesMagic, 1, 2, 2}, []byte{1, 2, 3, 4})
	labels = writeRaw("short", []uint32{idxLabelsMagic, 1 << 30}, []byte{0})
	_, err = LoadIDX(images, labels, 0)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestBinary(t *testing.T) {
	set, err := Synthetic(4, 5, 1)
	require.NoError(t, err)
	set.NumClasses = 10
	set.Examples[0].Label = 3
	set.Examples[1].Label = 8
	set.Examples[2].Label = 3
	set.Examples[3].Label = 5

	bin, err := Binary(set, 3, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, bin.NumClasses)
	assert.Equal(t, 3, bin.Len())
	assert.Equal(t, []int{2, 1}, bin.ClassCounts())
	assert.Equal(t, 1, bin.Examples[1].Label)

	_, err = Binary(set, 0, 1)
	assert.True(t, errors.Is(err, ErrEmpty))
	_, err = Binary(set, 3, 3)
	assert.Error(t, err)
}

func TestSplitAndLimit(t *testing.T) {
	set, _ := Synthetic(10, 4, 1)

	train, val := set.Split(0.2)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, val.Len())
	assert.Same(t, set.Examples[8].Image, val.Examples[0].Image)

	assert.Equal(t, 3, set.Limit(3).Len())
	assert.Equal(t, 10, set.Limit(0).Len())
	assert.Equal(t, 10, set.Limit(50).Len())
}

func TestStratifiedSplit_KeepsEveryClass(t *testing.T) {
	dir := t.TempDir()
	for _, class := range []string{"cat", "dog"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, class), 0o755))
		for i := 0; i < 5; i++ {
			writePNG(t, filepath.Join(dir, class, fmt.Sprintf("%d.png", i)), 4, 4, color.Gray{Y: uint8(40 * i)})
		}
	}
	set, _, err := LoadImageFolder(dir, 4, 4, 1)
	require.NoError(t, err)
	require.Equal(t, []int{5, 5}, set.ClassCounts())

	train, val := set.StratifiedSplit(0.2, 1)
	assert.Equal(t, []int{4, 4}, train.ClassCounts())
	assert.Equal(t, []int{1, 1}, val.ClassCounts())

	again, valAgain := set.StratifiedSplit(0.2, 1)
	for i := range train.Examples {
		assert.Same(t, train.Examples[i].Image, again.Examples[i].Image)
	}
	for i := range val.Examples {
		assert.Same(t, val.Examples[i].Image, valAgain.Examples[i].Image)
	}

	all, none := set.StratifiedSplit(0, 1)
	assert.Equal(t, 10, all.Len())
	assert.Equal(t, 0, none.Len())
}

func TestValidate(t *testing.T) {
	set, _ := Synthetic(3, 4, 1)
	require.NoError(t, set.Validate())

	set.Examples[1].Label = 2
	assert.Error(t, set.Validate())

	set.Examples[1].Label = 1
	set.Examples[2].Image = tensor.Zeros(tensor.Shape{5, 4, 1})
	assert.True(t, errors.Is(set.Validate(), tensor.ErrShapeMismatch))

	assert.True(t, errors.Is((&Set{NumClasses: 2}).Validate(), ErrEmpty))
}

func TestSynthetic_Deterministic(t *testing.T) {
	a, err := Synthetic(6, 8, 7)
	require.NoError(t, err)
	b, err := Synthetic(6, 8, 7)
	require.NoError(t, err)

	for i := range a.Examples {
		assert.Equal(t, a.Examples[i].Label, b.Examples[i].Label)
		assert.Equal(t, a.Examples[i].Image.Data(), b.Examples[i].Image.Data())
		assert.LessOrEqual(t, tensor.Max(a.Examples[i].Image), 255.0)
	}
	assert.Equal(t, []int{3, 3}, a.ClassCounts())

	_, err = Synthetic(0, 8, 7)
	assert.True(t, errors.Is(err, ErrEmpty))
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestLoadImageFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dog"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "cat"), 0o755))

	writePNG(t, filepath.Join(dir, "cat", "a.png"), 8, 8, color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "dog", "a.png"), 4, 4, color.White)
	writePNG(t, filepath.Join(dir, "dog", "b.png"), 16, 12, color.Black)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dog", "notes.txt"), []byte("skip me"), 0o600))

	set, classes, err := LoadImageFolder(dir, 4, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, classes)
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []int{1, 2}, set.ClassCounts())
	require.NoError(t, set.Validate())

	red := set.Examples[0].Image
	assert.Equal(t, tensor.Shape{4, 4, 3}, red.Shape())
	assert.InDelta(t, 255.0, red.At(1, 1, 0), 1)
	assert.InDelta(t, 0.0, red.At(1, 1, 1), 1)

	gray, _, err := LoadImageFolder(dir, 4, 4, 1)
	require.NoError(t, err)
	assert.InDelta(t, 255.0, gray.Examples[1].Image.At(0, 0, 0), 1)
	assert.InDelta(t, 0.0, gray.Examples[2].Image.At(0, 0, 0), 1)

	_, _, err = LoadImageFolder(dir, 4, 4, 2)
	assert.Error(t, err)
}
