package dataset

import (
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"sort"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// LoadImageFolder reads a directory laid out as one subdirectory per class:
//
//	dir/cat/001.jpg
//	dir/dog/001.png
//
// Class labels follow the sorted subdirectory names. Every image is resized
// to width×height and converted to channels 1 (luminance) or 3 (RGB).
// Files that are not decodable images are skipped. Returns the set and the
// class names in label order.
func LoadImageFolder(dir string, width, height, channels int) (*Set, []string, error) {
	if width <= 0 || height <= 0 {
		return nil, nil, errors.Errorf("dataset: invalid image size %dx%d", width, height)
	}
	if channels != 1 && channels != 3 {
		return nil, nil, errors.Errorf("dataset: channels must be 1 or 3, got %d", channels)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", dir)
	}
	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	sort.Strings(classes)
	if len(classes) < 2 {
		return nil, nil, errors.Errorf("dataset: %s needs at least two class directories, found %d", dir, len(classes))
	}

	set := &Set{NumClasses: len(classes)}
	for label, class := range classes {
		files, err := os.ReadDir(filepath.Join(dir, class))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "read class %s", class)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			img, err := decodeFile(filepath.Join(dir, class, f.Name()))
			if errors.Is(err, image.ErrFormat) {
				continue
			}
			if err != nil {
				return nil, nil, err
			}
			set.Examples = append(set.Examples, Example{
				Image: ImageTensor(img, width, height, channels),
				Label: label,
			})
		}
	}
	if len(set.Examples) == 0 {
		return nil, nil, errors.Wrapf(ErrEmpty, "no images under %s", dir)
	}
	return set, classes, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// ImageTensor resizes src to width×height (bicubic, skipped when the size
// already matches) and returns a [height, width, channels] tensor of 8-bit
// intensities.
func ImageTensor(src image.Image, width, height, channels int) *tensor.Tensor {
	b := src.Bounds()
	if b.Dx() != width || b.Dy() != height {
		src = resize.Resize(uint(width), uint(height), src, resize.Bicubic)
		b = src.Bounds()
	}

	out := tensor.Zeros(tensor.Shape{height, width, channels})
	data := out.Data()
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// RGBA returns 16-bit channels.
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if channels == 1 {
				data[i] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 257
				i++
				continue
			}
			data[i] = float64(r >> 8)
			data[i+1] = float64(g >> 8)
			data[i+2] = float64(bl >> 8)
			i += 3
		}
	}
	return out
}
