// Package dataset supplies decoded examples to the tinycnn model.
//
// Loaders produce a Set of images with shape [height, width, channels] and
// raw pixel values in [0, 255], paired with integer labels. Normalization
// is left to the model.
package dataset

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// ErrEmpty is returned when a loader or filter produces no examples.
var ErrEmpty = errors.New("dataset: no examples")

// Example is one image and its class label.
type Example struct {
	Image *tensor.Tensor // [height, width, channels], values in [0, 255]
	Label int
}

// Set is an in-memory list of examples of a single image shape.
type Set struct {
	Examples   []Example
	NumClasses int
}

// Len returns the number of examples. A nil set is empty.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Examples)
}

// Shape returns the image shape of the first example, or nil for an empty set.
func (s *Set) Shape() tensor.Shape {
	if len(s.Examples) == 0 {
		return nil
	}
	return s.Examples[0].Image.Shape().Clone()
}

// Validate checks that the set is non-empty, every image has the same shape
// and every label is in [0, NumClasses).
func (s *Set) Validate() error {
	if len(s.Examples) == 0 {
		return ErrEmpty
	}
	shape := s.Examples[0].Image.Shape()
	for i, ex := range s.Examples {
		if !ex.Image.Shape().Equal(shape) {
			return errors.Wrapf(tensor.ErrShapeMismatch, "dataset: example %d has shape %v, want %v", i, ex.Image.Shape(), shape)
		}
		if ex.Label < 0 || ex.Label >= s.NumClasses {
			return errors.Errorf("dataset: example %d has label %d, want [0, %d)", i, ex.Label, s.NumClasses)
		}
	}
	return nil
}

// Limit returns a set holding at most n examples (all of them when n <= 0).
func (s *Set) Limit(n int) *Set {
	if n <= 0 || n >= len(s.Examples) {
		return s
	}
	return &Set{Examples: s.Examples[:n], NumClasses: s.NumClasses}
}

// Split divides the set into train and validation parts.
//
// The last valFraction of the examples (rounded down) become the validation
// set; order is preserved. For sets grouped by class, such as those from
// LoadImageFolder, use StratifiedSplit.
func (s *Set) Split(valFraction float64) (train, val *Set) {
	n := len(s.Examples)
	nVal := int(float64(n) * valFraction)
	if nVal < 0 {
		nVal = 0
	}
	if nVal > n {
		nVal = n
	}
	return &Set{Examples: s.Examples[:n-nVal], NumClasses: s.NumClasses},
		&Set{Examples: s.Examples[n-nVal:], NumClasses: s.NumClasses}
}

// StratifiedSplit holds out valFraction of every class (rounded down per
// class) for validation. Examples are visited in a permutation drawn from
// seed, and both parts keep that order, so the same seed always gives the
// same split.
func (s *Set) StratifiedSplit(valFraction float64, seed int64) (train, val *Set) {
	counts := s.ClassCounts()
	want := make([]int, len(counts))
	for c, n := range counts {
		want[c] = min(max(int(float64(n)*valFraction), 0), n)
	}

	train = &Set{NumClasses: s.NumClasses}
	val = &Set{NumClasses: s.NumClasses}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible split
	for _, i := range rng.Perm(len(s.Examples)) {
		ex := s.Examples[i]
		if l := ex.Label; l >= 0 && l < len(want) && want[l] > 0 {
			want[l]--
			val.Examples = append(val.Examples, ex)
			continue
		}
		train.Examples = append(train.Examples, ex)
	}
	return train, val
}

// ClassCounts returns how many examples carry each label.
func (s *Set) ClassCounts() []int {
	counts := make([]int, s.NumClasses)
	for _, ex := range s.Examples {
		if ex.Label >= 0 && ex.Label < len(counts) {
			counts[ex.Label]++
		}
	}
	return counts
}

// Binary keeps the examples labelled negative or positive and relabels them
// 0 and 1 respectively.
func Binary(s *Set, negative, positive int) (*Set, error) {
	if negative == positive {
		return nil, errors.Errorf("dataset: binary classes must differ, got %d twice", negative)
	}
	out := &Set{NumClasses: 2}
	for _, ex := range s.Examples {
		switch ex.Label {
		case negative:
			out.Examples = append(out.Examples, Example{Image: ex.Image, Label: 0})
		case positive:
			out.Examples = append(out.Examples, Example{Image: ex.Image, Label: 1})
		}
	}
	if len(out.Examples) == 0 {
		return nil, errors.Wrapf(ErrEmpty, "no examples with labels %d or %d", negative, positive)
	}
	return out, nil
}
