package dataset

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// Synthetic generates n single-channel size×size images of a bright bar on
// a noisy dark background. Label 0 is a horizontal bar, label 1 a vertical
// one, alternating so both classes are balanced. The same seed always
// yields the same set.
func Synthetic(n, size int, seed int64) (*Set, error) {
	if n <= 0 {
		return nil, errors.Wrapf(ErrEmpty, "synthetic: n=%d", n)
	}
	if size < 3 {
		return nil, errors.Errorf("dataset: synthetic image size must be >= 3, got %d", size)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible data
	set := &Set{NumClasses: 2, Examples: make([]Example, n)}
	for i := range set.Examples {
		label := i % 2
		img := tensor.Zeros(tensor.Shape{size, size, 1})
		for j := range img.Data() {
			img.Data()[j] = float64(rng.Intn(40))
		}

		pos := 1 + rng.Intn(size-2)
		for k := 0; k < size; k++ {
			v := float64(200 + rng.Intn(56))
			if label == 0 {
				img.Set(v, pos, k, 0)
			} else {
				img.Set(v, k, pos, 0)
			}
		}
		set.Examples[i] = Example{Image: img, Label: label}
	}
	return set, nil
}
