package nn

import (
	"math/rand"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// Randn fills a new tensor with standard normal values divided by scale.
//
// Parameters:
//   - shape: Shape of the tensor (must be valid)
//   - scale: Divisor applied to every sample
//   - rng: Source of randomness; a seeded source makes initialization reproducible
//
// Conv uses scale = filterSize*filterSize, Dense uses scale = inputLen.
func Randn(shape tensor.Shape, scale float64, rng *rand.Rand) *tensor.Tensor {
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for weight initialization (not security-critical)
		data[i] = rng.NormFloat64() / scale
	}
	return t
}
