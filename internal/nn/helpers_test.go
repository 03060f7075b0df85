package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/tinycnn/internal/tensor"
)

func fromSlice(t *testing.T, shape tensor.Shape, data []float64) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(shape, data)
	require.NoError(t, err)
	return x
}

func randomTensor(shape tensor.Shape, rng *rand.Rand) *tensor.Tensor {
	x := tensor.Zeros(shape)
	for i := range x.Data() {
		x.Data()[i] = rng.Float64()*2 - 1
	}
	return x
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}
