package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/tinycnn/internal/tensor"
)

func TestGridSize(t *testing.T) {
	assert.Equal(t, 3, GridSize(5, 3, 1))
	assert.Equal(t, 2, GridSize(5, 2, 2))
	assert.Equal(t, 1, GridSize(2, 2, 2))
	assert.Equal(t, 0, GridSize(2, 3, 1))
}

func TestRegions_Coordinates(t *testing.T) {
	// 4x5x2 input, value encodes (y, x, c).
	in := tensor.Zeros(tensor.Shape{4, 5, 2})
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			for c := 0; c < 2; c++ {
				in.Set(float64(100*y+10*x+c), y, x, c)
			}
		}
	}

	var got [][2]int
	for r := range Regions(in, 2, 2) {
		got = append(got, [2]int{r.Row, r.Col})
		assert.Equal(t, tensor.Shape{2, 2, 2}, r.Patch.Shape())
		assert.Equal(t, float64(100*r.Top+10*r.Left+1), r.Patch.At(0, 0, 1))
		assert.Equal(t, float64(100*(r.Top+1)+10*(r.Left+1)), r.Patch.At(1, 1, 0))
	}
	assert.Equal(t, [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, got)
}

func TestRegions_Restartable(t *testing.T) {
	in := randomTensor(tensor.Shape{6, 6, 1}, testRNG())
	seq := Regions(in, 3, 1)

	var first, second []float64
	for r := range seq {
		first = append(first, r.Patch.Data()...)
	}
	for r := range seq {
		second = append(second, r.Patch.Data()...)
	}
	assert.Equal(t, 16*9, len(first))
	assert.Equal(t, first, second)
}

func TestRegions_EarlyStop(t *testing.T) {
	in := tensor.Zeros(tensor.Shape{4, 4, 1})
	n := 0
	for range Regions(in, 1, 1) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}
