package nn

import (
	"iter"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// Region is one window of a rank-3 (height, width, channels) input.
//
// Row and Col index the output grid, Top and Left locate the window in the
// input. Patch is a copy of the window with shape (size, size, channels).
type Region struct {
	Row, Col  int
	Top, Left int
	Patch     *tensor.Tensor
}

// GridSize returns how many windows of the given size and stride fit along
// a dimension of length n. Returns 0 when size > n.
func GridSize(n, size, stride int) int {
	if size > n {
		return 0
	}
	return (n-size)/stride + 1
}

// Regions enumerates the size×size windows of input, stepping by stride,
// in row-major order of the output grid.
//
// The sequence holds no state of its own: ranging over it again yields the
// same windows, so Forward and Backward can each regenerate them from the
// cached input.
//
// Example:
//
//	for r := range nn.Regions(image, 3, 1) {
//	    out.Set(dot(r.Patch, filter), r.Row, r.Col, f)
//	}
func Regions(input *tensor.Tensor, size, stride int) iter.Seq[Region] {
	return func(yield func(Region) bool) {
		shape := input.Shape()
		outH := GridSize(shape[0], size, stride)
		outW := GridSize(shape[1], size, stride)
		for i := 0; i < outH; i++ {
			for j := 0; j < outW; j++ {
				top, left := i*stride, j*stride
				r := Region{
					Row:   i,
					Col:   j,
					Top:   top,
					Left:  left,
					Patch: patch(input, top, left, size),
				}
				if !yield(r) {
					return
				}
			}
		}
	}
}

// patch copies input[top:top+size, left:left+size, :].
func patch(input *tensor.Tensor, top, left, size int) *tensor.Tensor {
	shape := input.Shape()
	w, c := shape[1], shape[2]
	src := input.Data()

	out := tensor.Zeros(tensor.Shape{size, size, c})
	dst := out.Data()
	rowLen := size * c
	for y := 0; y < size; y++ {
		start := ((top+y)*w + left) * c
		copy(dst[y*rowLen:(y+1)*rowLen], src[start:start+rowLen])
	}
	return out
}
