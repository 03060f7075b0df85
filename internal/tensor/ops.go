package tensor

import (
	"math"

	"github.com/pkg/errors"
)

// Add returns a + b element-wise.
func Add(a, b *Tensor) (*Tensor, error) {
	return zipWith("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b element-wise.
func Sub(a, b *Tensor) (*Tensor, error) {
	return zipWith("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b element-wise.
func Mul(a, b *Tensor) (*Tensor, error) {
	return zipWith("mul", a, b, func(x, y float64) float64 { return x * y })
}

func zipWith(op string, a, b *Tensor, f func(x, y float64) float64) (*Tensor, error) {
	if err := checkSame(op, a.shape, b.shape); err != nil {
		return nil, err
	}
	out := Zeros(a.shape)
	for i := range a.data {
		out.data[i] = f(a.data[i], b.data[i])
	}
	return out, nil
}

// AddScaled performs t += alpha * g in place.
//
// Gradient descent uses it as t.AddScaled(-lr, grad).
func (t *Tensor) AddScaled(alpha float64, g *Tensor) error {
	if err := checkSame("add scaled", t.shape, g.shape); err != nil {
		return err
	}
	for i, v := range g.data {
		t.data[i] += alpha * v
	}
	return nil
}

// Scale returns t * s.
func Scale(t *Tensor, s float64) *Tensor {
	out := Zeros(t.shape)
	for i, v := range t.data {
		out.data[i] = v * s
	}
	return out
}

// Apply returns f applied to every element of t.
func Apply(t *Tensor, f func(float64) float64) *Tensor {
	out := Zeros(t.shape)
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// Exp returns e^t element-wise.
func Exp(t *Tensor) *Tensor {
	return Apply(t, math.Exp)
}

// Sum reduces every axis with addition, in storage order.
func Sum(t *Tensor) float64 {
	var s float64
	for _, v := range t.data {
		s += v
	}
	return s
}

// Max reduces every axis with max. NaN elements are ignored unless all are NaN.
func Max(t *Tensor) float64 {
	return t.data[Argmax(t)]
}

// Argmax returns the flat offset of the first maximal element.
func Argmax(t *Tensor) int {
	best := 0
	for i := 1; i < len(t.data); i++ {
		if t.data[i] > t.data[best] || math.IsNaN(t.data[best]) {
			best = i
		}
	}
	return best
}

// Dot returns the sum of a*b over all elements. Shapes must match.
func Dot(a, b *Tensor) (float64, error) {
	if err := checkSame("dot", a.shape, b.shape); err != nil {
		return 0, err
	}
	var s float64
	for i, v := range a.data {
		s += v * b.data[i]
	}
	return s, nil
}

// Outer returns the rank-2 outer product of two rank-1 tensors.
func Outer(a, b *Tensor) (*Tensor, error) {
	if a.shape.Rank() != 1 || b.shape.Rank() != 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "outer: need vectors, got %v and %v", a.shape, b.shape)
	}
	n, m := len(a.data), len(b.data)
	out := Zeros(Shape{n, m})
	for i, x := range a.data {
		row := out.data[i*m : (i+1)*m]
		for j, y := range b.data {
			row[j] = x * y
		}
	}
	return out, nil
}

// VecMat returns x·W for a vector x of length n and a matrix W of shape (n, m).
func VecMat(x, w *Tensor) (*Tensor, error) {
	if x.shape.Rank() != 1 || w.shape.Rank() != 2 || w.shape[0] != len(x.data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "vecmat: %v · %v", x.shape, w.shape)
	}
	n, m := w.shape[0], w.shape[1]
	out := Zeros(Shape{m})
	for i := 0; i < n; i++ {
		xi := x.data[i]
		row := w.data[i*m : (i+1)*m]
		for j, v := range row {
			out.data[j] += xi * v
		}
	}
	return out, nil
}

// MatVec returns W·v for a matrix W of shape (n, m) and a vector v of length m.
func MatVec(w, v *Tensor) (*Tensor, error) {
	if v.shape.Rank() != 1 || w.shape.Rank() != 2 || w.shape[1] != len(v.data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "matvec: %v · %v", w.shape, v.shape)
	}
	n, m := w.shape[0], w.shape[1]
	out := Zeros(Shape{n})
	for i := 0; i < n; i++ {
		row := w.data[i*m : (i+1)*m]
		var s float64
		for j, x := range row {
			s += x * v.data[j]
		}
		out.data[i] = s
	}
	return out, nil
}

// IsFinite reports whether every element is neither NaN nor ±Inf.
func IsFinite(t *Tensor) bool {
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
