// Package tensor provides dense float64 tensors for the tinycnn layers.
//
// A Tensor has a fixed shape and mutable contents stored contiguously in
// row-major order. Element-wise operations require identical shapes and
// report ErrShapeMismatch otherwise.
package tensor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrShapeMismatch is returned when operand shapes are incompatible.
	ErrShapeMismatch = errors.New("tensor: shape mismatch")
	// ErrInvalidShape is returned for shapes with non-positive dimensions.
	ErrInvalidShape = errors.New("tensor: invalid shape")
)

// Tensor is a multi-dimensional array of float64 values.
//
// The shape never changes after construction; Reshape returns a new
// Tensor sharing the same backing storage.
type Tensor struct {
	shape   Shape
	strides []int
	data    []float64
}

// New creates a zero-filled tensor with the given shape.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.Strides(),
		data:    make([]float64, shape.NumElements()),
	}, nil
}

// Zeros is like New but panics on an invalid shape.
//
// Use it only for shapes already validated by the caller.
func Zeros(shape Shape) *Tensor {
	t, err := New(shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Full creates a tensor with every element set to v.
func Full(shape Shape, v float64) (*Tensor, error) {
	t, err := New(shape)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = v
	}
	return t, nil
}

// FromSlice creates a tensor that takes ownership of data.
//
// len(data) must equal shape.NumElements().
func FromSlice(shape Shape, data []float64) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "from slice: %d values for shape %v", len(data), shape)
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.Strides(),
		data:    data,
	}, nil
}

// Shape returns the tensor's shape. Callers must not modify it.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the backing storage in row-major order.
// WARNING: direct access to the tensor's memory.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Offset converts a multi-dimensional index into a flat offset.
// Panics if the index rank or any coordinate is out of range.
func (t *Tensor) Offset(idx ...int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank %d != tensor rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off += v * t.strides[i]
	}
	return off
}

// At returns the element at idx.
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.Offset(idx...)]
}

// Set stores v at idx.
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.Offset(idx...)] = v
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{
		shape:   t.shape.Clone(),
		strides: append([]int(nil), t.strides...),
		data:    data,
	}
}

// Reshape returns a view of t with a new shape and the same element count.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(t.data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "reshape %v to %v", t.shape, shape)
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.Strides(),
		data:    t.data,
	}, nil
}

// Flatten returns a rank-1 view of t.
func (t *Tensor) Flatten() *Tensor {
	shape := Shape{len(t.data)}
	return &Tensor{
		shape:   shape,
		strides: shape.Strides(),
		data:    t.data,
	}
}

// String returns a short description, eliding large contents.
func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor%v", []int(t.shape))
	if len(t.data) <= 16 {
		fmt.Fprintf(&sb, "%v", t.data)
	}
	return sb.String()
}
