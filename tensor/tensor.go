// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/tinycnn/internal/tensor"
)

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// Tensor is a dense float64 tensor.
type Tensor = tensor.Tensor

// Errors returned by tensor operations.
var (
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrInvalidShape  = tensor.ErrInvalidShape
)

// New creates a zero-filled tensor, rejecting shapes with non-positive dimensions.
func New(shape Shape) (*Tensor, error) {
	return tensor.New(shape)
}

// Zeros creates a zero-filled tensor. It panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Full creates a tensor with every element set to v.
func Full(shape Shape, v float64) (*Tensor, error) {
	return tensor.Full(shape, v)
}

// FromSlice wraps data, which must hold exactly shape.NumElements() values.
//
// Example:
//
//	t, err := tensor.FromSlice(tensor.Shape{2, 2}, []float64{1, 2, 3, 4})
func FromSlice(shape Shape, data []float64) (*Tensor, error) {
	return tensor.FromSlice(shape, data)
}

// Add returns a + b.
func Add(a, b *Tensor) (*Tensor, error) { return tensor.Add(a, b) }

// Sub returns a - b.
func Sub(a, b *Tensor) (*Tensor, error) { return tensor.Sub(a, b) }

// Mul returns the element-wise product of a and b.
func Mul(a, b *Tensor) (*Tensor, error) { return tensor.Mul(a, b) }

// Scale returns t * s.
func Scale(t *Tensor, s float64) *Tensor { return tensor.Scale(t, s) }

// Sum adds every element.
func Sum(t *Tensor) float64 { return tensor.Sum(t) }

// Max returns the largest element.
func Max(t *Tensor) float64 { return tensor.Max(t) }

// Argmax returns the flat index of the first largest element.
func Argmax(t *Tensor) int { return tensor.Argmax(t) }

// Dot returns the sum of a*b over all elements.
func Dot(a, b *Tensor) (float64, error) { return tensor.Dot(a, b) }
