// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"iter"
	"math/rand"

	"github.com/born-ml/tinycnn/internal/nn"
	"github.com/born-ml/tinycnn/internal/tensor"
)

// Layer is the forward interface shared by every layer.
type Layer = nn.Layer

// Errors returned by layers and loss functions.
var (
	ErrInvalidConfig         = nn.ErrInvalidConfig
	ErrFilterTooLarge        = nn.ErrFilterTooLarge
	ErrPoolTooLarge          = nn.ErrPoolTooLarge
	ErrNoForward             = nn.ErrNoForward
	ErrInvalidLabel          = nn.ErrInvalidLabel
	ErrDegenerateProbability = nn.ErrDegenerateProbability
)

// Layers

// Conv is a valid, stride-1 convolution with a (N, F, F, C) filter bank and no bias.
type Conv = nn.Conv

// NewConv creates a convolution layer with filters drawn from N(0, 1) / (F*F).
//
// Example:
//
//	conv, err := nn.NewConv(8, 3, 1, rand.New(rand.NewSource(1)))  // 8 filters, 3x3, 1 channel
func NewConv(numFilters, filterSize, channels int, rng *rand.Rand) (*Conv, error) {
	return nn.NewConv(numFilters, filterSize, channels, rng)
}

// MaxPool is non-overlapping max pooling; trailing rows and columns that do
// not fill a window are dropped.
type MaxPool = nn.MaxPool

// NewMaxPool creates a max pooling layer with a size×size window and stride size.
func NewMaxPool(size int) (*MaxPool, error) {
	return nn.NewMaxPool(size)
}

// Dense is a fully connected layer from a flattened input to class scores.
type Dense = nn.Dense

// NewDense creates a dense layer with weights drawn from N(0, 1) / inputLen
// and zero biases.
func NewDense(inputLen, numClasses int, rng *rand.Rand) (*Dense, error) {
	return nn.NewDense(inputLen, numClasses, rng)
}

// Output

// Softmax returns class probabilities for totals.
func Softmax(totals *tensor.Tensor) *tensor.Tensor {
	return nn.Softmax(totals)
}

// SoftmaxBackward maps ∂L/∂probs to ∂L/∂totals.
func SoftmaxBackward(probs, dProbs *tensor.Tensor) (*tensor.Tensor, error) {
	return nn.SoftmaxBackward(probs, dProbs)
}

// CrossEntropy returns -ln(probs[label]). A positive eps clamps the
// probability from below.
func CrossEntropy(probs *tensor.Tensor, label int, eps float64) (float64, error) {
	return nn.CrossEntropy(probs, label, eps)
}

// CrossEntropyGrad returns ∂L/∂probs: -1/probs[label] at label, 0 elsewhere.
func CrossEntropyGrad(probs *tensor.Tensor, label int, eps float64) (*tensor.Tensor, error) {
	return nn.CrossEntropyGrad(probs, label, eps)
}

// Utilities

// Region is one window yielded by Regions.
type Region = nn.Region

// Regions iterates the size×size windows of an (H, W, C) input in row-major order.
func Regions(input *tensor.Tensor, size, stride int) iter.Seq[Region] {
	return nn.Regions(input, size, stride)
}

// Randn returns a tensor of standard normal samples divided by scale.
func Randn(shape tensor.Shape, scale float64, rng *rand.Rand) *tensor.Tensor {
	return nn.Randn(shape, scale, rng)
}
