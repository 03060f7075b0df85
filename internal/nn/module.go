// Package nn implements the layers of the tinycnn classifier.
//
// This package provides:
//   - Conv: valid, stride-1 cross-correlation with a learned filter bank
//   - MaxPool: non-overlapping max pooling with gradient routing
//   - Dense: fully connected affine map from a flattened input to class scores
//   - Softmax, CrossEntropy and their gradients
//   - Regions: restartable sliding-window iterator shared by Conv and MaxPool
//
// Layers keep the input of their last Forward call until the next Backward
// call. Forward must precede Backward; layers are not safe for concurrent use.
package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// Layer is the forward half shared by every layer in this package.
type Layer interface {
	// Forward computes the layer output and caches what Backward needs.
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)

	// String describes the layer configuration.
	String() string
}

var (
	// ErrInvalidConfig is returned for non-positive layer hyperparameters.
	ErrInvalidConfig = errors.New("nn: invalid configuration")
	// ErrFilterTooLarge is returned when a filter does not fit the image.
	ErrFilterTooLarge = errors.New("nn: filter larger than input")
	// ErrPoolTooLarge is returned when a pooling window does not fit the input.
	ErrPoolTooLarge = errors.New("nn: pool window larger than input")
	// ErrNoForward is returned by Backward when no Forward call is pending.
	ErrNoForward = errors.New("nn: backward called without a preceding forward")
	// ErrInvalidLabel is returned for labels outside [0, num_classes).
	ErrInvalidLabel = errors.New("nn: label out of range")
	// ErrDegenerateProbability is returned when the true-class probability is
	// zero or not finite, so loss and gradient would be non-finite.
	ErrDegenerateProbability = errors.New("nn: degenerate class probability")
)

// expectShape wraps tensor.ErrShapeMismatch with layer context.
func expectShape(layer string, got, want tensor.Shape) error {
	if !got.Equal(want) {
		return errors.Wrapf(tensor.ErrShapeMismatch, "%s: got shape %v, want %v", layer, got, want)
	}
	return nil
}
