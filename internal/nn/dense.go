package nn

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// Dense is a fully connected layer producing per-class scores.
//
// Performs: totals = flatten(x) · W + b
// where:
//   - flatten(x) has length input_len (any input shape with that many elements)
//   - W has shape [input_len, num_classes]
//   - b has shape [num_classes]
//
// Weights are initialized from N(0,1)/input_len, biases to zero. The layer
// returns pre-activation totals; softmax is applied by the caller.
type Dense struct {
	inputLen   int
	numClasses int

	weights *tensor.Tensor // [input_len, num_classes]
	biases  *tensor.Tensor // [num_classes]

	lastShape  tensor.Shape
	lastInput  *tensor.Tensor // flattened
	lastTotals *tensor.Tensor
}

// NewDense creates a dense layer.
//
// Parameters:
//   - inputLen: Number of elements in the (flattened) input
//   - numClasses: Number of output scores
//   - rng: Source for weight initialization
func NewDense(inputLen, numClasses int, rng *rand.Rand) (*Dense, error) {
	if inputLen <= 0 || numClasses <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "dense: input_len=%d, classes=%d", inputLen, numClasses)
	}
	return &Dense{
		inputLen:   inputLen,
		numClasses: numClasses,
		weights:    Randn(tensor.Shape{inputLen, numClasses}, float64(inputLen), rng),
		biases:     tensor.Zeros(tensor.Shape{numClasses}),
	}, nil
}

// Forward flattens input and returns the length-num_classes totals.
func (d *Dense) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if input.Len() != d.inputLen {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "dense: input %v has %d elements, want %d", input.Shape(), input.Len(), d.inputLen)
	}

	flat := input.Flatten()
	totals, err := tensor.VecMat(flat, d.weights)
	if err != nil {
		return nil, err
	}
	if err := totals.AddScaled(1, d.biases); err != nil {
		return nil, err
	}

	d.lastShape = input.Shape().Clone()
	d.lastInput = flat
	d.lastTotals = totals
	return totals, nil
}

// Backward takes ∂L/∂totals, updates weights and biases, and returns ∂L/∂input
// in the shape of the last Forward input.
//
// Gradients:
//
//	∂L/∂W = outer(x, dOut)
//	∂L/∂b = dOut
//	∂L/∂x = W · dOut   (with W before the update)
func (d *Dense) Backward(dOut *tensor.Tensor, learningRate float64) (*tensor.Tensor, error) {
	if d.lastInput == nil {
		return nil, errors.Wrap(ErrNoForward, "dense")
	}
	if err := expectShape("dense backward", dOut.Shape(), tensor.Shape{d.numClasses}); err != nil {
		return nil, err
	}

	dWeights, err := tensor.Outer(d.lastInput, dOut)
	if err != nil {
		return nil, err
	}
	dInput, err := tensor.MatVec(d.weights, dOut)
	if err != nil {
		return nil, err
	}
	dInput, err = dInput.Reshape(d.lastShape)
	if err != nil {
		return nil, err
	}

	if err := d.weights.AddScaled(-learningRate, dWeights); err != nil {
		return nil, err
	}
	if err := d.biases.AddScaled(-learningRate, dOut); err != nil {
		return nil, err
	}

	d.lastShape, d.lastInput, d.lastTotals = nil, nil, nil
	return dInput, nil
}

// LastTotals returns the totals computed by the pending Forward call, or nil.
func (d *Dense) LastTotals() *tensor.Tensor {
	return d.lastTotals
}

// Weights returns the weight matrix. The tensor is live: Backward updates it.
func (d *Dense) Weights() *tensor.Tensor {
	return d.weights
}

// Biases returns the bias vector. The tensor is live: Backward updates it.
func (d *Dense) Biases() *tensor.Tensor {
	return d.biases
}

// SetWeights replaces the weights with a copy of w.
func (d *Dense) SetWeights(w *tensor.Tensor) error {
	if err := expectShape("dense weights", w.Shape(), d.weights.Shape()); err != nil {
		return err
	}
	d.weights = w.Clone()
	return nil
}

// SetBiases replaces the biases with a copy of b.
func (d *Dense) SetBiases(b *tensor.Tensor) error {
	if err := expectShape("dense biases", b.Shape(), d.biases.Shape()); err != nil {
		return err
	}
	d.biases = b.Clone()
	return nil
}

// InputLen returns the flattened input length.
func (d *Dense) InputLen() int {
	return d.inputLen
}

// NumClasses returns the number of output scores.
func (d *Dense) NumClasses() int {
	return d.numClasses
}

// String returns a string representation of the layer.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense(input_len=%d, classes=%d)", d.inputLen, d.numClasses)
}
