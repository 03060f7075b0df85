package nn

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// MaxPool is a max pooling layer over non-overlapping size×size windows.
//
// MaxPool has no learnable parameters. It keeps the input of the last
// Forward call so Backward can find which positions held each maximum.
//
// Input shape:  [height, width, channels]
// Output shape: [height/size, width/size, channels]
//
// Division is floor division: trailing rows and columns that do not fill a
// whole window are dropped and receive zero gradient.
type MaxPool struct {
	size      int
	lastInput *tensor.Tensor
}

// NewMaxPool creates a max pooling layer with a square window of the given size.
func NewMaxPool(size int) (*MaxPool, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "maxpool: invalid size %d", size)
	}
	return &MaxPool{size: size}, nil
}

// OutputShape returns the forward output shape for an input shape.
func (m *MaxPool) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if input.Rank() != 3 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "maxpool: expected [H,W,C] input, got %v", input)
	}
	if m.size > input[0] || m.size > input[1] {
		return nil, errors.Wrapf(ErrPoolTooLarge, "maxpool: window %dx%d on %dx%d input", m.size, m.size, input[0], input[1])
	}
	return tensor.Shape{input[0] / m.size, input[1] / m.size, input[2]}, nil
}

// Forward takes the per-channel maximum of every window.
func (m *MaxPool) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	outShape, err := m.OutputShape(input.Shape())
	if err != nil {
		return nil, err
	}

	out := tensor.Zeros(outShape)
	channels := outShape[2]
	for r := range Regions(input, m.size, m.size) {
		maxima := windowMax(r.Patch, channels)
		for c, v := range maxima {
			out.Set(v, r.Row, r.Col, c)
		}
	}

	m.lastInput = input
	return out, nil
}

// Backward routes dOut to the positions that held each window maximum.
//
// Every position equal to its window's maximum (per channel) receives the
// matching dOut value, so ties all receive the same value rather than a
// share of it. All other positions get zero, including NaN inputs. The
// result has the shape of the last Forward input.
func (m *MaxPool) Backward(dOut *tensor.Tensor) (*tensor.Tensor, error) {
	if m.lastInput == nil {
		return nil, errors.Wrap(ErrNoForward, "maxpool")
	}
	outShape, err := m.OutputShape(m.lastInput.Shape())
	if err != nil {
		return nil, err
	}
	if err := expectShape("maxpool backward", dOut.Shape(), outShape); err != nil {
		return nil, err
	}

	dInput := tensor.Zeros(m.lastInput.Shape())
	channels := outShape[2]
	for r := range Regions(m.lastInput, m.size, m.size) {
		maxima := windowMax(r.Patch, channels)
		for y := 0; y < m.size; y++ {
			for x := 0; x < m.size; x++ {
				for c := 0; c < channels; c++ {
					if r.Patch.At(y, x, c) == maxima[c] {
						dInput.Set(dOut.At(r.Row, r.Col, c), r.Top+y, r.Left+x, c)
					}
				}
			}
		}
	}

	m.lastInput = nil
	return dInput, nil
}

// windowMax returns the maximum of each channel of a [size, size, channels] patch.
// NaN elements are ignored, like tensor.Max; a channel that is entirely NaN
// has a NaN maximum, matches no position and so gets no gradient.
func windowMax(p *tensor.Tensor, channels int) []float64 {
	data := p.Data()
	maxima := make([]float64, channels)
	copy(maxima, data[:channels])
	for i := channels; i < len(data); i++ {
		if c := i % channels; data[i] > maxima[c] || math.IsNaN(maxima[c]) {
			maxima[c] = data[i]
		}
	}
	return maxima
}

// Size returns the pooling window size.
func (m *MaxPool) Size() int {
	return m.size
}

// String returns a string representation of the layer.
func (m *MaxPool) String() string {
	return fmt.Sprintf("MaxPool(size=%d)", m.size)
}
