package nn

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/parallel"
	"github.com/born-ml/tinycnn/internal/tensor"
)

// Conv is a convolution layer without bias or padding.
//
// Performs a valid, stride-1 cross-correlation (no kernel flipping):
//
//	out[i, j, f] = Σ_{y,x,c} image[i+y, j+x, c] * filters[f, y, x, c]
//
// Input shape:  [height, width, channels]
// Filter shape: [num_filters, filter_size, filter_size, channels]
// Output shape: [height-filter_size+1, width-filter_size+1, num_filters]
//
// Conv is the first layer of the network, so Backward updates the filters
// and does not compute a gradient for its input.
//
// Example:
//
//	conv, err := nn.NewConv(8, 3, 1, rand.New(rand.NewSource(1)))
//	out, err := conv.Forward(image) // [28,28,1] -> [26,26,8]
type Conv struct {
	numFilters int
	filterSize int
	channels   int

	filters *tensor.Tensor // [num_filters, filter_size, filter_size, channels]

	lastInput *tensor.Tensor
	par       parallel.Config
}

// NewConv creates a convolution layer with filters drawn from N(0,1)/filterSize².
//
// Parameters:
//   - numFilters: Number of filters (output channels)
//   - filterSize: Height and width of every filter
//   - channels: Number of input channels
//   - rng: Source for filter initialization
func NewConv(numFilters, filterSize, channels int, rng *rand.Rand) (*Conv, error) {
	if numFilters <= 0 || filterSize <= 0 || channels <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "conv: filters=%d, size=%d, channels=%d", numFilters, filterSize, channels)
	}

	shape := tensor.Shape{numFilters, filterSize, filterSize, channels}
	return &Conv{
		numFilters: numFilters,
		filterSize: filterSize,
		channels:   channels,
		filters:    Randn(shape, float64(filterSize*filterSize), rng),
		par:        parallel.Sequential(),
	}, nil
}

// SetParallel controls how Forward and Backward fan out their loops.
// Results do not depend on the configuration.
func (c *Conv) SetParallel(cfg parallel.Config) {
	c.par = cfg
}

// OutputShape returns the forward output shape for an image shape,
// or an error if the image cannot be convolved by this layer.
func (c *Conv) OutputShape(image tensor.Shape) (tensor.Shape, error) {
	if image.Rank() != 3 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "conv: expected [H,W,C] input, got %v", image)
	}
	if image[2] != c.channels {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "conv: input channels %d != expected %d", image[2], c.channels)
	}
	if c.filterSize > image[0] || c.filterSize > image[1] {
		return nil, errors.Wrapf(ErrFilterTooLarge, "conv: filter %dx%d on %dx%d image", c.filterSize, c.filterSize, image[0], image[1])
	}
	return tensor.Shape{
		GridSize(image[0], c.filterSize, 1),
		GridSize(image[1], c.filterSize, 1),
		c.numFilters,
	}, nil
}

// Forward convolves image with every filter and caches image for Backward.
func (c *Conv) Forward(image *tensor.Tensor) (*tensor.Tensor, error) {
	outShape, err := c.OutputShape(image.Shape())
	if err != nil {
		return nil, err
	}

	out := tensor.Zeros(outShape)
	outW, n := outShape[1], outShape[2]
	outData := out.Data()
	filters := c.filters.Data()
	k := c.filterSize * c.filterSize * c.channels

	// One output row per unit; each element is summed in filter order.
	err = parallel.For(outShape[0], func(i int) error {
		for j := 0; j < outW; j++ {
			p := patch(image, i, j, c.filterSize).Data()
			for f := 0; f < n; f++ {
				w := filters[f*k : (f+1)*k]
				var s float64
				for t, v := range p {
					s += v * w[t]
				}
				outData[(i*outW+j)*n+f] = s
			}
		}
		return nil
	}, c.par)
	if err != nil {
		return nil, err
	}

	c.lastInput = image
	return out, nil
}

// Backward applies one gradient-descent step to the filters.
//
// dOut is ∂L/∂output with the shape returned by Forward. The filter gradient
// accumulates dOut[i, j, f] * patch(i, j) over every window, then
// filters -= learningRate * gradient.
func (c *Conv) Backward(dOut *tensor.Tensor, learningRate float64) error {
	if c.lastInput == nil {
		return errors.Wrap(ErrNoForward, "conv")
	}
	outShape, err := c.OutputShape(c.lastInput.Shape())
	if err != nil {
		return err
	}
	if err := expectShape("conv backward", dOut.Shape(), outShape); err != nil {
		return err
	}

	grad := tensor.Zeros(c.filters.Shape())
	gradData := grad.Data()
	k := c.filterSize * c.filterSize * c.channels

	// One filter per unit; every filter walks the windows in the same order.
	err = parallel.For(c.numFilters, func(f int) error {
		g := gradData[f*k : (f+1)*k]
		for r := range Regions(c.lastInput, c.filterSize, 1) {
			d := dOut.At(r.Row, r.Col, f)
			for t, v := range r.Patch.Data() {
				g[t] += d * v
			}
		}
		return nil
	}, c.par)
	if err != nil {
		return err
	}

	c.lastInput = nil
	return c.filters.AddScaled(-learningRate, grad)
}

// Filters returns the filter bank. The tensor is live: Backward updates it.
func (c *Conv) Filters() *tensor.Tensor {
	return c.filters
}

// SetFilters replaces the filter bank with a copy of filters.
func (c *Conv) SetFilters(filters *tensor.Tensor) error {
	if err := expectShape("conv filters", filters.Shape(), c.filters.Shape()); err != nil {
		return err
	}
	c.filters = filters.Clone()
	return nil
}

// NumFilters returns the number of filters.
func (c *Conv) NumFilters() int {
	return c.numFilters
}

// FilterSize returns the filter height and width.
func (c *Conv) FilterSize() int {
	return c.filterSize
}

// String returns a string representation of the layer.
func (c *Conv) String() string {
	return fmt.Sprintf("Conv(filters=%d, size=%dx%d, channels=%d)", c.numFilters, c.filterSize, c.filterSize, c.channels)
}
