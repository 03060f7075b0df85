// Package model chains the tinycnn layers into a trainable classifier.
//
// The pipeline is fixed: Conv → MaxPool → Dense → Softmax. Training is
// online gradient descent, one example per Train call.
package model

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/nn"
	"github.com/born-ml/tinycnn/internal/parallel"
	"github.com/born-ml/tinycnn/internal/tensor"
)

// Config holds the network hyperparameters.
type Config struct {
	NumClasses  int   // Number of output classes (2 for binary classification)
	FilterCount int   // Convolution filters
	FilterSize  int   // Convolution filter height and width
	PoolSize    int   // Max pooling window
	Seed        int64 // Seed for weight initialization

	// ProbEpsilon clamps the true-class probability from below when > 0.
	// With 0 an underflowed probability makes Train fail with
	// nn.ErrDegenerateProbability instead of corrupting the weights.
	ProbEpsilon float64

	// Parallel fans the convolution loops out. Results are unaffected.
	Parallel bool
}

// DefaultConfig returns the configuration used by the CLI when nothing is set.
func DefaultConfig() Config {
	return Config{
		NumClasses:  2,
		FilterCount: 8,
		FilterSize:  3,
		PoolSize:    2,
		Seed:        1,
	}
}

// Validate checks that every hyperparameter is usable.
func (c Config) Validate() error {
	switch {
	case c.NumClasses < 2:
		return errors.Wrapf(nn.ErrInvalidConfig, "num_classes must be >= 2, got %d", c.NumClasses)
	case c.FilterCount <= 0:
		return errors.Wrapf(nn.ErrInvalidConfig, "filter_count must be positive, got %d", c.FilterCount)
	case c.FilterSize <= 0:
		return errors.Wrapf(nn.ErrInvalidConfig, "filter_size must be positive, got %d", c.FilterSize)
	case c.PoolSize <= 0:
		return errors.Wrapf(nn.ErrInvalidConfig, "pool_size must be positive, got %d", c.PoolSize)
	case c.ProbEpsilon < 0 || c.ProbEpsilon >= 1 || math.IsNaN(c.ProbEpsilon):
		return errors.Wrapf(nn.ErrInvalidConfig, "prob_epsilon must be in [0, 1), got %g", c.ProbEpsilon)
	}
	return nil
}

// Result is the outcome of one forward pass.
type Result struct {
	Probs     *tensor.Tensor // Softmax output, length NumClasses
	Predicted int            // Argmax of Probs
	Loss      float64        // Cross-entropy of the true label
	Correct   bool           // Predicted == label
}

// Accuracy returns 1 for a correct prediction and 0 otherwise.
func (r Result) Accuracy() float64 {
	if r.Correct {
		return 1
	}
	return 0
}

// Network is the Conv → MaxPool → Dense → Softmax classifier.
//
// A Network is not safe for concurrent use: Forward caches activations in
// its layers and Train mutates their parameters.
type Network struct {
	cfg        Config
	imageShape tensor.Shape

	conv  *nn.Conv
	pool  *nn.MaxPool
	dense *nn.Dense
}

// New builds a network for images of shape [height, width, channels].
//
// The whole pipeline is shape-checked here, so a filter or pool window that
// does not fit the image is rejected before any example is seen.
func New(cfg Config, imageShape tensor.Shape) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if imageShape.Rank() != 3 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "model: image shape must be [H,W,C], got %v", imageShape)
	}
	if err := imageShape.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible initialization

	conv, err := nn.NewConv(cfg.FilterCount, cfg.FilterSize, imageShape[2], rng)
	if err != nil {
		return nil, err
	}
	convShape, err := conv.OutputShape(imageShape)
	if err != nil {
		return nil, err
	}
	pool, err := nn.NewMaxPool(cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	poolShape, err := pool.OutputShape(convShape)
	if err != nil {
		return nil, err
	}
	dense, err := nn.NewDense(poolShape.NumElements(), cfg.NumClasses, rng)
	if err != nil {
		return nil, err
	}

	if cfg.Parallel {
		conv.SetParallel(parallel.DefaultConfig())
	}

	return &Network{
		cfg:        cfg,
		imageShape: imageShape.Clone(),
		conv:       conv,
		pool:       pool,
		dense:      dense,
	}, nil
}

// Normalize maps pixel values in [0, 255] to [-0.5, 0.5].
func Normalize(image *tensor.Tensor) *tensor.Tensor {
	return tensor.Apply(image, func(v float64) float64 { return v/255 - 0.5 })
}

// Forward classifies image and scores the prediction against label.
//
// image holds raw pixel values in [0, 255]. When the true-class probability
// underflows to zero, the Result carries an infinite loss and the error is
// nn.ErrDegenerateProbability.
func (n *Network) Forward(image *tensor.Tensor, label int) (Result, error) {
	if label < 0 || label >= n.cfg.NumClasses {
		return Result{}, errors.Wrapf(nn.ErrInvalidLabel, "label %d with %d classes", label, n.cfg.NumClasses)
	}
	probs, err := n.probabilities(image)
	if err != nil {
		return Result{}, err
	}

	predicted := nn.Argmax(probs)
	res := Result{
		Probs:     probs,
		Predicted: predicted,
		Correct:   predicted == label,
	}
	res.Loss, err = nn.CrossEntropy(probs, label, n.cfg.ProbEpsilon)
	return res, err
}

// Predict returns the most probable class and the class probabilities.
func (n *Network) Predict(image *tensor.Tensor) (int, *tensor.Tensor, error) {
	probs, err := n.probabilities(image)
	if err != nil {
		return 0, nil, err
	}
	return nn.Argmax(probs), probs, nil
}

func (n *Network) probabilities(image *tensor.Tensor) (*tensor.Tensor, error) {
	if !image.Shape().Equal(n.imageShape) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "model: image shape %v, want %v", image.Shape(), n.imageShape)
	}

	out, err := n.conv.Forward(Normalize(image))
	if err != nil {
		return nil, errors.Wrap(err, "conv forward")
	}
	out, err = n.pool.Forward(out)
	if err != nil {
		return nil, errors.Wrap(err, "pool forward")
	}
	totals, err := n.dense.Forward(out)
	if err != nil {
		return nil, errors.Wrap(err, "dense forward")
	}
	return nn.Softmax(totals), nil
}

// Train runs one forward pass and one gradient-descent step on a single example.
//
// The loss gradient starts as ∂L/∂probs (-1/p[label] at the label), is
// carried through the softmax Jacobian to ∂L/∂totals, then through Dense,
// MaxPool and Conv, each layer updating its own parameters.
//
// If the forward pass fails, including a degenerate true-class probability,
// no parameter is modified and the forward Result is returned with the error.
func (n *Network) Train(image *tensor.Tensor, label int, learningRate float64) (Result, error) {
	if learningRate <= 0 || math.IsNaN(learningRate) || math.IsInf(learningRate, 0) {
		return Result{}, errors.Wrapf(nn.ErrInvalidConfig, "learning rate must be positive and finite, got %g", learningRate)
	}
	res, err := n.Forward(image, label)
	if err != nil {
		return res, err
	}

	dProbs, err := nn.CrossEntropyGrad(res.Probs, label, n.cfg.ProbEpsilon)
	if err != nil {
		return res, err
	}
	dTotals, err := nn.SoftmaxBackward(res.Probs, dProbs)
	if err != nil {
		return res, err
	}
	if !tensor.IsFinite(dTotals) {
		return res, errors.Wrapf(nn.ErrDegenerateProbability, "non-finite gradient %v", dTotals)
	}

	dPool, err := n.dense.Backward(dTotals, learningRate)
	if err != nil {
		return res, errors.Wrap(err, "dense backward")
	}
	dConv, err := n.pool.Backward(dPool)
	if err != nil {
		return res, errors.Wrap(err, "pool backward")
	}
	if err := n.conv.Backward(dConv, learningRate); err != nil {
		return res, errors.Wrap(err, "conv backward")
	}
	return res, nil
}

// Conv returns the convolution layer.
func (n *Network) Conv() *nn.Conv { return n.conv }

// Pool returns the pooling layer.
func (n *Network) Pool() *nn.MaxPool { return n.pool }

// Dense returns the dense layer.
func (n *Network) Dense() *nn.Dense { return n.dense }

// Config returns the configuration the network was built with.
func (n *Network) Config() Config { return n.cfg }

// ImageShape returns the expected input shape.
func (n *Network) ImageShape() tensor.Shape { return n.imageShape.Clone() }

// NumParameters returns the number of trainable values.
func (n *Network) NumParameters() int {
	return n.conv.Filters().Len() + n.dense.Weights().Len() + n.dense.Biases().Len()
}

// String describes the pipeline, one layer per line.
func (n *Network) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Network(input=%v, params=%d)\n", []int(n.imageShape), n.NumParameters())
	for _, l := range []nn.Layer{n.conv, n.pool, n.dense} {
		fmt.Fprintf(&sb, "  %s\n", l)
	}
	sb.WriteString("  Softmax")
	return sb.String()
}
