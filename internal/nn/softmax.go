package nn

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/tinycnn/internal/tensor"
)

// Softmax turns a score vector into a probability distribution.
//
// The maximum is subtracted before exponentiating, so the result does not
// overflow and is unchanged by adding a constant to every score:
//
//	Softmax(z)[i] = exp(z[i] - max(z)) / Σ exp(z[j] - max(z))
func Softmax(totals *tensor.Tensor) *tensor.Tensor {
	m := tensor.Max(totals)
	exp := tensor.Apply(totals, func(v float64) float64 { return math.Exp(v - m) })
	return tensor.Scale(exp, 1/tensor.Sum(exp))
}

// SoftmaxBackward maps ∂L/∂probs to ∂L/∂totals through the softmax Jacobian.
//
// Formula:
//
//	∂L/∂z[i] = p[i] * (∂L/∂p[i] - Σ_j p[j] * ∂L/∂p[j])
//
// For the cross-entropy gradient (-1/p[label] at the label, 0 elsewhere)
// this reduces to p - onehot(label).
func SoftmaxBackward(probs, dProbs *tensor.Tensor) (*tensor.Tensor, error) {
	dot, err := tensor.Dot(probs, dProbs)
	if err != nil {
		return nil, err
	}
	out := tensor.Zeros(probs.Shape())
	p, dp, o := probs.Data(), dProbs.Data(), out.Data()
	for i := range o {
		o[i] = p[i] * (dp[i] - dot)
	}
	return out, nil
}

// TrueClassProbability returns probs[label], clamped from below by eps.
//
// Returns ErrInvalidLabel for an out-of-range label and
// ErrDegenerateProbability (alongside the value) when the result is zero,
// not finite, or so small that its reciprocal overflows.
func TrueClassProbability(probs *tensor.Tensor, label int, eps float64) (float64, error) {
	if label < 0 || label >= probs.Len() {
		return 0, errors.Wrapf(ErrInvalidLabel, "label %d with %d classes", label, probs.Len())
	}
	p := probs.Data()[label]
	if eps > 0 && p < eps {
		p = eps
	}
	// A subnormal p is positive but -1/p overflows.
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) || math.IsInf(1/p, 0) {
		return p, errors.Wrapf(ErrDegenerateProbability, "p[%d] = %g", label, p)
	}
	return p, nil
}

// CrossEntropy returns -log(p[label]).
//
// eps > 0 clamps the probability away from zero. With eps == 0 an underflowed
// probability yields +Inf and ErrDegenerateProbability.
func CrossEntropy(probs *tensor.Tensor, label int, eps float64) (float64, error) {
	p, err := TrueClassProbability(probs, label, eps)
	if errors.Is(err, ErrInvalidLabel) {
		return 0, err
	}
	return -math.Log(p), err
}

// CrossEntropyGrad returns ∂L/∂probs: zero except -1/p[label] at the label.
func CrossEntropyGrad(probs *tensor.Tensor, label int, eps float64) (*tensor.Tensor, error) {
	p, err := TrueClassProbability(probs, label, eps)
	if err != nil {
		return nil, err
	}
	grad := tensor.Zeros(probs.Shape())
	grad.Data()[label] = -1 / p
	return grad, nil
}

// Argmax returns the index of the largest score (first one on ties).
func Argmax(scores *tensor.Tensor) int {
	return tensor.Argmax(scores)
}
