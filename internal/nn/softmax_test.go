package nn

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/tinycnn/internal/tensor"
)

func TestSoftmax_SumsToOne(t *testing.T) {
	inputs := [][]float64{
		{0, 0},
		{1, 2, 3},
		{-1000, 0, 1000},
		{800, 801, 799},
		{-3.5},
	}
	for _, in := range inputs {
		probs := Softmax(fromSlice(t, tensor.Shape{len(in)}, in))
		assert.InDelta(t, 1.0, floats.Sum(probs.Data()), 1e-12, "input %v", in)
		assert.True(t, tensor.IsFinite(probs))
	}
}

func TestSoftmax_ShiftInvariant(t *testing.T) {
	z := []float64{0.3, -1.2, 2.5, 0}
	base := Softmax(fromSlice(t, tensor.Shape{4}, z))

	for _, shift := range []float64{-50, 1, 700} {
		shifted := make([]float64, len(z))
		for i, v := range z {
			shifted[i] = v + shift
		}
		got := Softmax(fromSlice(t, tensor.Shape{4}, shifted))
		assert.True(t, floats.EqualApprox(base.Data(), got.Data(), 1e-12), "shift %v", shift)
	}
}

func TestCrossEntropy_KnownValues(t *testing.T) {
	probs := fromSlice(t, tensor.Shape{2}, []float64{0.9, 0.1})

	loss, err := CrossEntropy(probs, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.9), loss, 1e-12)
	assert.InDelta(t, 0.105, loss, 1e-3)

	loss, err = CrossEntropy(probs, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.303, loss, 1e-3)

	_, err = CrossEntropy(probs, 2, 0)
	assert.True(t, errors.Is(err, ErrInvalidLabel))
}

func TestCrossEntropy_Degenerate(t *testing.T) {
	probs := fromSlice(t, tensor.Shape{2}, []float64{1, 0})

	loss, err := CrossEntropy(probs, 1, 0)
	assert.True(t, errors.Is(err, ErrDegenerateProbability))
	assert.True(t, math.IsInf(loss, 1))

	_, err = CrossEntropyGrad(probs, 1, 0)
	assert.True(t, errors.Is(err, ErrDegenerateProbability))

	loss, err = CrossEntropy(probs, 1, 1e-12)
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(1e-12), loss, 1e-9)
}

func TestCrossEntropy_SubnormalProbability(t *testing.T) {
	// Positive, but 1/p overflows to +Inf.
	p := 3e-309
	require.True(t, math.IsInf(1/p, 1))
	probs := fromSlice(t, tensor.Shape{2}, []float64{1 - p, p})

	loss, err := CrossEntropy(probs, 1, 0)
	assert.True(t, errors.Is(err, ErrDegenerateProbability))
	assert.False(t, math.IsInf(loss, 0))

	_, err = CrossEntropyGrad(probs, 1, 0)
	assert.True(t, errors.Is(err, ErrDegenerateProbability))

	grad, err := CrossEntropyGrad(probs, 1, 1e-300)
	require.NoError(t, err)
	assert.True(t, tensor.IsFinite(grad))
}

func TestCrossEntropyGrad(t *testing.T) {
	probs := fromSlice(t, tensor.Shape{3}, []float64{0.2, 0.5, 0.3})
	grad, err := CrossEntropyGrad(probs, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -2, 0}, grad.Data())
}

func TestSoftmaxBackward_ReducesToProbsMinusOneHot(t *testing.T) {
	z := fromSlice(t, tensor.Shape{4}, []float64{0.1, -0.7, 1.3, 0.4})
	probs := Softmax(z)

	for label := 0; label < 4; label++ {
		dProbs, err := CrossEntropyGrad(probs, label, 0)
		require.NoError(t, err)
		dz, err := SoftmaxBackward(probs, dProbs)
		require.NoError(t, err)

		want := append([]float64(nil), probs.Data()...)
		want[label]--
		assert.True(t, floats.EqualApprox(want, dz.Data(), 1e-12), "label %d", label)
	}
}

func TestSoftmaxBackward_MatchesFiniteDifference(t *testing.T) {
	z := []float64{0.5, -1, 2, 0.25, -0.3}
	label := 3

	loss := func(v []float64) float64 {
		probs := Softmax(fromSlice(t, tensor.Shape{len(v)}, append([]float64(nil), v...)))
		l, err := CrossEntropy(probs, label, 0)
		require.NoError(t, err)
		return l
	}
	want := fd.Gradient(nil, loss, z, &fd.Settings{Formula: fd.Central})

	probs := Softmax(fromSlice(t, tensor.Shape{len(z)}, z))
	dProbs, err := CrossEntropyGrad(probs, label, 0)
	require.NoError(t, err)
	got, err := SoftmaxBackward(probs, dProbs)
	require.NoError(t, err)

	assert.True(t, floats.EqualApprox(want, got.Data(), 1e-6), "want %v got %v", want, got.Data())
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 1, Argmax(fromSlice(t, tensor.Shape{3}, []float64{0.1, 0.8, 0.1})))
	assert.Equal(t, 0, Argmax(fromSlice(t, tensor.Shape{2}, []float64{0.5, 0.5})))
}
