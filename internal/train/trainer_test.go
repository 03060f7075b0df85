package train

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tinycnn/internal/dataset"
	"github.com/born-ml/tinycnn/internal/model"
	"github.com/born-ml/tinycnn/internal/tensor"
)

func newNetwork(t *testing.T, size int) *model.Network {
	t.Helper()
	net, err := model.New(model.Config{NumClasses: 2, FilterCount: 4, FilterSize: 3, PoolSize: 2, Seed: 3}, tensor.Shape{size, size, 1})
	require.NoError(t, err)
	return net
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, Options{Epochs: 1, LearningRate: 0.1}.Validate())
	assert.Error(t, Options{Epochs: 0, LearningRate: 0.1}.Validate())
	assert.Error(t, Options{Epochs: 1, LearningRate: 0}.Validate())
	assert.Error(t, Options{Epochs: 1, LearningRate: 0.1, LogEvery: -1}.Validate())
}

func TestStats(t *testing.T) {
	var s Stats
	assert.Equal(t, 0.0, s.MeanLoss())
	assert.Equal(t, 0.0, s.Accuracy())

	s.Add(model.Result{Loss: 1, Correct: true})
	s.Add(model.Result{Loss: 3})
	assert.Equal(t, 2.0, s.MeanLoss())
	assert.Equal(t, 0.5, s.Accuracy())
}

func TestRun_ReportsAndLogs(t *testing.T) {
	trainSet, err := dataset.Synthetic(60, 8, 1)
	require.NoError(t, err)
	testSet, err := dataset.Synthetic(20, 8, 2)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	tr, err := New(newNetwork(t, 8), Options{Epochs: 3, LearningRate: 0.05, LogEvery: 20, Shuffle: true, Seed: 1}, logger)
	require.NoError(t, err)

	report, err := tr.Run(context.Background(), trainSet, testSet)
	require.NoError(t, err)

	require.Len(t, report.Epochs, 3)
	for i, er := range report.Epochs {
		assert.Equal(t, i+1, er.Epoch)
		assert.Equal(t, 60, er.Train.Examples)
		require.NotNil(t, er.Test)
		assert.Equal(t, 20, er.Test.Examples)
	}
	assert.Less(t, report.Epochs[2].Train.MeanLoss(), report.Epochs[0].Train.MeanLoss())

	steps := 0
	for _, e := range hook.AllEntries() {
		if _, ok := e.Data["step"]; ok {
			steps++
			assert.Equal(t, logrus.InfoLevel, e.Level)
		}
	}
	assert.Equal(t, 3*3, steps)
}

func TestRun_Deterministic(t *testing.T) {
	set, _ := dataset.Synthetic(30, 8, 4)
	opts := Options{Epochs: 2, LearningRate: 0.02, Shuffle: true, Seed: 9}
	logger, _ := test.NewNullLogger()

	run := func() *model.Network {
		net := newNetwork(t, 8)
		tr, err := New(net, opts, logger)
		require.NoError(t, err)
		_, err = tr.Run(context.Background(), set, nil)
		require.NoError(t, err)
		return net
	}
	a, b := run(), run()
	assert.Equal(t, a.Conv().Filters().Data(), b.Conv().Filters().Data())
	assert.Equal(t, a.Dense().Weights().Data(), b.Dense().Weights().Data())
}

func TestRun_RejectsMismatchedSet(t *testing.T) {
	set, _ := dataset.Synthetic(4, 9, 1)
	logger, _ := test.NewNullLogger()
	tr, err := New(newNetwork(t, 8), Options{Epochs: 1, LearningRate: 0.1}, logger)
	require.NoError(t, err)

	_, err = tr.Run(context.Background(), set, nil)
	assert.Error(t, err)

	_, err = tr.Run(context.Background(), nil, nil)
	assert.True(t, errors.Is(err, dataset.ErrEmpty))
}

func TestRun_Cancelled(t *testing.T) {
	set, _ := dataset.Synthetic(4, 8, 1)
	logger, _ := test.NewNullLogger()
	tr, _ := New(newNetwork(t, 8), Options{Epochs: 1, LearningRate: 0.1}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Run(ctx, set, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEvaluate_DoesNotTrain(t *testing.T) {
	set, _ := dataset.Synthetic(10, 8, 1)
	net := newNetwork(t, 8)
	before := net.Dense().Weights().Clone()

	stats, err := Evaluate(context.Background(), net, set)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Examples)
	assert.Greater(t, stats.MeanLoss(), 0.0)
	assert.Equal(t, before.Data(), net.Dense().Weights().Data())
}
