// Package train drives online gradient descent over a dataset.
package train

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/tinycnn/internal/dataset"
	"github.com/born-ml/tinycnn/internal/model"
)

// Options configures a training run.
type Options struct {
	Epochs       int     // Full passes over the training set
	LearningRate float64 // Gradient-descent step size
	LogEvery     int     // Log running stats every N steps (0 disables)
	Shuffle      bool    // Permute the training set at the start of every epoch
	Seed         int64   // Seed for the shuffling permutation
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Epochs <= 0 {
		return errors.Errorf("train: epochs must be positive, got %d", o.Epochs)
	}
	if o.LearningRate <= 0 || math.IsNaN(o.LearningRate) || math.IsInf(o.LearningRate, 0) {
		return errors.Errorf("train: learning rate must be positive, got %g", o.LearningRate)
	}
	if o.LogEvery < 0 {
		return errors.Errorf("train: log_every must not be negative, got %d", o.LogEvery)
	}
	return nil
}

// Stats aggregates loss and accuracy over a number of examples.
type Stats struct {
	Examples int
	Loss     float64 // Sum of per-example losses
	Correct  int
}

// Add records one forward result.
func (s *Stats) Add(r model.Result) {
	s.Examples++
	s.Loss += r.Loss
	if r.Correct {
		s.Correct++
	}
}

// MeanLoss returns the average loss, or 0 for no examples.
func (s Stats) MeanLoss() float64 {
	if s.Examples == 0 {
		return 0
	}
	return s.Loss / float64(s.Examples)
}

// Accuracy returns the fraction of correct predictions, or 0 for no examples.
func (s Stats) Accuracy() float64 {
	if s.Examples == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Examples)
}

// EpochReport summarizes one epoch.
type EpochReport struct {
	Epoch    int
	Train    Stats
	Test     *Stats // nil without a test set
	Duration time.Duration
}

// Report is the outcome of Run.
type Report struct {
	Epochs []EpochReport
}

// Trainer runs training epochs for a Network.
type Trainer struct {
	net  *model.Network
	opts Options
	log  logrus.FieldLogger
}

// New creates a Trainer. A nil logger uses the logrus standard logger.
func New(net *model.Network, opts Options, log logrus.FieldLogger) (*Trainer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Trainer{net: net, opts: opts, log: log}, nil
}

// Run trains on trainSet for the configured number of epochs, one example at
// a time, and evaluates on testSet after every epoch when it is non-nil.
//
// Cancellation is checked between examples. The first training error stops
// the run; the partial report is returned with it.
func (t *Trainer) Run(ctx context.Context, trainSet, testSet *dataset.Set) (Report, error) {
	var report Report
	if err := t.checkSet("train", trainSet); err != nil {
		return report, err
	}
	if testSet != nil {
		if err := t.checkSet("test", testSet); err != nil {
			return report, err
		}
	}

	rng := rand.New(rand.NewSource(t.opts.Seed)) //nolint:gosec // reproducible shuffling
	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		start := time.Now()
		log := t.log.WithField("epoch", epoch)
		log.Infof("--- Epoch %d ---", epoch)

		er := EpochReport{Epoch: epoch}
		var window Stats
		for step, idx := range t.order(trainSet.Len(), rng) {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			ex := trainSet.Examples[idx]
			res, err := t.net.Train(ex.Image, ex.Label, t.opts.LearningRate)
			if err != nil {
				return report, errors.Wrapf(err, "epoch %d step %d (example %d)", epoch, step+1, idx)
			}
			er.Train.Add(res)
			window.Add(res)

			if t.opts.LogEvery > 0 && (step+1)%t.opts.LogEvery == 0 {
				log.WithFields(logrus.Fields{
					"step":     step + 1,
					"loss":     window.MeanLoss(),
					"accuracy": window.Accuracy(),
				}).Infof("Past %d steps: average loss %.3f | accuracy %.0f%%",
					window.Examples, window.MeanLoss(), 100*window.Accuracy())
				window = Stats{}
			}
		}

		if testSet != nil {
			ts, err := Evaluate(ctx, t.net, testSet)
			if err != nil {
				return report, errors.Wrapf(err, "epoch %d evaluation", epoch)
			}
			er.Test = &ts
			log.WithFields(logrus.Fields{
				"test_loss":     ts.MeanLoss(),
				"test_accuracy": ts.Accuracy(),
			}).Info("Evaluated test set")
		}

		er.Duration = time.Since(start)
		report.Epochs = append(report.Epochs, er)
	}
	return report, nil
}

func (t *Trainer) order(n int, rng *rand.Rand) []int {
	if t.opts.Shuffle {
		return rng.Perm(n)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (t *Trainer) checkSet(name string, s *dataset.Set) error {
	if s == nil {
		return errors.Wrapf(dataset.ErrEmpty, "%s set", name)
	}
	if err := s.Validate(); err != nil {
		return errors.Wrapf(err, "%s set", name)
	}
	if !s.Shape().Equal(t.net.ImageShape()) {
		return errors.Errorf("train: %s images have shape %v, network expects %v", name, s.Shape(), t.net.ImageShape())
	}
	if s.NumClasses > t.net.Config().NumClasses {
		return errors.Errorf("train: %s set has %d classes, network has %d", name, s.NumClasses, t.net.Config().NumClasses)
	}
	return nil
}

// Evaluate runs Forward over every example without updating the network.
//
// A degenerate probability still counts: its infinite loss is added to the
// stats rather than aborting the evaluation.
func Evaluate(ctx context.Context, net *model.Network, set *dataset.Set) (Stats, error) {
	var s Stats
	for i, ex := range set.Examples {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		res, err := net.Forward(ex.Image, ex.Label)
		if err != nil && res.Probs == nil {
			return s, errors.Wrapf(err, "example %d", i)
		}
		s.Add(res)
	}
	return s, nil
}
