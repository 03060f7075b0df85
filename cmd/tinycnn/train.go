package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/tinycnn/internal/config"
	"github.com/born-ml/tinycnn/internal/dataset"
	"github.com/born-ml/tinycnn/internal/model"
	"github.com/born-ml/tinycnn/internal/train"
)

// Train executes the train command and writes the epoch summary to out.
func Train(ctx context.Context, ta *TrainArguments, log logrus.FieldLogger, out io.Writer) error {
	cfg, err := loadConfig(ta)
	if err != nil {
		return err
	}

	trainSet, testSet, err := loadData(ta, cfg.Seed)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"train":   trainSet.Len(),
		"test":    testSet.Len(),
		"shape":   trainSet.Shape(),
		"classes": trainSet.ClassCounts(),
	}).Info("Loaded data")

	mc := cfg.Model()
	mc.NumClasses = max(mc.NumClasses, trainSet.NumClasses)
	if testSet != nil {
		mc.NumClasses = max(mc.NumClasses, testSet.NumClasses)
	}
	net, err := model.New(mc, trainSet.Shape())
	if err != nil {
		return err
	}
	log.Debugf("Network: %s (%d parameters)", net, net.NumParameters())

	trainer, err := train.New(net, cfg.Train(), log)
	if err != nil {
		return err
	}
	report, err := trainer.Run(ctx, trainSet, testSet)
	if len(report.Epochs) > 0 {
		PrintSummary(out, report)
	}
	return err
}

func loadConfig(ta *TrainArguments) (config.Config, error) {
	cfg := config.Default()
	if ta.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(ta.ConfigPath); err != nil {
			return cfg, err
		}
	}
	if ta.Epochs > 0 {
		cfg.Epochs = ta.Epochs
	}
	if ta.LearningRate > 0 {
		cfg.LearningRate = ta.LearningRate
	}
	if ta.Seed != nil {
		cfg.Seed = *ta.Seed
	}
	return cfg, cfg.Validate()
}

func loadData(ta *TrainArguments, seed int64) (trainSet, testSet *dataset.Set, err error) {
	switch {
	case ta.Images != "":
		if trainSet, err = dataset.LoadIDX(ta.Images, ta.Labels, 0); err != nil {
			return nil, nil, err
		}
		if ta.TestImages != "" {
			if testSet, err = dataset.LoadIDX(ta.TestImages, ta.TestLabels, 0); err != nil {
				return nil, nil, err
			}
		}
	case ta.Folder != "":
		var all *dataset.Set
		if all, _, err = dataset.LoadImageFolder(ta.Folder, ta.Size, ta.Size, ta.Channels); err != nil {
			return nil, nil, err
		}
		trainSet, testSet = all.StratifiedSplit(ta.ValSplit, seed)
	case ta.Synthetic > 0:
		if trainSet, err = dataset.Synthetic(ta.Synthetic, ta.Size, seed); err != nil {
			return nil, nil, err
		}
		if testSet, err = dataset.Synthetic(max(ta.Synthetic/4, 1), ta.Size, seed+1); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, ErrDataSource
	}

	if len(ta.Digits) == 2 {
		if trainSet, err = dataset.Binary(trainSet, ta.Digits[0], ta.Digits[1]); err != nil {
			return nil, nil, errors.Wrap(err, "train set")
		}
		if testSet.Len() > 0 {
			if testSet, err = dataset.Binary(testSet, ta.Digits[0], ta.Digits[1]); err != nil {
				return nil, nil, errors.Wrap(err, "test set")
			}
		}
	}

	trainSet = trainSet.Limit(ta.Limit)
	if testSet.Len() == 0 {
		return trainSet, nil, nil
	}
	return trainSet, testSet.Limit(ta.Limit), nil
}

// PrintSummary renders one table row per epoch.
func PrintSummary(w io.Writer, report train.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Epoch", "Train Loss", "Train Acc", "Test Loss", "Test Acc", "Time"})
	table.SetBorder(false)
	table.SetCaption(true, fmt.Sprintf("%d epochs", len(report.Epochs)))
	for _, e := range report.Epochs {
		testLoss, testAcc := "-", "-"
		if e.Test != nil {
			testLoss = fmt.Sprintf("%.3f", e.Test.MeanLoss())
			testAcc = fmt.Sprintf("%.1f%%", 100*e.Test.Accuracy())
		}
		table.Append([]string{
			fmt.Sprint(e.Epoch),
			fmt.Sprintf("%.3f", e.Train.MeanLoss()),
			fmt.Sprintf("%.1f%%", 100*e.Train.Accuracy()),
			testLoss,
			testAcc,
			e.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()
}
