// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cnn

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/born-ml/tinycnn/internal/dataset"
	"github.com/born-ml/tinycnn/internal/model"
	"github.com/born-ml/tinycnn/internal/tensor"
	"github.com/born-ml/tinycnn/internal/train"
)

// Model

// Config holds the network hyperparameters.
type Config = model.Config

// Network is the Conv → MaxPool → Dense → Softmax classifier.
type Network = model.Network

// Result is the outcome of one forward pass.
type Result = model.Result

// DefaultConfig returns 2 classes, 8 3x3 filters and 2x2 pooling.
func DefaultConfig() Config {
	return model.DefaultConfig()
}

// New creates a network for images of the given (H, W, C) shape.
func New(cfg Config, imageShape tensor.Shape) (*Network, error) {
	return model.New(cfg, imageShape)
}

// Training

// TrainOptions configures a training run.
type TrainOptions = train.Options

// Trainer runs training epochs for a Network.
type Trainer = train.Trainer

// Stats aggregates loss and accuracy.
type Stats = train.Stats

// Report lists per-epoch statistics.
type Report = train.Report

// NewTrainer creates a Trainer. A nil logger uses the logrus standard logger.
func NewTrainer(net *Network, opts TrainOptions, log logrus.FieldLogger) (*Trainer, error) {
	return train.New(net, opts, log)
}

// Evaluate runs the network over set without training.
func Evaluate(ctx context.Context, net *Network, set *Set) (Stats, error) {
	return train.Evaluate(ctx, net, set)
}

// Data

// Example is one labelled image.
type Example = dataset.Example

// Set is a labelled image collection.
type Set = dataset.Set

// LoadIDX reads an MNIST-style IDX image and label file pair. limit <= 0 loads everything.
func LoadIDX(imagesPath, labelsPath string, limit int) (*Set, error) {
	return dataset.LoadIDX(imagesPath, labelsPath, limit)
}

// LoadImageFolder reads dir/<class>/<image> files resized to width×height.
func LoadImageFolder(dir string, width, height, channels int) (*Set, []string, error) {
	return dataset.LoadImageFolder(dir, width, height, channels)
}

// Binary keeps two labels of s, relabelled 0 and 1.
func Binary(s *Set, negative, positive int) (*Set, error) {
	return dataset.Binary(s, negative, positive)
}

// Synthetic generates n size×size images of horizontal (0) and vertical (1) bars.
func Synthetic(n, size int, seed int64) (*Set, error) {
	return dataset.Synthetic(n, size, seed)
}
