// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cnn provides a small trainable convolutional image classifier.
//
// # Overview
//
// The network is a fixed pipeline:
//
//	image (H, W, C) → Conv → MaxPool → Dense → Softmax → class probabilities
//
// Training is online gradient descent: one example, one update.
//
// # Basic Usage
//
//	import (
//	    "context"
//
//	    "github.com/born-ml/tinycnn/cnn"
//	)
//
//	func main() {
//	    train, _ := cnn.LoadIDX("train-images-idx3-ubyte.gz", "train-labels-idx1-ubyte.gz", 1000)
//	    train, _ = cnn.Binary(train, 0, 1)
//
//	    net, _ := cnn.New(cnn.DefaultConfig(), train.Shape())
//	    trainer, _ := cnn.NewTrainer(net, cnn.TrainOptions{Epochs: 3, LearningRate: 0.005, LogEvery: 100}, nil)
//	    report, _ := trainer.Run(context.Background(), train, nil)
//	    _ = report
//
//	    class, probs, _ := net.Predict(train.Examples[0].Image)
//	    _, _ = class, probs
//	}
//
// Images hold raw pixel values in [0, 255]; the network normalizes them to
// [-0.5, 0.5] itself.
package cnn
