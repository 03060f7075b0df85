// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers of the tinycnn classifier.
//
// # Overview
//
// This package contains:
//   - Layers: Conv, MaxPool, Dense
//   - Output: Softmax, CrossEntropy and their gradients
//   - Utilities: Regions sliding-window iterator, Randn initialization
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/tinycnn/nn"
//	    "github.com/born-ml/tinycnn/tensor"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewSource(1))
//	    conv, _ := nn.NewConv(8, 3, 1, rng)
//	    pool, _ := nn.NewMaxPool(2)
//	    dense, _ := nn.NewDense(13*13*8, 10, rng)
//
//	    out, _ := conv.Forward(image)
//	    out, _ = pool.Forward(out)
//	    totals, _ := dense.Forward(out)
//	    probs := nn.Softmax(totals)
//	}
//
// # Training
//
// Each layer keeps the input of its last Forward call. Backward consumes it,
// applies a gradient-descent step to the layer's own parameters and returns
// the gradient with respect to the layer input:
//
//	dProbs, _ := nn.CrossEntropyGrad(probs, label, 0)
//	dTotals, _ := nn.SoftmaxBackward(probs, dProbs)
//	dPool, _ := dense.Backward(dTotals, lr)
//	dConv, _ := pool.Backward(dPool)
//	_ = conv.Backward(dConv, lr)
//
// The model package wires this chain together.
package nn
