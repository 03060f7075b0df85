// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the float64 tensors used by tinycnn.
//
// # Overview
//
// A Tensor has a fixed shape and mutable, contiguous row-major storage.
// Images are laid out height × width × channels.
//
// # Basic Usage
//
//	import "github.com/born-ml/tinycnn/tensor"
//
//	img := tensor.Zeros(tensor.Shape{28, 28, 1})
//	img.Set(255, 14, 14, 0)
//
//	a, _ := tensor.FromSlice(tensor.Shape{3}, []float64{1, 2, 3})
//	b, _ := tensor.FromSlice(tensor.Shape{3}, []float64{4, 5, 6})
//	dot, _ := tensor.Dot(a, b) // 32
//
// Element-wise operations require identical shapes and return
// ErrShapeMismatch otherwise; there is no broadcasting.
package tensor
