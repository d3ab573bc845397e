// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides trainable weights and the bilinear tensor layer.
//
// # Overview
//
// This package contains:
//   - Weight: value, accumulated gradient and a bound update algorithm
//   - ClipPolicy: gradient clipping by norm on every accumulation
//   - Layers: Bilinear, Sequential
//   - Activations: Sigmoid, Tanh, ReLU, Softplus, Identity
//   - Loss functions: MSELoss
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/paramcore/nn"
//	    "github.com/born-ml/paramcore/optim"
//	)
//
//	func main() {
//	    builder := optim.NewAdaGradBuilder(optim.DefaultAdaGradConfig())
//
//	    layer, _ := nn.NewBilinear(nn.BilinearConfig{
//	        OutputDim: 2,
//	        Splitter:  nn.ConcatSplit{A: 3, B: 3},
//	    })
//	    _ = layer.Initialize(builder)
//
//	    out, _ := layer.Apply(x)
//	}
//
// # Training Loop Pattern
//
//	var mse nn.MSELoss
//	for _, batch := range batches {
//	    for _, ex := range batch {
//	        out, _ := layer.Apply(ex.Input)
//	        errOut, _ := mse.Gradient(out, ex.Target)
//	        _, _ = layer.Backward(ex.Input, out, errOut)
//	    }
//	    _ = layer.Update(len(batch))
//	}
//
// Backward may be called from several goroutines for the examples of one
// batch; Update must run after all of them have returned.
//
// # Gradient Clipping
//
// Every gradient contribution is rescaled to the threshold when its norm
// reaches it:
//
//	_ = nn.SetClipThreshold(5)          // process-wide default
//	p, _ := nn.NewClipPolicy(1)         // or per layer
//	layer.SetClipPolicy(p)
//
// # Persistence
//
// WriteTo stores weight values only. A restored layer must be initialized
// again before training; the builder keeps restored values and binds fresh
// optimizer state:
//
//	restored, _ := nn.ReadBilinear(dec, nn.BilinearConfig{Splitter: nn.ConcatSplit{A: 3, B: 3}})
//	_ = restored.Initialize(builder)
package nn
