// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the update algorithms and weight builders.
//
// # Overview
//
// This package contains:
//   - SGD: gradient descent with optional momentum
//   - AdaGrad: per-element rates from accumulated squared gradients
//   - AdaDelta: per-element rates from decaying averages of squared
//     gradients and squared steps
//   - Builder: initializes weights and binds them to one of the above
//   - Config: YAML configuration selecting an algorithm
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/paramcore/nn"
//	    "github.com/born-ml/paramcore/optim"
//	)
//
//	func main() {
//	    builder := optim.NewSGDBuilder(optim.SGDConfig{
//	        Rate:     0.03,
//	        L2Decay:  0.0001,
//	        Momentum: 0.9,
//	    })
//
//	    w := nn.NewMatrixWeight("w")
//	    _ = builder.InitializeMatrix(w, 4, 8, nn.DefaultRange)
//
//	    for _, batch := range batches {
//	        for _, g := range gradients(batch) {
//	            _ = w.AccumulateGradient(g)
//	        }
//	        _ = w.Apply(len(batch))
//	    }
//	}
//
// # Configuration
//
//	cfg, _ := optim.LoadConfig("optim.yaml")
//	builder, _ := cfg.NewBuilder()
//
// with a file such as
//
//	algorithm: adadelta
//	seed: 42
//	adadelta:
//	  decay: 0.9
//
// Every Update(count) normalizes the accumulated delta by count, adds L2
// regularization (d = value * 2 * l2decay + delta), then applies the rule.
package optim
