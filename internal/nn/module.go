// Package nn implements trainable weights and the bilinear layer.
//
// This package provides:
//   - Weight: a parameter cell holding value, accumulated gradient and the
//     bound update algorithm
//   - ClipPolicy: gradient clipping by norm, applied on every accumulation
//   - Activations: Sigmoid, Tanh, ReLU, Softplus, Identity
//   - Bilinear: a rank-3 tensor layer f(aᵀ Q b + L x + b) with its backward pass
//   - Sequential: a container chaining layers
//   - MSELoss: mean squared error and its gradient
//
// Update algorithms live in package optim, which builds weights through the
// WeightBuilder interface declared here.
package nn

import (
	"github.com/born-ml/paramcore/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// Layer is a trainable transformation of a single input vector.
//
// A training driver calls Apply and Backward once per example, then Update
// once per mini-batch after every Backward of that batch has returned.
type Layer interface {
	// Initialize builds every weight through b.
	Initialize(b WeightBuilder) error

	// Apply computes the layer output for x.
	Apply(x *mat.VecDense) (*mat.VecDense, error)

	// Backward accumulates weight gradients for one example and returns
	// the error for the layer below.
	Backward(in, out, errOut *mat.VecDense) (*mat.VecDense, error)

	// Loss returns the regularization loss of the layer's weights.
	Loss() (float64, error)

	// Update applies the accumulated gradients of a mini-batch of count examples.
	Update(count int) error

	// DiscardGradients drops the accumulated gradients of every weight.
	DiscardGradients()

	// WriteTo persists the layer.
	WriteTo(enc *serialization.Encoder) error
}

var _ Layer = (*Bilinear)(nil)
