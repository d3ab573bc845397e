// Package optim implements the update algorithms and weight builders.
//
// This package provides:
//   - SGD: stochastic gradient descent with optional momentum
//   - AdaGrad: per-element rates from accumulated squared gradients
//   - AdaDelta: per-element rates from decaying averages of squared
//     gradients and squared steps
//   - Builder: initializes weights and binds them to one of the above
//
// Every algorithm is a single generic body over numeric.Space, so vector
// and matrix weights share the same code. Each Update(count) call
//
//  1. normalizes the accumulated delta by count (the mini-batch size),
//  2. adds L2 regularization: d = value * 2 * l2decay + delta,
//  3. computes the full step and any new history off to the side,
//  4. subtracts the step from value, installs the new history and zeroes delta.
//
// Example usage:
//
//	builder := optim.NewAdaGradBuilder(optim.DefaultAdaGradConfig(), optim.WithSeed(42))
//
//	w := nn.NewMatrixWeight("linear")
//	_ = builder.InitializeMatrix(w, 4, 8, nn.DefaultRange)
//
//	// Training loop
//	for _, batch := range batches {
//	    for _, g := range gradients(batch) {
//	        _ = w.AccumulateGradient(g)
//	    }
//	    _ = w.Apply(len(batch))
//	}
package optim

import (
	"fmt"
	"strings"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/numeric"
)

// Kind tags the closed set of update algorithms.
type Kind uint8

// Update algorithms.
const (
	KindSGD Kind = iota + 1
	KindAdaGrad
	KindAdaDelta
)

// String returns the algorithm name used in configuration and checkpoints.
func (k Kind) String() string {
	switch k {
	case KindSGD:
		return "sgd"
	case KindAdaGrad:
		return "adagrad"
	case KindAdaDelta:
		return "adadelta"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses an algorithm name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sgd", "sgd-momentum", "momentum":
		return KindSGD, nil
	case "adagrad":
		return KindAdaGrad, nil
	case "adadelta":
		return KindAdaDelta, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// lazy is an optimizer history buffer allocated on first use.
type lazy[X any] struct {
	buf X
	ok  bool
}

// cloneOr returns a copy of the buffer, or zeros shaped like like when the
// buffer has not been allocated yet.
func (l *lazy[X]) cloneOr(s numeric.Space[X], like X) X {
	if l.ok {
		return s.Clone(l.buf)
	}
	return s.ZerosLike(like)
}

func (l *lazy[X]) set(x X) {
	l.buf = x
	l.ok = true
}

// allocated reports whether the buffer exists.
func (l *lazy[X]) allocated() bool {
	return l.ok
}

// base holds what every algorithm shares: the borrowed (value, delta) pair
// of one weight and the L2 coefficient.
type base[X any] struct {
	space   numeric.Space[X]
	value   X
	delta   X
	l2decay float64
}

// L2Factor returns the L2 regularization coefficient.
func (b *base[X]) L2Factor() float64 {
	return b.l2decay
}

// gradient returns d = value * 2 * l2decay + delta / count without touching
// value or delta.
func (b *base[X]) gradient(count int) (X, error) {
	if count <= 0 {
		var zero X
		return zero, fmt.Errorf("%w: %d", nn.ErrInvalidBatchSize, count)
	}
	d := b.space.Clone(b.delta)
	b.space.Scale(d, 1/float64(count))
	b.space.AddScaled(d, 2*b.l2decay, b.value)
	return d, nil
}

// commit subtracts step from value and clears the accumulated delta.
func (b *base[X]) commit(step X) {
	b.space.AddScaled(b.value, -1, step)
	b.space.Zero(b.delta)
}

// square returns x ∘ x.
func square[X any](s numeric.Space[X], x X) X {
	sq := s.ZerosLike(x)
	s.MulElem(sq, x, x)
	return sq
}
