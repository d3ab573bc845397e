package optim

import (
	"fmt"

	"github.com/born-ml/paramcore/internal/numeric"
)

// AdaDelta implements the AdaDelta optimizer.
//
// Update rule:
//
//	gradSq  = decay * gradSq + (1-decay) * d²
//	step    = d ∘ sqrt(deltaSq + eps) / sqrt(gradSq + eps)
//	value   = value - step
//	deltaSq = decay * deltaSq + (1-decay) * step²
//
// There is no learning rate: the ratio of the two running averages sets
// the per-element step size.
//
// Reference: "ADADELTA: An Adaptive Learning Rate Method" (Zeiler, 2012)
type AdaDelta[X any] struct {
	base[X]
	decay   float64
	epsilon float64
	gradSq  lazy[X]
	deltaSq lazy[X]
}

// AdaDeltaConfig holds configuration for AdaDelta.
type AdaDeltaConfig struct {
	L2Decay float64 `yaml:"l2decay"` // L2 coefficient (default: 0.0001)
	Decay   float64 `yaml:"decay"`   // History decay (default: 0.95)
	Epsilon float64 `yaml:"epsilon"` // Conditioning term (default: 1e-6)
}

// DefaultAdaDeltaConfig returns the default AdaDelta hyperparameters.
func DefaultAdaDeltaConfig() AdaDeltaConfig {
	return AdaDeltaConfig{L2Decay: 0.0001, Decay: 0.95, Epsilon: 1e-6}
}

// Validate checks the hyperparameters.
func (c AdaDeltaConfig) Validate() error {
	if err := checkL2(c.L2Decay); err != nil {
		return err
	}
	if !(c.Decay >= 0 && c.Decay < 1) {
		return fmt.Errorf("%w: adadelta decay %v must be in [0, 1)", ErrInvalidHyperparam, c.Decay)
	}
	if !(c.Epsilon > 0) {
		return fmt.Errorf("%w: adadelta epsilon %v must be positive", ErrInvalidHyperparam, c.Epsilon)
	}
	return nil
}

// Hyperparameters returns [l2decay, decay, epsilon].
func (c AdaDeltaConfig) Hyperparameters() []float64 {
	return []float64{c.L2Decay, c.Decay, c.Epsilon}
}

func adaDeltaConfigFrom(p []float64) (AdaDeltaConfig, error) {
	if len(p) != 3 {
		return AdaDeltaConfig{}, fmt.Errorf("%w: adadelta expects 3, got %d", ErrHyperparamCount, len(p))
	}
	return AdaDeltaConfig{L2Decay: p[0], Decay: p[1], Epsilon: p[2]}, nil
}

// NewAdaDelta creates an AdaDelta updater for one weight's value and delta.
func NewAdaDelta[X any](space numeric.Space[X], value, delta X, cfg AdaDeltaConfig) *AdaDelta[X] {
	return &AdaDelta[X]{
		base:    base[X]{space: space, value: value, delta: delta, l2decay: cfg.L2Decay},
		decay:   cfg.Decay,
		epsilon: cfg.Epsilon,
	}
}

// Update applies one AdaDelta step using the delta accumulated over count examples.
func (a *AdaDelta[X]) Update(count int) error {
	d, err := a.gradient(count)
	if err != nil {
		return err
	}
	s := a.space

	gradSq := a.gradSq.cloneOr(s, d)
	s.Scale(gradSq, a.decay)
	s.AddScaled(gradSq, 1-a.decay, square(s, d))

	// rate = sqrt(deltaSq + eps) / sqrt(gradSq + eps)
	num := a.deltaSq.cloneOr(s, d)
	s.AddConst(num, a.epsilon)
	s.Sqrt(num)
	den := s.Clone(gradSq)
	s.AddConst(den, a.epsilon)
	s.Sqrt(den)
	rate := s.ZerosLike(d)
	s.DivElem(rate, num, den)

	step := s.ZerosLike(d)
	s.MulElem(step, d, rate)

	deltaSq := a.deltaSq.cloneOr(s, d)
	s.Scale(deltaSq, a.decay)
	s.AddScaled(deltaSq, 1-a.decay, square(s, step))

	a.commit(step)
	a.gradSq.set(gradSq)
	a.deltaSq.set(deltaSq)
	return nil
}

// Histories returns the running averages of squared gradients and squared
// steps, and whether they have been allocated.
func (a *AdaDelta[X]) Histories() (gradSq, deltaSq X, ok bool) {
	return a.gradSq.buf, a.deltaSq.buf, a.gradSq.ok
}
