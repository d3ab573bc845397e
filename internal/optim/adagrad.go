package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/paramcore/internal/numeric"
)

// AdaGrad implements the AdaGrad optimizer.
//
// Update rule:
//
//	history = history + d²
//	value = value - d ∘ rate / (sqrt(history) + fudgeFactor)
//
// history only grows; it is never decayed or reset while the weight lives.
//
// Reference: "Adaptive Subgradient Methods for Online Learning and
// Stochastic Optimization" (Duchi et al., 2011)
type AdaGrad[X any] struct {
	base[X]
	rate        float64
	fudgeFactor float64
	history     lazy[X]
}

// AdaGradConfig holds configuration for AdaGrad.
type AdaGradConfig struct {
	Rate        float64 `yaml:"rate"`         // Learning rate (default: 0.6)
	L2Decay     float64 `yaml:"l2decay"`      // L2 coefficient (default: 0.0001)
	FudgeFactor float64 `yaml:"fudge_factor"` // Denominator offset (default: 1e-6)
}

// DefaultAdaGradConfig returns the default AdaGrad hyperparameters.
func DefaultAdaGradConfig() AdaGradConfig {
	return AdaGradConfig{Rate: 0.6, L2Decay: 0.0001, FudgeFactor: 1e-6}
}

// Validate checks the hyperparameters.
func (c AdaGradConfig) Validate() error {
	if !(c.Rate > 0) || math.IsInf(c.Rate, 1) {
		return fmt.Errorf("%w: adagrad rate %v", ErrInvalidHyperparam, c.Rate)
	}
	if err := checkL2(c.L2Decay); err != nil {
		return err
	}
	if !(c.FudgeFactor > 0) {
		return fmt.Errorf("%w: adagrad fudge factor %v must be positive", ErrInvalidHyperparam, c.FudgeFactor)
	}
	return nil
}

// Hyperparameters returns [rate, l2decay, fudgeFactor].
func (c AdaGradConfig) Hyperparameters() []float64 {
	return []float64{c.Rate, c.L2Decay, c.FudgeFactor}
}

func adaGradConfigFrom(p []float64) (AdaGradConfig, error) {
	if len(p) != 3 {
		return AdaGradConfig{}, fmt.Errorf("%w: adagrad expects 3, got %d", ErrHyperparamCount, len(p))
	}
	return AdaGradConfig{Rate: p[0], L2Decay: p[1], FudgeFactor: p[2]}, nil
}

// NewAdaGrad creates an AdaGrad updater for one weight's value and delta.
func NewAdaGrad[X any](space numeric.Space[X], value, delta X, cfg AdaGradConfig) *AdaGrad[X] {
	return &AdaGrad[X]{
		base:        base[X]{space: space, value: value, delta: delta, l2decay: cfg.L2Decay},
		rate:        cfg.Rate,
		fudgeFactor: cfg.FudgeFactor,
	}
}

// Update applies one AdaGrad step using the delta accumulated over count examples.
func (a *AdaGrad[X]) Update(count int) error {
	d, err := a.gradient(count)
	if err != nil {
		return err
	}
	s := a.space

	history := a.history.cloneOr(s, d)
	s.AddScaled(history, 1, square(s, d))

	// step = d ∘ rate / (sqrt(history) + fudge)
	denom := s.Clone(history)
	s.Sqrt(denom)
	s.AddConst(denom, a.fudgeFactor)
	step := s.ZerosLike(d)
	s.DivElem(step, d, denom)
	s.Scale(step, a.rate)

	a.commit(step)
	a.history.set(history)
	return nil
}

// History returns the accumulated squared gradients and whether they have
// been allocated.
func (a *AdaGrad[X]) History() (X, bool) {
	return a.history.buf, a.history.ok
}
