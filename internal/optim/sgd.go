package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/paramcore/internal/numeric"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// With d the regularized, batch-normalized gradient:
//
// Update rule without momentum:
//
//	value = value - d
//
// Update rule with momentum:
//
//	lastDelta = momentum * lastDelta + d
//	value = value - lastDelta
//
// lastDelta is only allocated when momentum is non-zero. The step is not
// multiplied by Rate: scale gradients before accumulation to change the
// step size. Rate is carried so the persisted hyperparameter list keeps
// its fixed layout.
type SGD[X any] struct {
	base[X]
	rate      float64
	momentum  float64
	lastDelta lazy[X]
}

// SGDConfig holds configuration for SGD.
type SGDConfig struct {
	Rate     float64 `yaml:"rate"`     // Learning rate (default: 0.03)
	L2Decay  float64 `yaml:"l2decay"`  // L2 coefficient (default: 0.0001)
	Momentum float64 `yaml:"momentum"` // Momentum factor (default: 0.0001, 0 disables history)
}

// DefaultSGDConfig returns the default SGD hyperparameters.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{Rate: 0.03, L2Decay: 0.0001, Momentum: 0.0001}
}

// Validate checks the hyperparameters.
func (c SGDConfig) Validate() error {
	if !(c.Rate > 0) || math.IsInf(c.Rate, 1) {
		return fmt.Errorf("%w: sgd rate %v", ErrInvalidHyperparam, c.Rate)
	}
	if err := checkL2(c.L2Decay); err != nil {
		return err
	}
	if !(c.Momentum >= 0 && c.Momentum < 1) {
		return fmt.Errorf("%w: sgd momentum %v must be in [0, 1)", ErrInvalidHyperparam, c.Momentum)
	}
	return nil
}

// Hyperparameters returns [rate, l2decay, momentum].
func (c SGDConfig) Hyperparameters() []float64 {
	return []float64{c.Rate, c.L2Decay, c.Momentum}
}

func sgdConfigFrom(p []float64) (SGDConfig, error) {
	if len(p) != 3 {
		return SGDConfig{}, fmt.Errorf("%w: sgd expects 3, got %d", ErrHyperparamCount, len(p))
	}
	return SGDConfig{Rate: p[0], L2Decay: p[1], Momentum: p[2]}, nil
}

// NewSGD creates an SGD updater for one weight's value and delta.
func NewSGD[X any](space numeric.Space[X], value, delta X, cfg SGDConfig) *SGD[X] {
	return &SGD[X]{
		base:     base[X]{space: space, value: value, delta: delta, l2decay: cfg.L2Decay},
		rate:     cfg.Rate,
		momentum: cfg.Momentum,
	}
}

// Update applies one SGD step using the delta accumulated over count examples.
func (s *SGD[X]) Update(count int) error {
	d, err := s.gradient(count)
	if err != nil {
		return err
	}

	if s.momentum == 0 {
		s.commit(d)
		return nil
	}

	// d becomes the new lastDelta: momentum * lastDelta + d
	if s.lastDelta.allocated() {
		s.space.AddScaled(d, s.momentum, s.lastDelta.buf)
	}
	s.commit(d)
	s.lastDelta.set(d)
	return nil
}

// Rate returns the configured learning rate.
func (s *SGD[X]) Rate() float64 {
	return s.rate
}

// Momentum returns the momentum factor.
func (s *SGD[X]) Momentum() float64 {
	return s.momentum
}

// LastDelta returns the momentum buffer and whether it has been allocated.
func (s *SGD[X]) LastDelta() (X, bool) {
	return s.lastDelta.buf, s.lastDelta.ok
}

func checkL2(l2 float64) error {
	if !(l2 >= 0) || math.IsInf(l2, 1) {
		return fmt.Errorf("%w: l2decay %v must be finite and non-negative", ErrInvalidHyperparam, l2)
	}
	return nil
}
