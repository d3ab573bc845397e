// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/paramcore/internal/numeric"
	"github.com/born-ml/paramcore/internal/optim"
	"github.com/born-ml/paramcore/internal/serialization"
)

// Kind tags the update algorithm of a Builder.
type Kind = optim.Kind

// Update algorithms.
const (
	KindSGD      = optim.KindSGD
	KindAdaGrad  = optim.KindAdaGrad
	KindAdaDelta = optim.KindAdaDelta
)

// ParseKind parses an algorithm name.
func ParseKind(s string) (Kind, error) {
	return optim.ParseKind(s)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD algorithm with optional momentum.
type SGD[X any] = optim.SGD[X]

// SGDConfig contains configuration for SGD.
type SGDConfig = optim.SGDConfig

// DefaultSGDConfig returns the default SGD hyperparameters.
func DefaultSGDConfig() SGDConfig { return optim.DefaultSGDConfig() }

// NewSGD creates an SGD updater for one weight's value and delta.
func NewSGD[X any](space numeric.Space[X], value, delta X, cfg SGDConfig) *SGD[X] {
	return optim.NewSGD(space, value, delta, cfg)
}

// AdaGrad

// AdaGrad represents the AdaGrad algorithm.
type AdaGrad[X any] = optim.AdaGrad[X]

// AdaGradConfig contains configuration for AdaGrad.
type AdaGradConfig = optim.AdaGradConfig

// DefaultAdaGradConfig returns the default AdaGrad hyperparameters.
func DefaultAdaGradConfig() AdaGradConfig { return optim.DefaultAdaGradConfig() }

// NewAdaGrad creates an AdaGrad updater for one weight's value and delta.
func NewAdaGrad[X any](space numeric.Space[X], value, delta X, cfg AdaGradConfig) *AdaGrad[X] {
	return optim.NewAdaGrad(space, value, delta, cfg)
}

// AdaDelta

// AdaDelta represents the AdaDelta algorithm.
type AdaDelta[X any] = optim.AdaDelta[X]

// AdaDeltaConfig contains configuration for AdaDelta.
type AdaDeltaConfig = optim.AdaDeltaConfig

// DefaultAdaDeltaConfig returns the default AdaDelta hyperparameters.
func DefaultAdaDeltaConfig() AdaDeltaConfig { return optim.DefaultAdaDeltaConfig() }

// NewAdaDelta creates an AdaDelta updater for one weight's value and delta.
func NewAdaDelta[X any](space numeric.Space[X], value, delta X, cfg AdaDeltaConfig) *AdaDelta[X] {
	return optim.NewAdaDelta(space, value, delta, cfg)
}

// Builders

// Builder initializes weights and binds them to an update algorithm.
type Builder = optim.Builder

// BuilderOption configures a Builder.
type BuilderOption = optim.BuilderOption

// WithSeed makes random initialization reproducible.
func WithSeed(seed uint64) BuilderOption { return optim.WithSeed(seed) }

// NewSGDBuilder creates a builder for SGD weights.
func NewSGDBuilder(cfg SGDConfig, opts ...BuilderOption) *Builder {
	return optim.NewSGDBuilder(cfg, opts...)
}

// NewAdaGradBuilder creates a builder for AdaGrad weights.
func NewAdaGradBuilder(cfg AdaGradConfig, opts ...BuilderOption) *Builder {
	return optim.NewAdaGradBuilder(cfg, opts...)
}

// NewAdaDeltaBuilder creates a builder for AdaDelta weights.
func NewAdaDeltaBuilder(cfg AdaDeltaConfig, opts ...BuilderOption) *Builder {
	return optim.NewAdaDeltaBuilder(cfg, opts...)
}

// NewBuilder creates a builder from a fixed-order hyperparameter list.
func NewBuilder(kind Kind, params []float64, opts ...BuilderOption) (*Builder, error) {
	return optim.NewBuilder(kind, params, opts...)
}

// ReadBuilder restores a builder written by Builder.WriteTo.
func ReadBuilder(dec *serialization.Decoder, opts ...BuilderOption) (*Builder, error) {
	return optim.ReadBuilder(dec, opts...)
}

// Configuration

// Config selects an update algorithm and its hyperparameters.
type Config = optim.Config

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return optim.DefaultConfig() }

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(data []byte) (Config, error) { return optim.ParseConfig(data) }

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) { return optim.LoadConfig(path) }

// Errors
var (
	ErrUnknownAlgorithm  = optim.ErrUnknownAlgorithm
	ErrInvalidHyperparam = optim.ErrInvalidHyperparam
	ErrHyperparamCount   = optim.ErrHyperparamCount
	ErrInvalidDimensions = optim.ErrInvalidDimensions
)
