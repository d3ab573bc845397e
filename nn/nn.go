// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"io"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/numeric"
	"github.com/born-ml/paramcore/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// Containers

// Space is the set of container operations a Weight needs.
type Space[X any] = numeric.Space[X]

// Vectors is the Space of *mat.VecDense.
var Vectors = numeric.Vectors

// Matrices is the Space of *mat.Dense.
var Matrices = numeric.Matrices

// Weights

// Weight is a trainable parameter cell.
type Weight[X any] = nn.Weight[X]

// Updater applies one update rule to a weight's value and delta.
type Updater = nn.Updater

// UpdaterFactory creates an Updater bound to a weight's value and delta.
type UpdaterFactory[X any] = nn.UpdaterFactory[X]

// WeightBuilder initializes weights and binds them to an update algorithm.
type WeightBuilder = nn.WeightBuilder

// Range is a uniform initialization interval.
type Range = nn.Range

// DefaultRange is the default initialization interval.
var DefaultRange = nn.DefaultRange

// NewWeight creates an empty weight over the given container space.
func NewWeight[X any](name string, space Space[X]) *Weight[X] {
	return nn.NewWeight(name, space)
}

// NewVectorWeight creates an empty vector weight.
func NewVectorWeight(name string) *Weight[*mat.VecDense] {
	return nn.NewVectorWeight(name)
}

// NewMatrixWeight creates an empty matrix weight.
func NewMatrixWeight(name string) *Weight[*mat.Dense] {
	return nn.NewMatrixWeight(name)
}

// Clipping

// ClipPolicy rescales gradients whose norm reaches a threshold.
type ClipPolicy = nn.ClipPolicy

// NewClipPolicy returns a policy with the given threshold (0: unset).
func NewClipPolicy(threshold float64) (*ClipPolicy, error) {
	return nn.NewClipPolicy(threshold)
}

// SetClipThreshold sets the process-wide clipping threshold.
func SetClipThreshold(t float64) error {
	return nn.SetClipThreshold(t)
}

// DefaultClipPolicy returns the process-wide clipping policy.
func DefaultClipPolicy() *ClipPolicy {
	return nn.DefaultClipPolicy()
}

// Clip rescales x in place according to p and returns it.
func Clip[X any](s Space[X], p *ClipPolicy, x X) X {
	return nn.Clip(s, p, x)
}

// Layers

// Layer is a trainable transformation of a single input vector.
type Layer = nn.Layer

// Bilinear is a rank-3 tensor layer.
type Bilinear = nn.Bilinear

// BilinearConfig describes a bilinear layer.
type BilinearConfig = nn.BilinearConfig

// NewBilinear creates an uninitialized bilinear layer.
func NewBilinear(cfg BilinearConfig) (*Bilinear, error) {
	return nn.NewBilinear(cfg)
}

// ReadBilinear restores a layer written by Bilinear.WriteTo.
func ReadBilinear(dec *serialization.Decoder, cfg BilinearConfig) (*Bilinear, error) {
	return nn.ReadBilinear(dec, cfg)
}

// Sequential chains layers.
type Sequential = nn.Sequential

// NewSequential creates a new Sequential container.
//
// Example:
//
//	model := nn.NewSequential(hidden, head)
func NewSequential(layers ...Layer) *Sequential {
	return nn.NewSequential(layers...)
}

// Splitter derives the two bilinear operands from one input vector.
type Splitter = nn.Splitter

// ConcatSplit reads the input as [a; b].
type ConcatSplit = nn.ConcatSplit

// SharedSplit uses the whole input as both operands.
type SharedSplit = nn.SharedSplit

// Activations

// Activation is a stateless elementwise function.
type Activation = nn.Activation

// Sigmoid activation.
type Sigmoid = nn.Sigmoid

// Tanh activation.
type Tanh = nn.Tanh

// ReLU activation.
type ReLU = nn.ReLU

// Softplus activation.
type Softplus = nn.Softplus

// Identity activation.
type Identity = nn.Identity

// ActivationByName looks up a built-in activation.
func ActivationByName(name string) (Activation, error) {
	return nn.ActivationByName(name)
}

// Loss functions

// MSELoss computes Mean Squared Error loss.
type MSELoss = nn.MSELoss

// Persistence

// Encoder writes layer and builder streams.
type Encoder = serialization.Encoder

// Decoder reads streams written by Encoder.
type Decoder = serialization.Decoder

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder { return serialization.NewEncoder(w) }

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder { return serialization.NewDecoder(r) }

// ReadSequential restores a container written by Sequential.WriteTo; read
// decodes layer i.
func ReadSequential(dec *Decoder, read func(i int, dec *Decoder) (Layer, error)) (*Sequential, error) {
	return nn.ReadSequential(dec, read)
}

// Errors

// ShapeError describes a rejected operand.
type ShapeError = nn.ShapeError

// Sentinel errors.
var (
	ErrNotInitialized     = nn.ErrNotInitialized
	ErrAlreadyInitialized = nn.ErrAlreadyInitialized
	ErrUnbound            = nn.ErrUnbound
	ErrShapeMismatch      = nn.ErrShapeMismatch
	ErrInvalidBatchSize   = nn.ErrInvalidBatchSize
	ErrInvalidThreshold   = nn.ErrInvalidThreshold
	ErrInvalidRange       = nn.ErrInvalidRange
	ErrUnknownActivation  = nn.ErrUnknownActivation
)
