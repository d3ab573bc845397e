// Package numeric provides the dense container capability set that weights
// and update rules are generic over.
//
// Vectors are *mat.VecDense and matrices are *mat.Dense from gonum. A Space
// exposes the same elementwise and reduction operations for both, so an
// update rule is written once and instantiated per container type:
//
//	func step[X any](s numeric.Space[X], value, grad X, rate float64) {
//	    s.AddScaled(value, -rate, grad)
//	}
//
//	step(numeric.Vectors, bias, biasGrad, 0.1)
//	step(numeric.Matrices, weights, weightGrad, 0.1)
//
// All in-place operations write into their first argument. Operands must
// have identical shape; gonum panics otherwise.
package numeric

import (
	"github.com/born-ml/paramcore/internal/serialization"
)

// Kind identifies the rank of a container.
type Kind uint8

// Container kinds.
const (
	KindVector Kind = iota + 1
	KindMatrix
)

// String returns the container kind name.
func (k Kind) String() string {
	switch k {
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Space is the capability set of one container type X.
type Space[X any] interface {
	// Kind reports whether X is a vector or a matrix.
	Kind() Kind

	// Dims returns the shape of x. Vectors report (len, 1).
	Dims(x X) (r, c int)

	// SameShape reports whether a and b have identical dimensions.
	SameShape(a, b X) bool

	// ZerosLike allocates a zero container shaped like x.
	ZerosLike(x X) X

	// Clone returns a deep copy of x.
	Clone(x X) X

	// Copy copies src into dst.
	Copy(dst, src X)

	// Zero sets every element of x to zero.
	Zero(x X)

	// Scale computes dst *= alpha.
	Scale(dst X, alpha float64)

	// AddScaled computes dst += alpha * a.
	AddScaled(dst X, alpha float64, a X)

	// AddConst computes dst += c elementwise.
	AddConst(dst X, c float64)

	// MulElem computes dst = a ∘ b.
	MulElem(dst, a, b X)

	// DivElem computes dst = a / b elementwise.
	DivElem(dst, a, b X)

	// Sqrt computes dst = sqrt(dst) elementwise.
	Sqrt(dst X)

	// Norm returns the Euclidean norm of a vector or the Frobenius norm of a matrix.
	Norm(x X) float64

	// Write persists x with the container's type tag.
	Write(enc *serialization.Encoder, x X) error

	// Read restores a container written by Write. ok is false when the
	// stream holds an absent value.
	Read(dec *serialization.Decoder) (x X, ok bool, err error)
}
