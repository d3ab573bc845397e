package numeric

import (
	"math"

	"github.com/born-ml/paramcore/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// Vectors is the Space of dense column vectors.
var Vectors Space[*mat.VecDense] = vectorSpace{}

type vectorSpace struct{}

func (vectorSpace) Kind() Kind { return KindVector }

func (vectorSpace) Dims(x *mat.VecDense) (r, c int) { return x.Len(), 1 }

func (vectorSpace) SameShape(a, b *mat.VecDense) bool { return a.Len() == b.Len() }

func (vectorSpace) ZerosLike(x *mat.VecDense) *mat.VecDense { return mat.NewVecDense(x.Len(), nil) }

func (vectorSpace) Clone(x *mat.VecDense) *mat.VecDense { return mat.VecDenseCopyOf(x) }

func (vectorSpace) Copy(dst, src *mat.VecDense) { dst.CopyVec(src) }

func (vectorSpace) Zero(x *mat.VecDense) { x.Zero() }

func (vectorSpace) Scale(dst *mat.VecDense, alpha float64) { dst.ScaleVec(alpha, dst) }

func (vectorSpace) AddScaled(dst *mat.VecDense, alpha float64, a *mat.VecDense) {
	dst.AddScaledVec(dst, alpha, a)
}

func (vectorSpace) AddConst(dst *mat.VecDense, c float64) {
	for i := 0; i < dst.Len(); i++ {
		dst.SetVec(i, dst.AtVec(i)+c)
	}
}

func (vectorSpace) MulElem(dst, a, b *mat.VecDense) { dst.MulElemVec(a, b) }

func (vectorSpace) DivElem(dst, a, b *mat.VecDense) { dst.DivElemVec(a, b) }

func (vectorSpace) Sqrt(dst *mat.VecDense) {
	for i := 0; i < dst.Len(); i++ {
		dst.SetVec(i, math.Sqrt(dst.AtVec(i)))
	}
}

func (vectorSpace) Norm(x *mat.VecDense) float64 { return mat.Norm(x, 2) }

func (vectorSpace) Write(enc *serialization.Encoder, x *mat.VecDense) error {
	return enc.WriteVector(x)
}

func (vectorSpace) Read(dec *serialization.Decoder) (*mat.VecDense, bool, error) {
	v, err := dec.ReadVector()
	if err != nil || v == nil {
		return nil, false, err
	}
	return v, true, nil
}
