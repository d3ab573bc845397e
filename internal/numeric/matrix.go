package numeric

import (
	"math"

	"github.com/born-ml/paramcore/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// Matrices is the Space of dense row-major matrices.
var Matrices Space[*mat.Dense] = matrixSpace{}

type matrixSpace struct{}

func (matrixSpace) Kind() Kind { return KindMatrix }

func (matrixSpace) Dims(x *mat.Dense) (r, c int) { return x.Dims() }

func (matrixSpace) SameShape(a, b *mat.Dense) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}

func (matrixSpace) ZerosLike(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	return mat.NewDense(r, c, nil)
}

func (matrixSpace) Clone(x *mat.Dense) *mat.Dense { return mat.DenseCopyOf(x) }

func (matrixSpace) Copy(dst, src *mat.Dense) { dst.Copy(src) }

func (matrixSpace) Zero(x *mat.Dense) { x.Zero() }

func (matrixSpace) Scale(dst *mat.Dense, alpha float64) { dst.Scale(alpha, dst) }

func (matrixSpace) AddScaled(dst *mat.Dense, alpha float64, a *mat.Dense) {
	dst.Apply(func(i, j int, v float64) float64 {
		return v + alpha*a.At(i, j)
	}, dst)
}

func (matrixSpace) AddConst(dst *mat.Dense, c float64) {
	dst.Apply(func(_, _ int, v float64) float64 { return v + c }, dst)
}

func (matrixSpace) MulElem(dst, a, b *mat.Dense) { dst.MulElem(a, b) }

func (matrixSpace) DivElem(dst, a, b *mat.Dense) { dst.DivElem(a, b) }

func (matrixSpace) Sqrt(dst *mat.Dense) {
	dst.Apply(func(_, _ int, v float64) float64 { return math.Sqrt(v) }, dst)
}

func (matrixSpace) Norm(x *mat.Dense) float64 { return mat.Norm(x, 2) }

func (matrixSpace) Write(enc *serialization.Encoder, x *mat.Dense) error {
	return enc.WriteMatrix(x)
}

func (matrixSpace) Read(dec *serialization.Decoder) (*mat.Dense, bool, error) {
	m, err := dec.ReadMatrix()
	if err != nil || m == nil {
		return nil, false, err
	}
	return m, true, nil
}
