package numeric

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Outer returns alpha * x yᵀ as a new len(x) × len(y) matrix.
func Outer(alpha float64, x, y mat.Vector) *mat.Dense {
	m := mat.NewDense(x.Len(), y.Len(), nil)
	m.Outer(alpha, x, y)
	return m
}

// MulVec returns a x.
func MulVec(a mat.Matrix, x mat.Vector) *mat.VecDense {
	r, _ := a.Dims()
	v := mat.NewVecDense(r, nil)
	v.MulVec(a, x)
	return v
}

// MulTransVec returns aᵀ x.
func MulTransVec(a mat.Matrix, x mat.Vector) *mat.VecDense {
	_, c := a.Dims()
	v := mat.NewVecDense(c, nil)
	v.MulVec(a.T(), x)
	return v
}

// Inner returns the bilinear form xᵀ a y.
func Inner(x mat.Vector, a mat.Matrix, y mat.Vector) float64 {
	return mat.Inner(x, a, y)
}

// Concat returns [a; b] as a new vector.
func Concat(a, b mat.Vector) *mat.VecDense {
	n := a.Len()
	v := mat.NewVecDense(n+b.Len(), nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, a.AtVec(i))
	}
	for i := 0; i < b.Len(); i++ {
		v.SetVec(n+i, b.AtVec(i))
	}
	return v
}

// Slice returns a copy of v[from:to].
func Slice(v *mat.VecDense, from, to int) *mat.VecDense {
	return mat.VecDenseCopyOf(v.SliceVec(from, to))
}

// Map returns a new vector with fn applied to every element of v.
func Map(v mat.Vector, fn func(float64) float64) *mat.VecDense {
	out := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		out.SetVec(i, fn(v.AtVec(i)))
	}
	return out
}

// UniformMatrix returns a rows × cols matrix with elements drawn
// independently from U(lo, hi).
func UniformMatrix(rng *rand.Rand, rows, cols int, lo, hi float64) *mat.Dense {
	data := make([]float64, rows*cols)
	fillUniform(rng, data, lo, hi)
	return mat.NewDense(rows, cols, data)
}

// UniformVector returns a vector of length n with elements drawn
// independently from U(lo, hi).
func UniformVector(rng *rand.Rand, n int, lo, hi float64) *mat.VecDense {
	data := make([]float64, n)
	fillUniform(rng, data, lo, hi)
	return mat.NewVecDense(n, data)
}

func fillUniform(rng *rand.Rand, data []float64, lo, hi float64) {
	width := hi - lo
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = lo + rng.Float64()*width
	}
}
