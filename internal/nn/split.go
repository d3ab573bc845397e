package nn

import (
	"fmt"

	"github.com/born-ml/paramcore/internal/numeric"
	"gonum.org/v1/gonum/mat"
)

// Splitter derives the two operands of a bilinear form from one input
// vector, and maps operand-space errors back to input space.
//
// Restore must be the exact adjoint of Split: given errors ea (len FanInA)
// and eb (len FanInB), it returns the input-space error of length InputDim.
type Splitter interface {
	InputDim() int
	FanInA() int
	FanInB() int
	Split(x *mat.VecDense) (a, b *mat.VecDense)
	Restore(ea, eb *mat.VecDense) *mat.VecDense
}

// ConcatSplit reads the input as [a; b] with len(a) = A and len(b) = B.
type ConcatSplit struct {
	A, B int
}

// InputDim returns A + B.
func (s ConcatSplit) InputDim() int { return s.A + s.B }

// FanInA returns A.
func (s ConcatSplit) FanInA() int { return s.A }

// FanInB returns B.
func (s ConcatSplit) FanInB() int { return s.B }

// Split returns copies of the first A and last B elements of x.
func (s ConcatSplit) Split(x *mat.VecDense) (a, b *mat.VecDense) {
	return numeric.Slice(x, 0, s.A), numeric.Slice(x, s.A, s.A+s.B)
}

// Restore concatenates the two error vectors.
func (s ConcatSplit) Restore(ea, eb *mat.VecDense) *mat.VecDense {
	return numeric.Concat(ea, eb)
}

// SharedSplit uses the whole input as both operands, so the layer computes
// the quadratic form xᵀ Q x.
type SharedSplit struct {
	N int
}

// InputDim returns N.
func (s SharedSplit) InputDim() int { return s.N }

// FanInA returns N.
func (s SharedSplit) FanInA() int { return s.N }

// FanInB returns N.
func (s SharedSplit) FanInB() int { return s.N }

// Split returns two copies of x.
func (s SharedSplit) Split(x *mat.VecDense) (a, b *mat.VecDense) {
	return mat.VecDenseCopyOf(x), mat.VecDenseCopyOf(x)
}

// Restore sums both error contributions.
func (s SharedSplit) Restore(ea, eb *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(s.N, nil)
	out.AddVec(ea, eb)
	return out
}

func checkSplitter(s Splitter) error {
	if s == nil {
		return fmt.Errorf("bilinear: nil splitter")
	}
	if s.FanInA() <= 0 || s.FanInB() <= 0 || s.InputDim() <= 0 {
		return fmt.Errorf("bilinear: splitter dimensions must be positive, got A=%d B=%d input=%d",
			s.FanInA(), s.FanInB(), s.InputDim())
	}
	return nil
}
