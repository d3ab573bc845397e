package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Range is the interval initial weight elements are drawn from, uniformly.
type Range struct {
	Low  float64
	High float64
}

// DefaultRange is the initialization interval used when a layer does not
// ask its activation for one.
//
// It is strictly positive: weights start as small positive values rather
// than a zero-mean symmetric draw.
var DefaultRange = Range{Low: 1e-2, High: 2e-2}

// Validate checks that the interval is finite and ordered.
func (r Range) Validate() error {
	if math.IsNaN(r.Low) || math.IsNaN(r.High) || math.IsInf(r.Low, 0) || math.IsInf(r.High, 0) {
		return fmt.Errorf("%w: [%v, %v] is not finite", ErrInvalidRange, r.Low, r.High)
	}
	if r.Low > r.High {
		return fmt.Errorf("%w: low %v exceeds high %v", ErrInvalidRange, r.Low, r.High)
	}
	return nil
}

// Scale returns the interval multiplied by f.
func (r Range) Scale(f float64) Range {
	return Range{Low: r.Low * f, High: r.High * f}
}

// fanScale is the Glorot factor sqrt(6 / (fanIn + fanOut)).
func fanScale(fanIn, fanOut int) float64 {
	if fanIn+fanOut <= 0 {
		return 1
	}
	return math.Sqrt(6.0 / float64(fanIn+fanOut))
}

// WeightBuilder initializes weights and binds them to an update algorithm.
//
// If the weight already holds a value (for example after ReadFrom), the
// builder checks its shape and only binds a fresh algorithm. Otherwise it
// draws every element from U(r.Low, r.High).
type WeightBuilder interface {
	InitializeMatrix(w *Weight[*mat.Dense], rows, cols int, r Range) error
	InitializeVector(w *Weight[*mat.VecDense], rows int, r Range) error
}
