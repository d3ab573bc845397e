package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/paramcore/internal/numeric"
	"gonum.org/v1/gonum/mat"
)

// BilinearConfig describes a bilinear layer.
type BilinearConfig struct {
	Name       string      // Prefix for weight names (default: "bilinear")
	OutputDim  int         // Number of outputs; one quadratic form per output
	Activation Activation  // Elementwise output function (default: Tanh)
	Splitter   Splitter    // Input split policy (required)
	Clip       *ClipPolicy // Gradient clipping policy (default: process-wide)
}

// Bilinear is a rank-3 tensor layer.
//
// For an input x split into (a, b) it computes
//
//	y_i = f(aᵀ Q_i b + (L x)_i + b_i)
//
// where each Q_i is a FanInA × FanInB matrix, L is OutputDim × InputDim and
// f is the activation. Shapes are fixed at construction.
//
// Example:
//
//	layer, _ := nn.NewBilinear(nn.BilinearConfig{
//	    OutputDim:  4,
//	    Activation: nn.Tanh{},
//	    Splitter:   nn.ConcatSplit{A: 3, B: 3},
//	})
//	_ = layer.Initialize(builder)
//
//	out, _ := layer.Apply(x)
//	errIn, _ := layer.Backward(x, out, dLossdOut)
//	_ = layer.Update(batchSize)
type Bilinear struct {
	name       string
	outputDim  int
	activation Activation
	splitter   Splitter
	clip       *ClipPolicy

	quadratic []*Weight[*mat.Dense]  // OutputDim × [FanInA, FanInB]
	linear    *Weight[*mat.Dense]    // [OutputDim, InputDim]
	bias      *Weight[*mat.VecDense] // [OutputDim]
}

// NewBilinear creates an uninitialized bilinear layer. Call Initialize
// before Apply.
func NewBilinear(cfg BilinearConfig) (*Bilinear, error) {
	if err := checkSplitter(cfg.Splitter); err != nil {
		return nil, err
	}
	if cfg.OutputDim <= 0 {
		return nil, fmt.Errorf("bilinear: output dimension must be positive, got %d", cfg.OutputDim)
	}
	if cfg.Name == "" {
		cfg.Name = "bilinear"
	}
	if cfg.Activation == nil {
		cfg.Activation = Tanh{}
	}

	l := &Bilinear{
		name:       cfg.Name,
		outputDim:  cfg.OutputDim,
		activation: cfg.Activation,
		splitter:   cfg.Splitter,
		clip:       cfg.Clip,
		linear:     NewMatrixWeight(cfg.Name + ".linear"),
		bias:       NewVectorWeight(cfg.Name + ".bias"),
	}
	l.linear.SetClipPolicy(cfg.Clip)
	l.bias.SetClipPolicy(cfg.Clip)
	return l, nil
}

// Initialize allocates any missing quadratic weights and builds every
// weight through b.
//
// Weights that already hold values (restored from a checkpoint) keep them;
// b only binds fresh update algorithms to them.
func (l *Bilinear) Initialize(b WeightBuilder) error {
	r := l.activation.InitRange(l.InputDim(), l.outputDim)

	if len(l.quadratic) == 0 {
		l.quadratic = make([]*Weight[*mat.Dense], l.outputDim)
		for i := range l.quadratic {
			l.quadratic[i] = l.newQuadratic(i)
		}
	}
	if len(l.quadratic) != l.outputDim {
		return fmt.Errorf("bilinear %q: %d quadratic weights for %d outputs: %w",
			l.name, len(l.quadratic), l.outputDim, ErrShapeMismatch)
	}

	for _, q := range l.quadratic {
		if err := b.InitializeMatrix(q, l.FanInA(), l.FanInB(), r); err != nil {
			return fmt.Errorf("bilinear %q: %w", l.name, err)
		}
	}
	if err := b.InitializeMatrix(l.linear, l.outputDim, l.InputDim(), r); err != nil {
		return fmt.Errorf("bilinear %q: %w", l.name, err)
	}
	if err := b.InitializeVector(l.bias, l.outputDim, r); err != nil {
		return fmt.Errorf("bilinear %q: %w", l.name, err)
	}
	return nil
}

func (l *Bilinear) newQuadratic(i int) *Weight[*mat.Dense] {
	q := NewMatrixWeight(fmt.Sprintf("%s.quadratic.%d", l.name, i))
	q.SetClipPolicy(l.clip)
	return q
}

// Apply computes the activated output for input x.
func (l *Bilinear) Apply(x *mat.VecDense) (*mat.VecDense, error) {
	if err := l.checkReady(); err != nil {
		return nil, err
	}
	if err := l.checkLen("Apply", x, l.InputDim()); err != nil {
		return nil, err
	}

	a, b := l.splitter.Split(x)

	pre := mat.NewVecDense(l.outputDim, nil)
	for i, q := range l.quadratic {
		pre.SetVec(i, numeric.Inner(a, q.Value(), b))
	}
	pre.AddVec(pre, numeric.MulVec(l.linear.Value(), x))
	pre.AddVec(pre, l.bias.Value())

	return applyActivation(l.activation, pre), nil
}

// Backward accumulates the gradients of every weight and returns the error
// to propagate to the layer below.
//
// in is the input given to Apply, out the output it returned and errOut
// the derivative of the loss with respect to out.
func (l *Bilinear) Backward(in, out, errOut *mat.VecDense) (*mat.VecDense, error) {
	if err := l.checkReady(); err != nil {
		return nil, err
	}
	if err := l.checkLen("Backward(in)", in, l.InputDim()); err != nil {
		return nil, err
	}
	if err := l.checkLen("Backward(out)", out, l.outputDim); err != nil {
		return nil, err
	}
	if err := l.checkLen("Backward(error)", errOut, l.outputDim); err != nil {
		return nil, err
	}

	// dL/d(pre-activation)
	dGdX := activationDerivative(l.activation, out)
	dGdX.MulElemVec(dGdX, errOut)

	// Clipping scales gradients in place, so each weight gets its own copy.
	if err := l.bias.AccumulateGradient(mat.VecDenseCopyOf(dGdX)); err != nil {
		return nil, err
	}
	if err := l.linear.AccumulateGradient(numeric.Outer(1, dGdX, in)); err != nil {
		return nil, err
	}

	errIn := numeric.MulTransVec(l.linear.Value(), dGdX)

	a, b := l.splitter.Split(in)
	for i := l.outputDim - 1; i >= 0; i-- {
		g := dGdX.AtVec(i)
		q := l.quadratic[i]
		if err := q.AccumulateGradient(numeric.Outer(g, a, b)); err != nil {
			return nil, err
		}

		qv := q.Value()
		errA := numeric.MulVec(qv, b)
		errB := numeric.MulTransVec(qv, a)
		errIn.AddScaledVec(errIn, g, l.splitter.Restore(errA, errB))
	}
	return errIn, nil
}

// Loss returns the L2 regularization loss of every weight.
func (l *Bilinear) Loss() (float64, error) {
	total, err := l.bias.RegularizationLoss()
	if err != nil {
		return 0, err
	}
	lin, err := l.linear.RegularizationLoss()
	if err != nil {
		return 0, err
	}
	total += lin
	for _, q := range l.quadratic {
		ql, err := q.RegularizationLoss()
		if err != nil {
			return 0, err
		}
		total += ql
	}
	return total, nil
}

// Update applies the accumulated mini-batch gradients to every weight.
//
// Every weight is attempted even if one fails; the failures are joined.
func (l *Bilinear) Update(count int) error {
	var errs []error
	if err := l.bias.Apply(count); err != nil {
		errs = append(errs, err)
	}
	if err := l.linear.Apply(count); err != nil {
		errs = append(errs, err)
	}
	for _, q := range l.quadratic {
		if err := q.Apply(count); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DiscardGradients zeroes the accumulated delta of every weight.
func (l *Bilinear) DiscardGradients() {
	l.bias.DiscardGradient()
	l.linear.DiscardGradient()
	for _, q := range l.quadratic {
		q.DiscardGradient()
	}
}

// SetClipPolicy replaces the clipping policy of every weight.
func (l *Bilinear) SetClipPolicy(p *ClipPolicy) {
	l.clip = p
	l.bias.SetClipPolicy(p)
	l.linear.SetClipPolicy(p)
	for _, q := range l.quadratic {
		q.SetClipPolicy(p)
	}
}

// Name returns the layer name.
func (l *Bilinear) Name() string { return l.name }

// FanInA returns the length of the first bilinear operand.
func (l *Bilinear) FanInA() int { return l.splitter.FanInA() }

// FanInB returns the length of the second bilinear operand.
func (l *Bilinear) FanInB() int { return l.splitter.FanInB() }

// InputDim returns the length of the layer input.
func (l *Bilinear) InputDim() int { return l.splitter.InputDim() }

// OutputDim returns the number of outputs.
func (l *Bilinear) OutputDim() int { return l.outputDim }

// Activation returns the output activation.
func (l *Bilinear) Activation() Activation { return l.activation }

// Quadratic returns the per-output quadratic form weights.
func (l *Bilinear) Quadratic() []*Weight[*mat.Dense] { return l.quadratic }

// Linear returns the linear weight.
func (l *Bilinear) Linear() *Weight[*mat.Dense] { return l.linear }

// Bias returns the bias weight.
func (l *Bilinear) Bias() *Weight[*mat.VecDense] { return l.bias }

func (l *Bilinear) checkReady() error {
	if !l.bias.IsInitialized() || !l.linear.IsInitialized() || len(l.quadratic) != l.outputDim {
		return fmt.Errorf("bilinear %q: %w", l.name, ErrNotInitialized)
	}
	return nil
}

func (l *Bilinear) checkLen(op string, v *mat.VecDense, want int) error {
	if v == nil || v.Len() != want {
		got := 0
		if v != nil {
			got = v.Len()
		}
		return &ShapeError{Op: op, Name: l.name, Expected: [2]int{want, 1}, Got: [2]int{got, 1}}
	}
	return nil
}
