package nn

import (
	"fmt"
	"math"
	"sort"

	"github.com/born-ml/paramcore/internal/numeric"
	"gonum.org/v1/gonum/mat"
)

// Activation is a stateless elementwise function.
//
// Derivative takes the function's output y = Forward(x), not its input:
// layers only cache outputs, so every supported activation must express
// f'(x) in terms of f(x).
type Activation interface {
	// Name identifies the activation in persisted layers.
	Name() string

	// Forward computes f(x).
	Forward(x float64) float64

	// Derivative computes f'(x) given y = f(x).
	Derivative(y float64) float64

	// InitRange recommends a weight initialization interval for a layer
	// with the given fan-in and fan-out.
	InitRange(fanIn, fanOut int) Range
}

// Sigmoid is σ(x) = 1 / (1 + exp(-x)).
type Sigmoid struct{}

// Name returns "sigmoid".
func (Sigmoid) Name() string { return "sigmoid" }

// Forward applies σ.
func (Sigmoid) Forward(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// Derivative returns σ'(x) = y(1-y).
func (Sigmoid) Derivative(y float64) float64 { return y * (1 - y) }

// InitRange widens the default interval by 4, matching sigmoid's flatter slope.
func (Sigmoid) InitRange(fanIn, fanOut int) Range {
	return DefaultRange.Scale(4 * fanScale(fanIn, fanOut))
}

// Tanh is the hyperbolic tangent.
type Tanh struct{}

// Name returns "tanh".
func (Tanh) Name() string { return "tanh" }

// Forward applies tanh.
func (Tanh) Forward(x float64) float64 { return math.Tanh(x) }

// Derivative returns 1 - y².
func (Tanh) Derivative(y float64) float64 { return 1 - y*y }

// InitRange scales the default interval by the Glorot factor.
func (Tanh) InitRange(fanIn, fanOut int) Range {
	return DefaultRange.Scale(fanScale(fanIn, fanOut))
}

// ReLU is max(0, x).
type ReLU struct{}

// Name returns "relu".
func (ReLU) Name() string { return "relu" }

// Forward applies max(0, x).
func (ReLU) Forward(x float64) float64 { return math.Max(0, x) }

// Derivative returns 1 for positive outputs, 0 otherwise.
func (ReLU) Derivative(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

// InitRange returns the default interval.
func (ReLU) InitRange(int, int) Range { return DefaultRange }

// Softplus is log(1 + exp(x)).
type Softplus struct{}

// Name returns "softplus".
func (Softplus) Name() string { return "softplus" }

// Forward applies log(1 + exp(x)).
func (Softplus) Forward(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// Derivative returns σ(x) = 1 - exp(-y).
func (Softplus) Derivative(y float64) float64 { return -math.Expm1(-y) }

// InitRange returns the default interval.
func (Softplus) InitRange(int, int) Range { return DefaultRange }

// Identity is f(x) = x.
type Identity struct{}

// Name returns "identity".
func (Identity) Name() string { return "identity" }

// Forward returns x.
func (Identity) Forward(x float64) float64 { return x }

// Derivative returns 1.
func (Identity) Derivative(float64) float64 { return 1 }

// InitRange returns the default interval.
func (Identity) InitRange(int, int) Range { return DefaultRange }

var activations = map[string]Activation{
	Sigmoid{}.Name():  Sigmoid{},
	Tanh{}.Name():     Tanh{},
	ReLU{}.Name():     ReLU{},
	Softplus{}.Name(): Softplus{},
	Identity{}.Name(): Identity{},
}

// ActivationByName looks up a built-in activation.
func ActivationByName(name string) (Activation, error) {
	a, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	return a, nil
}

// ActivationNames lists the built-in activations in sorted order.
func ActivationNames() []string {
	names := make([]string, 0, len(activations))
	for name := range activations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyActivation returns f(x) elementwise.
func applyActivation(a Activation, x mat.Vector) *mat.VecDense {
	return numeric.Map(x, a.Forward)
}

// activationDerivative returns f'(x) elementwise given y = f(x).
func activationDerivative(a Activation, y mat.Vector) *mat.VecDense {
	return numeric.Map(y, a.Derivative)
}
