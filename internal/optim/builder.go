package optim

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/numeric"
	"github.com/born-ml/paramcore/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// Builder initializes weights and binds each one to a fresh instance of
// its update algorithm.
//
// One Builder carries the hyperparameters of exactly one algorithm family.
// It satisfies nn.WeightBuilder and is safe for concurrent use.
//
// Example:
//
//	builder := optim.NewSGDBuilder(optim.SGDConfig{
//	    Rate:     0.03,
//	    L2Decay:  0.0001,
//	    Momentum: 0.9,
//	}, optim.WithSeed(7))
//
//	layer, _ := nn.NewBilinear(cfg)
//	_ = layer.Initialize(builder)
type Builder struct {
	kind     Kind
	sgd      SGDConfig
	adaGrad  AdaGradConfig
	adaDelta AdaDeltaConfig

	mu  sync.Mutex
	rng *rand.Rand
}

var _ nn.WeightBuilder = (*Builder)(nil)

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSeed makes random initialization reproducible.
func WithSeed(seed uint64) BuilderOption {
	return func(b *Builder) {
		b.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	}
}

func newBuilder(kind Kind, opts []BuilderOption) *Builder {
	b := &Builder{kind: kind}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		b.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return b
}

// NewSGDBuilder creates a builder for SGD-Momentum weights.
func NewSGDBuilder(cfg SGDConfig, opts ...BuilderOption) *Builder {
	b := newBuilder(KindSGD, opts)
	b.sgd = cfg
	return b
}

// NewAdaGradBuilder creates a builder for AdaGrad weights.
func NewAdaGradBuilder(cfg AdaGradConfig, opts ...BuilderOption) *Builder {
	b := newBuilder(KindAdaGrad, opts)
	b.adaGrad = cfg
	return b
}

// NewAdaDeltaBuilder creates a builder for AdaDelta weights.
func NewAdaDeltaBuilder(cfg AdaDeltaConfig, opts ...BuilderOption) *Builder {
	b := newBuilder(KindAdaDelta, opts)
	b.adaDelta = cfg
	return b
}

// NewBuilder creates a builder of the given kind from its fixed-order
// hyperparameter list (see Hyperparameters).
func NewBuilder(kind Kind, params []float64, opts ...BuilderOption) (*Builder, error) {
	switch kind {
	case KindSGD:
		cfg, err := sgdConfigFrom(params)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return NewSGDBuilder(cfg, opts...), nil
	case KindAdaGrad:
		cfg, err := adaGradConfigFrom(params)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return NewAdaGradBuilder(cfg, opts...), nil
	case KindAdaDelta:
		cfg, err := adaDeltaConfigFrom(params)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return NewAdaDeltaBuilder(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, kind)
	}
}

// Kind returns the algorithm family.
func (b *Builder) Kind() Kind {
	return b.kind
}

// Hyperparameters returns the algorithm's hyperparameters in persisted
// order: SGD [rate, l2decay, momentum], AdaGrad [rate, l2decay,
// fudgeFactor], AdaDelta [l2decay, decay, epsilon].
func (b *Builder) Hyperparameters() []float64 {
	switch b.kind {
	case KindSGD:
		return b.sgd.Hyperparameters()
	case KindAdaGrad:
		return b.adaGrad.Hyperparameters()
	case KindAdaDelta:
		return b.adaDelta.Hyperparameters()
	default:
		return nil
	}
}

// Validate checks the hyperparameters.
func (b *Builder) Validate() error {
	switch b.kind {
	case KindSGD:
		return b.sgd.Validate()
	case KindAdaGrad:
		return b.adaGrad.Validate()
	case KindAdaDelta:
		return b.adaDelta.Validate()
	default:
		return fmt.Errorf("%w: %v", ErrUnknownAlgorithm, b.kind)
	}
}

// InitializeMatrix builds w as a rows × cols matrix drawn from U(r), or
// re-binds a fresh algorithm if w already holds a value of that shape.
func (b *Builder) InitializeMatrix(w *nn.Weight[*mat.Dense], rows, cols int, r nn.Range) error {
	return initialize(b, w, rows, cols, r, func(rng *rand.Rand) *mat.Dense {
		return numeric.UniformMatrix(rng, rows, cols, r.Low, r.High)
	})
}

// InitializeVector builds w as a vector of length rows drawn from U(r), or
// re-binds a fresh algorithm if w already holds a value of that length.
func (b *Builder) InitializeVector(w *nn.Weight[*mat.VecDense], rows int, r nn.Range) error {
	return initialize(b, w, rows, 1, r, func(rng *rand.Rand) *mat.VecDense {
		return numeric.UniformVector(rng, rows, r.Low, r.High)
	})
}

func initialize[X any](b *Builder, w *nn.Weight[X], rows, cols int, r nn.Range, draw func(*rand.Rand) X) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("initialize %q: %w: %dx%d", w.Name(), ErrInvalidDimensions, rows, cols)
	}
	bind, err := updaterFor(b, w.Space())
	if err != nil {
		return err
	}

	if w.IsInitialized() {
		if gr, gc := w.Dims(); gr != rows || gc != cols {
			return &nn.ShapeError{Op: "Initialize", Name: w.Name(), Expected: [2]int{rows, cols}, Got: [2]int{gr, gc}}
		}
		return w.Rebind(bind)
	}

	if err := r.Validate(); err != nil {
		return fmt.Errorf("initialize %q: %w", w.Name(), err)
	}
	b.mu.Lock()
	value := draw(b.rng)
	b.mu.Unlock()
	return w.Build(value, bind)
}

// updaterFor selects the algorithm constructor for the builder's kind.
// The same generic algorithm serves vectors and matrices.
func updaterFor[X any](b *Builder, space numeric.Space[X]) (nn.UpdaterFactory[X], error) {
	switch b.kind {
	case KindSGD:
		cfg := b.sgd
		return func(value, delta X) nn.Updater {
			return NewSGD(space, value, delta, cfg)
		}, nil
	case KindAdaGrad:
		cfg := b.adaGrad
		return func(value, delta X) nn.Updater {
			return NewAdaGrad(space, value, delta, cfg)
		}, nil
	case KindAdaDelta:
		cfg := b.adaDelta
		return func(value, delta X) nn.Updater {
			return NewAdaDelta(space, value, delta, cfg)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, b.kind)
	}
}

// WriteTo persists the algorithm name and its hyperparameters.
func (b *Builder) WriteTo(enc *serialization.Encoder) error {
	if err := enc.WriteString(b.kind.String()); err != nil {
		return err
	}
	return enc.WriteFloat64s(b.Hyperparameters())
}

// ReadBuilder restores a builder written by WriteTo.
func ReadBuilder(dec *serialization.Decoder, opts ...BuilderOption) (*Builder, error) {
	name, err := dec.ReadString()
	if err != nil {
		return nil, err
	}
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	params, err := dec.ReadFloat64s()
	if err != nil {
		return nil, err
	}
	return NewBuilder(kind, params, opts...)
}
