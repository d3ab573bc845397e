package nn

import (
	"fmt"
	"sync"

	"github.com/born-ml/paramcore/internal/numeric"
	"github.com/born-ml/paramcore/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// Updater applies one update rule to the (value, delta) pair it was
// created for.
//
// Update normalizes the accumulated delta by count, applies L2
// regularization and the rule, mutates value in place and zeroes delta.
type Updater interface {
	Update(count int) error
	L2Factor() float64
}

// UpdaterFactory creates an Updater bound to a weight's value and delta.
// The Updater borrows both containers for the lifetime of the weight.
type UpdaterFactory[X any] func(value, delta X) Updater

// Weight is a trainable parameter cell: current value, accumulated gradient
// and the update algorithm bound to them.
//
// A Weight starts empty. Build (or ReadFrom) gives it a value and a zero
// delta of the same shape; Build and Rebind bind an Updater. Gradients are
// accumulated with AccumulateGradient and applied once per mini-batch with
// Apply.
//
// All methods are safe for concurrent use. Accumulation and Apply are
// serialized per weight, so Apply never interleaves with an accumulation.
//
// Example:
//
//	w := nn.NewMatrixWeight("linear")
//	_ = builder.InitializeMatrix(w, 3, 4, nn.DefaultRange)
//
//	for _, g := range batchGradients {
//	    _ = w.AccumulateGradient(g)
//	}
//	_ = w.Apply(len(batchGradients))
type Weight[X any] struct {
	mu      sync.Mutex
	name    string
	space   numeric.Space[X]
	clip    *ClipPolicy
	value   X
	delta   X
	updater Updater
	defined bool
}

// NewWeight creates an empty weight over the given container space.
func NewWeight[X any](name string, space numeric.Space[X]) *Weight[X] {
	return &Weight[X]{name: name, space: space}
}

// NewVectorWeight creates an empty vector weight.
func NewVectorWeight(name string) *Weight[*mat.VecDense] {
	return NewWeight(name, numeric.Vectors)
}

// NewMatrixWeight creates an empty matrix weight.
func NewMatrixWeight(name string) *Weight[*mat.Dense] {
	return NewWeight(name, numeric.Matrices)
}

// Name returns the weight name.
func (w *Weight[X]) Name() string {
	return w.name
}

// Space returns the container capability set of this weight.
func (w *Weight[X]) Space() numeric.Space[X] {
	return w.space
}

// SetClipPolicy replaces the clipping policy. A nil policy restores the
// process-wide default.
func (w *Weight[X]) SetClipPolicy(p *ClipPolicy) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clip = p
}

func (w *Weight[X]) clipPolicy() *ClipPolicy {
	if w.clip != nil {
		return w.clip
	}
	return DefaultClipPolicy()
}

// IsInitialized reports whether the weight holds a value.
func (w *Weight[X]) IsInitialized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.defined
}

// IsBound reports whether an update algorithm is bound.
func (w *Weight[X]) IsBound() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updater != nil
}

// Dims returns the shape of the value, or (0, 0) when uninitialized.
func (w *Weight[X]) Dims() (r, c int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.defined {
		return 0, 0
	}
	return w.space.Dims(w.value)
}

// Value returns the current value. The container is shared with the bound
// Updater; callers must not mutate it while training runs.
func (w *Weight[X]) Value() X {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Delta returns the gradient accumulated since the last Apply.
func (w *Weight[X]) Delta() X {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.delta
}

// Updater returns the bound update algorithm, or nil.
func (w *Weight[X]) Updater() Updater {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updater
}

// Build sets the value, allocates a zero delta of the same shape and binds
// a fresh Updater created by bind.
//
// Returns ErrAlreadyInitialized if the weight already holds a value; use
// Rebind to attach a new algorithm to an existing value.
func (w *Weight[X]) Build(value X, bind UpdaterFactory[X]) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.defined {
		return fmt.Errorf("build %q: %w", w.name, ErrAlreadyInitialized)
	}
	w.value = value
	w.delta = w.space.ZerosLike(value)
	w.updater = bind(w.value, w.delta)
	w.defined = true
	return nil
}

// Rebind replaces the Updater with a fresh one bound to the existing value.
// The delta is reset to zero and no optimizer history is carried over.
func (w *Weight[X]) Rebind(bind UpdaterFactory[X]) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.defined {
		return fmt.Errorf("rebind %q: %w", w.name, ErrNotInitialized)
	}
	w.space.Zero(w.delta)
	w.updater = bind(w.value, w.delta)
	return nil
}

// AccumulateGradient clips g with the weight's policy and adds it to delta.
//
// g may be scaled in place by clipping. Contributions are plain sums, so
// any grouping or order of calls yields the same delta.
func (w *Weight[X]) AccumulateGradient(g X) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.defined {
		return fmt.Errorf("accumulate %q: %w", w.name, ErrNotInitialized)
	}
	if !w.space.SameShape(w.value, g) {
		return w.shapeError("AccumulateGradient", g)
	}
	Clip(w.space, w.clipPolicy(), g)
	w.space.AddScaled(w.delta, 1, g)
	return nil
}

// DiscardGradient zeroes the accumulated delta without applying it.
func (w *Weight[X]) DiscardGradient() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.defined {
		w.space.Zero(w.delta)
	}
}

// Apply runs the bound update algorithm over the accumulated delta,
// normalized by count (the mini-batch size).
func (w *Weight[X]) Apply(count int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.updater == nil {
		return fmt.Errorf("apply %q: %w", w.name, ErrUnbound)
	}
	if count <= 0 {
		return fmt.Errorf("apply %q: %w: %d", w.name, ErrInvalidBatchSize, count)
	}
	if err := w.updater.Update(count); err != nil {
		return fmt.Errorf("apply %q: %w", w.name, err)
	}
	return nil
}

// RegularizationLoss returns ‖value‖² scaled by the algorithm's L2 factor.
func (w *Weight[X]) RegularizationLoss() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.updater == nil {
		return 0, fmt.Errorf("loss %q: %w", w.name, ErrUnbound)
	}
	n := w.space.Norm(w.value)
	return n * n * w.updater.L2Factor(), nil
}

// WriteTo persists the value only. An uninitialized weight is written as
// absent; delta and optimizer history are never written.
func (w *Weight[X]) WriteTo(enc *serialization.Encoder) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.defined {
		var absent X
		return w.space.Write(enc, absent)
	}
	return w.space.Write(enc, w.value)
}

// ReadFrom restores a value written by WriteTo and allocates a zero delta.
// The weight stays unbound until a builder re-binds an Updater; an absent
// value leaves the weight uninitialized.
func (w *Weight[X]) ReadFrom(dec *serialization.Decoder) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.defined {
		return fmt.Errorf("restore %q: %w", w.name, ErrAlreadyInitialized)
	}
	value, ok, err := w.space.Read(dec)
	if err != nil {
		return fmt.Errorf("restore %q: %w", w.name, err)
	}
	if !ok {
		return nil
	}
	w.value = value
	w.delta = w.space.ZerosLike(value)
	w.defined = true
	return nil
}

func (w *Weight[X]) shapeError(op string, got X) error {
	er, ec := w.space.Dims(w.value)
	gr, gc := w.space.Dims(got)
	return &ShapeError{Op: op, Name: w.name, Expected: [2]int{er, ec}, Got: [2]int{gr, gc}}
}
