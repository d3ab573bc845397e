package nn_test

import (
	"github.com/born-ml/paramcore/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// countingUpdater records the counts it is applied with and leaves the
// weight untouched.
type countingUpdater struct {
	counts []int
	l2     float64
}

func (u *countingUpdater) Update(count int) error {
	u.counts = append(u.counts, count)
	return nil
}

func (u *countingUpdater) L2Factor() float64 { return u.l2 }

// fillBuilder builds weights with element values from fill and binds a
// countingUpdater to each.
type fillBuilder struct {
	fill     func(name string, i, j int) float64
	updaters map[string]*countingUpdater
}

func newFillBuilder(fill func(name string, i, j int) float64) *fillBuilder {
	return &fillBuilder{fill: fill, updaters: map[string]*countingUpdater{}}
}

func (b *fillBuilder) bind(name string) *countingUpdater {
	u := &countingUpdater{l2: 0.5}
	b.updaters[name] = u
	return u
}

func (b *fillBuilder) InitializeMatrix(w *nn.Weight[*mat.Dense], rows, cols int, _ nn.Range) error {
	u := b.bind(w.Name())
	factory := func(_, _ *mat.Dense) nn.Updater { return u }
	if w.IsInitialized() {
		return w.Rebind(factory)
	}
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, b.fill(w.Name(), i, j))
		}
	}
	return w.Build(m, factory)
}

func (b *fillBuilder) InitializeVector(w *nn.Weight[*mat.VecDense], rows int, _ nn.Range) error {
	u := b.bind(w.Name())
	factory := func(_, _ *mat.VecDense) nn.Updater { return u }
	if w.IsInitialized() {
		return w.Rebind(factory)
	}
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, b.fill(w.Name(), i, 0))
	}
	return w.Build(v, factory)
}

func vec(xs ...float64) *mat.VecDense {
	return mat.NewVecDense(len(xs), xs)
}

func unclipped() *nn.ClipPolicy {
	return &nn.ClipPolicy{}
}
