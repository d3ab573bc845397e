package optim_test

import (
	"math"
	"testing"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/numeric"
	"github.com/born-ml/paramcore/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(xs ...float64) *mat.VecDense {
	return mat.NewVecDense(len(xs), xs)
}

// scalarWeight builds a one-element vector weight bound to the updater made by bind.
func scalarWeight(t *testing.T, value float64, bind nn.UpdaterFactory[*mat.VecDense]) *nn.Weight[*mat.VecDense] {
	t.Helper()
	w := nn.NewVectorWeight("x")
	w.SetClipPolicy(&nn.ClipPolicy{})
	require.NoError(t, w.Build(vec(value), bind))
	return w
}

func sgd(cfg optim.SGDConfig) nn.UpdaterFactory[*mat.VecDense] {
	return func(v, d *mat.VecDense) nn.Updater { return optim.NewSGD(numeric.Vectors, v, d, cfg) }
}

func adaGrad(cfg optim.AdaGradConfig) nn.UpdaterFactory[*mat.VecDense] {
	return func(v, d *mat.VecDense) nn.Updater { return optim.NewAdaGrad(numeric.Vectors, v, d, cfg) }
}

func adaDelta(cfg optim.AdaDeltaConfig) nn.UpdaterFactory[*mat.VecDense] {
	return func(v, d *mat.VecDense) nn.Updater { return optim.NewAdaDelta(numeric.Vectors, v, d, cfg) }
}

// TestSGD_NoMomentum checks that momentum 0 reduces to a plain gradient step.
func TestSGD_NoMomentum(t *testing.T) {
	w := scalarWeight(t, 2.0, sgd(optim.SGDConfig{Rate: 0.03, L2Decay: 0.0001, Momentum: 0}))

	require.NoError(t, w.AccumulateGradient(vec(3)))
	require.NoError(t, w.AccumulateGradient(vec(1)))
	require.NoError(t, w.Apply(2))

	// value_new = value - (value * 2 * l2decay + delta / count)
	//           = 2 - (2 * 0.0002 + 4 / 2) = -0.0004
	assert.InDelta(t, -0.0004, w.Value().AtVec(0), 1e-12)

	s, ok := w.Updater().(*optim.SGD[*mat.VecDense])
	require.True(t, ok)
	_, allocated := s.LastDelta()
	assert.False(t, allocated, "momentum 0 must not allocate history")
}

// TestSGD_WithMomentum tests two momentum steps.
func TestSGD_WithMomentum(t *testing.T) {
	w := scalarWeight(t, 2.0, sgd(optim.SGDConfig{Rate: 0.03, L2Decay: 0, Momentum: 0.5}))

	// Step 1: lastDelta = 0.5 * 0 + 1 = 1, value = 2 - 1 = 1
	require.NoError(t, w.AccumulateGradient(vec(1)))
	require.NoError(t, w.Apply(1))
	assert.InDelta(t, 1.0, w.Value().AtVec(0), 1e-12)

	// Step 2: lastDelta = 0.5 * 1 + 1 = 1.5, value = 1 - 1.5 = -0.5
	require.NoError(t, w.AccumulateGradient(vec(1)))
	require.NoError(t, w.Apply(1))
	assert.InDelta(t, -0.5, w.Value().AtVec(0), 1e-12)

	s := w.Updater().(*optim.SGD[*mat.VecDense])
	last, ok := s.LastDelta()
	require.True(t, ok)
	assert.InDelta(t, 1.5, last.AtVec(0), 1e-12)
}

// TestAdaGrad_FirstStep checks the first update against the closed form.
func TestAdaGrad_FirstStep(t *testing.T) {
	cfg := optim.DefaultAdaGradConfig()
	w := scalarWeight(t, 1.0, adaGrad(cfg))

	require.NoError(t, w.AccumulateGradient(vec(2)))
	require.NoError(t, w.Apply(2))

	d := 1.0*2*cfg.L2Decay + 1.0
	want := 1.0 - d*cfg.Rate/(math.Sqrt(d*d)+cfg.FudgeFactor)
	assert.InDelta(t, want, w.Value().AtVec(0), 1e-12)
}

// TestAdaGrad_HistoryMonotonic checks that history never decreases.
func TestAdaGrad_HistoryMonotonic(t *testing.T) {
	w := nn.NewMatrixWeight("m")
	w.SetClipPolicy(&nn.ClipPolicy{})
	require.NoError(t, w.Build(mat.NewDense(2, 2, []float64{0.1, 0.2, 0.3, 0.4}),
		func(v, d *mat.Dense) nn.Updater {
			return optim.NewAdaGrad(numeric.Matrices, v, d, optim.DefaultAdaGradConfig())
		}))
	a := w.Updater().(*optim.AdaGrad[*mat.Dense])

	grads := [][]float64{{1, -1, 0.5, 0}, {-0.2, 0.3, -2, 1}, {0, 0, 0, 0}, {5, -5, 1, 1}}
	prev := mat.NewDense(2, 2, nil)
	for step, g := range grads {
		require.NoError(t, w.AccumulateGradient(mat.NewDense(2, 2, g)))
		require.NoError(t, w.Apply(1))

		h, ok := a.History()
		require.True(t, ok)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				assert.GreaterOrEqual(t, h.At(i, j), prev.At(i, j), "step %d (%d,%d)", step, i, j)
			}
		}
		prev = mat.DenseCopyOf(h)
	}
}

// TestAdaDelta_FirstStep checks the first update against the closed form.
func TestAdaDelta_FirstStep(t *testing.T) {
	cfg := optim.AdaDeltaConfig{L2Decay: 0, Decay: 0.95, Epsilon: 1e-6}
	w := scalarWeight(t, 1.0, adaDelta(cfg))

	require.NoError(t, w.AccumulateGradient(vec(0.5)))
	require.NoError(t, w.Apply(1))

	// gradSq = 0.05 * 0.25, step = 0.5 * sqrt(eps) / sqrt(gradSq + eps)
	gradSq := 0.05 * 0.25
	step := 0.5 * math.Sqrt(1e-6) / math.Sqrt(gradSq+1e-6)
	assert.InDelta(t, 1.0-step, w.Value().AtVec(0), 1e-12)

	a := w.Updater().(*optim.AdaDelta[*mat.VecDense])
	g, dsq, ok := a.Histories()
	require.True(t, ok)
	assert.InDelta(t, gradSq, g.AtVec(0), 1e-15)
	assert.InDelta(t, 0.05*step*step, dsq.AtVec(0), 1e-15)
}

// TestAdaDelta_ScaleInvariance checks that uniformly scaling every gradient
// leaves the trajectory (nearly) unchanged.
func TestAdaDelta_ScaleInvariance(t *testing.T) {
	cfg := optim.AdaDeltaConfig{L2Decay: 0, Decay: 0.95, Epsilon: 1e-6}
	small := scalarWeight(t, 0, adaDelta(cfg))
	large := scalarWeight(t, 0, adaDelta(cfg))

	for i := 0; i < 50; i++ {
		g := math.Sin(float64(i)) + 1.5
		require.NoError(t, small.AccumulateGradient(vec(g)))
		require.NoError(t, large.AccumulateGradient(vec(100*g)))
		require.NoError(t, small.Apply(1))
		require.NoError(t, large.Apply(1))
	}

	assert.InEpsilon(t, small.Value().AtVec(0), large.Value().AtVec(0), 1e-3)
}

// TestUpdate_ResetsDelta checks every algorithm over both shapes.
func TestUpdate_ResetsDelta(t *testing.T) {
	builders := map[string]*optim.Builder{
		"sgd":      optim.NewSGDBuilder(optim.DefaultSGDConfig(), optim.WithSeed(1)),
		"adagrad":  optim.NewAdaGradBuilder(optim.DefaultAdaGradConfig(), optim.WithSeed(1)),
		"adadelta": optim.NewAdaDeltaBuilder(optim.DefaultAdaDeltaConfig(), optim.WithSeed(1)),
	}

	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			m := nn.NewMatrixWeight("m")
			m.SetClipPolicy(&nn.ClipPolicy{})
			require.NoError(t, b.InitializeMatrix(m, 2, 3, nn.DefaultRange))
			before := mat.DenseCopyOf(m.Value())

			require.NoError(t, m.AccumulateGradient(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})))
			require.NoError(t, m.Apply(3))
			assert.Zero(t, mat.Norm(m.Delta(), 2))
			assert.False(t, mat.Equal(before, m.Value()), "value must move")

			v := nn.NewVectorWeight("v")
			v.SetClipPolicy(&nn.ClipPolicy{})
			require.NoError(t, b.InitializeVector(v, 4, nn.DefaultRange))
			require.NoError(t, v.AccumulateGradient(vec(1, -1, 1, -1)))
			require.NoError(t, v.Apply(1))
			assert.Zero(t, mat.Norm(v.Delta(), 2))
		})
	}
}

// TestUpdate_RejectsNonPositiveCount checks that nothing changes on a bad count.
func TestUpdate_RejectsNonPositiveCount(t *testing.T) {
	for _, count := range []int{0, -3} {
		w := scalarWeight(t, 1.0, adaGrad(optim.DefaultAdaGradConfig()))
		require.NoError(t, w.AccumulateGradient(vec(2)))

		err := w.Apply(count)
		require.ErrorIs(t, err, nn.ErrInvalidBatchSize)
		assert.Equal(t, 1.0, w.Value().AtVec(0))
		assert.Equal(t, 2.0, w.Delta().AtVec(0))

		// The updater rejects it on its own as well.
		err = w.Updater().Update(count)
		require.ErrorIs(t, err, nn.ErrInvalidBatchSize)
		assert.Equal(t, 2.0, w.Delta().AtVec(0))
	}
}

// TestUpdate_VectorMatrixAgree checks that one generic body gives identical
// numbers for a vector and the equivalent 1×n matrix.
func TestUpdate_VectorMatrixAgree(t *testing.T) {
	cfg := optim.DefaultAdaDeltaConfig()
	start := []float64{0.3, -0.2, 0.1}
	grad := []float64{1, 0.5, -2}

	v := nn.NewVectorWeight("v")
	v.SetClipPolicy(&nn.ClipPolicy{})
	require.NoError(t, v.Build(vec(append([]float64(nil), start...)...), adaDelta(cfg)))

	m := nn.NewMatrixWeight("m")
	m.SetClipPolicy(&nn.ClipPolicy{})
	require.NoError(t, m.Build(mat.NewDense(1, 3, append([]float64(nil), start...)),
		func(val, d *mat.Dense) nn.Updater { return optim.NewAdaDelta(numeric.Matrices, val, d, cfg) }))

	for i := 0; i < 3; i++ {
		require.NoError(t, v.AccumulateGradient(vec(append([]float64(nil), grad...)...)))
		require.NoError(t, m.AccumulateGradient(mat.NewDense(1, 3, append([]float64(nil), grad...))))
		require.NoError(t, v.Apply(2))
		require.NoError(t, m.Apply(2))
	}

	for j := 0; j < 3; j++ {
		assert.InDelta(t, v.Value().AtVec(j), m.Value().At(0, j), 1e-15)
	}
}

func TestL2Factor(t *testing.T) {
	w := scalarWeight(t, 3.0, sgd(optim.SGDConfig{Rate: 0.03, L2Decay: 0.5, Momentum: 0}))
	assert.Equal(t, 0.5, w.Updater().L2Factor())

	loss, err := w.RegularizationLoss()
	require.NoError(t, err)
	assert.InDelta(t, 4.5, loss, 1e-12) // 3² * 0.5
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]optim.Kind{
		"sgd": optim.KindSGD, "SGD": optim.KindSGD, "momentum": optim.KindSGD,
		"adagrad": optim.KindAdaGrad, " AdaDelta ": optim.KindAdaDelta,
	} {
		got, err := optim.ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := optim.ParseKind("adam")
	assert.ErrorIs(t, err, optim.ErrUnknownAlgorithm)
	assert.Equal(t, "adadelta", optim.KindAdaDelta.String())
}
