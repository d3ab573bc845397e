package nn_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/optim"
	"github.com/born-ml/paramcore/internal/serialization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func smoothFill(name string, i, j int) float64 {
	return 0.3 * math.Sin(float64(3*i+j+len(name)))
}

func newLayer(t *testing.T, cfg nn.BilinearConfig, b nn.WeightBuilder) *nn.Bilinear {
	t.Helper()
	if cfg.Clip == nil {
		cfg.Clip = unclipped()
	}
	l, err := nn.NewBilinear(cfg)
	require.NoError(t, err)
	require.NoError(t, l.Initialize(b))
	return l
}

func TestNewBilinear_Validation(t *testing.T) {
	_, err := nn.NewBilinear(nn.BilinearConfig{OutputDim: 2})
	assert.Error(t, err)

	_, err = nn.NewBilinear(nn.BilinearConfig{OutputDim: 0, Splitter: nn.ConcatSplit{A: 1, B: 1}})
	assert.Error(t, err)

	_, err = nn.NewBilinear(nn.BilinearConfig{OutputDim: 1, Splitter: nn.ConcatSplit{A: 0, B: 2}})
	assert.Error(t, err)

	l, err := nn.NewBilinear(nn.BilinearConfig{OutputDim: 3, Splitter: nn.ConcatSplit{A: 2, B: 4}})
	require.NoError(t, err)
	assert.Equal(t, "bilinear", l.Name())
	assert.Equal(t, "tanh", l.Activation().Name())
	assert.Equal(t, 6, l.InputDim())
	assert.Equal(t, 2, l.FanInA())
	assert.Equal(t, 4, l.FanInB())
}

func TestBilinear_Initialize(t *testing.T) {
	l := newLayer(t, nn.BilinearConfig{OutputDim: 3, Splitter: nn.ConcatSplit{A: 2, B: 4}},
		optim.NewSGDBuilder(optim.DefaultSGDConfig(), optim.WithSeed(1)))

	require.Len(t, l.Quadratic(), 3)
	for _, q := range l.Quadratic() {
		r, c := q.Dims()
		assert.Equal(t, [2]int{2, 4}, [2]int{r, c})
		assert.True(t, q.IsBound())
	}
	r, c := l.Linear().Dims()
	assert.Equal(t, [2]int{3, 6}, [2]int{r, c})
	r, c = l.Bias().Dims()
	assert.Equal(t, [2]int{3, 1}, [2]int{r, c})
	assert.Equal(t, "bilinear.quadratic.2", l.Quadratic()[2].Name())
}

func TestBilinear_ApplyErrors(t *testing.T) {
	l, err := nn.NewBilinear(nn.BilinearConfig{OutputDim: 1, Splitter: nn.SharedSplit{N: 2}})
	require.NoError(t, err)

	_, err = l.Apply(vec(1, 2))
	assert.ErrorIs(t, err, nn.ErrNotInitialized)

	require.NoError(t, l.Initialize(newFillBuilder(smoothFill)))
	_, err = l.Apply(vec(1, 2, 3))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = l.Backward(vec(1, 2), vec(0.5), vec(1, 1))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

// TestBilinear_ApplyKnownValues checks y = f(aᵀ Q b + L x + b) by hand.
func TestBilinear_ApplyKnownValues(t *testing.T) {
	fill := func(name string, i, j int) float64 {
		switch name {
		case "bilinear.quadratic.0":
			if i == j {
				return 1 // Q = I
			}
			return 0
		case "bilinear.linear":
			return 0.1
		default:
			return 0.5 // bias
		}
	}
	l := newLayer(t, nn.BilinearConfig{
		OutputDim:  1,
		Activation: nn.Identity{},
		Splitter:   nn.ConcatSplit{A: 2, B: 2},
	}, newFillBuilder(fill))

	out, err := l.Apply(vec(1, 2, 3, 4))
	require.NoError(t, err)
	// [1 2]·I·[3 4] = 11, L x = 0.1 * 10 = 1, bias 0.5
	assert.InDelta(t, 12.5, out.AtVec(0), 1e-12)

	_, err = l.Backward(vec(1, 2, 3, 4), out, vec(1))
	require.NoError(t, err)
	// dG/dQ = a bᵀ
	want := mat.NewDense(2, 2, []float64{3, 4, 6, 8})
	assert.True(t, mat.EqualApprox(want, l.Quadratic()[0].Delta(), 1e-12))
}

func TestBilinear_ApplyIsDeterministic(t *testing.T) {
	l := newLayer(t, nn.BilinearConfig{OutputDim: 4, Splitter: nn.ConcatSplit{A: 3, B: 2}},
		optim.NewAdaGradBuilder(optim.DefaultAdaGradConfig(), optim.WithSeed(9)))

	x := vec(0.1, -0.4, 0.9, 1.3, -2)
	first, err := l.Apply(x)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := l.Apply(x)
		require.NoError(t, err)
		assert.True(t, mat.Equal(first, again))
	}
	assert.Equal(t, []float64{0.1, -0.4, 0.9, 1.3, -2}, x.RawVector().Data)
}

// TestBilinear_GradientCheck compares accumulated gradients and the
// propagated error against central differences of L = errOutᵀ Apply(x).
func TestBilinear_GradientCheck(t *testing.T) {
	tests := []struct {
		name string
		cfg  nn.BilinearConfig
		x    *mat.VecDense
	}{
		{"concat tanh", nn.BilinearConfig{OutputDim: 2, Activation: nn.Tanh{}, Splitter: nn.ConcatSplit{A: 2, B: 3}}, vec(0.4, -0.7, 1.1, 0.2, -0.5)},
		{"shared sigmoid", nn.BilinearConfig{OutputDim: 3, Activation: nn.Sigmoid{}, Splitter: nn.SharedSplit{N: 3}}, vec(0.9, -0.3, 0.6)},
		{"concat softplus", nn.BilinearConfig{OutputDim: 1, Activation: nn.Softplus{}, Splitter: nn.ConcatSplit{A: 1, B: 2}}, vec(-1.2, 0.8, 0.3)},
	}

	const h = 1e-6
	const tol = 1e-6

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLayer(t, tt.cfg, newFillBuilder(smoothFill))
			errOut := mat.NewVecDense(tt.cfg.OutputDim, nil)
			for i := 0; i < errOut.Len(); i++ {
				errOut.SetVec(i, 1-0.7*float64(i))
			}

			objective := func(x *mat.VecDense) float64 {
				out, err := l.Apply(x)
				require.NoError(t, err)
				return mat.Dot(errOut, out)
			}

			out, err := l.Apply(tt.x)
			require.NoError(t, err)
			errIn, err := l.Backward(tt.x, out, errOut)
			require.NoError(t, err)

			checkMatrix := func(w *nn.Weight[*mat.Dense]) {
				v := w.Value()
				r, c := v.Dims()
				for i := 0; i < r; i++ {
					for j := 0; j < c; j++ {
						orig := v.At(i, j)
						v.Set(i, j, orig+h)
						plus := objective(tt.x)
						v.Set(i, j, orig-h)
						minus := objective(tt.x)
						v.Set(i, j, orig)
						assert.InDelta(t, (plus-minus)/(2*h), w.Delta().At(i, j), tol, "%s[%d,%d]", w.Name(), i, j)
					}
				}
			}
			for _, q := range l.Quadratic() {
				checkMatrix(q)
			}
			checkMatrix(l.Linear())

			bias := l.Bias().Value()
			for i := 0; i < bias.Len(); i++ {
				orig := bias.AtVec(i)
				bias.SetVec(i, orig+h)
				plus := objective(tt.x)
				bias.SetVec(i, orig-h)
				minus := objective(tt.x)
				bias.SetVec(i, orig)
				assert.InDelta(t, (plus-minus)/(2*h), l.Bias().Delta().AtVec(i), tol, "bias[%d]", i)
			}

			for k := 0; k < tt.x.Len(); k++ {
				x := mat.VecDenseCopyOf(tt.x)
				x.SetVec(k, tt.x.AtVec(k)+h)
				plus := objective(x)
				x.SetVec(k, tt.x.AtVec(k)-h)
				minus := objective(x)
				assert.InDelta(t, (plus-minus)/(2*h), errIn.AtVec(k), tol, "errIn[%d]", k)
			}
		})
	}
}

func TestBilinear_UpdateAndLoss(t *testing.T) {
	b := newFillBuilder(smoothFill)
	l := newLayer(t, nn.BilinearConfig{OutputDim: 2, Splitter: nn.ConcatSplit{A: 1, B: 1}}, b)

	require.NoError(t, l.Update(4))
	for name, u := range b.updaters {
		assert.Equal(t, []int{4}, u.counts, name)
	}

	err := l.Update(0)
	assert.ErrorIs(t, err, nn.ErrInvalidBatchSize)

	var want float64
	norm2 := func(v float64) { want += v * v * 0.5 }
	norm2(mat.Norm(l.Bias().Value(), 2))
	norm2(mat.Norm(l.Linear().Value(), 2))
	for _, q := range l.Quadratic() {
		norm2(mat.Norm(q.Value(), 2))
	}
	loss, err := l.Loss()
	require.NoError(t, err)
	assert.InDelta(t, want, loss, 1e-12)
}

func TestBilinear_SetClipPolicy(t *testing.T) {
	l := newLayer(t, nn.BilinearConfig{OutputDim: 1, Activation: nn.Identity{}, Splitter: nn.ConcatSplit{A: 2, B: 2}},
		newFillBuilder(smoothFill))
	p, err := nn.NewClipPolicy(0.01)
	require.NoError(t, err)
	l.SetClipPolicy(p)

	x := vec(10, 20, 30, 40)
	out, err := l.Apply(x)
	require.NoError(t, err)
	_, err = l.Backward(x, out, vec(1))
	require.NoError(t, err)

	assert.InDelta(t, 0.01, mat.Norm(l.Quadratic()[0].Delta(), 2), 1e-12)
	assert.InDelta(t, 0.01, mat.Norm(l.Linear().Delta(), 2), 1e-12)
}

// TestBilinear_WriteRead checks that a restored layer computes the same
// outputs and trains again after Initialize.
func TestBilinear_WriteRead(t *testing.T) {
	builder := optim.NewAdaDeltaBuilder(optim.DefaultAdaDeltaConfig(), optim.WithSeed(21))
	cfg := nn.BilinearConfig{Name: "head", OutputDim: 3, Activation: nn.Sigmoid{}, Splitter: nn.ConcatSplit{A: 2, B: 2}}
	l := newLayer(t, cfg, builder)

	var buf bytes.Buffer
	require.NoError(t, l.WriteTo(serialization.NewEncoder(&buf)))

	restored, err := nn.ReadBilinear(serialization.NewDecoder(&buf), nn.BilinearConfig{
		Name:     "head",
		Splitter: nn.ConcatSplit{A: 2, B: 2},
		Clip:     unclipped(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, restored.OutputDim())
	assert.Equal(t, "sigmoid", restored.Activation().Name())

	x := vec(0.5, -1, 2, 0.25)
	want, err := l.Apply(x)
	require.NoError(t, err)
	got, err := restored.Apply(x)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))

	assert.ErrorIs(t, restored.Update(1), nn.ErrUnbound)

	require.NoError(t, restored.Initialize(builder))
	got, err = restored.Apply(x)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got), "Initialize must keep restored values")

	_, err = restored.Backward(x, got, vec(1, 1, 1))
	require.NoError(t, err)
	require.NoError(t, restored.Update(1))
}

func TestReadBilinear_SplitterMismatch(t *testing.T) {
	l := newLayer(t, nn.BilinearConfig{OutputDim: 1, Splitter: nn.ConcatSplit{A: 2, B: 3}}, newFillBuilder(smoothFill))

	var buf bytes.Buffer
	require.NoError(t, l.WriteTo(serialization.NewEncoder(&buf)))

	_, err := nn.ReadBilinear(serialization.NewDecoder(&buf), nn.BilinearConfig{Splitter: nn.ConcatSplit{A: 3, B: 2}})
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestReadBilinear_OutputDimMismatch(t *testing.T) {
	l := newLayer(t, nn.BilinearConfig{OutputDim: 2, Splitter: nn.SharedSplit{N: 2}}, newFillBuilder(smoothFill))

	var buf bytes.Buffer
	require.NoError(t, l.WriteTo(serialization.NewEncoder(&buf)))
	data := buf.Bytes()

	_, err := nn.ReadBilinear(serialization.NewDecoder(bytes.NewReader(data)), nn.BilinearConfig{
		OutputDim: 3,
		Splitter:  nn.SharedSplit{N: 2},
	})
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
	var se *nn.ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, [2]int{3, 1}, se.Expected)
	assert.Equal(t, [2]int{2, 1}, se.Got)

	restored, err := nn.ReadBilinear(serialization.NewDecoder(bytes.NewReader(data)), nn.BilinearConfig{
		OutputDim: 2,
		Splitter:  nn.SharedSplit{N: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, restored.OutputDim())
}
