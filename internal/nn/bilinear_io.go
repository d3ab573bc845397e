package nn

import (
	"fmt"

	"github.com/born-ml/paramcore/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// WriteTo persists the layer in declaration order: fanInA, fanInB,
// activation name, bias, linear, outputDim, then every quadratic weight in
// index order. Only weight values are written.
func (l *Bilinear) WriteTo(enc *serialization.Encoder) error {
	if err := enc.WriteInt(l.FanInA()); err != nil {
		return err
	}
	if err := enc.WriteInt(l.FanInB()); err != nil {
		return err
	}
	if err := enc.WriteString(l.activation.Name()); err != nil {
		return err
	}
	if err := l.bias.WriteTo(enc); err != nil {
		return err
	}
	if err := l.linear.WriteTo(enc); err != nil {
		return err
	}
	if err := enc.WriteInt(l.outputDim); err != nil {
		return err
	}
	for i := 0; i < l.outputDim; i++ {
		var q *Weight[*mat.Dense]
		if i < len(l.quadratic) {
			q = l.quadratic[i]
		} else {
			q = l.newQuadratic(i) // written as absent
		}
		if err := q.WriteTo(enc); err != nil {
			return err
		}
	}
	return nil
}

// ReadBilinear restores a layer written by WriteTo.
//
// The split policy is not persisted; cfg.Splitter must match the stored
// fan-ins. A non-zero cfg.OutputDim must match the stored one; zero takes
// it from the stream. Activation is always taken from the stream. The
// returned layer holds values but no update algorithms: call Initialize
// with a builder carrying the persisted hyperparameters before training.
func ReadBilinear(dec *serialization.Decoder, cfg BilinearConfig) (*Bilinear, error) {
	if err := checkSplitter(cfg.Splitter); err != nil {
		return nil, err
	}

	fanInA, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	fanInB, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	if fanInA != cfg.Splitter.FanInA() || fanInB != cfg.Splitter.FanInB() {
		return nil, &ShapeError{
			Op:       "ReadBilinear",
			Name:     cfg.Name,
			Expected: [2]int{cfg.Splitter.FanInA(), cfg.Splitter.FanInB()},
			Got:      [2]int{fanInA, fanInB},
		}
	}

	actName, err := dec.ReadString()
	if err != nil {
		return nil, err
	}
	act, err := ActivationByName(actName)
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = "bilinear"
	}
	bias := NewVectorWeight(name + ".bias")
	if err := bias.ReadFrom(dec); err != nil {
		return nil, err
	}
	linear := NewMatrixWeight(name + ".linear")
	if err := linear.ReadFrom(dec); err != nil {
		return nil, err
	}

	outputDim, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	if cfg.OutputDim != 0 && cfg.OutputDim != outputDim {
		return nil, &ShapeError{
			Op:       "ReadBilinear",
			Name:     name,
			Expected: [2]int{cfg.OutputDim, 1},
			Got:      [2]int{outputDim, 1},
		}
	}

	cfg.Name = name
	cfg.OutputDim = outputDim
	cfg.Activation = act
	l, err := NewBilinear(cfg)
	if err != nil {
		return nil, err
	}
	bias.SetClipPolicy(cfg.Clip)
	linear.SetClipPolicy(cfg.Clip)
	l.bias = bias
	l.linear = linear

	l.quadratic = make([]*Weight[*mat.Dense], outputDim)
	for i := range l.quadratic {
		q := l.newQuadratic(i)
		if err := q.ReadFrom(dec); err != nil {
			return nil, err
		}
		l.quadratic[i] = q
	}

	if err := l.checkRestoredShapes(); err != nil {
		return nil, err
	}
	return l, nil
}

// checkRestoredShapes verifies that every present weight matches the
// layer's dimensions.
func (l *Bilinear) checkRestoredShapes() error {
	check := func(op, name string, r, c, wantR, wantC int) error {
		if r == 0 && c == 0 {
			return nil // absent
		}
		if r != wantR || c != wantC {
			return &ShapeError{Op: op, Name: name, Expected: [2]int{wantR, wantC}, Got: [2]int{r, c}}
		}
		return nil
	}

	r, c := l.bias.Dims()
	if err := check("ReadBilinear", l.bias.Name(), r, c, l.outputDim, 1); err != nil {
		return err
	}
	r, c = l.linear.Dims()
	if err := check("ReadBilinear", l.linear.Name(), r, c, l.outputDim, l.InputDim()); err != nil {
		return err
	}
	for _, q := range l.quadratic {
		r, c = q.Dims()
		if err := check("ReadBilinear", q.Name(), r, c, l.FanInA(), l.FanInB()); err != nil {
			return err
		}
	}
	return nil
}
