package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/paramcore/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// Sequential is a container layer that chains multiple layers together.
//
// Each layer's output becomes the next layer's input, creating a
// sequential pipeline of transformations.
//
// Example:
//
//	hidden, _ := nn.NewBilinear(nn.BilinearConfig{OutputDim: 8, Splitter: nn.ConcatSplit{A: 4, B: 4}})
//	head, _ := nn.NewBilinear(nn.BilinearConfig{OutputDim: 1, Splitter: nn.SharedSplit{N: 8}})
//	model := nn.NewSequential(hidden, head)
//
//	_ = model.Initialize(builder)
//	output, _ := model.Apply(input)
type Sequential struct {
	layers []Layer
}

var _ Layer = (*Sequential)(nil)

// NewSequential creates a new Sequential container.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Add appends a layer to the sequence.
func (s *Sequential) Add(layer Layer) {
	s.layers = append(s.layers, layer)
}

// Len returns the number of layers in the sequence.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic("Sequential.Layer: index out of bounds")
	}
	return s.layers[index]
}

// Initialize builds every layer through b.
func (s *Sequential) Initialize(b WeightBuilder) error {
	for i, layer := range s.layers {
		if err := layer.Initialize(b); err != nil {
			return fmt.Errorf("failed to initialize layer %d: %w", i, err)
		}
	}
	return nil
}

// Apply applies all layers in sequence.
func (s *Sequential) Apply(x *mat.VecDense) (*mat.VecDense, error) {
	acts, err := s.forward(x)
	if err != nil {
		return nil, err
	}
	return acts[len(acts)-1], nil
}

// forward returns the input followed by every layer's output.
func (s *Sequential) forward(x *mat.VecDense) ([]*mat.VecDense, error) {
	acts := make([]*mat.VecDense, 0, len(s.layers)+1)
	acts = append(acts, x)
	for i, layer := range s.layers {
		y, err := layer.Apply(acts[i])
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		acts = append(acts, y)
	}
	return acts, nil
}

// Backward propagates errOut through every layer in reverse order.
//
// Intermediate outputs are recomputed from in; Apply is deterministic, so
// they match the outputs of the forward pass that produced out.
func (s *Sequential) Backward(in, out, errOut *mat.VecDense) (*mat.VecDense, error) {
	acts, err := s.forward(in)
	if err != nil {
		return nil, err
	}
	if out != nil {
		acts[len(acts)-1] = out
	}

	e := errOut
	for i := len(s.layers) - 1; i >= 0; i-- {
		e, err = s.layers[i].Backward(acts[i], acts[i+1], e)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return e, nil
}

// Loss returns the summed regularization loss of every layer.
func (s *Sequential) Loss() (float64, error) {
	var total float64
	for i, layer := range s.layers {
		l, err := layer.Loss()
		if err != nil {
			return 0, fmt.Errorf("layer %d: %w", i, err)
		}
		total += l
	}
	return total, nil
}

// Update applies the accumulated gradients of every layer.
//
// Every layer is attempted even if one fails; the failures are joined.
func (s *Sequential) Update(count int) error {
	var errs []error
	for i, layer := range s.layers {
		if err := layer.Update(count); err != nil {
			errs = append(errs, fmt.Errorf("layer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// DiscardGradients drops the accumulated gradients of every layer.
func (s *Sequential) DiscardGradients() {
	for _, layer := range s.layers {
		layer.DiscardGradients()
	}
}

// WriteTo persists the layer count followed by every layer.
func (s *Sequential) WriteTo(enc *serialization.Encoder) error {
	if err := enc.WriteInt(len(s.layers)); err != nil {
		return err
	}
	for i, layer := range s.layers {
		if err := layer.WriteTo(enc); err != nil {
			return fmt.Errorf("failed to write layer %d: %w", i, err)
		}
	}
	return nil
}

// ReadSequential restores a container written by WriteTo. read decodes
// layer i; the caller supplies it because only the caller knows each
// layer's configuration.
func ReadSequential(dec *serialization.Decoder, read func(i int, dec *serialization.Decoder) (Layer, error)) (*Sequential, error) {
	n, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("sequential: negative layer count %d", n)
	}
	s := &Sequential{layers: make([]Layer, 0, n)}
	for i := 0; i < n; i++ {
		layer, err := read(i, dec)
		if err != nil {
			return nil, fmt.Errorf("failed to read layer %d: %w", i, err)
		}
		s.layers = append(s.layers, layer)
	}
	return s, nil
}
