package train

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/optim"
	"github.com/born-ml/paramcore/internal/serialization"
	"gopkg.in/yaml.v3"
)

// CheckpointKind identifies model checkpoints in the file header.
const CheckpointKind = "sequential-bilinear"

// Header metadata keys.
const (
	metaModel     = "model"
	metaAlgorithm = "algorithm"
	metaBatchSize = "batch_size"
)

// SaveCheckpoint writes the builder's hyperparameters and every weight
// value to path. Gradients and optimizer history are not saved.
func (t *Trainer) SaveCheckpoint(path string) error {
	model, err := yaml.Marshal(withLayerNames(t.cfg.Model))
	if err != nil {
		return fmt.Errorf("failed to encode model layout: %w", err)
	}

	header := serialization.Header{
		RunID: t.runID,
		Kind:  CheckpointKind,
		Epoch: t.epoch,
		Metadata: map[string]string{
			metaModel:     string(model),
			metaAlgorithm: t.builder.Kind().String(),
			metaBatchSize: strconv.Itoa(t.cfg.BatchSize),
		},
	}
	err = serialization.WriteFile(path, header, func(enc *serialization.Encoder) error {
		if err := t.builder.WriteTo(enc); err != nil {
			return err
		}
		return t.model.WriteTo(enc)
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	t.logger.Info("checkpoint saved", slog.String("path", path), slog.Int("epoch", t.epoch))
	return nil
}

// LoadCheckpoint resumes training from a checkpoint written by
// SaveCheckpoint.
//
// The model layout and optimizer hyperparameters come from the file; cfg
// supplies the run settings (batch size, epochs, workers, seed, clipping
// threshold). Restored weights keep their values and are re-bound to fresh
// optimizer state.
func LoadCheckpoint(path string, cfg Config, opts ...Option) (*Trainer, error) {
	clip, err := cfg.Optimizer.ClipPolicy()
	if err != nil {
		return nil, err
	}
	var builderOpts []optim.BuilderOption
	if cfg.Optimizer.Seed != 0 {
		builderOpts = append(builderOpts, optim.WithSeed(cfg.Optimizer.Seed))
	}

	var (
		layers  []LayerConfig
		builder *optim.Builder
		model   *nn.Sequential
	)
	header, err := serialization.ReadFile(path, func(h serialization.Header, dec *serialization.Decoder) error {
		var rerr error
		if layers, rerr = modelLayout(h); rerr != nil {
			return rerr
		}
		if builder, rerr = optim.ReadBuilder(dec, builderOpts...); rerr != nil {
			return rerr
		}
		model, rerr = readModel(dec, layers, clip)
		return rerr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	cfg.Model = layers
	cfg.Optimizer.Algorithm = builder.Kind().String()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newTrainer(cfg, model, builder, header.RunID, header.Epoch, opts)
}

func modelLayout(h serialization.Header) ([]LayerConfig, error) {
	if h.Kind != CheckpointKind {
		return nil, fmt.Errorf("%w: kind %q", ErrCheckpointKind, h.Kind)
	}
	var layers []LayerConfig
	if err := yaml.Unmarshal([]byte(h.Metadata[metaModel]), &layers); err != nil {
		return nil, fmt.Errorf("failed to parse model layout: %w", err)
	}
	if err := validateModel(layers); err != nil {
		return nil, err
	}
	return withLayerNames(layers), nil
}

func readModel(dec *serialization.Decoder, layers []LayerConfig, clip *nn.ClipPolicy) (*nn.Sequential, error) {
	model, err := nn.ReadSequential(dec, func(i int, dec *serialization.Decoder) (nn.Layer, error) {
		if i >= len(layers) {
			return nil, fmt.Errorf("%w: checkpoint holds more layers than its layout", ErrInvalidModel)
		}
		bc, err := layers[i].Bilinear(clip)
		if err != nil {
			return nil, err
		}
		return nn.ReadBilinear(dec, bc)
	})
	if err != nil {
		return nil, err
	}
	if model.Len() != len(layers) {
		return nil, fmt.Errorf("%w: checkpoint holds %d layers, layout names %d", ErrInvalidModel, model.Len(), len(layers))
	}
	return model, nil
}

// LayerSummary describes one restored layer.
type LayerSummary struct {
	Name       string
	Activation string
	FanInA     int
	FanInB     int
	OutputDim  int
	Weights    int // Number of scalar parameters
}

// Summary describes a checkpoint file.
type Summary struct {
	Header          serialization.Header
	Algorithm       string
	Hyperparameters []float64
	Layers          []LayerSummary
}

// Inspect reads a checkpoint and summarizes it without binding any
// optimizer state.
func Inspect(path string) (Summary, error) {
	var s Summary
	header, err := serialization.ReadFile(path, func(h serialization.Header, dec *serialization.Decoder) error {
		layers, err := modelLayout(h)
		if err != nil {
			return err
		}
		builder, err := optim.ReadBuilder(dec)
		if err != nil {
			return err
		}
		s.Algorithm = builder.Kind().String()
		s.Hyperparameters = builder.Hyperparameters()

		model, err := readModel(dec, layers, nil)
		if err != nil {
			return err
		}
		for i := 0; i < model.Len(); i++ {
			l, ok := model.Layer(i).(*nn.Bilinear)
			if !ok {
				continue
			}
			s.Layers = append(s.Layers, LayerSummary{
				Name:       l.Name(),
				Activation: l.Activation().Name(),
				FanInA:     l.FanInA(),
				FanInB:     l.FanInB(),
				OutputDim:  l.OutputDim(),
				Weights:    l.OutputDim() * (l.FanInA()*l.FanInB() + l.InputDim() + 1),
			})
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to inspect checkpoint: %w", err)
	}
	s.Header = header
	return s, nil
}
