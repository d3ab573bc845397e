package train

import (
	"fmt"
	"os"
	"strings"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/optim"
	"gopkg.in/yaml.v3"
)

// Split policies accepted in LayerConfig.Split.
const (
	SplitConcat = "concat"
	SplitShared = "shared"
)

// LayerConfig describes one bilinear layer of a model.
type LayerConfig struct {
	Name       string `yaml:"name"`
	OutputDim  int    `yaml:"output_dim"`
	Activation string `yaml:"activation"` // Default: tanh
	Split      string `yaml:"split"`      // concat | shared (default: concat)
	A          int    `yaml:"a"`          // First operand length (shared: input length)
	B          int    `yaml:"b"`          // Second operand length (concat only)
}

// Splitter returns the split policy described by the config.
func (c LayerConfig) Splitter() (nn.Splitter, error) {
	switch strings.ToLower(c.Split) {
	case "", SplitConcat:
		return nn.ConcatSplit{A: c.A, B: c.B}, nil
	case SplitShared:
		return nn.SharedSplit{N: c.A}, nil
	default:
		return nil, fmt.Errorf("%w: split %q", ErrInvalidModel, c.Split)
	}
}

// InputDim returns the length of the layer input.
func (c LayerConfig) InputDim() int {
	if strings.EqualFold(c.Split, SplitShared) {
		return c.A
	}
	return c.A + c.B
}

// Bilinear converts the config to a layer configuration.
func (c LayerConfig) Bilinear(clip *nn.ClipPolicy) (nn.BilinearConfig, error) {
	s, err := c.Splitter()
	if err != nil {
		return nn.BilinearConfig{}, err
	}
	name := c.Activation
	if name == "" {
		name = nn.Tanh{}.Name()
	}
	act, err := nn.ActivationByName(name)
	if err != nil {
		return nn.BilinearConfig{}, err
	}
	return nn.BilinearConfig{
		Name:       c.Name,
		OutputDim:  c.OutputDim,
		Activation: act,
		Splitter:   s,
		Clip:       clip,
	}, nil
}

// Config holds everything a training run needs.
//
//	optimizer:
//	  algorithm: adadelta
//	  seed: 7
//	model:
//	  - {name: hidden, output_dim: 4, split: concat, a: 2, b: 2}
//	  - {name: head, output_dim: 1, activation: identity, split: shared, a: 4}
//	batch_size: 16
//	epochs: 20
type Config struct {
	Optimizer optim.Config  `yaml:"optimizer"`
	Model     []LayerConfig `yaml:"model"`
	BatchSize int           `yaml:"batch_size"` // Examples per update (default: 16)
	Epochs    int           `yaml:"epochs"`     // Passes over the data (default: 10)
	Workers   int           `yaml:"workers"`    // Backward goroutines (0: one per CPU)
}

// DefaultConfig returns a single tanh layer over a 2+2 concatenated input,
// trained with the default AdaGrad settings.
func DefaultConfig() Config {
	return Config{
		Optimizer: optim.DefaultConfig(),
		Model: []LayerConfig{
			{Name: "bilinear", OutputDim: 1, Activation: "tanh", Split: SplitConcat, A: 2, B: 2},
		},
		BatchSize: 16,
		Epochs:    10,
	}
}

// ParseConfig decodes a YAML document on top of DefaultConfig and
// validates the result. A model list in the document replaces the default
// model entirely.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	//nolint:gosec // G304: Config path comes from user input
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks the optimizer settings, the run settings and that every
// layer consumes the output of the one before it.
func (c Config) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: %d", nn.ErrInvalidBatchSize, c.BatchSize)
	}
	if c.Epochs < 0 || c.Workers < 0 {
		return fmt.Errorf("epochs and workers must be non-negative, got %d and %d", c.Epochs, c.Workers)
	}
	return validateModel(c.Model)
}

func validateModel(layers []LayerConfig) error {
	if len(layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidModel)
	}
	for i, l := range layers {
		if _, err := l.Bilinear(nil); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if l.OutputDim <= 0 || l.A <= 0 || (!strings.EqualFold(l.Split, SplitShared) && l.B <= 0) {
			return fmt.Errorf("%w: layer %d dimensions must be positive", ErrInvalidModel, i)
		}
		if i > 0 && l.InputDim() != layers[i-1].OutputDim {
			return fmt.Errorf("%w: layer %d expects %d inputs, previous layer produces %d",
				ErrInvalidModel, i, l.InputDim(), layers[i-1].OutputDim)
		}
	}
	return nil
}

// InputDim returns the model input length.
func (c Config) InputDim() int {
	if len(c.Model) == 0 {
		return 0
	}
	return c.Model[0].InputDim()
}

// OutputDim returns the model output length.
func (c Config) OutputDim() int {
	if len(c.Model) == 0 {
		return 0
	}
	return c.Model[len(c.Model)-1].OutputDim
}

// withLayerNames returns a copy of layers where unnamed layers are called
// "layerN" after their index.
func withLayerNames(layers []LayerConfig) []LayerConfig {
	out := make([]LayerConfig, len(layers))
	for i, lc := range layers {
		if lc.Name == "" {
			lc.Name = fmt.Sprintf("layer%d", i)
		}
		out[i] = lc
	}
	return out
}

// BuildModel creates the uninitialized layers described by the config.
func BuildModel(layers []LayerConfig, clip *nn.ClipPolicy) (*nn.Sequential, error) {
	if err := validateModel(layers); err != nil {
		return nil, err
	}
	model := nn.NewSequential()
	for i, lc := range withLayerNames(layers) {
		bc, err := lc.Bilinear(clip)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		l, err := nn.NewBilinear(bc)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		model.Add(l)
	}
	return model, nil
}
