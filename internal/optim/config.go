package optim

import (
	"fmt"
	"os"

	"github.com/born-ml/paramcore/internal/nn"
	"gopkg.in/yaml.v3"
)

// Config selects an update algorithm and its hyperparameters.
//
// Only the section matching Algorithm is used. Keys missing from a YAML
// document keep the values of DefaultConfig:
//
//	algorithm: adadelta
//	seed: 42
//	clip_threshold: 5
//	adadelta:
//	  decay: 0.9
type Config struct {
	Algorithm     string         `yaml:"algorithm"`      // sgd | adagrad | adadelta
	Seed          uint64         `yaml:"seed"`           // Initialization seed (0: random)
	ClipThreshold float64        `yaml:"clip_threshold"` // Gradient norm cap (0: unset)
	SGD           SGDConfig      `yaml:"sgd"`
	AdaGrad       AdaGradConfig  `yaml:"adagrad"`
	AdaDelta      AdaDeltaConfig `yaml:"adadelta"`
}

// DefaultConfig returns AdaGrad with the documented defaults of every
// algorithm filled in.
func DefaultConfig() Config {
	return Config{
		Algorithm: KindAdaGrad.String(),
		SGD:       DefaultSGDConfig(),
		AdaGrad:   DefaultAdaGradConfig(),
		AdaDelta:  DefaultAdaDeltaConfig(),
	}
}

// ParseConfig decodes a YAML document on top of DefaultConfig and
// validates the result.
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

// Validate checks the selected algorithm's hyperparameters and the
// clipping threshold.
func (c Config) Validate() error {
	kind, err := ParseKind(c.Algorithm)
	if err != nil {
		return err
	}
	if c.ClipThreshold < 0 {
		return fmt.Errorf("%w: %v", nn.ErrInvalidThreshold, c.ClipThreshold)
	}
	switch kind {
	case KindSGD:
		return c.SGD.Validate()
	case KindAdaGrad:
		return c.AdaGrad.Validate()
	default:
		return c.AdaDelta.Validate()
	}
}

// NewBuilder creates the builder selected by the config.
func (c Config) NewBuilder() (*Builder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	kind, _ := ParseKind(c.Algorithm)

	var opts []BuilderOption
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}

	switch kind {
	case KindSGD:
		return NewSGDBuilder(c.SGD, opts...), nil
	case KindAdaGrad:
		return NewAdaGradBuilder(c.AdaGrad, opts...), nil
	default:
		return NewAdaDeltaBuilder(c.AdaDelta, opts...), nil
	}
}

// ClipPolicy returns a clipping policy for the configured threshold.
func (c Config) ClipPolicy() (*nn.ClipPolicy, error) {
	return nn.NewClipPolicy(c.ClipThreshold)
}
