package optim_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_KeepsDefaults(t *testing.T) {
	cfg, err := optim.ParseConfig([]byte(`
algorithm: adadelta
seed: 42
clip_threshold: 5
adadelta:
  decay: 0.9
`))
	require.NoError(t, err)

	assert.Equal(t, "adadelta", cfg.Algorithm)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 5.0, cfg.ClipThreshold)
	assert.Equal(t, 0.9, cfg.AdaDelta.Decay)
	assert.Equal(t, optim.DefaultAdaDeltaConfig().Epsilon, cfg.AdaDelta.Epsilon)
	assert.Equal(t, optim.DefaultAdaDeltaConfig().L2Decay, cfg.AdaDelta.L2Decay)
	assert.Equal(t, optim.DefaultSGDConfig(), cfg.SGD)
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := optim.ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, optim.DefaultConfig(), cfg)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown algorithm", "algorithm: adam", optim.ErrUnknownAlgorithm},
		{"momentum out of range", "algorithm: sgd\nsgd:\n  momentum: 1.5", optim.ErrInvalidHyperparam},
		{"negative l2", "adagrad:\n  l2decay: -1", optim.ErrInvalidHyperparam},
		{"zero epsilon", "algorithm: adadelta\nadadelta:\n  epsilon: 0", optim.ErrInvalidHyperparam},
		{"negative threshold", "clip_threshold: -2", nn.ErrInvalidThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := optim.ParseConfig([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := optim.ParseConfig([]byte("algorithm: [unclosed"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("algorithm: sgd\nsgd:\n  momentum: 0.5\n"), 0o600))

	cfg, err := optim.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.SGD.Momentum)

	_, err = optim.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_NewBuilder(t *testing.T) {
	cfg := optim.DefaultConfig()
	cfg.Algorithm = "sgd"
	cfg.Seed = 11
	cfg.SGD.Momentum = 0.25

	b, err := cfg.NewBuilder()
	require.NoError(t, err)
	assert.Equal(t, optim.KindSGD, b.Kind())
	assert.Equal(t, []float64{0.03, 0.0001, 0.25}, b.Hyperparameters())

	cfg.Algorithm = "rmsprop"
	_, err = cfg.NewBuilder()
	assert.ErrorIs(t, err, optim.ErrUnknownAlgorithm)
}

func TestConfig_ClipPolicy(t *testing.T) {
	cfg := optim.DefaultConfig()
	p, err := cfg.ClipPolicy()
	require.NoError(t, err)
	_, ok := p.Threshold()
	assert.False(t, ok)

	cfg.ClipThreshold = 2.5
	p, err = cfg.ClipPolicy()
	require.NoError(t, err)
	th, ok := p.Threshold()
	assert.True(t, ok)
	assert.Equal(t, 2.5, th)
}
