// Package train drives mini-batch training of bilinear models.
//
// A Trainer owns a model and the builder that bound its weights. Each
// mini-batch runs forward and backward passes for its examples in parallel
// (weights serialize their own gradient accumulation), then applies one
// update normalized by the batch size.
//
// Example usage:
//
//	cfg, _ := train.LoadConfig("run.yaml")
//	trainer, _ := train.New(cfg, train.WithLogger(logger))
//
//	losses, err := trainer.Fit(ctx, examples)
//	if err != nil {
//	    return err
//	}
//	_ = trainer.SaveCheckpoint("model.brnc")
package train

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/born-ml/paramcore/internal/nn"
	"github.com/born-ml/paramcore/internal/optim"
	"github.com/born-ml/paramcore/internal/parallel"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// Example is one training pair.
type Example struct {
	Input  *mat.VecDense
	Target *mat.VecDense
}

// Trainer runs mini-batch training over a model.
type Trainer struct {
	cfg     Config
	model   *nn.Sequential
	builder *optim.Builder
	loss    nn.MSELoss
	par     parallel.Config
	logger  *slog.Logger
	runID   string
	epoch   int
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithRunID sets the run identifier recorded in logs and checkpoints
// (default: a random UUID, or the one stored in a loaded checkpoint).
func WithRunID(id string) Option {
	return func(t *Trainer) { t.runID = id }
}

// New builds the model and builder described by cfg and initializes every
// weight.
func New(cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	builder, err := cfg.Optimizer.NewBuilder()
	if err != nil {
		return nil, err
	}
	clip, err := cfg.Optimizer.ClipPolicy()
	if err != nil {
		return nil, err
	}
	model, err := BuildModel(cfg.Model, clip)
	if err != nil {
		return nil, err
	}
	return newTrainer(cfg, model, builder, "", 0, opts)
}

func newTrainer(cfg Config, model *nn.Sequential, builder *optim.Builder, runID string, epoch int, opts []Option) (*Trainer, error) {
	if err := model.Initialize(builder); err != nil {
		return nil, fmt.Errorf("failed to initialize model: %w", err)
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	par := parallel.DefaultConfig()
	par.NumWorkers = workers
	par.Enabled = workers > 1

	t := &Trainer{
		cfg:     cfg,
		model:   model,
		builder: builder,
		par:     par,
		runID:   runID,
		epoch:   epoch,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.runID == "" {
		t.runID = uuid.NewString()
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With(slog.String("run_id", t.runID))
	return t, nil
}

// Model returns the trained model.
func (t *Trainer) Model() *nn.Sequential { return t.model }

// Builder returns the builder that bound the model's weights.
func (t *Trainer) Builder() *optim.Builder { return t.builder }

// RunID returns the run identifier.
func (t *Trainer) RunID() string { return t.runID }

// Epoch returns the number of completed epochs.
func (t *Trainer) Epoch() int { return t.epoch }

// Config returns the run configuration.
func (t *Trainer) Config() Config { return t.cfg }

// Step trains on one mini-batch and returns its mean data loss.
//
// Every example's gradients are accumulated before the single update. If
// any example fails, the gradients accumulated by the others are discarded
// and no update is applied.
func (t *Trainer) Step(batch []Example) (float64, error) {
	if len(batch) == 0 {
		return 0, ErrEmptyDataset
	}

	losses := make([]float64, len(batch))
	err := parallel.ForErr(len(batch), func(i int) error {
		ex := batch[i]
		out, err := t.model.Apply(ex.Input)
		if err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		loss, err := t.loss.Forward(out, ex.Target)
		if err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		grad, err := t.loss.Gradient(out, ex.Target)
		if err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		if _, err := t.model.Backward(ex.Input, out, grad); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		losses[i] = loss
		return nil
	}, t.par)
	if err != nil {
		t.model.DiscardGradients()
		return 0, err
	}

	if err := t.model.Update(len(batch)); err != nil {
		return 0, fmt.Errorf("update failed: %w", err)
	}
	return mean(losses), nil
}

// RunEpoch makes one pass over data in mini-batches of cfg.BatchSize and
// returns the mean batch loss. The context is checked between batches.
func (t *Trainer) RunEpoch(ctx context.Context, data []Example) (float64, error) {
	if len(data) == 0 {
		return 0, ErrEmptyDataset
	}

	var total float64
	batches := 0
	for start := 0; start < len(data); start += t.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		end := min(start+t.cfg.BatchSize, len(data))
		loss, err := t.Step(data[start:end])
		if err != nil {
			return 0, fmt.Errorf("epoch %d batch %d: %w", t.epoch+1, batches, err)
		}
		t.logger.Debug("batch complete",
			slog.Int("epoch", t.epoch+1),
			slog.Int("batch", batches),
			slog.Float64("loss", loss))
		total += loss
		batches++
	}

	t.epoch++
	epochLoss := total / float64(batches)

	reg, err := t.model.Loss()
	if err != nil {
		return 0, err
	}
	t.logger.Info("epoch complete",
		slog.Int("epoch", t.epoch),
		slog.Int("batches", batches),
		slog.Float64("loss", epochLoss),
		slog.Float64("regularization", reg))
	return epochLoss, nil
}

// Fit runs cfg.Epochs epochs and returns the loss of each.
func (t *Trainer) Fit(ctx context.Context, data []Example) ([]float64, error) {
	losses := make([]float64, 0, t.cfg.Epochs)
	for i := 0; i < t.cfg.Epochs; i++ {
		loss, err := t.RunEpoch(ctx, data)
		if err != nil {
			return losses, err
		}
		losses = append(losses, loss)
	}
	return losses, nil
}

// Evaluate returns the mean data loss over data without touching any
// gradient.
func (t *Trainer) Evaluate(data []Example) (float64, error) {
	if len(data) == 0 {
		return 0, ErrEmptyDataset
	}
	losses := make([]float64, len(data))
	err := parallel.ForErr(len(data), func(i int) error {
		out, err := t.model.Apply(data[i].Input)
		if err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		losses[i], err = t.loss.Forward(out, data[i].Target)
		return err
	}, t.par)
	if err != nil {
		return 0, err
	}
	return mean(losses), nil
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
