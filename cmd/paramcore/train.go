package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/paramcore/internal/train"
)

type trainOptions struct {
	config  string
	data    string
	resume  string
	out     string
	epochs  int
	samples int
	seed    uint64
	verbose bool
}

func newTrainCmd() *cobra.Command {
	var opts trainOptions

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a bilinear model",
		Long: `Train a bilinear model with mini-batch updates.

Examples come from a CSV file (input columns followed by target columns)
or, without --data, from a synthetic product-of-pairs task. The model and
optimizer are read from --config; --resume continues from a checkpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "YAML run config (default: built-in)")
	f.StringVarP(&opts.data, "data", "d", "", "CSV training data (default: synthetic)")
	f.StringVar(&opts.resume, "resume", "", "checkpoint to resume from")
	f.StringVarP(&opts.out, "out", "o", "model.brnc", "checkpoint to write")
	f.IntVarP(&opts.epochs, "epochs", "e", 0, "override the configured epoch count")
	f.IntVar(&opts.samples, "samples", 256, "synthetic example count")
	f.Uint64Var(&opts.seed, "seed", 1, "synthetic data seed")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every batch")
	return cmd
}

func runTrain(cmd *cobra.Command, opts trainOptions) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg := train.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = train.LoadConfig(opts.config); err != nil {
			return err
		}
	}
	if opts.epochs > 0 {
		cfg.Epochs = opts.epochs
	}

	var (
		trainer *train.Trainer
		err     error
	)
	if opts.resume != "" {
		trainer, err = train.LoadCheckpoint(opts.resume, cfg, train.WithLogger(logger))
	} else {
		trainer, err = train.New(cfg, train.WithLogger(logger))
	}
	if err != nil {
		return err
	}
	cfg = trainer.Config()

	var data []train.Example
	if opts.data != "" {
		data, err = train.LoadCSV(opts.data, cfg.InputDim(), cfg.OutputDim())
		if err != nil {
			return err
		}
	} else {
		data = train.Synthetic(opts.seed, opts.samples, cfg.InputDim(), cfg.OutputDim())
	}

	logger.Info("training started",
		slog.String("run_id", trainer.RunID()),
		slog.String("algorithm", trainer.Builder().Kind().String()),
		slog.Int("examples", len(data)),
		slog.Int("epochs", cfg.Epochs))

	losses, err := trainer.Fit(cmd.Context(), data)
	if err != nil {
		return fmt.Errorf("training stopped after %d epochs: %w", len(losses), err)
	}
	if err := trainer.SaveCheckpoint(opts.out); err != nil {
		return err
	}

	final, err := trainer.Evaluate(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d epochs, loss %.6g, saved %s\n",
		trainer.RunID(), trainer.Epoch(), final, opts.out)
	return nil
}
