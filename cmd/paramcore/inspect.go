package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/paramcore/internal/train"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Summarize a checkpoint",
		Long:  `Verify a checkpoint's checksum and print its run, optimizer and layer layout.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := train.Inspect(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:        %s\n", s.Header.RunID)
			fmt.Fprintf(out, "Created:    %s\n", s.Header.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Epoch:      %d\n", s.Header.Epoch)
			fmt.Fprintf(out, "Optimizer:  %s %s\n", s.Algorithm, formatFloats(s.Hyperparameters))
			fmt.Fprintln(out)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LAYER\tACTIVATION\tFAN-IN A\tFAN-IN B\tOUTPUTS\tWEIGHTS")
			total := 0
			for _, l := range s.Layers {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", l.Name, l.Activation, l.FanInA, l.FanInB, l.OutputDim, l.Weights)
				total += l.Weights
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTotal weights: %d\n", total)
			return nil
		},
	}
}

func formatFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
