package main

import (
	"fmt"
	"io"

	"abkit/domain/experiment"
	"abkit/internal/report"

	"github.com/spf13/cobra"
)

func newSampleSizeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samplesize",
		Short: "Per-group sample size needed to detect an effect",
	}
	cmd.AddCommand(newSampleSizeMeansCmd(opts), newSampleSizeProportionsCmd(opts))
	return cmd
}

func newSampleSizeMeansCmd(opts *cliOptions) *cobra.Command {
	var delta, stddev float64

	cmd := &cobra.Command{
		Use:   "means",
		Short: "Sample size for a difference in means",
		Long: `Sample size per group to detect a mean difference of --delta given a
common standard deviation --stddev.

Example: abkit samplesize means --delta 1 --stddev 38`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.engine.SampleSizeByMean(delta, stddev, opts.params())
			if err != nil {
				return err
			}
			return opts.writeSampleSize(experiment.KindMeans, res)
		},
	}

	cmd.Flags().Float64Var(&delta, "delta", 0, "Minimum detectable difference in means")
	cmd.Flags().Float64Var(&stddev, "stddev", 0, "Common standard deviation")
	_ = cmd.MarkFlagRequired("delta")
	_ = cmd.MarkFlagRequired("stddev")
	return cmd
}

func newSampleSizeProportionsCmd(opts *cliOptions) *cobra.Command {
	var p1, p2 float64

	cmd := &cobra.Command{
		Use:   "proportions",
		Short: "Sample size for a difference in proportions",
		Long: `Sample size per group to tell a baseline rate --p1 from a target rate --p2.

Example: abkit samplesize proportions --p1 0.13 --p2 0.14`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.engine.SampleSizeByProportions(p1, p2, opts.params())
			if err != nil {
				return err
			}
			return opts.writeSampleSize(experiment.KindProportions, res)
		},
	}

	cmd.Flags().Float64Var(&p1, "p1", 0, "Baseline proportion")
	cmd.Flags().Float64Var(&p2, "p2", 0, "Expected proportion under treatment")
	_ = cmd.MarkFlagRequired("p1")
	_ = cmd.MarkFlagRequired("p2")
	return cmd
}

func (o *cliOptions) writeSampleSize(kind experiment.Kind, res experiment.SampleSizeResult) error {
	params := o.params()
	switch o.format {
	case formatJSON:
		return o.writeJSON(map[string]interface{}{
			"kind":      kind,
			"params":    params,
			"per_group": res.PerGroup,
			"total":     res.Total(),
		})
	case formatMarkdown:
		_, err := io.WriteString(o.out, report.SampleSizeMarkdown(kind, res, params))
		return err
	default:
		_, err := fmt.Fprintf(o.out, "per group: %d\ntotal:     %d\n", res.PerGroup, res.Total())
		return err
	}
}
