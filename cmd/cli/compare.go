package main

import (
	"abkit/adapters/excel"
	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/internal/report"
	"abkit/internal/samples"

	"github.com/spf13/cobra"
)

// comparisonOutput is the --format json payload of the compare commands.
type comparisonOutput struct {
	Name       string         `json:"name,omitempty"`
	Comparison interface{}    `json:"comparison"`
	Summary    report.Summary `json:"summary"`
}

func newCompareCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Significance, confidence interval and power for an observed experiment",
	}
	cmd.AddCommand(newCompareMeansCmd(opts), newCompareProportionsCmd(opts))
	return cmd
}

type meanGroupFlags struct {
	mean, stddev float64
	size         int
	data         string
}

func (g *meanGroupFlags) register(cmd *cobra.Command, prefix string) {
	cmd.Flags().Float64Var(&g.mean, prefix+"-mean", 0, "Mean of the "+prefix+" group")
	cmd.Flags().Float64Var(&g.stddev, prefix+"-stddev", 0, "Standard deviation of the "+prefix+" group")
	cmd.Flags().IntVar(&g.size, prefix+"-size", 0, "Size of the "+prefix+" group")
	cmd.Flags().StringVar(&g.data, prefix+"-data", "", "xlsx or csv file of raw "+prefix+" observations")
}

func newCompareMeansCmd(opts *cliOptions) *cobra.Command {
	var (
		name               string
		column             string
		control, treatment meanGroupFlags
	)

	cmd := &cobra.Command{
		Use:   "means",
		Short: "Compare the means of two groups",
		Long: `Two-sample z-test on a continuous metric. Give each group either as
summary statistics or as a file of raw observations.

Examples:
  abkit compare means --control-mean 5.08 --control-stddev 2.06 --control-size 32058 \
    --treatment-mean 8.04 --treatment-stddev 2.39 --treatment-size 34515
  abkit compare means --control-data control.csv --treatment-data treatment.csv --column basket`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in experiment.MeanComparisonInput
			if control.data != "" || treatment.data != "" {
				if control.data == "" || treatment.data == "" {
					return core.NewInvalidInputError("data", "--control-data and --treatment-data go together")
				}
				c, err := excel.ReadObservations(control.data, column)
				if err != nil {
					return err
				}
				t, err := excel.ReadObservations(treatment.data, column)
				if err != nil {
					return err
				}
				in, err = samples.MeanComparisonFromObservations(c, t)
				if err != nil {
					return err
				}
				opts.logger.Debug("summarized %d control and %d treatment observations", len(c), len(t))
			} else {
				in = experiment.MeanComparisonInput{
					Control:   experiment.MeanSample{Mean: control.mean, StdDev: control.stddev, Size: control.size},
					Treatment: experiment.MeanSample{Mean: treatment.mean, StdDev: treatment.stddev, Size: treatment.size},
				}
			}

			cmp, err := opts.engine.CompareMeans(in, opts.params())
			if err != nil {
				return err
			}
			summary := report.SummarizeMeans(cmp)
			summary.Name = name
			return opts.writeSummary(summary, comparisonOutput{Name: name, Comparison: cmp, Summary: summary})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Experiment name shown in the report")
	cmd.Flags().StringVar(&column, "column", "", "Observation column in the data files (default: first column)")
	control.register(cmd, "control")
	treatment.register(cmd, "treatment")
	return cmd
}

type proportionGroupFlags struct {
	rate        float64
	conversions int
	size        int
}

func (g *proportionGroupFlags) register(cmd *cobra.Command, prefix string) {
	cmd.Flags().Float64Var(&g.rate, prefix+"-rate", 0, "Conversion rate of the "+prefix+" group")
	cmd.Flags().IntVar(&g.conversions, prefix+"-conversions", 0, "Conversions in the "+prefix+" group (instead of a rate)")
	cmd.Flags().IntVar(&g.size, prefix+"-size", 0, "Size of the "+prefix+" group")
}

func (g *proportionGroupFlags) sample(cmd *cobra.Command, prefix string) (experiment.ProportionSample, error) {
	rateSet := cmd.Flags().Changed(prefix + "-rate")
	convSet := cmd.Flags().Changed(prefix + "-conversions")
	switch {
	case rateSet && convSet:
		return experiment.ProportionSample{}, core.NewInvalidInputError(prefix, "give a rate or conversions, not both")
	case convSet:
		return experiment.ProportionSampleFromCounts(g.conversions, g.size)
	case rateSet:
		return experiment.ProportionSample{Proportion: g.rate, Size: g.size}, nil
	}
	return experiment.ProportionSample{}, core.NewInvalidInputError(prefix, "needs --"+prefix+"-rate or --"+prefix+"-conversions")
}

func newCompareProportionsCmd(opts *cliOptions) *cobra.Command {
	var (
		name               string
		control, treatment proportionGroupFlags
	)

	cmd := &cobra.Command{
		Use:   "proportions",
		Short: "Compare the conversion rates of two groups",
		Long: `Two-sample z-test on a rate metric. Significance uses the pooled
standard error; the interval and power use the unpooled one.

Examples:
  abkit compare proportions --control-rate 0.6488 --control-size 14667 \
    --treatment-rate 0.6530 --treatment-size 14193
  abkit compare proportions --control-conversions 100 --control-size 1000 \
    --treatment-conversions 130 --treatment-size 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := control.sample(cmd, "control")
			if err != nil {
				return err
			}
			t, err := treatment.sample(cmd, "treatment")
			if err != nil {
				return err
			}

			cmp, err := opts.engine.CompareProportions(experiment.ProportionComparisonInput{Control: c, Treatment: t}, opts.params())
			if err != nil {
				return err
			}
			summary := report.SummarizeProportions(cmp)
			summary.Name = name
			return opts.writeSummary(summary, comparisonOutput{Name: name, Comparison: cmp, Summary: summary})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Experiment name shown in the report")
	control.register(cmd, "control")
	treatment.register(cmd, "treatment")
	return cmd
}
