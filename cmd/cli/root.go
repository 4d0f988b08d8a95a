package main

import (
	"encoding/json"
	"fmt"
	"io"

	"abkit/domain/experiment"
	"abkit/internal"
	"abkit/internal/abtest"
	"abkit/internal/report"

	"github.com/spf13/cobra"
)

// Output formats.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// cliOptions are the persistent flags shared by every command.
type cliOptions struct {
	alpha    float64
	beta     float64
	format   string
	logLevel string

	out    io.Writer
	engine *abtest.Engine
	logger *internal.Logger
}

func (o *cliOptions) params() experiment.TestParameters {
	return experiment.TestParameters{Alpha: o.alpha, Beta: o.beta}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &cliOptions{out: out, engine: abtest.NewDefaultEngine()}

	rootCmd := &cobra.Command{
		Use:           "abkit",
		Short:         "A/B test planning and evaluation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case formatText, formatMarkdown, formatJSON:
			default:
				return fmt.Errorf("unknown --format %q (use text, markdown or json)", opts.format)
			}
			level, _ := internal.ParseLogLevel(opts.logLevel)
			opts.logger = internal.NewLogger(level)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.Float64Var(&opts.alpha, "alpha", experiment.DefaultAlpha, "Type I error rate (two-sided)")
	flags.Float64Var(&opts.beta, "beta", experiment.DefaultBeta, "Type II error rate; power is 1-beta")
	flags.StringVar(&opts.format, "format", formatText, "Output format: text, markdown or json")
	flags.StringVar(&opts.logLevel, "log-level", "WARN", "Log level: ERROR, WARN, INFO, DEBUG or TRACE")

	rootCmd.AddCommand(
		newSampleSizeCmd(opts),
		newCompareCmd(opts),
		newBatchCmd(opts),
	)
	return rootCmd
}

func (o *cliOptions) writeJSON(v interface{}) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *cliOptions) writeSummary(s report.Summary, payload interface{}) error {
	switch o.format {
	case formatJSON:
		return o.writeJSON(payload)
	case formatMarkdown:
		_, err := io.WriteString(o.out, s.Markdown())
		return err
	default:
		_, err := io.WriteString(o.out, s.Text())
		return err
	}
}
