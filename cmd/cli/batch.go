package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"abkit/adapters/excel"
	"abkit/adapters/manifest"
	"abkit/domain/experiment"
	"abkit/internal/batch"
	"abkit/internal/config"
	"abkit/internal/container"
	apperrors "abkit/internal/errors"
	"abkit/internal/report"

	"github.com/spf13/cobra"
)

// batchItem is one entry of the --format json output.
type batchItem struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	Kind      experiment.Kind `json:"kind"`
	ID        string          `json:"id,omitempty"`
	Summary   *report.Summary `json:"summary,omitempty"`
	Error     string          `json:"error,omitempty"`
	SaveError string          `json:"save_error,omitempty"`
}

func newBatchCmd(opts *cliOptions) *cobra.Command {
	var (
		outPath     string
		save        bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <file.xlsx|file.csv|file.yaml>",
		Short: "Evaluate every experiment in a sheet or manifest",
		Long: `Evaluates each experiment concurrently. Sheets carry one experiment per
row (name, kind, alpha, beta, control_mean, control_stddev, control_size,
control_proportion, control_conversions and the treatment_ equivalents);
manifests are YAML documents with defaults and an experiments list.

--alpha and --beta are the defaults for rows and entries that set neither.
With --save the evaluations are stored in DATABASE_URL (or discarded with the
in-memory store when it is unset).

Examples:
  abkit batch experiments.xlsx --out results.xlsx
  abkit batch experiments.yaml --format json --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exps, err := readExperimentFile(args[0], opts.params())
			if err != nil {
				return err
			}
			opts.logger.Info("read %d experiments from %s", len(exps), args[0])

			ev := batch.NewEvaluator(opts.engine, concurrency, batch.WithLogger(opts.logger))
			if save {
				c, err := openStore(cmd, opts)
				if err != nil {
					return err
				}
				defer c.Shutdown(cmd.Context())
				ev = ev.WithStore(c.Repo)
			}

			res, err := ev.Run(cmd.Context(), exps)
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := excel.WriteResults(outPath, resultRows(res)); err != nil {
					return err
				}
				opts.logger.Info("wrote %s", outPath)
			}

			if err := opts.writeBatch(res); err != nil {
				return err
			}
			if res.Failed > 0 {
				return apperrors.ValidationError(fmt.Sprintf("%d of %d experiments failed", res.Failed, len(res.Outcomes)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write results to this xlsx file")
	cmd.Flags().BoolVar(&save, "save", false, "Persist evaluations to the configured store")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "Experiments evaluated in parallel")
	return cmd
}

func readExperimentFile(path string, defaults experiment.TestParameters) ([]experiment.Experiment, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return manifest.Load(path, defaults)
	case ".xlsx", ".csv":
		return excel.ReadExperiments(path, defaults)
	}
	return nil, apperrors.ValidationError(fmt.Sprintf("unsupported experiment file %q (use .xlsx, .csv or .yaml)", path))
}

func openStore(cmd *cobra.Command, opts *cliOptions) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg, opts.logger)
	if err != nil {
		return nil, err
	}
	if err := c.Init(cmd.Context()); err != nil {
		return nil, err
	}
	return c, nil
}

func resultRows(res *batch.Result) []excel.ResultRow {
	rows := make([]excel.ResultRow, len(res.Outcomes))
	for i, o := range res.Outcomes {
		rows[i] = excel.ResultRow{Name: o.Experiment.Name, Kind: string(o.Experiment.Kind), Err: o.Err}
		if o.OK() {
			s := summarize(o)
			rows[i].Summary = &s
		}
	}
	return rows
}

func summarize(o batch.Outcome) report.Summary {
	return report.SummarizeRecord(experiment.Record{Experiment: o.Experiment, Evaluation: *o.Evaluation})
}

func (o *cliOptions) writeBatch(res *batch.Result) error {
	switch o.format {
	case formatJSON:
		items := make([]batchItem, len(res.Outcomes))
		for i, out := range res.Outcomes {
			item := batchItem{Index: out.Index, Name: out.Experiment.Name, Kind: out.Experiment.Kind}
			if out.OK() {
				s := summarize(out)
				item.Summary = &s
				item.ID = out.Experiment.ID.String()
			} else {
				item.Error = out.Err.Error()
			}
			if out.SaveErr != nil {
				item.SaveError = out.SaveErr.Error()
			}
			items[i] = item
		}
		return o.writeJSON(map[string]interface{}{
			"succeeded": res.Succeeded,
			"failed":    res.Failed,
			"items":     items,
		})
	case formatMarkdown:
		for _, out := range res.Outcomes {
			if !out.OK() {
				fmt.Fprintf(o.out, "## %s\n\nerror: %v\n\n", displayName(out), out.Err)
				continue
			}
			s := summarize(out)
			if s.Name == "" {
				s.Name = displayName(out)
			}
			if _, err := io.WriteString(o.out, s.Markdown()+"\n"); err != nil {
				return err
			}
		}
	default:
		for _, out := range res.Outcomes {
			if !out.OK() {
				fmt.Fprintf(o.out, "%s: error: %v\n\n", displayName(out), out.Err)
				continue
			}
			s := summarize(out)
			if s.Name == "" {
				s.Name = displayName(out)
			}
			if _, err := io.WriteString(o.out, s.Text()+"\n"); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(o.out, "%d succeeded, %d failed\n", res.Succeeded, res.Failed)
	return err
}

func displayName(o batch.Outcome) string {
	if o.Experiment.Name != "" {
		return o.Experiment.Name
	}
	return fmt.Sprintf("experiment %d", o.Index+1)
}
