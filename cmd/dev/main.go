package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"abkit/domain/core"
	"abkit/internal"
	"abkit/internal/abtest"
	"abkit/internal/config"
	"abkit/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "abkit-dev",
		Short:        "abkit development tools",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSeedCmd(),
		newSmokeTestCmd(),
		newDeterminismTestCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// openContainer wires the configured store the same way the server does.
func openContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level, _ := internal.ParseLogLevel(cfg.LogLevel)
	c, err := container.New(cfg, internal.NewLogger(level))
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newSeedCmd() *cobra.Command {
	var (
		count int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Evaluate and store synthetic experiments",
		Long: `Generates raw observations for COUNT experiments, alternating means and
proportions, evaluates them and saves them to DATABASE_URL. Every third
experiment has no real effect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			if c.StoreName == container.StoreMemory {
				fmt.Fprintln(cmd.OutOrStdout(), "warning: DATABASE_URL is not set, seeded experiments are not persisted")
			}

			exps, err := syntheticExperiments(count, seed, c.Config.Stats.Params())
			if err != nil {
				return err
			}
			return seedExperiments(cmd.Context(), cmd.OutOrStdout(), c.Evaluator.WithStore(c.Repo), exps)
		},
	}

	cmd.Flags().IntVar(&count, "count", 12, "Number of experiments to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed; the same seed yields the same experiments")
	return cmd
}

func newSmokeTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Check the engine against known answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmokeTests(cmd.Context(), cmd.OutOrStdout(), abtest.NewDefaultEngine())
		},
	}
}

func newDeterminismTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "determinism [experiment-id]",
		Short: "Re-evaluate a stored experiment and compare with the stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseExperimentID(args[0])
			if err != nil {
				return err
			}
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			return testDeterminism(cmd.Context(), cmd.OutOrStdout(), c.Engine, c.Repo, id)
		},
	}
}
