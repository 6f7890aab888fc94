package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gocausal/adapters/excel"
	"gocausal/adapters/postgres"
	"gocausal/app"
	"gocausal/domain/core"
	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/internal/pairwise"
	"gocausal/internal/testkit"
	"gocausal/ports"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "gocausal",
		Short:        "Constraint-based causal structure discovery",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newDiscoverCmd(),
		newReportCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDiscoverCmd() *cobra.Command {
	var (
		test         string
		alpha        float64
		q            float64
		colliderOnly bool
		skewRule     string
		save         bool
		seed         int64
		demoSamples  int
	)

	cmd := &cobra.Command{
		Use:   "discover [dataset.csv|dataset.xlsx]",
		Short: "Run structure discovery on a dataset",
		Long: `Run the five-phase discovery pipeline on a CSV or XLSX dataset
(first row: variable names, remaining rows: numeric samples) and print the
run report.

With no dataset argument, a seeded synthetic linear-Gaussian dataset over a
diamond DAG is generated instead, which makes a self-contained demo:

  gocausal discover --seed 42
  gocausal discover data.csv --test fisherz --alpha 0.01 --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.RunRequest{
				Test:         test,
				Alpha:        alpha,
				Q:            q,
				ColliderOnly: colliderOnly,
				SkewRule:     pairwise.Rule(skewRule),
			}
			if len(args) == 1 {
				req.DatasetPath = args[0]
			} else {
				dag := testkit.DiamondDAG("A", "B", "C", "D")
				sampler := testkit.LinearGaussian{Coef: 0.7, Noise: 1.0, Seed: seed}
				matrix, err := sampler.Sample(dag, demoSamples)
				if err != nil {
					return err
				}
				req.Matrix = matrix
				req.DatasetName = fmt.Sprintf("synthetic-diamond-seed%d", seed)
			}

			svc, cleanup, err := buildService(save)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Print(out.Record.Report)
			if save {
				fmt.Fprintf(os.Stderr, "saved run %s\n", out.Record.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&test, "test", "fisherz", "independence test: fisherz or chisquare")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "independence threshold")
	cmd.Flags().Float64Var(&q, "q", 1.0, "target FDR bound in [0, 1]")
	cmd.Flags().BoolVar(&colliderOnly, "collider-only", false, "stop after collider orientation")
	cmd.Flags().StringVar(&skewRule, "skew-orient", "", "left-right post-pass rule: fask, rskew, skew or tanh")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run to DATABASE_URL")
	cmd.Flags().Int64Var(&seed, "seed", 42, "seed for the synthetic demo dataset")
	cmd.Flags().IntVar(&demoSamples, "samples", 1000, "sample count for the synthetic demo dataset")

	return cmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <run-id>",
		Short: "Print the stored report of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			svc, cleanup, err := buildService(true)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Print(rec.Report)
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := buildService(true)
			if err != nil {
				return err
			}
			defer cleanup()

			summaries, err := svc.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, s := range summaries {
				fmt.Printf("%s  %-24s %-10s alpha=%-6g edges=%-4d %s\n",
					s.ID, s.DatasetName, s.TestKind, s.Alpha, s.NumEdges, s.CreatedAt)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum runs to list")
	return cmd
}

// buildService wires the discovery service. Persistence is attached only when
// needed: discovery without --save runs entirely in memory.
func buildService(needRepo bool) (*app.DiscoveryService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := internal.NewDefaultLogger()

	var repo ports.RunRepository
	cleanup := func() {}
	if needRepo {
		if cfg.Database.URL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is not set; stored runs are unavailable")
		}
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		repo = postgres.NewRunRepository(db)
		cleanup = func() { db.Close() }
	}

	svc := app.NewDiscoveryService(excel.NewReader(), repo, logger, cfg.Search.MaxConcurrent)
	return svc, cleanup, nil
}
