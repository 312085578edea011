package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
	"github.com/jtomasevic/synoptic/pkg/synoptic"
)

type flags struct {
	configPath   string
	seed         int64
	ltl          bool
	closure      bool
	noRefinement bool
	noCoarsening bool
	extraChecks  bool
	logLevel     string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "synoptic",
		Short:         "Infer a finite state model from typed execution traces",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	pf.Int64Var(&f.seed, "seed", 0, "random seed for coarsening tie-breaks")
	pf.BoolVar(&f.ltl, "ltl", false, "use the temporal-logic checker instead of the FSM checker")
	pf.BoolVar(&f.closure, "closure", false, "mine with the transitive closure strategy")
	pf.BoolVar(&f.noRefinement, "no-refinement", false, "skip refinement")
	pf.BoolVar(&f.noCoarsening, "no-coarsening", false, "skip coarsening")
	pf.BoolVar(&f.extraChecks, "extra-checks", false, "validate the graph after every operation")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		&cobra.Command{
			Use:   "infer FILE",
			Short: "Mine invariants and print the inferred model",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, f, args[0], false)
			},
		},
		&cobra.Command{
			Use:   "mine FILE",
			Short: "Print the invariants that hold in every trace",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, f, args[0], true)
			},
		},
	)
	return root
}

// config layers flags that were set explicitly over the config file.
func (f *flags) config(cmd *cobra.Command) (synoptic.Config, error) {
	cfg := synoptic.DefaultConfig()
	if f.configPath != "" {
		loaded, err := synoptic.LoadConfig(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("seed") {
		cfg.RandomSeed = &f.seed
	}
	if changed("ltl") {
		cfg.UseFSMChecker = !f.ltl
	}
	if changed("closure") {
		cfg.UseTransitiveClosureMining = f.closure
	}
	if changed("no-refinement") {
		cfg.NoRefinement = f.noRefinement
	}
	if changed("no-coarsening") {
		cfg.NoCoarsening = f.noCoarsening
	}
	if changed("extra-checks") {
		cfg.PerformExtraChecks = f.extraChecks
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, f *flags, path string, mineOnly bool) error {
	cfg, err := f.config(cmd)
	if err != nil {
		return err
	}
	if mineOnly {
		cfg.OnlyMineInvariants = true
	}
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	traces, err := event_trace.LoadFile(path)
	if err != nil {
		return err
	}
	p, err := synoptic.New(cfg, synoptic.WithLogger(logger))
	if err != nil {
		return err
	}
	res, err := p.Run(cmd.Context(), traces)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printInvariants(out, res.Invariants)
	if res.Graph == nil {
		return nil
	}
	fmt.Fprintf(out, "\nmodel: %d partitions (initial %d, splits %d, merges %d)\n",
		res.Graph.Size(), res.InitialPartitions, res.Splits, res.Merges)
	partition_graph.Print(out, res.Graph)
	return nil
}

func printInvariants(w io.Writer, set *invariants.Set) {
	fmt.Fprintf(w, "%d invariants\n", set.Len())
	for _, inv := range set.All() {
		fmt.Fprintf(w, "  %s\n", inv)
	}
}
