// Command anyplan evaluates anytime planning policies on the Canadian
// Traveler Problem and a Wumpus cave.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"anyplan/aot"
	"anyplan/ctp"
	"anyplan/experiments"
	"anyplan/policy"
	"anyplan/problem"
	"anyplan/wumpus"
)

type cliFlags struct {
	policy         string
	width          int
	depth          int
	parameter      float64
	eager          bool
	expansions     int
	leafSamples    int
	delayedSamples int
	nesting        int
	trials         int
	maxSteps       int
	seed           uint64
	out            string
	configPath     string
	graphPath      string
	rows           int
	cols           int
	pitProb        float64
	verbose        bool
}

var flags cliFlags

func main() {
	root := &cobra.Command{
		Use:           "anyplan",
		Short:         "Anytime planning policies for stochastic shortest-path problems",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.policy, "policy", "aot", "policy to evaluate (random|greedy|rollout|uct|aot)")
	root.PersistentFlags().IntVar(&flags.width, "width", aot.DefaultWidth, "expansions (or simulations) per decision")
	root.PersistentFlags().IntVar(&flags.depth, "depth", aot.DefaultDepthBound, "evaluation horizon")
	root.PersistentFlags().Float64Var(&flags.parameter, "parameter", aot.DefaultParameter, "inside/outside balance (aot) or exploration coefficient (uct)")
	root.PersistentFlags().BoolVar(&flags.eager, "eager", false, "expand action nodes immediately instead of delayed rollout estimation")
	root.PersistentFlags().IntVar(&flags.expansions, "expansions-per-iteration", aot.DefaultExpansionsPerIteration, "expansions between delta recomputations")
	root.PersistentFlags().IntVar(&flags.leafSamples, "leaf-samples", 1, "rollouts per leaf evaluation")
	root.PersistentFlags().IntVar(&flags.delayedSamples, "delayed-samples", 1, "sampled outcomes per delayed action evaluation")
	root.PersistentFlags().IntVar(&flags.nesting, "nesting", 1, "nesting levels for the rollout policy")
	root.PersistentFlags().IntVar(&flags.trials, "trials", 200, "evaluation trials")
	root.PersistentFlags().IntVar(&flags.maxSteps, "max-steps", 70, "decision budget per trial")
	root.PersistentFlags().Uint64Var(&flags.seed, "seed", 1, "random seed")
	root.PersistentFlags().StringVar(&flags.out, "out", "", "directory for CSV records (disabled when empty)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML experiment config overriding the policy flags")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "log per-trial records")

	ctpCmd := &cobra.Command{
		Use:   "ctp",
		Short: "Evaluate policies on a Canadian Traveler instance",
		RunE:  runCTP,
	}
	ctpCmd.Flags().StringVar(&flags.graphPath, "graph", "", "graph file (built-in instance when empty)")

	wumpusCmd := &cobra.Command{
		Use:   "wumpus",
		Short: "Evaluate policies on a sampled Wumpus cave",
		RunE:  runWumpus,
	}
	wumpusCmd.Flags().IntVar(&flags.rows, "rows", 4, "cave rows")
	wumpusCmd.Flags().IntVar(&flags.cols, "cols", 4, "cave columns")
	wumpusCmd.Flags().Float64Var(&flags.pitProb, "pit-prob", 0.2, "pit probability per cell")

	root.AddCommand(ctpCmd, wumpusCmd)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func setupLogging() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if flags.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func runCTP(cmd *cobra.Command, args []string) error {
	setupLogging()

	graph, err := loadGraph()
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(flags.seed))
	prob := ctp.NewProblem(graph)
	heuristic := ctp.NewMinDistanceHeuristic(prob)
	base := policy.NewGreedy(prob, heuristic)

	log.Info().
		Int("nodes", graph.NumNodes()).
		Int("edges", graph.NumEdges()).
		Float64("bad_weather", ctp.BadWeatherProbability(graph, 1000, rng)).
		Msg("instance loaded")

	world := &ctpWorld{graph: graph, hidden: ctp.NewHiddenProblem(prob)}
	return runExperiments(world, prob, heuristic, base, rng)
}

func runWumpus(cmd *cobra.Command, args []string) error {
	setupLogging()

	rng := rand.New(rand.NewSource(flags.seed))
	cave := wumpus.SampleCave(flags.rows, flags.cols, flags.pitProb, rng)
	prob := wumpus.NewProblem(cave)
	heuristic := wumpus.NewDistanceHeuristic(prob)
	base := policy.NewGreedy(prob, heuristic)

	log.Info().
		Int("rows", cave.Rows).
		Int("cols", cave.Cols).
		Int("gold", cave.Gold).
		Int("wumpus", cave.Wumpus).
		Msg("cave sampled")

	return runExperiments(fixedWorld{problem: prob}, prob, heuristic, base, rng)
}

func runExperiments(world experiments.World, prob problem.Problem, heuristic problem.Heuristic, base policy.Policy, rng *rand.Rand) error {
	cfg, policies, err := resolveConfig()
	if err != nil {
		return err
	}
	if cfg.Seed != 0 {
		rng.Seed(cfg.Seed)
	}
	runCfg := experiments.RunConfig{Trials: cfg.Trials, MaxSteps: cfg.MaxSteps}

	var writer *experiments.Writer
	if flags.out != "" {
		writer, err = experiments.NewWriter(flags.out)
		if err != nil {
			return err
		}
		log.Info().Str("dir", writer.BaseDir()).Msg("writing records")
	}

	var summaries []experiments.Summary
	for _, pc := range policies {
		pol, err := buildPolicy(pc, prob, heuristic, base, rng)
		if err != nil {
			return err
		}
		records, summary := experiments.Run(pc.Name, world, pol, runCfg, rng)
		summaries = append(summaries, summary)
		if engine, ok := pol.(*aot.Engine); ok {
			stats := engine.Stats()
			log.Info().
				Int("decisions", stats.Decisions).
				Int("expansions", stats.Expansions).
				Int("evaluations", stats.Evaluations).
				Int("from_inside", stats.FromInside).
				Int("from_outside", stats.FromOutside).
				Msg("engine counters")
		}
		if writer != nil {
			if err := writer.WriteTrialRecords(pc.Name, records); err != nil {
				return err
			}
		}
	}
	if writer != nil {
		return writer.WriteSummaries(summaries)
	}
	return nil
}

func resolveConfig() (experiments.Config, []experiments.PolicyConfig, error) {
	if flags.configPath != "" {
		cfg, err := experiments.LoadConfig(flags.configPath)
		if err != nil {
			return experiments.Config{}, nil, err
		}
		if cfg.Trials <= 0 {
			cfg.Trials = flags.trials
		}
		if cfg.MaxSteps <= 0 {
			cfg.MaxSteps = flags.maxSteps
		}
		return cfg, cfg.Policies, nil
	}

	delayed := !flags.eager
	single := experiments.PolicyConfig{
		Name:                   flags.policy,
		Type:                   flags.policy,
		Width:                  flags.width,
		Depth:                  flags.depth,
		Parameter:              flags.parameter,
		Delayed:                &delayed,
		ExpansionsPerIteration: flags.expansions,
		LeafSamples:            flags.leafSamples,
		DelayedSamples:         flags.delayedSamples,
		Nesting:                flags.nesting,
	}
	cfg := experiments.Config{Trials: flags.trials, MaxSteps: flags.maxSteps}
	return cfg, []experiments.PolicyConfig{single}, nil
}

func buildPolicy(pc experiments.PolicyConfig, prob problem.Problem, heuristic problem.Heuristic, base policy.Policy, rng *rand.Rand) (policy.Policy, error) {
	switch pc.Type {
	case "random":
		return policy.NewRandom(prob, rng), nil
	case "greedy":
		return policy.NewGreedy(prob, heuristic), nil
	case "rollout":
		return policy.NewNestedRollout(prob, base, max(pc.Width, 1), pc.Depth, max(pc.Nesting, 1), rng), nil
	case "uct":
		return policy.NewUCT(prob, base, pc.Width, pc.Depth, pc.Parameter, rng), nil
	case "aot":
		return aot.New(prob, base,
			aot.WithWidth(pc.Width),
			aot.WithDepthBound(pc.Depth),
			aot.WithParameter(pc.Parameter),
			aot.WithDelayedEvaluation(pc.DelayedEvaluation()),
			aot.WithExpansionsPerIteration(pc.ExpansionsPerIteration),
			aot.WithLeafSamples(pc.LeafSamples),
			aot.WithDelayedSamples(pc.DelayedSamples),
			aot.WithRNG(rng),
		), nil
	}
	return nil, fmt.Errorf("unknown policy type %q", pc.Type)
}

func loadGraph() (*ctp.Graph, error) {
	if flags.graphPath == "" {
		return exampleGraph(), nil
	}
	f, err := os.Open(flags.graphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()
	return ctp.Parse(f)
}

// exampleGraph is a small instance with a short risky route and a
// long safe one.
func exampleGraph() *ctp.Graph {
	g := ctp.NewGraph(6)
	g.AddEdge(0, 1, 1, 0.5)
	g.AddEdge(1, 5, 1, 0.5)
	g.AddEdge(0, 2, 2, 0.9)
	g.AddEdge(2, 3, 2, 0.9)
	g.AddEdge(3, 5, 2, 0.9)
	g.AddEdge(1, 3, 1, 0.7)
	g.AddEdge(2, 4, 3, 1.0)
	g.AddEdge(4, 5, 3, 1.0)
	return g
}

type ctpWorld struct {
	graph  *ctp.Graph
	hidden *ctp.HiddenProblem
}

func (w *ctpWorld) Reset(rng *rand.Rand) problem.Problem {
	w.hidden.SetHidden(ctp.SampleWeather(w.graph, rng))
	return w.hidden
}

type fixedWorld struct {
	problem problem.Problem
}

func (w fixedWorld) Reset(rng *rand.Rand) problem.Problem { return w.problem }
