package experiments

import (
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"anyplan/policy"
	"anyplan/problem"
)

// World produces the per-trial closed-loop dynamics a policy is scored
// against, e.g. a road map with freshly sampled weather.
type World interface {
	Reset(rng *rand.Rand) problem.Problem
}

type RunConfig struct {
	Trials   int
	MaxSteps int
}

type TrialRecord struct {
	Trial       int
	Cost        float64
	Steps       int
	ReachedGoal bool
	Duration    time.Duration
}

type Summary struct {
	Policy     string
	Trials     int
	MeanCost   float64
	StddevCost float64
	GoalRate   float64
	MeanSteps  float64
	Duration   time.Duration
}

// Run scores a policy over cfg.Trials closed-loop episodes of at most
// cfg.MaxSteps decisions each. An episode that dies, exhausts its
// steps, or gets no action from the policy is charged the dynamics'
// dead-end value.
func Run(name string, world World, pol policy.Policy, cfg RunConfig, rng *rand.Rand) ([]TrialRecord, Summary) {
	if cfg.Trials <= 0 || cfg.MaxSteps <= 0 {
		panic("experiments: trials and max steps must be positive")
	}

	start := time.Now()
	records := make([]TrialRecord, 0, cfg.Trials)
	costs := make([]float64, 0, cfg.Trials)
	steps := make([]float64, 0, cfg.Trials)
	goals := 0

	for trial := 0; trial < cfg.Trials; trial++ {
		record := runTrial(trial, world, pol, cfg, rng)
		if record.ReachedGoal {
			goals++
		}
		records = append(records, record)
		costs = append(costs, record.Cost)
		steps = append(steps, float64(record.Steps))
		log.Debug().
			Str("policy", name).
			Int("trial", trial).
			Float64("cost", record.Cost).
			Int("steps", record.Steps).
			Bool("goal", record.ReachedGoal).
			Msg("trial finished")
	}

	summary := Summary{
		Policy:    name,
		Trials:    cfg.Trials,
		MeanCost:  stat.Mean(costs, nil),
		GoalRate:  float64(goals) / float64(cfg.Trials),
		MeanSteps: stat.Mean(steps, nil),
		Duration:  time.Since(start),
	}
	if cfg.Trials > 1 {
		summary.StddevCost = stat.StdDev(costs, nil)
	}
	log.Info().
		Str("policy", name).
		Int("trials", summary.Trials).
		Float64("mean_cost", summary.MeanCost).
		Float64("stddev_cost", summary.StddevCost).
		Float64("goal_rate", summary.GoalRate).
		Dur("duration", summary.Duration).
		Msg("evaluation finished")
	return records, summary
}

func runTrial(trial int, world World, pol policy.Policy, cfg RunConfig, rng *rand.Rand) TrialRecord {
	start := time.Now()
	dynamics := world.Reset(rng)
	s := dynamics.Init()

	cost := 0.0
	weight := 1.0
	steps := 0
	for ; steps < cfg.MaxSteps && !dynamics.Terminal(s); steps++ {
		if dynamics.DeadEnd(s) {
			cost += weight * dynamics.DeadEndValue()
			break
		}
		a := pol.Decide(s)
		if a == problem.Noop {
			cost += weight * dynamics.DeadEndValue()
			break
		}
		cost += weight * dynamics.Cost(s, a)
		s, _ = dynamics.Sample(s, a, rng)
		weight *= dynamics.Discount()
	}
	if steps == cfg.MaxSteps && !dynamics.Terminal(s) {
		cost += weight * dynamics.DeadEndValue()
	}

	return TrialRecord{
		Trial:       trial,
		Cost:        cost,
		Steps:       steps,
		ReachedGoal: dynamics.Terminal(s),
		Duration:    time.Since(start),
	}
}
