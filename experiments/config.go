package experiments

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes an experiment set: a shared seed and budget plus
// one entry per policy to evaluate.
type Config struct {
	Seed     uint64         `yaml:"seed"`
	Trials   int            `yaml:"trials"`
	MaxSteps int            `yaml:"max_steps"`
	Policies []PolicyConfig `yaml:"policies"`
}

// PolicyConfig selects and parameterizes one policy. Type is one of
// random, greedy, rollout, uct, or aot; fields that do not apply to
// the chosen type are ignored.
type PolicyConfig struct {
	Name                   string  `yaml:"name"`
	Type                   string  `yaml:"type"`
	Width                  int     `yaml:"width"`
	Depth                  int     `yaml:"depth"`
	Parameter              float64 `yaml:"parameter"`
	Delayed                *bool   `yaml:"delayed"`
	ExpansionsPerIteration int     `yaml:"expansions_per_iteration"`
	LeafSamples            int     `yaml:"leaf_samples"`
	DelayedSamples         int     `yaml:"delayed_samples"`
	Nesting                int     `yaml:"nesting"`
}

// DelayedEvaluation defaults to true when the config leaves it unset.
func (c PolicyConfig) DelayedEvaluation() bool {
	return c.Delayed == nil || *c.Delayed
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read experiment config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse experiment config: %w", err)
	}
	if len(cfg.Policies) == 0 {
		return Config{}, fmt.Errorf("experiment config %s lists no policies", path)
	}
	for i, p := range cfg.Policies {
		if p.Name == "" {
			cfg.Policies[i].Name = fmt.Sprintf("%s-%d", p.Type, i)
		}
	}
	return cfg, nil
}
