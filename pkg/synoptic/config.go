package synoptic

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config selects the inference strategies. Field names follow the option
// names of the command line tool.
type Config struct {
	// UseFSMChecker selects the automaton checker; false selects the
	// temporal-logic checker.
	UseFSMChecker bool `yaml:"useFSMChecker"`
	// UseTransitiveClosureMining selects the closure miner; false selects
	// the DAG walk miner.
	UseTransitiveClosureMining bool `yaml:"useTransitiveClosureMining"`
	MineNeverConcurrentWithInv bool `yaml:"mineNeverConcurrentWithInv"`
	OnlyMineInvariants         bool `yaml:"onlyMineInvariants"`
	NoCoarsening               bool `yaml:"noCoarsening"`
	NoRefinement               bool `yaml:"noRefinement"`
	// RandomSeed fixes coarsening tie-breaks. Nil picks a seed per run.
	RandomSeed         *int64 `yaml:"randomSeed"`
	PerformExtraChecks bool   `yaml:"performExtraChecks"`
	// MiningParallelism bounds concurrent per-trace mining; 0 is unbounded.
	MiningParallelism int    `yaml:"miningParallelism"`
	LogLevel          string `yaml:"logLevel"`
}

func DefaultConfig() Config {
	return Config{
		UseFSMChecker:              true,
		MineNeverConcurrentWithInv: true,
		MiningParallelism:          4,
		LogLevel:                   "info",
	}
}

// LoadConfig reads a YAML (or JSON) file over the defaults and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MiningParallelism < 0 {
		return fmt.Errorf("%w: miningParallelism must be >= 0, got %d", ErrInvalidConfig, c.MiningParallelism)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level is info.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: logLevel: %v", ErrInvalidConfig, err)
	}
	return lvl, nil
}

// Seed returns RandomSeed or, when unset, a time based seed.
func (c Config) Seed() int64 {
	if c.RandomSeed != nil {
		return *c.RandomSeed
	}
	return time.Now().UnixNano()
}
