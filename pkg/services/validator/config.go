package validator

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/crossdomain"
)

// Settings is the on-disk shape of a pulse config file. Thresholds listed in
// the file override the catalog defaults key by key; the rest keep their
// default values.
type Settings struct {
	RulesRoot   string                 `mapstructure:"rules_root"`
	SignalsRoot string                 `mapstructure:"signals_root"`
	DbPath      string                 `mapstructure:"db_path"`
	Concurrency int                    `mapstructure:"concurrency"`
	Weights     map[string]float64     `mapstructure:"weights"`
	Thresholds  crossdomain.Thresholds `mapstructure:"thresholds"`
}

// LoadSettings reads a config file (YAML, TOML or JSON by extension) into
// Settings. Weight keys accept the same aliases as everywhere else (fin,
// ops, hr, ...); unknown keys are an error so typos do not silently vanish.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Settings{
		RulesRoot:   "rules",
		SignalsRoot: "signals",
		DbPath:      "pulse.db",
		Thresholds:  crossdomain.DefaultThresholds(),
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.DomainWeights(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DomainWeights resolves the string-keyed weight map to canonical domains.
func (s *Settings) DomainWeights() (map[domain.Domain]float64, error) {
	if len(s.Weights) == 0 {
		return nil, nil
	}
	out := make(map[domain.Domain]float64, len(s.Weights))
	for key, w := range s.Weights {
		d, err := domain.ParseDomain(key)
		if err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
		out[d] = w
	}
	return out, nil
}

// RunnerConfig converts file settings into the runner wiring.
func (s *Settings) RunnerConfig() Config {
	weights, _ := s.DomainWeights()
	return Config{
		RulesRoot:   s.RulesRoot,
		SignalsRoot: s.SignalsRoot,
		Weights:     weights,
		Thresholds:  s.Thresholds,
		Concurrency: s.Concurrency,
	}
}
