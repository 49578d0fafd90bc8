package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/crossdomain"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettings_Defaults(t *testing.T) {
	path := writeSettings(t, "concurrency: 3\n")

	cfg, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "rules", cfg.RulesRoot)
	assert.Equal(t, "signals", cfg.SignalsRoot)
	assert.Equal(t, "pulse.db", cfg.DbPath)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, crossdomain.DefaultThresholds(), cfg.Thresholds)
	assert.Nil(t, cfg.Weights)
}

func TestLoadSettings_PartialThresholdOverride(t *testing.T) {
	path := writeSettings(t, `
thresholds:
  growth_up: 0.2
  runway_months_min: 9
`)

	cfg, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Thresholds.GrowthUp)
	assert.Equal(t, 9.0, cfg.Thresholds.RunwayMonthsMin)
	// Untouched keys keep their catalog defaults.
	assert.Equal(t, crossdomain.DefaultThresholds().PaybackMax, cfg.Thresholds.PaybackMax)
}

func TestLoadSettings_WeightAliases(t *testing.T) {
	path := writeSettings(t, `
weights:
  fin: 0.4
  ops: 0.3
  hr: 0.3
`)

	cfg, err := LoadSettings(path)
	require.NoError(t, err)

	weights, err := cfg.DomainWeights()
	require.NoError(t, err)
	assert.Equal(t, map[domain.Domain]float64{
		domain.DomainFinance:    0.4,
		domain.DomainOperations: 0.3,
		domain.DomainPeople:     0.3,
	}, weights)
}

func TestLoadSettings_UnknownWeightKey(t *testing.T) {
	path := writeSettings(t, "weights:\n  accounting: 1.0\n")

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accounting")
}

func TestLoadSettings_MissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
