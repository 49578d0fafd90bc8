package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signal-works/pulse/pkg/models/domain"
)

func TestHeadcountFlow(t *testing.T) {
	ds := mk([]string{"hc", "hires", "exits", "transfers"},
		domain.Row{"hc": 100.0, "hires": 0.0, "exits": 0.0, "transfers": 0.0},
		domain.Row{"hc": 105.0, "hires": 7.0, "exits": 2.0, "transfers": 0.0},
		domain.Row{"hc": 103.0, "hires": 1.0, "exits": 3.0, "transfers": 0.0},
	)
	res := run(t, "headcount_flow", map[string]any{
		"headcount": "hc", "hires": "hires", "exits": "exits", "transfers": "transfers",
	}, ds)
	assert.Equal(t, domain.CheckPass, res.Status)

	broken := mk([]string{"hc", "hires", "exits", "transfers"},
		domain.Row{"hc": 100.0, "hires": 0.0, "exits": 0.0, "transfers": 0.0},
		domain.Row{"hc": 105.0, "hires": 20.0, "exits": 2.0, "transfers": 0.0},
	)
	res = run(t, "headcount_flow_consistency", map[string]any{
		"headcount": "hc", "hires": "hires", "exits": "exits", "transfers": "transfers",
	}, broken)
	assert.Equal(t, domain.CheckFail, res.Status)
}

func TestAttritionRateBounds(t *testing.T) {
	ds := mk([]string{"exits", "hc"},
		domain.Row{"exits": 2.0, "hc": 100.0},
		domain.Row{"exits": 3.0, "hc": 98.0},
	)

	t.Run("annualized breach", func(t *testing.T) {
		// month two: 3/100 * 12 = 0.36, above the default 0.30 ceiling
		res := run(t, "attrition_rate_bounds", map[string]any{"exits": "exits", "headcount": "hc"}, ds)
		assert.Equal(t, domain.CheckFail, res.Status)
		assert.InDelta(t, 0.36, res.Details["max"].(float64), 1e-6)
	})

	t.Run("wider band passes", func(t *testing.T) {
		res := run(t, "attrition_rate_bounds", map[string]any{
			"exits": "exits", "headcount": "hc", "high": 0.4,
		}, ds)
		assert.Equal(t, domain.CheckPass, res.Status)
	})

	t.Run("monthly without annualizing", func(t *testing.T) {
		res := run(t, "attrition_rate_bounds", map[string]any{
			"exits": "exits", "headcount": "hc", "annualize": false, "high": 0.05,
		}, ds)
		assert.Equal(t, domain.CheckPass, res.Status)
	})
}

func TestBandVarianceBound(t *testing.T) {
	ds := mk([]string{"salary", "band"},
		domain.Row{"salary": 100.0, "band": 1.0},
		domain.Row{"salary": 102.0, "band": 1.0},
		domain.Row{"salary": 98.0, "band": 1.0},
		domain.Row{"salary": 200.0, "band": 2.0},
		domain.Row{"salary": 400.0, "band": 2.0},
	)
	res := run(t, "band_variance_bound", map[string]any{
		"value": "salary", "band": "band", "max_std_over_mean": 0.1,
	}, ds)
	assert.Equal(t, domain.CheckFail, res.Status, "band 2 dispersion is over 30%")

	res = run(t, "band_variance_bound", map[string]any{
		"value": "salary", "band": "band", "max_std_over_mean": 0.5,
	}, ds)
	assert.Equal(t, domain.CheckPass, res.Status)
}

func TestMedianGapBound(t *testing.T) {
	ds := mk([]string{"salary", "dept"},
		domain.Row{"salary": 100.0, "dept": "eng"},
		domain.Row{"salary": 50.0, "dept": "sales"},
	)
	res := run(t, "median_gap_bound", map[string]any{
		"value": "salary", "group": "dept", "max_gap_pct": 0.25,
	}, ds)
	assert.Equal(t, domain.CheckFail, res.Status)
	assert.InDelta(t, 0.6667, res.Details["median_gap_pct"].(float64), 1e-3)
}

func TestPromotionRateTrend(t *testing.T) {
	rows := []domain.Row{
		{"tenure": 1.0, "promoted": 0.0},
		{"tenure": 2.0, "promoted": 0.0},
		{"tenure": 3.0, "promoted": 0.0},
		{"tenure": 4.0, "promoted": 0.0},
		{"tenure": 5.0, "promoted": 1.0},
		{"tenure": 6.0, "promoted": 0.0},
		{"tenure": 7.0, "promoted": 1.0},
		{"tenure": 8.0, "promoted": 1.0},
		{"tenure": 9.0, "promoted": 1.0},
		{"tenure": 10.0, "promoted": 1.0},
	}
	ds := mk([]string{"tenure", "promoted"}, rows...)
	res := run(t, "promotion_rate_trend", map[string]any{
		"tenure": "tenure", "promoted": "promoted",
	}, ds)
	assert.Equal(t, domain.CheckPass, res.Status)
	assert.InDelta(t, 0.3, res.Details["slope"].(float64), 1e-6)
}

func TestTrainingHoursBounds(t *testing.T) {
	ds := mk([]string{"th", "hc"},
		domain.Row{"th": 20.0, "hc": 10.0},
		domain.Row{"th": 40.0, "hc": 10.0},
	)
	res := run(t, "training_hours_bounds", map[string]any{
		"training_hours": "th", "headcount": "hc", "low": 1, "high": 5,
	}, ds)
	assert.Equal(t, domain.CheckPass, res.Status)

	res = run(t, "training_hours_bounds", map[string]any{
		"training_hours": "th", "headcount": "hc", "low": 1, "high": 3,
	}, ds)
	assert.Equal(t, domain.CheckFail, res.Status)
}

func TestOnboardingRate(t *testing.T) {
	ds := mk([]string{"completed", "started"},
		domain.Row{"completed": 8.0, "started": 10.0},
		domain.Row{"completed": 9.0, "started": 10.0},
	)
	res := run(t, "onboarding_completion_rate", map[string]any{
		"numerator": "completed", "denominator": "started", "min_rate": 0.8,
	}, ds)
	assert.Equal(t, domain.CheckPass, res.Status)
	assert.InDelta(t, 0.85, res.Details["rate"].(float64), 1e-6)

	res = run(t, "onboarding_completion_rate", map[string]any{
		"numerator": "completed", "denominator": "started", "min_rate": 0.9,
	}, ds)
	assert.Equal(t, domain.CheckFail, res.Status)
}

func TestBandAlignment(t *testing.T) {
	aligned := mk([]string{"exp", "band"},
		domain.Row{"exp": 1.0, "band": 1.0},
		domain.Row{"exp": 6.0, "band": 3.0},
		domain.Row{"exp": 20.0, "band": 5.0},
	)
	res := run(t, "band_alignment", map[string]any{"experience": "exp", "band": "band"}, aligned)
	assert.Equal(t, domain.CheckPass, res.Status)
	assert.Equal(t, 0, res.Details["max_band_gap"])

	skewed := mk([]string{"exp", "band"},
		domain.Row{"exp": 4.0, "band": 5.0},
	)
	res = run(t, "band_alignment_check", map[string]any{"experience": "exp", "band": "band"}, skewed)
	assert.Equal(t, domain.CheckFail, res.Status)
	assert.Equal(t, 3, res.Details["max_band_gap"])
}
