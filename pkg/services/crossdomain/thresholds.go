package crossdomain

import "math"

// Thresholds collects the tunable constants the heuristic catalog reasons
// with. Rule-specific growth sensitivities stay local to their evaluators;
// everything shared or structural lives here so a weights file can override
// it in one place.
type Thresholds struct {
	// Period over period growth sensitivity for the default up/down flags.
	GrowthUp   float64 `mapstructure:"growth_up"`
	GrowthDown float64 `mapstructure:"growth_down"`

	// Adverse pattern escalation: fail when coincident bad periods reach
	// max(AdverseMinPeriods, ceil(AdverseShare*n)).
	AdverseMinPeriods int     `mapstructure:"adverse_min_periods"`
	AdverseShare      float64 `mapstructure:"adverse_share"`

	// Attribution overclaim bands relative to booked revenue.
	AttributionFailFactor float64 `mapstructure:"attribution_fail_factor"`
	AttributionWarnFactor float64 `mapstructure:"attribution_warn_factor"`

	// Plausible marketing payback window in months.
	PaybackMin float64 `mapstructure:"payback_min"`
	PaybackMax float64 `mapstructure:"payback_max"`

	// Headcount reconciliation tolerance as a share of mean headcount,
	// floored at one head.
	HeadcountTolShare float64 `mapstructure:"headcount_tol_share"`

	// Cashflow identity slack as a share of |net change|, floored at 1.0,
	// with failure at ceil(CashflowFailShare*n) violating periods.
	CashflowTolShare  float64 `mapstructure:"cashflow_tol_share"`
	CashflowFailShare float64 `mapstructure:"cashflow_fail_share"`

	// Funnel ordering violations tolerated before failing:
	// max(AdverseMinPeriods, ceil(FunnelFailShare*n)).
	FunnelFailShare float64 `mapstructure:"funnel_fail_share"`

	// Forecast accuracy band as a share of actuals, floored at 1.0.
	ForecastTolShare float64 `mapstructure:"forecast_tol_share"`

	// Positive price/volume correlation above this warns.
	ElasticityCorrWarn float64 `mapstructure:"elasticity_corr_warn"`

	// LTV:CAC plausibility band; breaches need two periods to trigger.
	LTVCACMin float64 `mapstructure:"ltv_cac_min"`
	LTVCACMax float64 `mapstructure:"ltv_cac_max"`

	// Months of runway under which spend and hiring growth get flagged.
	RunwayMonthsMin float64 `mapstructure:"runway_months_min"`

	// Paid versus organic balance: ratio ceiling and period over period
	// volatility ceiling.
	PaidOrganicMax        float64 `mapstructure:"paid_organic_max"`
	PaidOrganicVolatility float64 `mapstructure:"paid_organic_volatility"`
}

// DefaultThresholds returns the catalog defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GrowthUp:              0.10,
		GrowthDown:            -0.05,
		AdverseMinPeriods:     2,
		AdverseShare:          0.30,
		AttributionFailFactor: 1.02,
		AttributionWarnFactor: 0.98,
		PaybackMin:            0.2,
		PaybackMax:            24,
		HeadcountTolShare:     0.2,
		CashflowTolShare:      0.05,
		CashflowFailShare:     0.2,
		FunnelFailShare:       0.25,
		ForecastTolShare:      0.15,
		ElasticityCorrWarn:    0.4,
		LTVCACMin:             1.0,
		LTVCACMax:             10.0,
		RunwayMonthsMin:       6,
		PaidOrganicMax:        5,
		PaidOrganicVolatility: 0.5,
	}
}

// adverseFloor is the coincident period count at which a pattern stops being
// noise: max(AdverseMinPeriods, ceil(share*n)).
func (t Thresholds) adverseFloor(n int, share float64) int {
	floor := int(math.Ceil(share * float64(n)))
	if floor < t.AdverseMinPeriods {
		return t.AdverseMinPeriods
	}
	return floor
}
