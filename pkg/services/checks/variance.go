package checks

import (
	"math"

	"github.com/signal-works/pulse/pkg/models/domain"
)

type rollingDevParams struct {
	Column    string   `mapstructure:"column"`
	Window    int      `mapstructure:"window"`
	MaxDevPct *float64 `mapstructure:"max_dev_pct"`
}

// deviationFromRollingMean fails when any point drifts more than max_dev_pct
// from its trailing mean. The window warms up from a single point so early
// rows still count.
func deviationFromRollingMean(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p rollingDevParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	if !ds.HasColumn(p.Column) {
		return softMissing([]string{p.Column}), nil
	}
	window := p.Window
	if window <= 0 {
		window = 3
	}
	maxDev := 0.2
	if p.MaxDevPct != nil {
		maxDev = *p.MaxDevPct
	}
	x, err := strictFloats(ds, p.Column)
	if err != nil {
		return domain.CheckResult{}, err
	}
	roll := rollingMean(x, window, 1)

	ok := true
	maxSeen := 0.0
	for i := range x {
		dev := math.Abs(x[i]-roll[i]) / (math.Abs(roll[i]) + eps)
		if math.IsNaN(dev) {
			ok = false
			continue
		}
		if dev > maxSeen {
			maxSeen = dev
		}
		if dev > maxDev {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{
		"window":            window,
		"max_deviation_pct": maxSeen,
	}), nil
}

type rollingRangeParams struct {
	Column     string  `mapstructure:"column"`
	LowFactor  float64 `mapstructure:"low_factor"`
	HighFactor float64 `mapstructure:"high_factor"`
	Window     int     `mapstructure:"window"`
}

// rollingMeanRange checks each point against a band around its trailing
// mean; rows before the window fills are exempt.
func rollingMeanRange(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p rollingRangeParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	window := p.Window
	if window <= 0 {
		window = 3
	}
	x, err := strictFloats(ds, p.Column)
	if err != nil {
		return domain.CheckResult{}, err
	}
	roll := rollingMean(x, window, window)

	ok := true
	for i := range x {
		if math.IsNaN(roll[i]) {
			continue
		}
		lo, hi := roll[i]*p.LowFactor, roll[i]*p.HighFactor
		if !(x[i] >= lo && x[i] <= hi) {
			ok = false
		}
	}
	return graded(ok, false, nil), nil
}
