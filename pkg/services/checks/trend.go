package checks

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/signal-works/pulse/pkg/models/domain"
)

type pctChangeParams struct {
	Column    string  `mapstructure:"column"`
	MinAbsPct float64 `mapstructure:"min_abs_pct"`
}

// pctChangeRange is a liveliness check: the series must move by at least
// min_abs_pct between some pair of consecutive points. Flatlines fail.
func pctChangeRange(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p pctChangeParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	x, err := strictFloats(ds, p.Column)
	if err != nil {
		return domain.CheckResult{}, err
	}
	moved := false
	for i := 1; i < len(x); i++ {
		if math.IsNaN(x[i]) || math.IsNaN(x[i-1]) {
			continue
		}
		ch := math.Abs(x[i]/x[i-1] - 1)
		if math.IsNaN(ch) {
			continue
		}
		if ch >= p.MinAbsPct {
			moved = true
			break
		}
	}
	return graded(moved, false, nil), nil
}

type trendCorrParams struct {
	Left    string   `mapstructure:"left"`
	Right   string   `mapstructure:"right"`
	X       string   `mapstructure:"x"`
	Y       string   `mapstructure:"y"`
	MinCorr *float64 `mapstructure:"min_corr"`
	MaxCorr *float64 `mapstructure:"max_corr"`
}

// trendCorrelation bounds the Pearson correlation of two series. Gaps are
// zero filled before correlating, matching how the rule packs were tuned.
func trendCorrelation(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p trendCorrParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	left, right := p.Left, p.Right
	if left == "" {
		left = p.X
	}
	if right == "" {
		right = p.Y
	}
	xl, err := strictFloats(ds, left)
	if err != nil {
		return domain.CheckResult{}, err
	}
	xr, err := strictFloats(ds, right)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if countValid(xl) < 2 || countValid(xr) < 2 {
		return warn(NoteInsufficientPoints, nil), nil
	}
	corr := pearson(fillZero(xl), fillZero(xr))
	ok := true
	if p.MinCorr != nil && !(corr >= *p.MinCorr) {
		ok = false
	}
	if p.MaxCorr != nil && !(corr <= *p.MaxCorr) {
		ok = false
	}
	return graded(ok, false, map[string]any{"corr": num(corr)}), nil
}

type leadLagParams struct {
	Left          string  `mapstructure:"left"`
	Right         string  `mapstructure:"right"`
	MaxLagPeriods int     `mapstructure:"max_lag_periods"`
	MinCorr       float64 `mapstructure:"min_corr"`
}

// leadLagCorrelation slides the left series forward by 0..max lag periods
// and keeps the best correlation against the right series.
func leadLagCorrelation(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p leadLagParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	xl, err := strictFloats(ds, p.Left)
	if err != nil {
		return domain.CheckResult{}, err
	}
	xr, err := strictFloats(ds, p.Right)
	if err != nil {
		return domain.CheckResult{}, err
	}
	best := -2.0
	for lag := 0; lag <= p.MaxLagPeriods; lag++ {
		if lag >= len(xl) {
			break
		}
		a := xl[lag:]
		if len(a) < 2 || len(a) > len(xr) {
			continue
		}
		b := xr[:len(a)]
		c := pearson(fillZero(a), fillZero(b))
		if !math.IsNaN(c) && c > best {
			best = c
		}
	}
	ok := best >= p.MinCorr
	return graded(ok, false, map[string]any{"best_corr": best}), nil
}

type trendCondition struct {
	Column    string `mapstructure:"column"`
	Condition string `mapstructure:"condition"`
}

type conditionalTrendParams struct {
	Left  trendCondition `mapstructure:"left"`
	Right trendCondition `mapstructure:"right"`
}

// conditionalTrendFlag fails when both sides satisfy their run condition at
// once, e.g. spend increasing_3 while leads decreasing_3.
func conditionalTrendFlag(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p conditionalTrendParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	lhs, err := trendConditionHolds(ds, p.Left)
	if err != nil {
		return domain.CheckResult{}, err
	}
	rhs, err := trendConditionHolds(ds, p.Right)
	if err != nil {
		return domain.CheckResult{}, err
	}
	return graded(!(lhs && rhs), false, nil), nil
}

// trendConditionHolds evaluates an increasing_N or decreasing_N token: true
// when some window of N consecutive diffs all move the required way.
func trendConditionHolds(ds *domain.Dataset, tc trendCondition) (bool, error) {
	x, err := strictFloats(ds, tc.Column)
	if err != nil {
		return false, err
	}
	var up bool
	switch {
	case strings.HasPrefix(tc.Condition, "increasing_"):
		up = true
	case strings.HasPrefix(tc.Condition, "decreasing_"):
		up = false
	default:
		return false, nil
	}
	parts := strings.Split(tc.Condition, "_")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false, fmt.Errorf("bad trend condition %q: %w", tc.Condition, err)
	}
	if n <= 0 || len(x) < 2 {
		return false, nil
	}

	run := 0
	for _, v := range diff(x)[1:] {
		if math.IsNaN(v) {
			// gaps are dropped from the run, not counted against it
			continue
		}
		if (up && v > 0) || (!up && v < 0) {
			run++
			if run >= n {
				return true, nil
			}
		} else {
			run = 0
		}
	}
	return false, nil
}
