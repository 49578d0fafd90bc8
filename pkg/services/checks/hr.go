package checks

import (
	"math"
	"sort"

	"github.com/signal-works/pulse/pkg/models/domain"
)

type headcountFlowParams struct {
	Headcount string   `mapstructure:"headcount"`
	Hires     string   `mapstructure:"hires"`
	Exits     string   `mapstructure:"exits"`
	Transfers string   `mapstructure:"transfers"`
	GroupBy   string   `mapstructure:"group_by"`
	Tolerance *float64 `mapstructure:"tolerance"`
}

// headcountFlow reconciles period over period headcount deltas against
// hires - exits + transfers.
func headcountFlow(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p headcountFlowParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	tol := 0.05
	if p.Tolerance != nil {
		tol = *p.Tolerance
	}
	hc, err := strictFloats(ds, p.Headcount)
	if err != nil {
		return domain.CheckResult{}, err
	}
	hires, err := strictFloats(ds, p.Hires)
	if err != nil {
		return domain.CheckResult{}, err
	}
	exits, err := strictFloats(ds, p.Exits)
	if err != nil {
		return domain.CheckResult{}, err
	}
	transfers, err := strictFloats(ds, p.Transfers)
	if err != nil {
		return domain.CheckResult{}, err
	}

	ok := true
	byGroup := make(map[string]any)
	for _, g := range groupRows(ds, p.GroupBy) {
		maxErr := 0.0
		prev := math.NaN()
		for _, row := range g.rows {
			// an unknowable delta counts as zero, not as an error
			delta := 0.0
			if !math.IsNaN(prev) && !math.IsNaN(hc[row]) {
				delta = hc[row] - prev
			}
			prev = hc[row]
			rhs := hires[row] - exits[row] + transfers[row]
			e := math.Abs(delta - rhs)
			bound := tol * (math.Abs(hc[row]) + eps)
			if !(e <= bound) {
				ok = false
			}
			if !math.IsNaN(e) && e > maxErr {
				maxErr = e
			}
		}
		byGroup[g.key] = map[string]any{"max_err": maxErr}
	}
	return graded(ok, false, map[string]any{"by_group": byGroup}), nil
}

type attritionParams struct {
	Exits     string   `mapstructure:"exits"`
	Headcount string   `mapstructure:"headcount"`
	Period    string   `mapstructure:"period"`
	Annualize *bool    `mapstructure:"annualize"`
	Low       *float64 `mapstructure:"low"`
	High      *float64 `mapstructure:"high"`
}

// attritionRateBounds bounds monthly exits over the prior period's
// headcount, annualized by default.
func attritionRateBounds(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p attritionParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	annualize := true
	if p.Annualize != nil {
		annualize = *p.Annualize
	}
	low, high := 0.0, 0.30
	if p.Low != nil {
		low = *p.Low
	}
	if p.High != nil {
		high = *p.High
	}
	ex, err := strictFloats(ds, p.Exits)
	if err != nil {
		return domain.CheckResult{}, err
	}
	hc, err := strictFloats(ds, p.Headcount)
	if err != nil {
		return domain.CheckResult{}, err
	}

	ok := true
	rates := make([]float64, len(ex))
	for i := range ex {
		den := hc[i]
		if i > 0 && !math.IsNaN(hc[i-1]) {
			den = hc[i-1]
		}
		r := safeDiv(ex[i], den)
		if annualize {
			r *= 12
		}
		rates[i] = r
		if !(r >= low && r <= high) {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{
		"min": num(minValid(rates)),
		"max": num(maxValid(rates)),
	}), nil
}

type bandVarianceParams struct {
	Value          string   `mapstructure:"value"`
	Band           string   `mapstructure:"band"`
	MaxStdOverMean float64  `mapstructure:"max_std_over_mean"`
	TrimPct        *float64 `mapstructure:"trim_pct"`
}

// bandVarianceBound limits pay dispersion inside each band, trimming the
// tails before measuring.
func bandVarianceBound(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p bandVarianceParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	trim := 0.05
	if p.TrimPct != nil {
		trim = *p.TrimPct
	}
	vals, err := strictFloats(ds, p.Value)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if !ds.HasColumn(p.Band) {
		return softMissing([]string{p.Band}), nil
	}

	ok := true
	det := make(map[string]any)
	for _, g := range groupRows(ds, p.Band) {
		var v []float64
		for _, row := range g.rows {
			if !math.IsNaN(vals[row]) {
				v = append(v, vals[row])
			}
		}
		sort.Float64s(v)
		n := len(v)
		t := int(float64(n) * trim)
		if n > 2*t {
			v = v[t : n-t]
		}
		m, sd := mean(v), stdPop(v)
		ratio := 0.0
		if m != 0 && !math.IsNaN(m) {
			ratio = sd / (math.Abs(m) + eps)
		}
		det[g.key] = map[string]any{"std_over_mean": num(ratio)}
		if !(ratio <= p.MaxStdOverMean) {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{"by_band": det}), nil
}

type medianGapParams struct {
	Value     string  `mapstructure:"value"`
	Group     string  `mapstructure:"group"`
	MaxGapPct float64 `mapstructure:"max_gap_pct"`
}

// medianGapBound compares group medians: the spread between the best and
// worst group must stay within max_gap_pct of the central median.
func medianGapBound(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p medianGapParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	vals, err := strictFloats(ds, p.Value)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if !ds.HasColumn(p.Group) {
		return softMissing([]string{p.Group}), nil
	}

	var meds []float64
	for _, g := range groupRows(ds, p.Group) {
		m := median(pick(vals, g.rows))
		if !math.IsNaN(m) {
			meds = append(meds, m)
		}
	}
	gap := 0.0
	if len(meds) > 0 {
		gap = (maxValid(meds) - minValid(meds)) / (math.Abs(median(meds)) + eps)
	}
	return graded(gap <= p.MaxGapPct, false, map[string]any{"median_gap_pct": gap}), nil
}

type promotionTrendParams struct {
	Tenure        string   `mapstructure:"tenure"`
	Promoted      string   `mapstructure:"promoted"`
	Period        string   `mapstructure:"period"`
	MinTrendSlope *float64 `mapstructure:"min_trend_slope"`
}

// promotionRateTrend buckets staff into tenure quantiles and fits promotion
// rate against bucket order; a negative slope says tenure stops paying off.
func promotionRateTrend(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p promotionTrendParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	minSlope := 0.0
	if p.MinTrendSlope != nil {
		minSlope = *p.MinTrendSlope
	}
	tenure, err := strictFloats(ds, p.Tenure)
	if err != nil {
		return domain.CheckResult{}, err
	}
	promoted, err := strictFloats(ds, p.Promoted)
	if err != nil {
		return domain.CheckResult{}, err
	}

	n := len(tenure)
	q := 5
	if n < q {
		q = n
	}
	if q < 2 {
		return graded(0 >= minSlope, false, map[string]any{"slope": 0.0}), nil
	}

	// equal frequency bins over the tenure sort order, ties kept stable
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := tenure[order[a]], tenure[order[b]]
		if math.IsNaN(tb) {
			return !math.IsNaN(ta)
		}
		if math.IsNaN(ta) {
			return false
		}
		return ta < tb
	})

	binSum := make([]float64, q)
	binCnt := make([]int, q)
	for rank, row := range order {
		bin := rank * q / n
		if bin >= q {
			bin = q - 1
		}
		if math.IsNaN(promoted[row]) {
			continue
		}
		binSum[bin] += float64(int(promoted[row]))
		binCnt[bin]++
	}
	var rates []float64
	for b := 0; b < q; b++ {
		if binCnt[b] > 0 {
			rates = append(rates, binSum[b]/float64(binCnt[b]))
		}
	}
	s := slope(rates)
	return graded(s >= minSlope, false, map[string]any{"slope": s}), nil
}

type trainingHoursParams struct {
	TrainingHours string  `mapstructure:"training_hours"`
	Headcount     string  `mapstructure:"headcount"`
	Period        string  `mapstructure:"period"`
	Low           float64 `mapstructure:"low"`
	High          float64 `mapstructure:"high"`
}

// trainingHoursBounds checks average training hours per head per period.
func trainingHoursBounds(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p trainingHoursParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	th, err := strictFloats(ds, p.TrainingHours)
	if err != nil {
		return domain.CheckResult{}, err
	}
	hc, err := strictFloats(ds, p.Headcount)
	if err != nil {
		return domain.CheckResult{}, err
	}
	ok := true
	avgs := make([]float64, len(th))
	for i := range th {
		avgs[i] = safeDiv(th[i], hc[i])
		if !(avgs[i] >= p.Low && avgs[i] <= p.High) {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{
		"min_avg": num(minValid(avgs)),
		"max_avg": num(maxValid(avgs)),
	}), nil
}

type onboardingRateParams struct {
	Numerator   string  `mapstructure:"numerator"`
	Denominator string  `mapstructure:"denominator"`
	MinRate     float64 `mapstructure:"min_rate"`
}

// onboardingRate compares column totals: completions over starts.
func onboardingRate(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p onboardingRateParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	nums, err := strictFloats(ds, p.Numerator)
	if err != nil {
		return domain.CheckResult{}, err
	}
	dens, err := strictFloats(ds, p.Denominator)
	if err != nil {
		return domain.CheckResult{}, err
	}
	var top, bottom float64
	for i := range nums {
		if !math.IsNaN(nums[i]) {
			top += nums[i]
		}
		if !math.IsNaN(dens[i]) {
			bottom += dens[i]
		}
	}
	rate := top / (bottom + eps)
	return graded(rate >= p.MinRate, false, map[string]any{"rate": rate}), nil
}

// bandAlignment predicts a band from years of experience and bounds the gap
// to the recorded band. Bins: (-1,2] (2,5] (5,8] (8,12] (12,99] mapping to
// bands 1..5.
func bandAlignment(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p struct {
		Experience     string `mapstructure:"experience"`
		Band           string `mapstructure:"band"`
		ToleranceBands *int   `mapstructure:"tolerance_bands"`
	}
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	tolBands := 1
	if p.ToleranceBands != nil {
		tolBands = *p.ToleranceBands
	}
	exp, err := strictFloats(ds, p.Experience)
	if err != nil {
		return domain.CheckResult{}, err
	}
	band, err := strictFloats(ds, p.Band)
	if err != nil {
		return domain.CheckResult{}, err
	}

	ok := true
	maxGap := 0
	for i := range exp {
		pred, in := experienceBand(exp[i])
		if !in || math.IsNaN(band[i]) {
			ok = false
			continue
		}
		gap := pred - int(band[i])
		if gap < 0 {
			gap = -gap
		}
		if gap > maxGap {
			maxGap = gap
		}
		if gap > tolBands {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{"max_band_gap": maxGap}), nil
}

func experienceBand(years float64) (int, bool) {
	switch {
	case math.IsNaN(years):
		return 0, false
	case years > -1 && years <= 2:
		return 1, true
	case years <= 5:
		return 2, true
	case years <= 8:
		return 3, true
	case years <= 12:
		return 4, true
	case years <= 99:
		return 5, true
	default:
		return 0, false
	}
}
