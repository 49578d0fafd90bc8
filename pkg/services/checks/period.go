package checks

import (
	"fmt"
	"sort"
	"time"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/resolve"
)

// parseTimes interprets a column as timestamps. The second slice marks which
// rows parsed.
func parseTimes(ds *domain.Dataset, col string) ([]time.Time, []bool, error) {
	if !ds.HasColumn(col) {
		return nil, nil, fmt.Errorf("column %q not found", col)
	}
	vals := ds.Column(col)
	times := make([]time.Time, len(vals))
	ok := make([]bool, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		t, parsed := resolve.ParsePeriod(v)
		if parsed {
			times[i] = t
			ok[i] = true
		}
	}
	return times, ok, nil
}

type columnParams struct {
	Column string `mapstructure:"column"`
}

// monotonicTime fails when the period column is not sorted ascending or
// contains values no date format recognizes.
func monotonicTime(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p columnParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	col := p.Column
	if col == "" {
		col = resolve.PeriodColumn
	}
	times, parsed, err := parseTimes(ds, col)
	if err != nil {
		return domain.CheckResult{}, err
	}
	ok := true
	for i := range times {
		if !parsed[i] {
			ok = false
			break
		}
		if i > 0 && times[i].Before(times[i-1]) {
			ok = false
			break
		}
	}
	return graded(ok, false, nil), nil
}

type fiscalCloseParams struct {
	PeriodColumn string `mapstructure:"period_column"`
	Column       string `mapstructure:"column"`
}

// fiscalClosePresent expects at least one period in a close month (March or
// December).
func fiscalClosePresent(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p fiscalCloseParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	col := p.PeriodColumn
	if col == "" {
		col = p.Column
	}
	if col == "" {
		col = resolve.PeriodColumn
	}
	times, parsed, err := parseTimes(ds, col)
	if err != nil {
		return domain.CheckResult{}, err
	}
	monthSet := make(map[int]struct{})
	for i, t := range times {
		if parsed[i] {
			monthSet[int(t.Month())] = struct{}{}
		}
	}
	months := make([]int, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Ints(months)
	_, mar := monthSet[3]
	_, dec := monthSet[12]
	return graded(mar || dec, false, map[string]any{"months_present": months}), nil
}

type periodGapParams struct {
	Column       string   `mapstructure:"column"`
	MaxGapMonths *float64 `mapstructure:"max_gap_months"`
}

// periodGap fails when consecutive periods sit further apart than the budget,
// measured in 30 day months.
func periodGap(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p periodGapParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	col := p.Column
	if col == "" {
		col = resolve.PeriodColumn
	}
	maxGap := 1.5
	if p.MaxGapMonths != nil {
		maxGap = *p.MaxGapMonths
	}
	times, parsed, err := parseTimes(ds, col)
	if err != nil {
		return domain.CheckResult{}, err
	}
	var ts []time.Time
	for i, t := range times {
		if parsed[i] {
			ts = append(ts, t)
		}
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })

	ok := true
	maxSeen := 0.0
	for i := 1; i < len(ts); i++ {
		gap := ts[i].Sub(ts[i-1]).Hours() / 24 / 30
		if gap > maxSeen {
			maxSeen = gap
		}
		if gap > maxGap {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{"max_gap_months": maxSeen}), nil
}

type periodAlignmentParams struct {
	Columns []string `mapstructure:"columns"`
}

// periodAlignment verifies several date columns cover the same set of days.
func periodAlignment(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p periodAlignmentParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	if len(p.Columns) == 0 {
		return pass(map[string]any{"common_periods": 0, "columns": p.Columns}), nil
	}
	sets := make([]map[string]struct{}, len(p.Columns))
	for i, c := range p.Columns {
		times, parsed, err := parseTimes(ds, c)
		if err != nil {
			return domain.CheckResult{}, err
		}
		s := make(map[string]struct{})
		for j, t := range times {
			if parsed[j] {
				s[t.Format("2006-01-02")] = struct{}{}
			}
		}
		sets[i] = s
	}
	inter := 0
	for day := range sets[0] {
		shared := true
		for _, s := range sets[1:] {
			if _, ok := s[day]; !ok {
				shared = false
				break
			}
		}
		if shared {
			inter++
		}
	}
	ok := true
	for _, s := range sets {
		if len(s) != inter {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{"common_periods": inter, "columns": p.Columns}), nil
}
