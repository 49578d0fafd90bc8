package checks

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/signal-works/pulse/pkg/models/domain"
)

type mixChangeParams struct {
	Part     string   `mapstructure:"part"`
	Total    string   `mapstructure:"total"`
	Key      string   `mapstructure:"key"`
	Period   string   `mapstructure:"period"`
	MaxDrift *float64 `mapstructure:"max_change_pct_of_baseline"`

	// department flavoured synonyms
	DeptHeadcount  string `mapstructure:"dept_headcount"`
	TotalHeadcount string `mapstructure:"total_headcount"`
	Department     string `mapstructure:"department"`
}

// mixChangeBounds tracks each key's share of the total against its first
// observed share; drifting past the budget fails.
func mixChangeBounds(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p mixChangeParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	if p.Part == "" {
		p.Part = p.DeptHeadcount
	}
	if p.Total == "" {
		p.Total = p.TotalHeadcount
	}
	if p.Key == "" {
		p.Key = p.Department
	}
	for _, c := range []string{p.Part, p.Total, p.Key, p.Period} {
		if !ds.HasColumn(c) {
			return domain.CheckResult{}, fmt.Errorf("column %q not found", c)
		}
	}
	maxDrift := 0.25
	if p.MaxDrift != nil {
		maxDrift = *p.MaxDrift
	}

	part, err := strictFloats(ds, p.Part)
	if err != nil {
		return domain.CheckResult{}, err
	}
	total, err := strictFloats(ds, p.Total)
	if err != nil {
		return domain.CheckResult{}, err
	}
	shares := make([]float64, len(part))
	for i := range part {
		shares[i] = safeDiv(part[i], total[i])
	}

	order := make([]int, ds.NumRows())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return domain.String(ds.Rows[order[a]][p.Period]) < domain.String(ds.Rows[order[b]][p.Period])
	})

	// first valid share per key in period order
	baseline := make(map[string]float64)
	for _, i := range order {
		k := domain.String(ds.Rows[i][p.Key])
		if _, seen := baseline[k]; seen || math.IsNaN(shares[i]) {
			continue
		}
		baseline[k] = shares[i]
	}

	ok := true
	maxDev := 0.0
	for i := range shares {
		k := domain.String(ds.Rows[i][p.Key])
		base, has := baseline[k]
		if !has {
			ok = false
			continue
		}
		dev := math.Abs(shares[i]-base) / (math.Abs(base) + eps)
		if math.IsNaN(dev) {
			ok = false
			continue
		}
		if dev > maxDev {
			maxDev = dev
		}
		if dev > maxDrift {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{"max_dev": maxDev}), nil
}

type ratioConsistencyParams struct {
	Numerator   string  `mapstructure:"numerator"`
	Denominator string  `mapstructure:"denominator"`
	Tolerance   float64 `mapstructure:"tolerance"`
}

// ratioConsistency expects the per row ratio to hug its own median; a wide
// spread means the two columns no longer describe the same business.
func ratioConsistency(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p ratioConsistencyParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	if miss := missingColumns(ds, p.Numerator, p.Denominator); len(miss) > 0 {
		return softMissing(miss), nil
	}
	numCol, err := strictFloats(ds, p.Numerator)
	if err != nil {
		return domain.CheckResult{}, err
	}
	denCol, err := strictFloats(ds, p.Denominator)
	if err != nil {
		return domain.CheckResult{}, err
	}
	ratios := make([]float64, len(numCol))
	for i := range numCol {
		ratios[i] = safeDiv(numCol[i], denCol[i])
	}
	med := median(ratios)

	ok := true
	maxDev := 0.0
	for _, r := range ratios {
		dev := math.Abs(r-med) / (math.Abs(med) + eps)
		if math.IsNaN(dev) {
			ok = false
			continue
		}
		if dev > maxDev {
			maxDev = dev
		}
		if dev > p.Tolerance {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{
		"median_ratio": num(med),
		"max_dev":      maxDev,
	}), nil
}

type mappingConsistencyParams struct {
	LeftKey         []string `mapstructure:"left_key"`
	RightKey        string   `mapstructure:"right_key"`
	MaxConflictRate *float64 `mapstructure:"max_conflict_rate"`
}

// mappingConsistency measures how often the same left key maps to more than
// one right value, e.g. a campaign appearing under two channels.
func mappingConsistency(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p mappingConsistencyParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	for _, c := range append(append([]string{}, p.LeftKey...), p.RightKey) {
		if !ds.HasColumn(c) {
			return domain.CheckResult{}, fmt.Errorf("column %q not found", c)
		}
	}
	maxRate := 0.05
	if p.MaxConflictRate != nil {
		maxRate = *p.MaxConflictRate
	}

	rights := make(map[string]map[string]struct{})
	for _, row := range ds.Rows {
		parts := make([]string, len(p.LeftKey))
		for i, c := range p.LeftKey {
			parts[i] = domain.String(row[c])
		}
		left := strings.Join(parts, "\x1f")
		if rights[left] == nil {
			rights[left] = make(map[string]struct{})
		}
		rights[left][domain.String(row[p.RightKey])] = struct{}{}
	}

	conflicts := 0
	for _, seen := range rights {
		if len(seen) > 1 {
			conflicts++
		}
	}
	rate := 0.0
	if len(rights) > 0 {
		rate = float64(conflicts) / float64(len(rights))
	}
	return graded(rate <= maxRate, false, map[string]any{"conflict_rate": rate}), nil
}
