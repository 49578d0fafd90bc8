package checks

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/signal-works/pulse/pkg/models/domain"
)

type presenceRateParams struct {
	Flag    string  `mapstructure:"flag"`
	Weight  string  `mapstructure:"weight"`
	MinRate float64 `mapstructure:"min_rate"`
}

// presenceRate computes the weight covered by rows whose flag is set, e.g.
// the share of spend carrying UTM tags.
func presenceRate(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p presenceRateParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	w, err := strictFloats(ds, p.Weight)
	if err != nil {
		return domain.CheckResult{}, err
	}
	f, err := strictFloats(ds, p.Flag)
	if err != nil {
		return domain.CheckResult{}, err
	}
	var covered, total float64
	for i := range w {
		wi := w[i]
		if math.IsNaN(wi) {
			wi = 0
		}
		fi := f[i]
		if math.IsNaN(fi) {
			fi = 0
		}
		covered += wi * float64(int(fi))
		total += wi
	}
	rate := covered / (total + eps)
	return graded(rate >= p.MinRate, false, map[string]any{"rate": rate}), nil
}

type duplicateValuesParams struct {
	Column  string   `mapstructure:"column"`
	Columns []string `mapstructure:"columns"`
}

// duplicateValues warns when any value (or column combination) repeats.
func duplicateValues(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p duplicateValuesParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	cols := p.Columns
	if len(cols) == 0 && p.Column != "" {
		cols = []string{p.Column}
	}
	for _, c := range cols {
		if !ds.HasColumn(c) {
			return domain.CheckResult{}, fmt.Errorf("column %q not found", c)
		}
	}
	counts := make(map[string]int)
	for _, row := range ds.Rows {
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = domain.String(row[c])
		}
		counts[strings.Join(parts, "\x1f")]++
	}
	dups := 0
	for _, n := range counts {
		if n > 1 {
			dups += n
		}
	}
	return graded(dups == 0, true, map[string]any{"duplicates": dups}), nil
}

type policyPresenceParams struct {
	DocsRequired []string `mapstructure:"docs_required"`
}

// policyPresence expects every required policy category to appear at least
// once; absences warn rather than fail.
func policyPresence(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p policyPresenceParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	have := make(map[string]struct{})
	if ds.HasColumn("policy_category_intent") {
		for _, v := range ds.Column("policy_category_intent") {
			have[strings.ToLower(domain.String(v))] = struct{}{}
		}
	}
	missing := []string{}
	for _, d := range p.DocsRequired {
		if _, ok := have[d]; !ok {
			missing = append(missing, d)
		}
	}
	return graded(len(missing) == 0, true, map[string]any{"missing": missing}), nil
}

type policyAgeParams struct {
	MaxDays float64 `mapstructure:"max_days"`
}

// policyAge bounds how stale the newest revision of each policy may be. The
// age column is fixed by the ingest contract.
func policyAge(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p policyAgeParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	const col = "policy_last_modified_days"
	if !ds.HasColumn(col) {
		return warn("missing_age_field", nil), nil
	}
	ages, err := strictFloats(ds, col)
	if err != nil {
		return domain.CheckResult{}, err
	}
	ok := true
	for _, a := range ages {
		if !(a <= p.MaxDays) {
			ok = false
		}
	}
	det := map[string]any{"max_age_days": nil}
	if m := maxValid(ages); !math.IsNaN(m) {
		det["max_age_days"] = int(m)
	}
	return graded(ok, false, det), nil
}

var (
	emailRe = regexp.MustCompile(`[^@\s]+@[^@\s]+\.[^@\s]+`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\-\s]{6,}`)
)

// piiScan fails when any text cell looks like an email address or phone
// number; aggregates should never carry row level identities.
func piiScan(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	emailLike, phoneLike := false, false
	for _, row := range ds.Rows {
		for _, v := range row {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if !emailLike && emailRe.MatchString(s) {
				emailLike = true
			}
			if !phoneLike && phoneRe.MatchString(s) {
				phoneLike = true
			}
		}
		if emailLike && phoneLike {
			break
		}
	}
	return graded(!emailLike && !phoneLike, false, map[string]any{
		"email_like": emailLike,
		"phone_like": phoneLike,
	}), nil
}

type identicalRowsParams struct {
	Column         string `mapstructure:"column"`
	MinConsecutive int    `mapstructure:"min_consecutive"`
}

// identicalRows finds the longest run of consecutive equal values, either in
// one column or in the row sum over numeric columns. Copy pasted periods
// show up as long runs.
func identicalRows(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p identicalRowsParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	minConsecutive := p.MinConsecutive
	if minConsecutive <= 0 {
		minConsecutive = 2
	}

	var series []float64
	if p.Column != "" {
		vals, err := strictFloats(ds, p.Column)
		if err != nil {
			return domain.CheckResult{}, err
		}
		series = vals
	} else {
		series = numericRowSums(ds)
	}

	streak, best := 1, 1
	for i := 1; i < len(series); i++ {
		if !math.IsNaN(series[i]) && series[i] == series[i-1] {
			streak++
		} else {
			streak = 1
		}
		if streak > best {
			best = streak
		}
	}
	if len(series) == 0 {
		best = 1
	}
	return graded(best < minConsecutive, false, map[string]any{"max_identical_streak": best}), nil
}

// numericRowSums totals each row over columns whose cells are all numeric
// typed; text columns never contribute.
func numericRowSums(ds *domain.Dataset) []float64 {
	var numericCols []string
	for _, c := range ds.Columns {
		hasValue := false
		numeric := true
		for _, v := range ds.Column(c) {
			if v == nil {
				continue
			}
			if _, isStr := v.(string); isStr {
				numeric = false
				break
			}
			if _, ok := domain.Float(v); !ok {
				numeric = false
				break
			}
			hasValue = true
		}
		if numeric && hasValue {
			numericCols = append(numericCols, c)
		}
	}
	sums := make([]float64, ds.NumRows())
	for i, row := range ds.Rows {
		for _, c := range numericCols {
			if f, ok := domain.Float(row[c]); ok {
				sums[i] += f
			}
		}
	}
	return sums
}

type outlierParams struct {
	Column string   `mapstructure:"column"`
	Sigma  *float64 `mapstructure:"sigma"`
}

// outlierZScore fails when any point sits more than sigma deviations from
// the column mean.
func outlierZScore(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p outlierParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	sigma := 3.0
	if p.Sigma != nil {
		sigma = *p.Sigma
	}
	x, err := strictFloats(ds, p.Column)
	if err != nil {
		return domain.CheckResult{}, err
	}
	mu, sd := mean(x), stdPop(x)
	ok := true
	maxZ := 0.0
	for _, v := range x {
		z := math.Abs(v-mu) / (sd + eps)
		if math.IsNaN(z) {
			ok = false
			continue
		}
		if z > maxZ {
			maxZ = z
		}
		if z > sigma {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{"max_z": maxZ}), nil
}

type heuristicCondition struct {
	Exprs []string `mapstructure:"exprs"`
}

type heuristicFlagParams struct {
	Conditions []heuristicCondition `mapstructure:"conditions"`
}

// heuristicFlag fails when any condition's predicates all hold on some row.
// Conditions short circuit on the first hit.
func heuristicFlag(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p heuristicFlagParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	rows := make([]int, ds.NumRows())
	for i := range rows {
		rows[i] = i
	}

	flagged := false
	for _, cond := range p.Conditions {
		match := make([]bool, len(rows))
		for i := range match {
			match[i] = true
		}
		for _, e := range cond.Exprs {
			hits, err := evalPredicate(ds, rows, e)
			if err != nil {
				return domain.CheckResult{}, err
			}
			for i := range match {
				match[i] = match[i] && hits[i]
			}
		}
		for _, m := range match {
			if m {
				flagged = true
				break
			}
		}
		if flagged {
			break
		}
	}
	return graded(!flagged, false, map[string]any{"flagged": flagged}), nil
}

type documentMetadataParams struct {
	RequiredFields []string `mapstructure:"required_fields"`
}

// documentMetadata warns when the dataset lacks required metadata columns.
func documentMetadata(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p documentMetadataParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	missing := []string{}
	for _, f := range p.RequiredFields {
		if !ds.HasColumn(f) {
			missing = append(missing, f)
		}
	}
	return graded(len(missing) == 0, true, map[string]any{"missing_fields": missing}), nil
}
