package checks

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// num makes a float safe for detail maps: NaN becomes nil so reports stay
// JSON encodable.
func num(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

type ratioBoundsParams struct {
	Numerator   string     `mapstructure:"numerator"`
	Denominator string     `mapstructure:"denominator"`
	Low         *float64   `mapstructure:"low"`
	High        *float64   `mapstructure:"high"`
	GroupBy     string     `mapstructure:"group_by"`
	Defaults    *ratioBand `mapstructure:"defaults"`
}

// ratioBand carries the grouped variant's shared band.
type ratioBand struct {
	Low  *float64 `mapstructure:"low"`
	High *float64 `mapstructure:"high"`
}

// ratioBounds verifies numerator/denominator stays inside [low, high] per
// group. Missing columns degrade softly.
func ratioBounds(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p ratioBoundsParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	if p.Defaults != nil {
		if p.Low == nil {
			p.Low = p.Defaults.Low
		}
		if p.High == nil {
			p.High = p.Defaults.High
		}
	}
	if miss := missingColumns(ds, p.Numerator, p.Denominator); len(miss) > 0 {
		return softMissing(miss), nil
	}

	numCol := coerceFloats(ds, p.Numerator)
	denCol := coerceFloats(ds, p.Denominator)

	status := domain.CheckPass
	byGroup := make(map[string]any)
	for _, g := range groupRows(ds, p.GroupBy) {
		ok := true
		lo, hi := math.NaN(), math.NaN()
		for _, row := range g.rows {
			den := denCol[row]
			if den < eps {
				den = eps
			}
			r := numCol[row] / den
			if math.IsNaN(lo) || r < lo {
				lo = r
			}
			if math.IsNaN(hi) || r > hi {
				hi = r
			}
			if p.Low != nil && !(r >= *p.Low) {
				ok = false
			}
			if p.High != nil && !(r <= *p.High) {
				ok = false
			}
		}
		byGroup[g.key] = map[string]any{"min": num(lo), "max": num(hi)}
		if !ok {
			status = worst(status, domain.CheckFail)
		}
	}
	return graded(status == domain.CheckPass, false, map[string]any{"by_group": byGroup}), nil
}

type equationParams struct {
	Expression    string   `mapstructure:"expression"`
	Left          string   `mapstructure:"left"`
	Right         string   `mapstructure:"right"`
	LHS           string   `mapstructure:"lhs"`
	RHS           string   `mapstructure:"rhs"`
	LeftSum       []string `mapstructure:"left_sum"`
	RightSum      []string `mapstructure:"right_sum"`
	GroupBy       string   `mapstructure:"group_by"`
	Tolerance     *float64 `mapstructure:"tolerance"`
	ToleranceMode string   `mapstructure:"tolerance_mode"`
}

// equation verifies lhs ≈ rhs per row. The default mode is relative:
// |l-r| <= tol * (|l| + eps); absolute mode compares against the tolerance
// directly and degrades softer on broken groups.
func equation(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p equationParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}

	left, right := p.Left, p.Right
	if left == "" {
		left = p.LHS
	}
	if right == "" {
		right = p.RHS
	}
	if len(p.LeftSum) > 0 {
		left = strings.Join(p.LeftSum, " + ")
	}
	if len(p.RightSum) > 0 {
		right = strings.Join(p.RightSum, " + ")
	}

	expression := p.Expression
	if expression == "" {
		if left == "" || right == "" {
			return warn("equation_missing_params", map[string]any{
				"hint": "provide expression, left/right or left_sum/right_sum",
			}), nil
		}
		expression = left + " = " + right
	}
	if !strings.Contains(expression, "=") {
		return warn("equation_parse_error", map[string]any{"expression": expression}), nil
	}
	sides := strings.SplitN(expression, "=", 2)
	lhsExpr := strings.TrimSpace(sides[0])
	rhsExpr := strings.TrimSpace(sides[1])

	tol := 1e-6
	if p.Tolerance != nil {
		tol = *p.Tolerance
	}
	mode := strings.ToLower(strings.TrimSpace(p.ToleranceMode))
	absolute := mode == "absolute" || mode == "abs"

	status := domain.CheckPass
	byGroup := make(map[string]any)
	for _, g := range groupRows(ds, p.GroupBy) {
		det, ok, broken := evalEquationGroup(ds, g.rows, lhsExpr, rhsExpr, tol, absolute)
		byGroup[g.key] = det
		switch {
		case broken && absolute:
			status = worst(status, domain.CheckWarn)
		case broken || !ok:
			status = worst(status, domain.CheckFail)
		}
	}

	details := map[string]any{"by_group": byGroup}
	switch status {
	case domain.CheckPass:
		return pass(details), nil
	case domain.CheckWarn:
		return warn("", details), nil
	default:
		return fail(details), nil
	}
}

func evalEquationGroup(ds *domain.Dataset, rows []int, lhsExpr, rhsExpr string, tol float64, absolute bool) (map[string]any, bool, bool) {
	for _, expr := range []string{lhsExpr, rhsExpr} {
		idents, err := exprIdents(expr)
		if err != nil {
			return map[string]any{"eval_error": err.Error()}, false, true
		}
		if miss := missingColumns(ds, idents...); len(miss) > 0 {
			return map[string]any{"missing_columns": miss}, false, true
		}
	}
	l, err := evalArith(ds, rows, lhsExpr)
	if err != nil {
		return map[string]any{"eval_error": err.Error()}, false, true
	}
	r, err := evalArith(ds, rows, rhsExpr)
	if err != nil {
		return map[string]any{"eval_error": err.Error()}, false, true
	}

	ok := true
	maxErr, maxRel := 0.0, 0.0
	for i := range l {
		e := math.Abs(l[i] - r[i])
		if math.IsNaN(e) {
			// rows that never evaluated are forgiven, not failed
			continue
		}
		bound := tol
		if !absolute {
			bound = tol * (math.Abs(l[i]) + eps)
		}
		if e > bound {
			ok = false
		}
		if e > maxErr {
			maxErr = e
		}
		if rel := e / (math.Abs(l[i]) + eps); !math.IsInf(rel, 0) && rel > maxRel {
			maxRel = rel
		}
	}
	if absolute {
		return map[string]any{"max_abs_err": num(maxErr)}, ok, false
	}
	return map[string]any{"max_err": num(maxErr), "max_rel_err": num(maxRel)}, ok, false
}

type sumReconciliationParams struct {
	Total     string   `mapstructure:"total"`
	Parts     []string `mapstructure:"parts"`
	Tolerance *float64 `mapstructure:"tolerance"`
	GroupBy   string   `mapstructure:"group_by"`
}

// sumReconciliation verifies total ≈ Σ(parts) within a tolerance relative to
// the total.
func sumReconciliation(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p sumReconciliationParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	needed := append([]string{p.Total}, p.Parts...)
	if miss := missingColumns(ds, needed...); len(miss) > 0 {
		return softMissing(miss), nil
	}
	tol := 0.01
	if p.Tolerance != nil {
		tol = *p.Tolerance
	}

	total := coerceFloats(ds, p.Total)
	parts := make([][]float64, len(p.Parts))
	for i, c := range p.Parts {
		parts[i] = coerceFloats(ds, c)
	}

	status := domain.CheckPass
	byGroup := make(map[string]any)
	for _, g := range groupRows(ds, p.GroupBy) {
		ok := true
		maxErr, maxRel := 0.0, 0.0
		for _, row := range g.rows {
			var sum float64
			for _, part := range parts {
				if !math.IsNaN(part[row]) {
					sum += part[row]
				}
			}
			e := math.Abs(total[row] - sum)
			if math.IsNaN(e) {
				continue
			}
			bound := tol * (math.Abs(total[row]) + eps)
			if e > bound {
				ok = false
			}
			if e > maxErr {
				maxErr = e
			}
			if rel := e / (math.Abs(total[row]) + eps); !math.IsInf(rel, 0) && rel > maxRel {
				maxRel = rel
			}
		}
		byGroup[g.key] = map[string]any{"max_abs_err": num(maxErr), "max_rel_err": num(maxRel)}
		if !ok {
			status = worst(status, domain.CheckFail)
		}
	}
	return graded(status == domain.CheckPass, false, map[string]any{"by_group": byGroup}), nil
}

type valueBoundsParams struct {
	Column  string   `mapstructure:"column"`
	Low     *float64 `mapstructure:"low"`
	High    *float64 `mapstructure:"high"`
	GroupBy string   `mapstructure:"group_by"`
}

func valueBounds(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p valueBoundsParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	if p.Low == nil || p.High == nil {
		return domain.CheckResult{}, fmt.Errorf("value_bounds requires low and high")
	}
	vals, err := strictFloats(ds, p.Column)
	if err != nil {
		return domain.CheckResult{}, err
	}

	ok := true
	byGroup := make(map[string]any)
	for _, g := range groupRows(ds, p.GroupBy) {
		sub := pick(vals, g.rows)
		for _, v := range sub {
			if !(v >= *p.Low && v <= *p.High) {
				ok = false
			}
		}
		byGroup[g.key] = map[string]any{"min": num(minValid(sub)), "max": num(maxValid(sub))}
	}
	return graded(ok, false, map[string]any{"by_group": byGroup}), nil
}

type valueInRangeParams struct {
	Value   string `mapstructure:"value"`
	LowRef  string `mapstructure:"low_ref"`
	HighRef string `mapstructure:"high_ref"`
}

// valueInRange compares a column against per-row reference bounds; breaches
// warn rather than fail.
func valueInRange(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p valueInRangeParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	v, err := strictFloats(ds, p.Value)
	if err != nil {
		return domain.CheckResult{}, err
	}
	lo, err := strictFloats(ds, p.LowRef)
	if err != nil {
		return domain.CheckResult{}, err
	}
	hi, err := strictFloats(ds, p.HighRef)
	if err != nil {
		return domain.CheckResult{}, err
	}
	violations := 0
	for i := range v {
		if !(v[i] >= lo[i] && v[i] <= hi[i]) {
			violations++
		}
	}
	return graded(violations == 0, true, map[string]any{"violations": violations}), nil
}

type varianceThresholdParams struct {
	Columns     []string `mapstructure:"columns"`
	Column      string   `mapstructure:"column"`
	MinVariance *float64 `mapstructure:"min_variance"`
	MinVar      *float64 `mapstructure:"min_var"`
	MaxVar      *float64 `mapstructure:"max_var"`
}

// varianceThreshold guards against flatlined or wildly noisy series.
func varianceThreshold(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p varianceThresholdParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	cols := p.Columns
	if len(cols) == 0 && p.Column != "" {
		cols = []string{p.Column}
	}
	if len(cols) == 0 {
		return warn("variance_no_columns", nil), nil
	}
	minVar := p.MinVariance
	if minVar == nil {
		minVar = p.MinVar
	}

	ok := true
	det := make(map[string]any)
	for _, c := range cols {
		if !ds.HasColumn(c) {
			det[c] = map[string]any{"variance": nil, "missing": true}
			ok = false
			continue
		}
		vals, err := strictFloats(ds, c)
		if err != nil {
			return domain.CheckResult{}, err
		}
		v := variancePop(vals)
		det[c] = map[string]any{"variance": num(v)}
		if minVar != nil && !(v >= *minVar) {
			ok = false
		}
		if p.MaxVar != nil && !(v <= *p.MaxVar) {
			ok = false
		}
	}
	return graded(ok, false, map[string]any{"by_column": det}), nil
}

type minValueParams struct {
	Column  string  `mapstructure:"column"`
	Min     float64 `mapstructure:"min"`
	GroupBy string  `mapstructure:"group_by"`
}

func minValue(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p minValueParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	vals, err := strictFloats(ds, p.Column)
	if err != nil {
		return domain.CheckResult{}, err
	}
	ok := true
	byGroup := make(map[string]any)
	for _, g := range groupRows(ds, p.GroupBy) {
		sub := pick(vals, g.rows)
		for _, v := range sub {
			if !(v >= p.Min) {
				ok = false
			}
		}
		byGroup[g.key] = map[string]any{"min_seen": num(minValid(sub))}
	}
	return graded(ok, false, map[string]any{"by_group": byGroup}), nil
}

type nonNegativeParams struct {
	Columns []string `mapstructure:"columns"`
}

// nonNegative defaults to every intent column when none are named.
func nonNegative(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p nonNegativeParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	cols := p.Columns
	if len(cols) == 0 {
		for _, c := range ds.Columns {
			if strings.HasSuffix(c, "_intent") {
				cols = append(cols, c)
			}
		}
	}
	var present [][]float64
	for _, c := range cols {
		if !ds.HasColumn(c) {
			continue
		}
		vals, err := strictFloats(ds, c)
		if err != nil {
			return domain.CheckResult{}, err
		}
		present = append(present, vals)
	}
	negRows := 0
	for i := 0; i < ds.NumRows(); i++ {
		for _, vals := range present {
			if !(vals[i] >= 0) {
				negRows++
				break
			}
		}
	}
	ok := len(present) == 0 || negRows == 0
	return graded(ok, false, map[string]any{"neg_rows": negRows}), nil
}

var maxDenRe = regexp.MustCompile(`^(?P<num>.+)/\s*max\(\s*(?P<col>[^,]+)\s*,\s*(?P<eps>[^)]+)\s*\)\s*$`)

type derivedMetricParams struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"`
}

// derivedMetric publishes a computed column for later checks in the same
// rule chain; it always passes and only warns when the expression cannot be
// evaluated.
func derivedMetric(ds *domain.Dataset, params map[string]any) (domain.CheckResult, error) {
	var p derivedMetricParams
	if err := decodeParams(params, &p); err != nil {
		return domain.CheckResult{}, err
	}
	rows := make([]int, ds.NumRows())
	for i := range rows {
		rows[i] = i
	}

	var (
		vals []float64
		err  error
	)
	if m := maxDenRe.FindStringSubmatch(p.Expression); m != nil {
		vals, err = evalMaxDenominator(ds, rows, m[1], m[2], m[3])
	} else {
		vals, err = evalArith(ds, rows, strings.TrimSpace(p.Expression))
	}
	if err != nil {
		return warn("derived_metric_eval_failed", map[string]any{
			"expression": p.Expression,
			"error":      err.Error(),
		}), nil
	}

	out := make([]any, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	ds.AddColumn(p.Name, out)
	return pass(map[string]any{"created": p.Name}), nil
}

// evalMaxDenominator handles the common "expr / max(col, eps)" shape that a
// plain arithmetic grammar cannot express.
func evalMaxDenominator(ds *domain.Dataset, rows []int, numExpr, colExpr, epsExpr string) ([]float64, error) {
	nums, err := evalArith(ds, rows, strings.TrimSpace(numExpr))
	if err != nil {
		return nil, err
	}
	dens, err := evalArith(ds, rows, strings.TrimSpace(colExpr))
	if err != nil {
		return nil, err
	}
	floor, err := strconv.ParseFloat(strings.TrimSpace(epsExpr), 64)
	if err != nil {
		return nil, fmt.Errorf("bad epsilon %q: %w", epsExpr, err)
	}
	out := make([]float64, len(nums))
	for i := range nums {
		den := dens[i]
		if den < floor || math.IsNaN(den) {
			den = floor
		}
		out[i] = nums[i] / den
	}
	return out, nil
}
