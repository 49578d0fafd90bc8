package evaluate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/checks"
	"github.com/signal-works/pulse/pkg/services/rules"
	"github.com/signal-works/pulse/pkg/services/scoring"
)

// equationTolerance is the absolute slack legacy equations allow per row.
const equationTolerance = 1e-6

// Legacy check kinds operate on named tables directly, without intent
// resolution. They predate the catalog and keep their row-oriented shape so
// older rule packs stay loadable.
const (
	legacyRequiredColumns = "required_columns"
	legacyEquation        = "equation"
	legacyRangeCheck      = "range_check"
	legacyPeriodAlign     = "period_align"
	legacyRatioBounds     = "ratio_bounds"
	legacyMonotonicTime   = "monotonic_time"
)

func isLegacyKind(kind string) bool {
	switch kind {
	case legacyRequiredColumns, legacyEquation, legacyRangeCheck,
		legacyPeriodAlign, legacyRatioBounds, legacyMonotonicTime:
		return true
	}
	return false
}

// runsLegacy decides which path a check takes. Three names (equation,
// ratio_bounds, monotonic_time) exist in both worlds; a named table marks
// the row-oriented legacy shape, a bare check belongs to the catalog.
func runsLegacy(spec checks.Spec) bool {
	if !isLegacyKind(spec.Kind) {
		return false
	}
	if spec.Table != "" {
		return true
	}
	_, catalog := checks.NormalizeKind(spec.Kind)
	return !catalog
}

// EvaluateTables runs a rule pack against a payload of named tables. Legacy
// check kinds run against raw rows; any other catalog kind falls through to
// the intent-resolved dispatcher, against the named table or, when no table
// is named, against a merge of all tables. Rules whose required tables are
// absent fail outright with a finding.
func (e *Engine) EvaluateTables(ctx context.Context, d domain.Domain, payload map[string]domain.Dataset, pack []rules.Rule) domain.DomainReport {
	report := domain.DomainReport{Domain: d}
	var anyBlock, anyWarn bool

	flag := func(sev domain.RuleSeverity) {
		if sev == domain.SeverityBlock {
			anyBlock = true
		} else {
			anyWarn = true
		}
	}

	for _, rule := range pack {
		if missing := missingTables(payload, rule.RequiresTables); len(missing) > 0 {
			flag(rule.Severity)
			res := domain.RuleResult{
				RuleID:   rule.ID,
				Domain:   rule.Domain,
				Title:    rule.Title,
				Severity: rule.Severity,
				Status:   domain.CheckFail,
				Score:    0.0,
				Findings: []string{fmt.Sprintf("missing required tables: %s", strings.Join(missing, ", "))},
			}
			report.Rules = append(report.Rules, res)
			report.Counts.Fail++
			continue
		}

		res := e.evaluateTableRule(ctx, d, payload, rule)
		report.Rules = append(report.Rules, res)
		tally(&report.Counts, res.Status)
		if res.Status != domain.CheckPass {
			flag(rule.Severity)
		}
	}

	report.Score = scoring.DomainScore(report.Rules)
	report.Label = scoring.OutcomeLabel(anyBlock, anyWarn)
	return report
}

func (e *Engine) evaluateTableRule(ctx context.Context, d domain.Domain, payload map[string]domain.Dataset, rule rules.Rule) domain.RuleResult {
	res := domain.RuleResult{
		RuleID:   rule.ID,
		Domain:   rule.Domain,
		Title:    rule.Title,
		Severity: rule.Severity,
		Status:   domain.CheckPass,
		Score:    1.0,
	}

	for _, spec := range rule.Checks {
		var out domain.CheckResult
		switch {
		case runsLegacy(spec):
			out = runLegacyCheck(spec, payload, rule.Severity)
		default:
			if _, known := checks.NormalizeKind(spec.Kind); known {
				ds := PayloadTable(payload, spec.Table)
				resolved := e.resolver.Resolve(ds, d)
				out = checks.Dispatch(ctx, spec, &resolved)
			} else {
				out = unknownKindResult(spec, rule.Severity)
			}
		}

		res.Checks = append(res.Checks, out)
		if statusRank(out.Status) < statusRank(res.Status) {
			res.Status = out.Status
		}
		if out.Score < res.Score {
			res.Score = out.Score
		}
	}

	if res.Status != domain.CheckPass {
		msg := rule.Description
		if msg == "" {
			msg = rule.Title
		}
		if msg != "" {
			res.Findings = append(res.Findings, msg)
		}
	}
	return res
}

// PayloadTable picks the named table, or merges every table into one dataset
// with a _table marker column when no table is named.
func PayloadTable(payload map[string]domain.Dataset, table string) domain.Dataset {
	if table != "" {
		return payload[table]
	}

	names := maps.Keys(payload)
	sort.Strings(names)

	var cols []string
	seen := make(map[string]struct{})
	var rows []domain.Row
	for _, name := range names {
		ds := payload[name]
		for _, c := range ds.Columns {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				cols = append(cols, c)
			}
		}
		for _, r := range ds.Rows {
			nr := make(domain.Row, len(r)+1)
			for k, v := range r {
				nr[k] = v
			}
			nr["_table"] = name
			rows = append(rows, nr)
		}
	}
	cols = append(cols, "_table")
	return domain.NewDataset(cols, rows)
}

func missingTables(payload map[string]domain.Dataset, required []string) []string {
	var missing []string
	for _, t := range required {
		if _, ok := payload[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// runLegacyCheck executes one row-oriented check. Failures grade by the
// owning rule's severity: block escalates to fail, anything else warns.
func runLegacyCheck(spec checks.Spec, payload map[string]domain.Dataset, sev domain.RuleSeverity) domain.CheckResult {
	var (
		ok      bool
		details []string
		key     string
	)

	switch spec.Kind {
	case legacyRequiredColumns:
		ok, details = columnsPresent(payload[spec.Table], paramStrings(spec.Params, "columns"))
		key = "missing"
	case legacyEquation:
		ok, details = equationHolds(payload[spec.Table], spec.Params)
		key = "failures"
	case legacyRangeCheck:
		ok, details = rangeHolds(payload[spec.Table], spec.Params)
		key = "failures"
	case legacyPeriodAlign:
		ok, details = periodsAligned(payload, paramStrings(spec.Params, "tables"))
		key = "misaligned"
	case legacyRatioBounds:
		ok, details = ratioWithinBounds(payload[spec.Table], spec.Params)
		key = "failures"
	case legacyMonotonicTime:
		ok, details = monotonicPeriods(payload[spec.Table], spec.Params)
		key = "failures"
	}

	status := domain.CheckPass
	if !ok {
		if sev == domain.SeverityBlock {
			status = domain.CheckFail
		} else {
			status = domain.CheckWarn
		}
	}

	res := domain.CheckResult{
		Kind:   spec.Kind,
		Table:  spec.Table,
		Status: status,
		Score:  scoring.StatusScore(status),
	}
	if len(details) > 0 {
		res.Details = map[string]any{key: details}
	}
	return res
}

func unknownKindResult(spec checks.Spec, sev domain.RuleSeverity) domain.CheckResult {
	status := domain.CheckWarn
	if sev == domain.SeverityBlock {
		status = domain.CheckFail
	}
	return domain.CheckResult{
		Kind:    spec.Kind,
		Table:   spec.Table,
		Status:  status,
		Score:   scoring.StatusScore(status),
		Note:    checks.NoteUnknownKind,
		Details: map[string]any{"type": spec.Kind},
	}
}

func columnsPresent(ds domain.Dataset, columns []string) (bool, []string) {
	if ds.NumRows() == 0 {
		return false, columns
	}
	present := make(map[string]struct{})
	for _, r := range ds.Rows {
		for k := range r {
			present[k] = struct{}{}
		}
	}
	var missing []string
	for _, c := range columns {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return len(missing) == 0, missing
}

// equationHolds verifies "lhs = a + b + ..." per row with absolute tolerance.
// Absent cells count as zero; unconvertible cells mark the row parse_error.
func equationHolds(ds domain.Dataset, params map[string]any) (bool, []string) {
	expr := paramString(params, "expression")
	lhs, rhs, ok := splitEquation(expr)
	if !ok {
		return false, []string{"expression_parse_error"}
	}
	groupBy := paramString(params, "group_by")

	var failures []string
	for _, row := range ds.Rows {
		lv, lok := cellFloat(row, lhs)
		rv := 0.0
		rok := true
		for _, term := range rhs {
			tv, tok := cellFloat(row, term)
			if !tok {
				rok = false
				break
			}
			rv += tv
		}
		if !lok || !rok {
			failures = append(failures, "parse_error")
			continue
		}
		if diff := lv - rv; diff > equationTolerance || diff < -equationTolerance {
			if groupBy != "" {
				failures = append(failures, fmt.Sprintf("%s=%v", groupBy, row[groupBy]))
			} else {
				failures = append(failures, "row_mismatch")
			}
		}
	}
	return len(failures) == 0, failures
}

func splitEquation(expr string) (string, []string, bool) {
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return "", nil, false
	}
	lhs := strings.TrimSpace(parts[0])
	var rhs []string
	for _, term := range strings.Split(parts[1], "+") {
		rhs = append(rhs, strings.TrimSpace(term))
	}
	if lhs == "" || len(rhs) == 0 {
		return "", nil, false
	}
	return lhs, rhs, true
}

// cellFloat reads a numeric cell, treating an absent cell as zero. The
// second return is false only for present but unconvertible values.
func cellFloat(row domain.Row, col string) (float64, bool) {
	v, ok := row[col]
	if !ok || v == nil {
		return 0.0, true
	}
	return domain.Float(v)
}

func rangeHolds(ds domain.Dataset, params map[string]any) (bool, []string) {
	columns := paramStrings(params, "columns")
	mn, hasMin := paramFloat(params, "min")
	mx, hasMax := paramFloat(params, "max")

	var fails []string
	for i, row := range ds.Rows {
		for _, c := range columns {
			v, ok := row[c]
			if !ok || v == nil {
				continue
			}
			f, convOK := domain.Float(v)
			if !convOK {
				fails = append(fails, fmt.Sprintf("row%d:%s=?", i, c))
				continue
			}
			if (hasMin && f < mn) || (hasMax && f > mx) {
				fails = append(fails, fmt.Sprintf("row%d:%s=%v", i, c, f))
			}
		}
	}
	return len(fails) == 0, fails
}

func ratioWithinBounds(ds domain.Dataset, params map[string]any) (bool, []string) {
	num := paramString(params, "numerator")
	den := paramString(params, "denominator")
	mn, hasMin := paramFloat(params, "min")
	mx, hasMax := paramFloat(params, "max")
	requireDenPos := paramBool(params, "require_denominator_positive")

	var fails []string
	for i, row := range ds.Rows {
		n, nok := cellFloat(row, num)
		d, dok := cellFloat(row, den)
		if !nok || !dok {
			fails = append(fails, fmt.Sprintf("row%d:calc_err", i))
			continue
		}
		if requireDenPos && d <= 0 {
			fails = append(fails, fmt.Sprintf("row%d:den=%v", i, d))
			continue
		}
		if d == 0 {
			fails = append(fails, fmt.Sprintf("row%d:den=0", i))
			continue
		}
		r := n / d
		if (hasMin && r < mn) || (hasMax && r > mx) {
			fails = append(fails, fmt.Sprintf("row%d:ratio=%v", i, r))
		}
	}
	return len(fails) == 0, fails
}

// periodsAligned compares the period value set of every table against the
// first one named.
func periodsAligned(payload map[string]domain.Dataset, tables []string) (bool, []string) {
	if len(tables) == 0 {
		return true, nil
	}
	base := periodSet(payload[tables[0]], "period")
	var fails []string
	for _, name := range tables[1:] {
		if !sameSet(periodSet(payload[name], "period"), base) {
			fails = append(fails, fmt.Sprintf("%s != %s", name, tables[0]))
		}
	}
	return len(fails) == 0, fails
}

func periodSet(ds domain.Dataset, col string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, row := range ds.Rows {
		if v, ok := row[col]; ok && v != nil {
			set[domain.String(v)] = struct{}{}
		}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// monotonicPeriods verifies string ordering of the period column, the shape
// legacy packs expect for sortable period labels like 2024-01.
func monotonicPeriods(ds domain.Dataset, params map[string]any) (bool, []string) {
	col := paramString(params, "column")
	if col == "" {
		col = "period"
	}
	var prev string
	started := false
	for _, row := range ds.Rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		s := domain.String(v)
		if started && s < prev {
			return false, []string{"non_monotonic_or_gaps"}
		}
		prev = s
		started = true
	}
	return true, nil
}

func paramString(p map[string]any, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return domain.String(v)
}

func paramStrings(p map[string]any, key string) []string {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, domain.String(item))
		}
		return out
	default:
		return []string{domain.String(v)}
	}
}

func paramFloat(p map[string]any, key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	return domain.Float(v)
}

func paramBool(p map[string]any, key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || v == "1"
	default:
		return false
	}
}
