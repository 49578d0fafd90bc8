package resolve

import (
	"strconv"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// Resolver maps raw dataset columns onto stable intent columns that rules
// reference. Intent columns are copies; raw columns stay untouched.
type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns a copy of the dataset with best effort intent columns:
// alias matches applied (generic first, then per domain), a period column
// synthesized and normalized, derived ratios filled in and known numeric
// intents coerced. Empty datasets come back unchanged.
func (r *Resolver) Resolve(ds domain.Dataset, d domain.Domain) domain.Dataset {
	if ds.NumRows() == 0 {
		return ds
	}

	out := ds.Clone()
	applyAliases(&out, r.cfg.Generic)
	if rules, ok := r.cfg.PerDomain[d]; ok {
		applyAliases(&out, rules)
	}

	ensurePeriod(&out)
	deriveOutputPerHead(&out)
	normalizePeriod(&out, PeriodColumn)
	coerceNumeric(&out, r.cfg.NumericHints)

	return out
}

func applyAliases(ds *domain.Dataset, rules []AliasRule) {
	lookup := make(map[string]string, len(ds.Columns))
	for _, c := range ds.Columns {
		if _, ok := lookup[Canon(c)]; !ok {
			lookup[Canon(c)] = c
		}
	}
	for _, rule := range rules {
		if ds.HasColumn(rule.Intent) {
			continue
		}
		for _, cand := range rule.Candidates {
			src, ok := lookup[Canon(cand)]
			if !ok {
				continue
			}
			ds.AddColumn(rule.Intent, ds.Column(src))
			lookup[Canon(rule.Intent)] = rule.Intent
			break
		}
	}
}

// ensurePeriod synthesizes the period intent when no alias matched: the
// first column serves as a natural key when its values are unique, otherwise
// a 1..N sequence keeps rolling and grouping checks usable.
func ensurePeriod(ds *domain.Dataset) {
	if ds.HasColumn(PeriodColumn) {
		return
	}
	if len(ds.Columns) > 0 {
		first := ds.Column(ds.Columns[0])
		uniq := make(map[string]struct{}, len(first))
		for _, v := range first {
			uniq[domain.String(v)] = struct{}{}
		}
		if len(uniq) == len(first) {
			vals := make([]any, len(first))
			for i, v := range first {
				vals[i] = domain.String(v)
			}
			ds.AddColumn(PeriodColumn, vals)
			return
		}
	}
	vals := make([]any, ds.NumRows())
	for i := range vals {
		vals[i] = strconv.Itoa(i + 1)
	}
	ds.AddColumn(PeriodColumn, vals)
}

func deriveOutputPerHead(ds *domain.Dataset) {
	if ds.HasColumn(OutputPerHeadColumn) {
		return
	}
	if !ds.HasColumn("total_revenue_intent") || !ds.HasColumn("headcount_total_intent") {
		return
	}
	rev := ds.Column("total_revenue_intent")
	hc := ds.Column("headcount_total_intent")
	vals := make([]any, len(rev))
	for i := range rev {
		num, okN := domain.Float(rev[i])
		den, okD := domain.Float(hc[i])
		if !okN || !okD {
			continue
		}
		if den < 1e-9 {
			den = 1e-9
		}
		vals[i] = num / den
	}
	ds.AddColumn(OutputPerHeadColumn, vals)
}

func coerceNumeric(ds *domain.Dataset, hints []string) {
	for _, col := range hints {
		if !ds.HasColumn(col) {
			continue
		}
		vals := ds.Column(col)
		out := make([]any, len(vals))
		for i, v := range vals {
			if f, ok := domain.Float(v); ok {
				out[i] = f
			}
		}
		ds.AddColumn(col, out)
	}
}
