package crossdomain

import (
	"strings"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// metricAliases extends finder candidates with the business spellings rule
// authors use for the same concepts.
var metricAliases = map[string][]string{
	"revenue":            {"Revenue", "Sales", "Booked Revenue", "Turnover"},
	"orders":             {"Orders", "Total Orders", "Completed Orders", "Shipments"},
	"marketing_spend":    {"Marketing Spend", "Ad Spend", "Total Spend", "Spend"},
	"gross_margin_pct":   {"Gross Margin %", "GM%", "GrossMarginPct"},
	"operating_cashflow": {"Operating Cash Flow", "Operating Cashflow", "CFO_Operating"},
	"headcount":          {"Headcount", "Employees", "Total Headcount"},
	"attrition_rate":     {"Attrition Rate", "Attrition%", "Exits Rate"},
	"leads":              {"Leads", "Total Leads", "Unique Leads"},
	"sql":                {"SQL", "Qualified Leads", "Sales Qualified Leads"},
}

func canonName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// findColumn resolves one dataset column from candidate names: exact
// canonical match first, then containment either way. Candidates keep their
// given order so deliberate names beat fuzzy ones.
func findColumn(ds domain.Dataset, keys ...string) string {
	if ds.NumRows() == 0 {
		return ""
	}

	lookup := make(map[string]string, len(ds.Columns))
	for _, c := range ds.Columns {
		if _, ok := lookup[canonName(c)]; !ok {
			lookup[canonName(c)] = c
		}
	}

	pool := make([]string, 0, len(keys)*4)
	seen := make(map[string]struct{})
	for _, k := range keys {
		for _, cand := range append([]string{k}, metricAliases[k]...) {
			c := canonName(cand)
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			pool = append(pool, c)
		}
	}

	for _, a := range pool {
		if col, ok := lookup[a]; ok {
			return col
		}
	}
	for _, a := range pool {
		for _, col := range ds.Columns {
			k := canonName(col)
			if strings.Contains(k, a) || strings.Contains(a, k) {
				return col
			}
		}
	}
	return ""
}
