package resolve

import (
	"strings"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// Intent columns synthesized or derived by the resolver itself. Checks refer
// to the rest by name through their rule parameters.
const (
	PeriodColumn        = "period_intent"
	OutputPerHeadColumn = "output_per_head_intent"
)

// AliasRule copies the first matching candidate column into an intent column.
// Candidates are tried in order; matching is canonical (case, space,
// underscore and hyphen insensitive) and an existing intent is never
// overwritten.
type AliasRule struct {
	Intent     string
	Candidates []string
}

// Config carries the alias tables and coercion hints for a resolver. Build
// one with DefaultConfig and adjust; Resolver never mutates it.
type Config struct {
	Generic      []AliasRule
	PerDomain    map[domain.Domain][]AliasRule
	NumericHints []string
}

// DefaultConfig returns the built-in alias tables for the five domains.
func DefaultConfig() Config {
	return Config{
		Generic: []AliasRule{
			{PeriodColumn, []string{
				"period", "date", "month", "reporting_period", "posting_date", "txn_date",
				"transaction_date", "fiscal_period", "fiscal_month", "yearmonth", "ym",
			}},
			{"channel_intent", []string{"channel", "utm_channel"}},
			{"source_intent", []string{"source", "utm_source"}},
			{"medium_intent", []string{"medium", "utm_medium"}},
			{"campaign_intent", []string{"campaign", "utm_campaign"}},
			{"revenue_intent", []string{"revenue", "sales", "booked_revenue", "total_revenue"}},
			{"cogs_intent", []string{"cogs", "costofgoodssold", "cost_of_goods_sold"}},
			{"headcount_intent", []string{"headcount", "employees_total", "employee_count"}},
		},
		PerDomain: map[domain.Domain][]AliasRule{
			domain.DomainFinance: {
				{"booked_revenue_intent", []string{"revenue_intent", "revenue", "sales"}},
				{"ltv_intent", []string{"ltv", "lifetimevalue"}},
				{"cac_intent", []string{"cac", "customeraqc", "acquisitioncost"}},
				{"cash_in_intent", []string{"cashin", "cash_in"}},
				{"cash_out_intent", []string{"cashout", "cash_out"}},
			},
			domain.DomainMarketing: {
				{"impressions_intent", []string{"impressions"}},
				{"clicks_intent", []string{"clicks"}},
				{"leads_intent", []string{"leads", "conversions"}},
				{"spend_intent", []string{"spend", "cost", "adspend", "marketing_spend"}},
				{"total_spend_intent", []string{"total_spend", "total_cost", "overall_spend"}},
				{"attributed_revenue_intent", []string{"attributed_revenue", "conv_value", "purchase_value"}},
				{"sessions_intent", []string{"sessions", "visits"}},
				{"utm_present_intent", []string{"utm_present", "has_utm"}},
			},
			domain.DomainOperations: {
				{"output_units_intent", []string{
					"output_units", "units_out", "produced_units", "completed_units",
					"throughput_units", "good_units", "units_produced",
				}},
				{"input_units_intent", []string{
					"input_units", "units_in", "raw_units", "started_units",
					"units_started", "materials_units",
				}},
				{"capacity_used_intent", []string{"capacity_used", "utilization", "utilisation"}},
				{"capacity_available_intent", []string{"capacity_available", "available_capacity"}},
				{"downtime_hours_intent", []string{"downtime_hours", "downtime", "mttr_hours"}},
				{"available_hours_intent", []string{"available_hours", "planned_hours"}},
				{OutputPerHeadColumn, []string{"output_per_employee", "rev_per_employee", "revenue_per_employee"}},
				{"orders_completed_intent", []string{
					"orders_completed", "completed_orders", "orders_done",
					"orders_fulfilled", "shipments_completed", "closed_orders",
				}},
				{"orders_started_intent", []string{"orders_started", "orders_created", "new_orders", "orders_opened"}},
			},
			domain.DomainPeople: {
				{"headcount_total_intent", []string{"headcount_intent", "headcount", "employees_total"}},
				{"new_hires_intent", []string{"new_hires", "joins", "hires"}},
				{"exits_intent", []string{"exits", "separations", "attrition_count"}},
				{"job_openings_intent", []string{"job_openings", "open_roles", "requisitions_open"}},
			},
			domain.DomainTalent: {
				{"salary_intent", []string{"salary", "ctc", "compensation"}},
				{"hire_type_intent", []string{"hire_type", "employment_type"}},
				{"tenure_intent", []string{"tenure_months", "months_in_company", "tenure"}},
				{"grade_intent", []string{"grade", "band", "level"}},
				{"join_date_intent", []string{"join_date", "doj", "date_of_joining"}},
				{"requisition_date_intent", []string{"requisition_date", "req_date", "opened_on"}},
				{"total_revenue_intent", []string{"total_revenue", "revenue"}},
				{"headcount_total_intent", []string{"headcount_intent", "headcount", "employees_total"}},
				{OutputPerHeadColumn, []string{
					"output_per_employee", "rev_per_employee", "revenue_per_employee",
					"productivity_per_head", "output_per_head",
				}},
				{"expected_output_per_head_intent", []string{
					"expected_output_per_employee", "monthly_output_expected", "target_output_per_employee",
				}},
			},
		},
		NumericHints: []string{
			"revenue_intent", "booked_revenue_intent", "cogs_intent", "ltv_intent", "cac_intent",
			"cash_in_intent", "cash_out_intent",
			"impressions_intent", "clicks_intent", "leads_intent", "spend_intent",
			"attributed_revenue_intent", "sessions_intent",
			"output_units_intent", "input_units_intent", "capacity_used_intent",
			"capacity_available_intent", "orders_completed_intent", "orders_started_intent",
			"downtime_hours_intent", "available_hours_intent", OutputPerHeadColumn,
			"headcount_intent", "headcount_total_intent", "new_hires_intent", "exits_intent",
			"job_openings_intent",
			"salary_intent", "tenure_intent", "total_revenue_intent",
		},
	}
}

// Canon reduces a column name to its matching form: lowercase with spaces,
// underscores and hyphens removed.
func Canon(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
