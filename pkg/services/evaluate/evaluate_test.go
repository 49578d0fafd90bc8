package evaluate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/checks"
	"github.com/signal-works/pulse/pkg/services/rules"
	"github.com/signal-works/pulse/pkg/services/scoring"
)

func monthly(col string, vals ...float64) domain.Dataset {
	rows := make([]domain.Row, len(vals))
	for i, v := range vals {
		rows[i] = domain.Row{"month": fmt.Sprintf("2024-%02d", i+1), col: v}
	}
	return domain.NewDataset([]string{"month", col}, rows)
}

func TestEvaluateDomain_WorstCheckWins(t *testing.T) {
	eng := NewEngine()
	pack := []rules.Rule{{
		ID:       "FIN-R-010",
		Domain:   domain.DomainFinance,
		Title:    "margin sanity",
		Severity: domain.SeverityBlock,
		Checks: []checks.Spec{
			{Kind: "non_negative", Params: map[string]any{"columns": []any{"margin"}}},
			{Kind: "min_value", Params: map[string]any{"column": "margin", "min": 50.0}},
		},
	}}

	report := eng.EvaluateDomain(context.Background(), domain.DomainFinance, pack, monthly("margin", 10, 60))

	require.Len(t, report.Rules, 1)
	rule := report.Rules[0]
	assert.Equal(t, domain.CheckFail, rule.Status)
	assert.Equal(t, 0.0, rule.Score)
	require.Len(t, rule.Checks, 2)
	assert.Equal(t, domain.CheckPass, rule.Checks[0].Status)
	assert.Equal(t, domain.CheckFail, rule.Checks[1].Status)

	assert.Equal(t, 0.0, report.Score)
	assert.Equal(t, scoring.LabelBlocked, report.Label)
	assert.Equal(t, domain.StatusCounts{Fail: 1}, report.Counts)
}

func TestEvaluateDomain_SeverityWeightedScore(t *testing.T) {
	eng := NewEngine()
	pack := []rules.Rule{
		{
			ID:       "FIN-R-001",
			Severity: domain.SeverityBlock,
			Checks: []checks.Spec{
				{Kind: "non_negative", Params: map[string]any{"columns": []any{"margin"}}},
			},
		},
		{
			ID:       "FIN-R-002",
			Severity: domain.SeverityWarn,
			Checks: []checks.Spec{
				{Kind: "min_value", Params: map[string]any{"column": "margin", "min": 50.0}},
			},
		},
	}

	report := eng.EvaluateDomain(context.Background(), domain.DomainFinance, pack, monthly("margin", 10, 60))

	// (1.0*1.0 + 0.6*0.0) / 1.6
	assert.InDelta(t, 0.625, report.Score, 1e-9)
	assert.Equal(t, scoring.LabelNeedsAttention, report.Label)
	assert.Equal(t, domain.StatusCounts{Pass: 1, Fail: 1}, report.Counts)
}

func TestEvaluateDomain_DerivedColumnsPersistAcrossRules(t *testing.T) {
	eng := NewEngine()
	ds := domain.NewDataset(
		[]string{"month", "spend", "leads"},
		[]domain.Row{
			{"month": "2024-01", "spend": 100.0, "leads": 50.0},
			{"month": "2024-02", "spend": 90.0, "leads": 2.0},
		},
	)
	pack := []rules.Rule{
		{
			ID:       "MKT-R-001",
			Severity: domain.SeverityInfo,
			Checks: []checks.Spec{
				{Kind: "derived_metric", Params: map[string]any{
					"name":       "cac",
					"expression": "spend / max(leads, 1)",
				}},
			},
		},
		{
			ID:       "MKT-R-002",
			Severity: domain.SeverityWarn,
			Checks: []checks.Spec{
				{Kind: "value_bounds", Params: map[string]any{"column": "cac", "low": 0.0, "high": 50.0}},
			},
		},
	}

	report := eng.EvaluateDomain(context.Background(), domain.DomainMarketing, pack, ds)

	require.Len(t, report.Rules, 2)
	assert.Equal(t, domain.CheckPass, report.Rules[0].Status)
	assert.Equal(t, domain.CheckPass, report.Rules[1].Status)
	assert.Equal(t, 1.0, report.Score)
	assert.Equal(t, scoring.LabelAuthentic, report.Label)
}

func TestEvaluateDomain_ResolverFeedsIntentChecks(t *testing.T) {
	eng := NewEngine()
	ds := domain.NewDataset(
		[]string{"Period", "Total Revenue"},
		[]domain.Row{
			{"Period": "2024-01", "Total Revenue": "1,000"},
			{"Period": "2024-02", "Total Revenue": "1,200"},
		},
	)
	pack := []rules.Rule{{
		ID:       "FIN-R-003",
		Severity: domain.SeverityWarn,
		Checks: []checks.Spec{
			{Kind: "non_negative", Params: map[string]any{"columns": []any{"revenue_intent"}}},
		},
	}}

	report := eng.EvaluateDomain(context.Background(), domain.DomainFinance, pack, ds)

	require.Len(t, report.Rules, 1)
	assert.Equal(t, domain.CheckPass, report.Rules[0].Status)
}

func TestEvaluateDomain_EmptyPack(t *testing.T) {
	eng := NewEngine()
	report := eng.EvaluateDomain(context.Background(), domain.DomainTalent, nil, monthly("x", 1))

	assert.Empty(t, report.Rules)
	assert.Equal(t, 1.0, report.Score)
	assert.Equal(t, scoring.LabelAuthentic, report.Label)
}

func TestEvaluateDomain_FindingCarriesDescription(t *testing.T) {
	eng := NewEngine()
	pack := []rules.Rule{{
		ID:          "OPS-R-007",
		Title:       "throughput floor",
		Description: "Throughput must stay above the contracted floor.",
		Severity:    domain.SeverityWarn,
		Checks: []checks.Spec{
			{Kind: "min_value", Params: map[string]any{"column": "throughput", "min": 100.0}},
		},
	}}

	report := eng.EvaluateDomain(context.Background(), domain.DomainOperations, pack, monthly("throughput", 80, 120))

	require.Len(t, report.Rules, 1)
	require.Len(t, report.Rules[0].Findings, 1)
	assert.Equal(t, "Throughput must stay above the contracted floor.", report.Rules[0].Findings[0])
}

func TestEvaluateDomain_BlockSeverityWarnStillBlocksLabel(t *testing.T) {
	eng := NewEngine()
	// An unknown catalog kind degrades to a warn; under a block-severity rule
	// the run label must still escalate.
	pack := []rules.Rule{{
		ID:       "FIN-R-099",
		Severity: domain.SeverityBlock,
		Checks: []checks.Spec{
			{Kind: "semantic_similarity_overlap", Params: map[string]any{}},
		},
	}}

	report := eng.EvaluateDomain(context.Background(), domain.DomainFinance, pack, monthly("x", 1))

	require.Len(t, report.Rules, 1)
	assert.Equal(t, domain.CheckWarn, report.Rules[0].Status)
	assert.Equal(t, scoring.LabelBlocked, report.Label)
}
