package validator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/scoring"
)

type fakeProvider struct {
	data   map[domain.Domain]map[string]domain.Dataset
	errs   map[domain.Domain]error
	panics map[domain.Domain]string
}

func (p *fakeProvider) Datasets(_ context.Context, d domain.Domain) (map[string]domain.Dataset, error) {
	if msg, ok := p.panics[d]; ok {
		panic(msg)
	}
	if err, ok := p.errs[d]; ok {
		return nil, err
	}
	return p.data[d], nil
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func pnl(vals ...any) map[string]domain.Dataset {
	rows := make([]domain.Row, len(vals))
	for i, v := range vals {
		rows[i] = domain.Row{"revenue": v}
	}
	return map[string]domain.Dataset{"pnl": domain.NewDataset([]string{"revenue"}, rows)}
}

func newTestRunner(t *testing.T, ruleYAML, signalYAML string) *Runner {
	t.Helper()
	root := t.TempDir()
	rulesRoot := filepath.Join(root, "rules")
	signalsRoot := filepath.Join(root, "signals")
	require.NoError(t, os.MkdirAll(rulesRoot, 0o755))
	if ruleYAML != "" {
		writeFixture(t, filepath.Join(rulesRoot, "finance"), "fin-001.yaml", ruleYAML)
	}
	if signalYAML != "" {
		writeFixture(t, signalsRoot, "fin-signal.yaml", signalYAML)
	}
	return NewRunner(Config{RulesRoot: rulesRoot, SignalsRoot: signalsRoot})
}

func TestRun_FullPipelineProducesCompleteReport(t *testing.T) {
	r := newTestRunner(t, `
id: FIN-R-001
title: Ledger has revenue
severity: block
evidence:
  requires_tables: [pnl]
  checks:
    - type: required_columns
      table: pnl
      columns: [revenue]
`, `
id: FIN-S-001
domain: finance
title: Funding climate tightening
severity: medium
`)
	provider := &fakeProvider{data: map[domain.Domain]map[string]domain.Dataset{
		domain.DomainFinance: pnl(100, 120),
	}}

	report := r.Run(context.Background(), provider, RunRequest{})

	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.Equal(t, scoring.LabelAuthentic, report.Label)

	require.Len(t, report.Domains, 5)
	byDomain := make(map[domain.Domain]domain.DomainReport, len(report.Domains))
	for _, rep := range report.Domains {
		byDomain[rep.Domain] = rep
	}
	fin := byDomain[domain.DomainFinance]
	assert.Equal(t, 1.0, fin.Score)
	assert.Equal(t, domain.StatusCounts{Pass: 1}, fin.Counts)
	assert.Empty(t, fin.Err)

	assert.Len(t, report.Cross, 25)
	for _, f := range report.Cross {
		assert.Equal(t, domain.FindingNA, f.Status, f.RuleID)
	}

	assert.Equal(t, 1.0, report.Index.Score)
	assert.Equal(t, scoring.IndexHealthy, report.Index.Label)
	assert.Equal(t, scoring.TriageHealthy, report.Triage.Label)

	require.Len(t, report.Reality.Flags, 5)
	assert.Equal(t, domain.FeasibilityRiskLow, report.Reality.Flags[domain.DomainFinance].Flag)
	assert.Equal(t, domain.FeasibilityOK, report.Reality.Flags[domain.DomainOperations].Flag)
	require.Len(t, report.Reality.Signals, 1)

	assert.LessOrEqual(t, len(report.TopRisks), 5)
}

func TestRun_ProviderErrorDegradesSingleDomain(t *testing.T) {
	r := newTestRunner(t, "", "")
	provider := &fakeProvider{
		errs: map[domain.Domain]error{domain.DomainOperations: errors.New("warehouse offline")},
	}

	report := r.Run(context.Background(), provider, RunRequest{})

	byDomain := make(map[domain.Domain]domain.DomainReport)
	for _, rep := range report.Domains {
		byDomain[rep.Domain] = rep
	}
	assert.Equal(t, "warehouse offline", byDomain[domain.DomainOperations].Err)
	assert.Zero(t, byDomain[domain.DomainOperations].Score)
	assert.Empty(t, byDomain[domain.DomainFinance].Err)

	assert.Equal(t, scoring.LabelBlocked, report.Label)
	assert.InDelta(t, 0.75, report.Index.Score, 1e-9)
	assert.InDelta(t, 0.8, report.Triage.Score, 1e-9)
}

func TestRun_PanicInOneDomainIsIsolated(t *testing.T) {
	r := newTestRunner(t, "", "")
	provider := &fakeProvider{
		panics: map[domain.Domain]string{domain.DomainTalent: "corrupt shard"},
	}

	report := r.Run(context.Background(), provider, RunRequest{})

	byDomain := make(map[domain.Domain]domain.DomainReport)
	for _, rep := range report.Domains {
		byDomain[rep.Domain] = rep
	}
	assert.Equal(t, "panic: corrupt shard", byDomain[domain.DomainTalent].Err)
	assert.Empty(t, byDomain[domain.DomainPeople].Err)
	assert.Equal(t, scoring.LabelBlocked, report.Label)
}

func TestRun_WarnRuleTurnsIntoNeedsAttention(t *testing.T) {
	r := newTestRunner(t, `
id: FIN-R-002
title: Ledger carries gross profit
severity: warn
evidence:
  requires_tables: [pnl]
  checks:
    - type: required_columns
      table: pnl
      columns: [gross_profit]
`, "")
	provider := &fakeProvider{data: map[domain.Domain]map[string]domain.Dataset{
		domain.DomainFinance: pnl(100),
	}}

	report := r.Run(context.Background(), provider, RunRequest{})

	assert.Equal(t, scoring.LabelNeedsAttention, report.Label)

	byDomain := make(map[domain.Domain]domain.DomainReport)
	for _, rep := range report.Domains {
		byDomain[rep.Domain] = rep
	}
	assert.InDelta(t, 0.6, byDomain[domain.DomainFinance].Score, 1e-9)
	assert.Equal(t, domain.StatusCounts{Warn: 1}, byDomain[domain.DomainFinance].Counts)

	require.NotEmpty(t, report.TopRisks)
	assert.Equal(t, "FIN-R-002", report.TopRisks[0].RuleID)
}

func TestRun_DomainSubsetRenormalizesIndex(t *testing.T) {
	r := newTestRunner(t, "", "")
	provider := &fakeProvider{data: map[domain.Domain]map[string]domain.Dataset{
		domain.DomainFinance: pnl(100),
	}}

	report := r.Run(context.Background(), provider, RunRequest{
		Domains: []domain.Domain{domain.DomainFinance},
	})

	require.Len(t, report.Domains, 1)
	assert.Equal(t, domain.DomainFinance, report.Domains[0].Domain)
	assert.Equal(t, 1.0, report.Index.Score)
	assert.Len(t, report.Reality.Flags, 5)
}

func TestRun_SkipFlagsKeepReportShape(t *testing.T) {
	r := newTestRunner(t, "", `
id: FIN-S-001
domain: finance
title: Funding climate tightening
severity: medium
`)
	provider := &fakeProvider{data: map[domain.Domain]map[string]domain.Dataset{
		domain.DomainFinance: pnl(100),
	}}

	t.Run("skip cross", func(t *testing.T) {
		report := r.Run(context.Background(), provider, RunRequest{SkipCross: true})
		assert.Empty(t, report.Cross)
		assert.Len(t, report.Reality.Flags, 5)
		require.Len(t, report.Reality.Signals, 1)
	})

	t.Run("skip reality", func(t *testing.T) {
		report := r.Run(context.Background(), provider, RunRequest{SkipReality: true})
		assert.Len(t, report.Cross, 25)
		assert.Len(t, report.Reality.Flags, 5)
		assert.Empty(t, report.Reality.Signals)
		assert.Equal(t, "reality overlay skipped by request", report.Reality.Note)
		// Findings alone still drive the flags.
		assert.Equal(t, domain.FeasibilityOK, report.Reality.Flags[domain.DomainFinance].Flag)
	})
}

func TestRun_RequestWeightsOverrideConfig(t *testing.T) {
	r := newTestRunner(t, "", "")
	provider := &fakeProvider{
		errs: map[domain.Domain]error{domain.DomainOperations: errors.New("warehouse offline")},
	}

	report := r.Run(context.Background(), provider, RunRequest{
		Weights: map[domain.Domain]float64{
			domain.DomainFinance:    1,
			domain.DomainOperations: 0,
		},
	})

	// Operations is weighted out, so its degraded zero cannot drag the index.
	assert.Equal(t, 1.0, report.Index.Score)
	assert.Equal(t, map[domain.Domain]float64{
		domain.DomainFinance:    1,
		domain.DomainOperations: 0,
	}, report.Index.Weights)
}

func TestRun_CrossRulesSeeProviderTables(t *testing.T) {
	r := newTestRunner(t, "", "")
	provider := &fakeProvider{data: map[domain.Domain]map[string]domain.Dataset{
		domain.DomainMarketing: {
			"channels": domain.NewDataset([]string{"attributed_revenue"}, []domain.Row{
				{"attributed_revenue": 600}, {"attributed_revenue": 500},
			}),
		},
		domain.DomainFinance: pnl(500, 500),
	}}

	report := r.Run(context.Background(), provider, RunRequest{})

	var overclaim domain.CrossFinding
	for _, f := range report.Cross {
		if f.RuleID == "CROSS-R-102" {
			overclaim = f
		}
	}
	assert.Equal(t, domain.FindingFail, overclaim.Status)
	assert.Equal(t, "attributed 1100 exceeds booked revenue 1000", overclaim.Detail)
}
