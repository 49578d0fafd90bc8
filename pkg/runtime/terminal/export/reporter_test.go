package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-works/pulse/pkg/models/domain"
)

func TestReporter_Handle(t *testing.T) {
	warnRule := domain.RuleResult{
		RuleID:   "FIN-R-001",
		Domain:   domain.DomainFinance,
		Title:    "Revenue continuity",
		Severity: domain.SeverityBlock,
		Status:   domain.CheckWarn,
		Score:    0.6,
	}
	report := &domain.ValidationReport{
		RunID:      "run-7",
		StartedAt:  time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 6, 13, 10, 0, 2, 0, time.UTC),
		Label:      "Needs attention",
		Domains: []domain.DomainReport{
			{
				Domain: domain.DomainFinance,
				Score:  0.8,
				Label:  "Needs attention",
				Rules:  []domain.RuleResult{warnRule},
				Counts: domain.StatusCounts{Warn: 1},
			},
			{
				Domain: domain.DomainOperations,
				Err:    "no input files for domain \"operations\"",
			},
		},
		Cross: []domain.CrossFinding{
			{
				RuleID:   "XD-R-001",
				Title:    "Growth alignment",
				Severity: domain.SeverityWarn,
				Domains:  []domain.Domain{domain.DomainFinance, domain.DomainMarketing},
				Status:   domain.FindingWarn,
				Score:    0.6,
				Detail:   "revenue grows while marketing spend falls",
			},
		},
		Index:  domain.CompositeIndex{Score: 0.8, Label: "Caution"},
		Triage: domain.TriageIndex{Score: 0.4, Label: "Critical"},
		Reality: domain.RealityOverlay{
			Flags: map[domain.Domain]domain.DomainFeasibility{
				domain.DomainFinance: {
					Domain:  domain.DomainFinance,
					Flag:    domain.FeasibilityRiskMedium,
					Message: "1 warned rules",
				},
			},
		},
		TopRisks: []domain.RuleResult{warnRule},
	}

	var buf bytes.Buffer
	reporter := NewReporter(&buf)
	require.NoError(t, reporter.Handle(report))

	out := buf.String()
	assert.Contains(t, out, "Validation Run run-7")
	assert.Contains(t, out, "Outcome: Needs attention")
	assert.Contains(t, out, "Index: 0.80 (Caution)")
	assert.Contains(t, out, "Triage: 0.40 (Critical)")
	assert.Contains(t, out, "=== finance ===")
	assert.Contains(t, out, "Rules: 0 pass / 1 warn / 0 fail")
	assert.Contains(t, out, "FIN-R-001")
	assert.Contains(t, out, "Revenue continuity")
	assert.Contains(t, out, `Error: no input files for domain "operations"`)
	assert.Contains(t, out, "XD-R-001")
	assert.Contains(t, out, "revenue grows while marketing spend falls")
	assert.Contains(t, out, "finance: risk_medium (1 warned rules)")
	assert.Contains(t, out, "=== Top risks ===")
	assert.Contains(t, out, "- [block] FIN-R-001 finance: Revenue continuity")
}
