package evaluate

import (
	"context"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/checks"
	"github.com/signal-works/pulse/pkg/services/resolve"
	"github.com/signal-works/pulse/pkg/services/rules"
	"github.com/signal-works/pulse/pkg/services/scoring"
)

// Engine evaluates rule packs against datasets. An Engine is safe for
// concurrent use; every evaluation works on its own resolved copy.
type Engine struct {
	resolver *resolve.Resolver
}

func NewEngine() *Engine {
	return &Engine{resolver: resolve.NewResolver(resolve.DefaultConfig())}
}

// EvaluateDomain resolves intent columns once and runs every rule of the
// pack against the resolved dataset. A rule is only as good as its weakest
// check: its status is the worst check status and its score the minimum
// check score. Columns published by derived_metric checks stay visible to
// later checks and rules.
func (e *Engine) EvaluateDomain(ctx context.Context, d domain.Domain, pack []rules.Rule, ds domain.Dataset) domain.DomainReport {
	resolved := e.resolver.Resolve(ds, d)

	report := domain.DomainReport{Domain: d}
	var anyBlock, anyWarn bool

	for _, rule := range pack {
		res := e.evaluateRule(ctx, rule, &resolved)
		report.Rules = append(report.Rules, res)
		tally(&report.Counts, res.Status)
		if res.Status != domain.CheckPass {
			if rule.Severity == domain.SeverityBlock {
				anyBlock = true
			} else {
				anyWarn = true
			}
		}
	}

	report.Score = scoring.DomainScore(report.Rules)
	report.Label = scoring.OutcomeLabel(anyBlock, anyWarn)
	return report
}

func (e *Engine) evaluateRule(ctx context.Context, rule rules.Rule, ds *domain.Dataset) domain.RuleResult {
	res := domain.RuleResult{
		RuleID:   rule.ID,
		Domain:   rule.Domain,
		Title:    rule.Title,
		Severity: rule.Severity,
		Status:   domain.CheckPass,
		Score:    1.0,
	}

	for _, spec := range rule.Checks {
		out := checks.Dispatch(ctx, spec, ds)
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

func statusRank(s domain.CheckStatus) int {
	switch s {
	case domain.CheckPass:
		return 2
	case domain.CheckWarn:
		return 1
	default:
		return 0
	}
}

func tally(c *domain.StatusCounts, s domain.CheckStatus) {
	switch s {
	case domain.CheckPass:
		c.Pass++
	case domain.CheckWarn:
		c.Warn++
	default:
		c.Fail++
	}
}
