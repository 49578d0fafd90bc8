package crossdomain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/scoring"
)

// Engine runs the fixed heuristic bank over time-aligned datasets from
// several domains. It holds no mutable state, so one Engine can serve
// concurrent runs.
type Engine struct {
	thresholds Thresholds
	rules      []Rule
}

func NewEngine(th Thresholds) *Engine {
	return &Engine{thresholds: th, rules: catalog()}
}

// Rules exposes the catalog metadata, in evaluation order, for listings.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate produces one finding per catalog rule. A heuristic that lacks its
// inputs abstains with status na; one that panics degrades to status error.
// Sibling rules always run to completion.
func (e *Engine) Evaluate(ctx context.Context, in Inputs) []domain.CrossFinding {
	findings := make([]domain.CrossFinding, 0, len(e.rules))
	for _, rule := range e.rules {
		findings = append(findings, e.run(ctx, rule, in))
	}
	return findings
}

func (e *Engine) run(ctx context.Context, rule Rule, in Inputs) (f domain.CrossFinding) {
	f = domain.CrossFinding{
		RuleID:   rule.ID,
		Title:    rule.Title,
		Severity: rule.Severity,
		Domains:  rule.Domains,
	}
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().
				Str("rule_id", rule.ID).
				Interface("panic", r).
				Msg("cross-domain heuristic panicked")
			f.Status = domain.FindingError
			f.Score = scoring.FindingScore(domain.FindingError)
			f.Detail = fmt.Sprintf("panic: %v", r)
		}
	}()

	status, detail := rule.eval(in, e.thresholds)
	f.Status = status
	f.Score = scoring.FindingScore(status)
	f.Detail = detail
	return f
}
