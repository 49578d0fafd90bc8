package rules

import (
	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/checks"
)

// Rule is one declarative validation rule as authored in a rule pack. The
// file path is kept for traceability only; evaluation never looks at it.
type Rule struct {
	ID             string
	Domain         domain.Domain
	Title          string
	Description    string
	Severity       domain.RuleSeverity
	RequiresTables []string
	Checks         []checks.Spec
	Path           string
}
