package domain

import (
	"strings"
	"time"
)

// RuleSeverity grades how much a failing rule should weigh on a domain score.
type RuleSeverity int

const (
	SeverityInfo RuleSeverity = iota
	SeverityWarn
	SeverityBlock
)

func (s RuleSeverity) String() string {
	switch s {
	case SeverityBlock:
		return "block"
	case SeverityWarn:
		return "warn"
	default:
		return "info"
	}
}

// ParseRuleSeverity maps config strings onto the severity scale. The second
// return is false for unknown values so loaders can warn and default.
func ParseRuleSeverity(s string) (RuleSeverity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block", "critical", "blocker":
		return SeverityBlock, true
	case "warn", "warning", "high", "medium":
		return SeverityWarn, true
	case "info", "low", "note":
		return SeverityInfo, true
	default:
		return SeverityInfo, false
	}
}

// CheckStatus is the outcome of a single check: fail < warn < pass.
type CheckStatus string

const (
	CheckPass CheckStatus = "pass"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// FindingStatus extends check statuses for cross-domain heuristics, which can
// also abstain (na) or break (error).
type FindingStatus string

const (
	FindingPass  FindingStatus = "pass"
	FindingWarn  FindingStatus = "warn"
	FindingFail  FindingStatus = "fail"
	FindingNA    FindingStatus = "na"
	FindingError FindingStatus = "error"
)

// CheckResult is the evidence one check contributes to a rule. Degraded
// outcomes are encoded here rather than as errors: Missing lists intent
// columns the dataset never resolved, Note carries machine readable reasons
// (missing_columns, insufficient_points, check_threw_exception, ...).
type CheckResult struct {
	Kind    string
	Table   string
	Status  CheckStatus
	Score   float64
	Note    string
	Missing []string
	Details map[string]any
}

// RuleResult is the worst-check-wins outcome of one rule.
type RuleResult struct {
	RuleID   string
	Domain   Domain
	Title    string
	Severity RuleSeverity
	Status   CheckStatus
	Score    float64
	Checks   []CheckResult
	Findings []string
}

// StatusCounts tallies rule outcomes inside a domain report.
type StatusCounts struct {
	Pass int
	Warn int
	Fail int
}

// DomainReport aggregates every rule evaluated against one domain dataset.
// Err is set when the evaluation itself could not run; the domain then
// degrades to score zero instead of aborting the whole run.
type DomainReport struct {
	Domain Domain
	Score  float64
	Label  string
	Rules  []RuleResult
	Counts StatusCounts
	Err    string
}

// CrossFinding is the outcome of one cross-domain heuristic. Score follows
// Status under the fixed mapping (pass 1.0, warn 0.6, everything else 0.0).
type CrossFinding struct {
	RuleID   string
	Title    string
	Severity RuleSeverity
	Domains  []Domain
	Status   FindingStatus
	Score    float64
	Detail   string
}

// CompositeIndex is the weighted roll-up of domain scores.
type CompositeIndex struct {
	Score   float64
	Label   string
	Weights map[Domain]float64
	Inputs  map[Domain]float64
}

// TriageIndex is the coarse unweighted roll-up used for quick scans.
type TriageIndex struct {
	Score float64
	Label string
}

// ValidationReport is the complete outcome of one run.
type ValidationReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Label      string
	Domains    []DomainReport
	Cross      []CrossFinding
	Index      CompositeIndex
	Triage     TriageIndex
	Reality    RealityOverlay
	TopRisks   []RuleResult
}
