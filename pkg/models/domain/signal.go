package domain

import "time"

// SignalSeverity grades externally authored reality signals.
type SignalSeverity string

const (
	SignalLow      SignalSeverity = "low"
	SignalMedium   SignalSeverity = "medium"
	SignalHigh     SignalSeverity = "high"
	SignalCritical SignalSeverity = "critical"
)

// Rank orders severities for evidence sorting; unknown values rank lowest.
func (s SignalSeverity) Rank() int {
	switch s {
	case SignalCritical:
		return 4
	case SignalHigh:
		return 3
	case SignalMedium:
		return 2
	case SignalLow:
		return 1
	default:
		return 0
	}
}

// SignalConfidence grades how much trust a signal's author placed in it.
type SignalConfidence string

const (
	ConfidenceLow    SignalConfidence = "low"
	ConfidenceMedium SignalConfidence = "medium"
	ConfidenceHigh   SignalConfidence = "high"
)

// Rank orders confidence for evidence tie breaking; unknown values sit in
// the middle, the same default authors get when they omit the field.
func (c SignalConfidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceLow:
		return 1
	default:
		return 2
	}
}

// RealitySignal is one externally authored risk statement about a domain.
// Signals are curated configuration, never derived from live data.
type RealitySignal struct {
	ID         string
	Domain     Domain
	Title      string
	Severity   SignalSeverity
	Confidence SignalConfidence
	Horizon    string
	ValidUntil time.Time
	Statement  string
	Tags       []string
	Path       string
}

// FeasibilityFlag is a per-domain overlay verdict.
type FeasibilityFlag string

const (
	FeasibilityOK         FeasibilityFlag = "ok"
	FeasibilityRiskLow    FeasibilityFlag = "risk_low"
	FeasibilityRiskMedium FeasibilityFlag = "risk_medium"
	FeasibilityRiskHigh   FeasibilityFlag = "risk_high"
)

// DomainFeasibility combines a domain's internal rule outcomes with the
// curated signals tagged to it. The overlay only annotates; scores are never
// touched.
type DomainFeasibility struct {
	Domain      Domain
	Flag        FeasibilityFlag
	WarnCount   int
	FailCount   int
	SignalCount int
	MaxSeverity SignalSeverity
	Evidence    []RealitySignal
	Message     string
}

// RealityOverlay is the run level view of feasibility. The shape is always
// complete: when signal loading fails, Flags still covers every domain from
// findings alone and Note explains the gap.
type RealityOverlay struct {
	Flags   map[Domain]DomainFeasibility
	Signals []RealitySignal
	Note    string
}
