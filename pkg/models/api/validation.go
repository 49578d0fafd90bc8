package api

import "time"

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityBlock Severity = "block"
)

type CheckResult struct {
	Kind    string         `json:"kind"`
	Table   string         `json:"table,omitempty"`
	Status  string         `json:"status"`
	Score   float64        `json:"score"`
	Note    string         `json:"note,omitempty"`
	Missing []string       `json:"missing,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type RuleResult struct {
	RuleId   string        `json:"rule_id"`
	Domain   string        `json:"domain"`
	Title    string        `json:"title"`
	Severity Severity      `json:"severity"`
	Status   string        `json:"status"`
	Score    float64       `json:"score"`
	Checks   []CheckResult `json:"checks"`
	Findings []string      `json:"findings,omitempty"`
}

type StatusCounts struct {
	Pass int `json:"pass"`
	Warn int `json:"warn"`
	Fail int `json:"fail"`
}

type DomainReport struct {
	Domain string       `json:"domain"`
	Score  float64      `json:"score"`
	Label  string       `json:"label"`
	Rules  []RuleResult `json:"rules"`
	Counts StatusCounts `json:"counts"`
	Error  string       `json:"error,omitempty"`
}

type CrossFinding struct {
	RuleId   string   `json:"rule_id"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
	Domains  []string `json:"domains"`
	Status   string   `json:"status"`
	Score    float64  `json:"score"`
	Detail   string   `json:"detail,omitempty"`
}

type CompositeIndex struct {
	Score   float64            `json:"score"`
	Label   string             `json:"label"`
	Weights map[string]float64 `json:"weights"`
	Inputs  map[string]float64 `json:"inputs"`
}

type TriageIndex struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

type RealitySignal struct {
	Id         string   `json:"id"`
	Domain     string   `json:"domain"`
	Title      string   `json:"title"`
	Severity   string   `json:"severity"`
	Confidence string   `json:"confidence"`
	Horizon    string   `json:"horizon,omitempty"`
	Statement  string   `json:"statement,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type DomainFeasibility struct {
	Domain      string          `json:"domain"`
	Flag        string          `json:"flag"`
	WarnCount   int             `json:"warn_count"`
	FailCount   int             `json:"fail_count"`
	SignalCount int             `json:"signal_count"`
	MaxSeverity string          `json:"max_severity,omitempty"`
	Evidence    []RealitySignal `json:"evidence,omitempty"`
	Message     string          `json:"message"`
}

type RealityOverlay struct {
	Flags map[string]DomainFeasibility `json:"flags"`
	Note  string                       `json:"note,omitempty"`
}

type ValidationReport struct {
	RunId      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Label      string         `json:"label"`
	Domains    []DomainReport `json:"domains"`
	Cross      []CrossFinding `json:"cross_findings"`
	Index      CompositeIndex `json:"index"`
	Triage     TriageIndex    `json:"triage"`
	Reality    RealityOverlay `json:"reality"`
	TopRisks   []RuleResult   `json:"top_risks,omitempty"`
}

// RunRequest is the POST body for starting a validation run. Datasets are
// keyed by table name; each table is a list of rows. When Domains is empty
// the server evaluates every domain the rule packs cover.
type RunRequest struct {
	Domains     []string                    `json:"domains,omitempty"`
	Datasets    map[string][]map[string]any `json:"datasets"`
	Weights     map[string]float64          `json:"weights,omitempty"`
	SkipCross   bool                        `json:"skip_cross,omitempty"`
	SkipReality bool                        `json:"skip_reality,omitempty"`
}

// RunSummary is the list-endpoint view of a stored run.
type RunSummary struct {
	RunId       string    `json:"run_id"`
	Label       string    `json:"label"`
	IndexScore  float64   `json:"index_score"`
	IndexLabel  string    `json:"index_label"`
	TriageScore float64   `json:"triage_score"`
	TriageLabel string    `json:"triage_label"`
	DomainCount int       `json:"domain_count"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}
