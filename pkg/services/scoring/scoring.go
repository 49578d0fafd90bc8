package scoring

import (
	"sort"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// Run and domain labels surfaced in reports.
const (
	LabelBlocked        = "Blocked (critical issues)"
	LabelNeedsAttention = "Needs attention"
	LabelAuthentic      = "Authentic enough"

	IndexHealthy  = "Healthy"
	IndexCaution  = "Caution"
	IndexCritical = "Critical"

	TriageHealthy  = "Healthy"
	TriageWatch    = "Watch"
	TriageCritical = "Critical"
	TriageSevere   = "Severe"
)

// StatusScore maps a check status onto the score scale used everywhere:
// pass 1.0, warn 0.6, fail 0.0.
func StatusScore(s domain.CheckStatus) float64 {
	switch s {
	case domain.CheckPass:
		return 1.0
	case domain.CheckWarn:
		return 0.6
	default:
		return 0.0
	}
}

// FindingScore is StatusScore extended to cross-domain statuses; na and
// error contribute nothing.
func FindingScore(s domain.FindingStatus) float64 {
	switch s {
	case domain.FindingPass:
		return 1.0
	case domain.FindingWarn:
		return 0.6
	default:
		return 0.0
	}
}

// SeverityWeight grades how much a rule pulls on its domain score.
func SeverityWeight(s domain.RuleSeverity) float64 {
	switch s {
	case domain.SeverityBlock:
		return 1.0
	case domain.SeverityWarn:
		return 0.6
	case domain.SeverityInfo:
		return 0.3
	default:
		return 0.5
	}
}

// DomainScore is the severity weighted mean of rule scores. No rules means a
// clean slate.
func DomainScore(rules []domain.RuleResult) float64 {
	if len(rules) == 0 {
		return 1.0
	}
	var num, den float64
	for _, r := range rules {
		w := SeverityWeight(r.Severity)
		num += w * r.Score
		den += w
	}
	if den == 0 {
		return 1.0
	}
	return num / den
}

// OutcomeLabel derives the headline label for a domain or a whole run.
func OutcomeLabel(hasBlockingFail, hasWarn bool) string {
	switch {
	case hasBlockingFail:
		return LabelBlocked
	case hasWarn:
		return LabelNeedsAttention
	default:
		return LabelAuthentic
	}
}

// DefaultWeights returns the composite index domain weights.
func DefaultWeights() map[domain.Domain]float64 {
	return map[domain.Domain]float64{
		domain.DomainFinance:    0.25,
		domain.DomainOperations: 0.25,
		domain.DomainMarketing:  0.20,
		domain.DomainPeople:     0.15,
		domain.DomainTalent:     0.15,
	}
}

// Combine rolls domain scores up into the fine grained composite index.
// Weights are renormalized over the domains actually present so a partial
// run still lands on the same scale.
func Combine(scores map[domain.Domain]float64, weights map[domain.Domain]float64) domain.CompositeIndex {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}
	idx := domain.CompositeIndex{
		Weights: weights,
		Inputs:  make(map[domain.Domain]float64, len(scores)),
	}
	var num, den float64
	for d, s := range scores {
		idx.Inputs[d] = s
		w, ok := weights[d]
		if !ok {
			continue
		}
		num += w * s
		den += w
	}
	if den > 0 {
		idx.Score = num / den
	}
	idx.Label = HealthLabel(idx.Score)
	return idx
}

// HealthLabel is the fine grained index labeling.
func HealthLabel(score float64) string {
	switch {
	case score >= 0.85:
		return IndexHealthy
	case score >= 0.70:
		return IndexCaution
	default:
		return IndexCritical
	}
}

// Triage rolls domain scores up into the coarse quick-scan index: an
// unweighted mean with a four step label scale.
func Triage(scores map[domain.Domain]float64) domain.TriageIndex {
	if len(scores) == 0 {
		return domain.TriageIndex{Score: 0, Label: TriageSevere}
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	score := sum / float64(len(scores))
	return domain.TriageIndex{Score: score, Label: TriageLabel(score)}
}

// TriageLabel is the coarse index labeling.
func TriageLabel(score float64) string {
	switch {
	case score >= 0.75:
		return TriageHealthy
	case score >= 0.55:
		return TriageWatch
	case score >= 0.40:
		return TriageCritical
	default:
		return TriageSevere
	}
}

// TopRisks returns the n worst rule results: lowest score first, higher
// severity breaking ties.
func TopRisks(reports []domain.DomainReport, n int) []domain.RuleResult {
	var all []domain.RuleResult
	for _, rep := range reports {
		all = append(all, rep.Rules...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score < all[j].Score
		}
		return SeverityWeight(all[i].Severity) > SeverityWeight(all[j].Severity)
	})
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}
