package reality

import (
	"sort"

	"github.com/signal-works/pulse/pkg/models/domain"
)

const (
	msgOK      = "No major feasibility flags."
	msgFlagged = "Feasibility risk flagged based on internal findings and/or reality constraints."

	evidenceLimit = 3
)

// BuildOverlay folds per-domain rule outcomes and curated signals into one
// feasibility flag per domain. The overlay annotates the report; it never
// alters scores or labels. Every canonical domain gets a flag even when it
// contributed neither findings nor signals.
func BuildOverlay(reports []domain.DomainReport, signals []domain.RealitySignal) domain.RealityOverlay {
	counts := make(map[domain.Domain]domain.StatusCounts, len(reports))
	for _, r := range reports {
		counts[r.Domain] = r.Counts
	}

	byDomain := make(map[domain.Domain][]domain.RealitySignal)
	for _, s := range signals {
		byDomain[s.Domain] = append(byDomain[s.Domain], s)
	}

	flags := make(map[domain.Domain]domain.DomainFeasibility, len(domain.Domains()))
	for _, d := range domain.Domains() {
		ct := counts[d]
		sigs := byDomain[d]

		maxRank := 0
		var maxSev domain.SignalSeverity
		for _, s := range sigs {
			if r := s.Severity.Rank(); r > maxRank {
				maxRank, maxSev = r, s.Severity
			}
		}

		flag := flagFor(ct.Fail, ct.Warn, maxRank)
		msg := msgOK
		if flag != domain.FeasibilityOK {
			msg = msgFlagged
		}

		flags[d] = domain.DomainFeasibility{
			Domain:      d,
			Flag:        flag,
			WarnCount:   ct.Warn,
			FailCount:   ct.Fail,
			SignalCount: len(sigs),
			MaxSeverity: maxSev,
			Evidence:    topEvidence(sigs),
			Message:     msg,
		}
	}

	return domain.RealityOverlay{Flags: flags, Signals: signals}
}

// flagFor escalates feasibility risk: internal failures or critical signals
// dominate, then repeated warns or high signals, then a single warn or a
// medium signal.
func flagFor(failCt, warnCt, maxRank int) domain.FeasibilityFlag {
	switch {
	case failCt >= 1 || maxRank >= domain.SignalCritical.Rank():
		return domain.FeasibilityRiskHigh
	case warnCt >= 2 || maxRank >= domain.SignalHigh.Rank():
		return domain.FeasibilityRiskMedium
	case warnCt == 1 || maxRank == domain.SignalMedium.Rank():
		return domain.FeasibilityRiskLow
	default:
		return domain.FeasibilityOK
	}
}

// topEvidence keeps the strongest few signals, by severity then confidence;
// load order breaks remaining ties.
func topEvidence(sigs []domain.RealitySignal) []domain.RealitySignal {
	if len(sigs) == 0 {
		return nil
	}
	out := make([]domain.RealitySignal, len(sigs))
	copy(out, sigs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		return out[i].Confidence.Rank() > out[j].Confidence.Rank()
	})
	if len(out) > evidenceLimit {
		out = out[:evidenceLimit]
	}
	return out
}
