package adapters

import (
	"github.com/signal-works/pulse/pkg/models/api"
	"github.com/signal-works/pulse/pkg/models/domain"
)

func MapSeverityDomainToApi(s domain.RuleSeverity) api.Severity {
	switch s {
	case domain.SeverityBlock:
		return api.SeverityBlock
	case domain.SeverityWarn:
		return api.SeverityWarn
	default:
		return api.SeverityInfo
	}
}

func MapCheckResultDomainToApi(c domain.CheckResult) api.CheckResult {
	return api.CheckResult{
		Kind:    c.Kind,
		Table:   c.Table,
		Status:  string(c.Status),
		Score:   c.Score,
		Note:    c.Note,
		Missing: c.Missing,
		Details: c.Details,
	}
}

func MapRuleResultDomainToApi(r domain.RuleResult) api.RuleResult {
	res := api.RuleResult{
		RuleId:   r.RuleID,
		Domain:   string(r.Domain),
		Title:    r.Title,
		Severity: MapSeverityDomainToApi(r.Severity),
		Status:   string(r.Status),
		Score:    r.Score,
		Checks:   make([]api.CheckResult, 0, len(r.Checks)),
		Findings: r.Findings,
	}
	for _, c := range r.Checks {
		res.Checks = append(res.Checks, MapCheckResultDomainToApi(c))
	}
	return res
}

func MapDomainReportDomainToApi(r domain.DomainReport) api.DomainReport {
	res := api.DomainReport{
		Domain: string(r.Domain),
		Score:  r.Score,
		Label:  r.Label,
		Rules:  make([]api.RuleResult, 0, len(r.Rules)),
		Counts: api.StatusCounts{
			Pass: r.Counts.Pass,
			Warn: r.Counts.Warn,
			Fail: r.Counts.Fail,
		},
		Error: r.Err,
	}
	for _, rule := range r.Rules {
		res.Rules = append(res.Rules, MapRuleResultDomainToApi(rule))
	}
	return res
}

func MapCrossFindingDomainToApi(f domain.CrossFinding) api.CrossFinding {
	domains := make([]string, 0, len(f.Domains))
	for _, d := range f.Domains {
		domains = append(domains, string(d))
	}
	return api.CrossFinding{
		RuleId:   f.RuleID,
		Title:    f.Title,
		Severity: MapSeverityDomainToApi(f.Severity),
		Domains:  domains,
		Status:   string(f.Status),
		Score:    f.Score,
		Detail:   f.Detail,
	}
}

func MapCompositeIndexDomainToApi(idx domain.CompositeIndex) api.CompositeIndex {
	res := api.CompositeIndex{
		Score:   idx.Score,
		Label:   idx.Label,
		Weights: make(map[string]float64, len(idx.Weights)),
		Inputs:  make(map[string]float64, len(idx.Inputs)),
	}
	for d, w := range idx.Weights {
		res.Weights[string(d)] = w
	}
	for d, s := range idx.Inputs {
		res.Inputs[string(d)] = s
	}
	return res
}

func MapRealitySignalDomainToApi(s domain.RealitySignal) api.RealitySignal {
	return api.RealitySignal{
		Id:         s.ID,
		Domain:     string(s.Domain),
		Title:      s.Title,
		Severity:   string(s.Severity),
		Confidence: string(s.Confidence),
		Horizon:    s.Horizon,
		Statement:  s.Statement,
		Tags:       s.Tags,
	}
}

func MapDomainFeasibilityDomainToApi(f domain.DomainFeasibility) api.DomainFeasibility {
	res := api.DomainFeasibility{
		Domain:      string(f.Domain),
		Flag:        string(f.Flag),
		WarnCount:   f.WarnCount,
		FailCount:   f.FailCount,
		SignalCount: f.SignalCount,
		MaxSeverity: string(f.MaxSeverity),
		Message:     f.Message,
	}
	for _, s := range f.Evidence {
		res.Evidence = append(res.Evidence, MapRealitySignalDomainToApi(s))
	}
	return res
}

func MapRealityOverlayDomainToApi(o domain.RealityOverlay) api.RealityOverlay {
	res := api.RealityOverlay{
		Flags: make(map[string]api.DomainFeasibility, len(o.Flags)),
		Note:  o.Note,
	}
	for d, f := range o.Flags {
		res.Flags[string(d)] = MapDomainFeasibilityDomainToApi(f)
	}
	return res
}

func MapValidationReportDomainToApi(r domain.ValidationReport) api.ValidationReport {
	res := api.ValidationReport{
		RunId:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Label:      r.Label,
		Domains:    make([]api.DomainReport, 0, len(r.Domains)),
		Cross:      make([]api.CrossFinding, 0, len(r.Cross)),
		Index:      MapCompositeIndexDomainToApi(r.Index),
		Triage: api.TriageIndex{
			Score: r.Triage.Score,
			Label: r.Triage.Label,
		},
		Reality: MapRealityOverlayDomainToApi(r.Reality),
	}
	for _, d := range r.Domains {
		res.Domains = append(res.Domains, MapDomainReportDomainToApi(d))
	}
	for _, f := range r.Cross {
		res.Cross = append(res.Cross, MapCrossFindingDomainToApi(f))
	}
	for _, risk := range r.TopRisks {
		res.TopRisks = append(res.TopRisks, MapRuleResultDomainToApi(risk))
	}
	return res
}
