package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/signal-works/pulse/pkg/models/api"
	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/models/store"
)

// MapValidationReportDomainToStore flattens a report into its persisted
// record. The full document is stored as the API JSON so reads can serve it
// without re-mapping.
func MapValidationReportDomainToStore(r domain.ValidationReport) (store.RunRecord, error) {
	doc, err := json.Marshal(MapValidationReportDomainToApi(r))
	if err != nil {
		return store.RunRecord{}, fmt.Errorf("failed to encode report %s: %w", r.RunID, err)
	}
	return store.RunRecord{
		ID:          r.RunID,
		Label:       r.Label,
		IndexScore:  r.Index.Score,
		IndexLabel:  r.Index.Label,
		TriageScore: r.Triage.Score,
		TriageLabel: r.Triage.Label,
		DomainCount: len(r.Domains),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Report:      doc,
	}, nil
}

func MapRunRecordStoreToApiSummary(rec store.RunRecord) api.RunSummary {
	return api.RunSummary{
		RunId:       rec.ID,
		Label:       rec.Label,
		IndexScore:  rec.IndexScore,
		IndexLabel:  rec.IndexLabel,
		TriageScore: rec.TriageScore,
		TriageLabel: rec.TriageLabel,
		DomainCount: rec.DomainCount,
		StartedAt:   rec.StartedAt,
		FinishedAt:  rec.FinishedAt,
	}
}

// MapRunRecordStoreToApiReport decodes the stored report document.
func MapRunRecordStoreToApiReport(rec store.RunRecord) (api.ValidationReport, error) {
	var report api.ValidationReport
	if err := json.Unmarshal(rec.Report, &report); err != nil {
		return api.ValidationReport{}, fmt.Errorf("failed to decode stored report %s: %w", rec.ID, err)
	}
	return report, nil
}
