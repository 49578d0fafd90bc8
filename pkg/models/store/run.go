package store

import "time"

// RunRecord is the persisted shape of a validation run. Report holds the
// full JSON document; the scalar columns exist so list queries never have
// to unmarshal it.
type RunRecord struct {
	ID          string
	Label       string
	IndexScore  float64
	IndexLabel  string
	TriageScore float64
	TriageLabel string
	DomainCount int
	StartedAt   time.Time
	FinishedAt  time.Time
	Report      []byte
}
