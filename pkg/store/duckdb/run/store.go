package run

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/signal-works/pulse/pkg/models/store"
	"github.com/signal-works/pulse/pkg/store/duckdb"
)

// ErrNotFound reports a run id the store has never seen. Handlers translate
// it to a 404 instead of a 500.
var ErrNotFound = errors.New("run not found")

// Store persists validation runs in DuckDB. Add joins an ambient transaction
// when the context carries one.
type Store interface {
	Add(ctx context.Context, rec store.RunRecord) error
	Get(ctx context.Context, id string) (store.RunRecord, error)
	List(ctx context.Context, limit int) ([]store.RunRecord, error)
}

type runStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &runStore{db: db}, nil
}

func (s *runStore) Add(ctx context.Context, rec store.RunRecord) error {
	tx := duckdb.GetTransaction(ctx)
	query := `
		INSERT INTO validation_runs (
			id, label, index_score, index_label, triage_score, triage_label,
			domain_count, started_at, finished_at, report
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`

	var stmt *sql.Stmt
	var err error
	if tx == nil {
		stmt, err = s.db.PrepareContext(ctx, query)
	} else {
		stmt, err = tx.PrepareContext(ctx, query)
	}

	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		rec.ID,
		rec.Label,
		rec.IndexScore,
		rec.IndexLabel,
		rec.TriageScore,
		rec.TriageLabel,
		rec.DomainCount,
		rec.StartedAt,
		rec.FinishedAt,
		string(rec.Report),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

func (s *runStore) Get(ctx context.Context, id string) (store.RunRecord, error) {
	query := `
		SELECT id, label, index_score, index_label, triage_score, triage_label,
			domain_count, started_at, finished_at, report
		FROM validation_runs
		WHERE id = ?
	`
	rec, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return store.RunRecord{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return store.RunRecord{}, fmt.Errorf("query run: %w", err)
	}
	return rec, nil
}

func (s *runStore) List(ctx context.Context, limit int) ([]store.RunRecord, error) {
	query := `
		SELECT id, label, index_score, index_label, triage_score, triage_label,
			domain_count, started_at, finished_at, report
		FROM validation_runs
		ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	records := make([]store.RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (store.RunRecord, error) {
	var (
		rec    store.RunRecord
		label  sql.NullString
		report sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&label,
		&rec.IndexScore,
		&rec.IndexLabel,
		&rec.TriageScore,
		&rec.TriageLabel,
		&rec.DomainCount,
		&rec.StartedAt,
		&rec.FinishedAt,
		&report,
	)
	if err != nil {
		return store.RunRecord{}, err
	}
	rec.Label = label.String
	if report.Valid {
		rec.Report = []byte(report.String)
	}
	return rec, nil
}
