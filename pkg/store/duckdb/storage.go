package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const RunTableSchema = `
	CREATE TABLE IF NOT EXISTS validation_runs (
		id VARCHAR NOT NULL,
		label VARCHAR,
		index_score DOUBLE,
		index_label VARCHAR,
		triage_score DOUBLE,
		triage_label VARCHAR,
		domain_count INTEGER,
		started_at TIMESTAMP,
		finished_at TIMESTAMP,
		report JSON,
		PRIMARY KEY (id)
	);
`

var bootQueries = []string{
	RunTableSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
