package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"bookingrisk/predictor"
)

// DB keeps an audit trail of served predictions in SQLite. Only the outcome
// and the model that produced it are stored; booking records are never
// written.
type DB struct {
	conn *sql.DB
}

// Prediction is one row of the history.
type Prediction struct {
	ID           int64     `json:"id"`
	Label        int       `json:"label"`
	Verdict      string    `json:"verdict"`
	Risk         string    `json:"risk"`
	ModelType    string    `json:"model_type"`
	ModelVersion string    `json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer at a time
	conn.SetMaxOpenConns(1)

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        label INTEGER NOT NULL,
        verdict TEXT NOT NULL,
        risk TEXT NOT NULL,
        model_type TEXT NOT NULL,
        model_version TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `
	if _, err := conn.Exec(query); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// RecordPrediction implements predictor.Recorder.
func (d *DB) RecordPrediction(ctx context.Context, ev predictor.Event) error {
	_, err := d.conn.ExecContext(ctx, `
        INSERT INTO predictions (label, verdict, risk, model_type, model_version, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Verdict.Label, ev.Verdict.Verdict, string(ev.Verdict.Risk),
		ev.Model.Type, ev.Model.Version, ev.At.UTC())
	return err
}

// RecentPredictions returns up to limit rows, newest first.
func (d *DB) RecentPredictions(ctx context.Context, limit int) ([]Prediction, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	rows, err := d.conn.QueryContext(ctx, `
        SELECT id, label, verdict, risk, model_type, model_version, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]Prediction, 0)
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.ID, &p.Label, &p.Verdict, &p.Risk, &p.ModelType, &p.ModelVersion, &p.CreatedAt); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// CountByRisk summarises the history per risk level.
func (d *DB) CountByRisk(ctx context.Context) (map[string]int, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT risk, COUNT(*) FROM predictions GROUP BY risk`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			risk string
			n    int
		)
		if err := rows.Scan(&risk, &n); err != nil {
			return nil, err
		}
		counts[risk] = n
	}
	return counts, rows.Err()
}

func (d *DB) Close() error {
	return d.conn.Close()
}
