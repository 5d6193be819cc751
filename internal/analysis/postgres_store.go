package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists analysis records in PostgreSQL. The pipeline
// output is stored as a JSONB document alongside the indexed decision
// columns.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed analysis store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(rec.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analyses (
			id, account_id, veritas_score, final_score,
			recommendation, proceeded, total_cost_usd, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC(10,2), $8, $9)`,
		rec.ID, nullString(rec.AccountID), rec.VeritasScore, rec.FinalScore,
		rec.Recommendation, rec.Proceeded, rec.TotalCostUSD, payload, rec.CreatedAt,
	)
	if err != nil {
		return err
	}

	// Per-provider audit rows for spend reporting.
	if ext := rec.Analysis; ext != nil && ext.ExternalVerification != nil {
		for _, o := range ext.ExternalVerification.Outcomes {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO provider_calls (
					analysis_id, provider, status, error, cost_usd, duration_ms, created_at
				) VALUES ($1, $2, $3, $4, $5::NUMERIC(10,2), $6, $7)`,
				rec.ID, o.Service, string(o.Status), nullString(o.Error),
				o.Cost.StringFixed(2), o.DurationMS, rec.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

const analysisColumns = `id, account_id, veritas_score, final_score,
		       recommendation, proceeded, total_cost_usd, payload, created_at`

func (p *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrAnalysisNotFound
	}
	return rec, err
}

func (p *PostgresStore) ListByAccount(ctx context.Context, accountID string, limit int, opts ...ListOption) ([]*Record, error) {
	o := applyListOpts(opts)
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	args := []any{accountID, limit}
	if o.cursor != nil {
		query = `
			SELECT ` + analysisColumns + `
			FROM analyses
			WHERE account_id = $1 AND (created_at, id) < ($3, $4)
			ORDER BY created_at DESC, id DESC
			LIMIT $2`
		args = append(args, o.cursor.CreatedAt, o.cursor.ID)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		accountID sql.NullString
		payload   []byte
	)
	err := row.Scan(
		&rec.ID, &accountID, &rec.VeritasScore, &rec.FinalScore,
		&rec.Recommendation, &rec.Proceeded, &rec.TotalCostUSD, &payload, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.AccountID = accountID.String
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &rec.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
