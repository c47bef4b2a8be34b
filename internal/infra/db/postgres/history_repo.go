package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/marcenaria-vision/internal/domain/history"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Save inserts or updates an analysis record
func (r *HistoryRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO environment_analyses
  (id, user_id, image_url, reference_url, result_json, simulated_image_url, parse_failed, catalog_used, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  result_json=EXCLUDED.result_json,
  simulated_image_url=EXCLUDED.simulated_image_url,
  parse_failed=EXCLUDED.parse_failed;
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.TenantID), stringOrDash(a.ImageURL), nullIfEmpty(a.ReferenceURL),
		resultOrEmpty(a.Result), nullIfEmpty(a.SimulatedImageURL), a.ParseFailed, a.CatalogUsed, createdAt,
	)
	return err
}

// Paginate returns a page of analyses ordered by created_at desc
func (r *HistoryRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, user_id, image_url, reference_url, result_json, simulated_image_url, parse_failed, catalog_used, created_at
FROM environment_analyses
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var (
			a          domain.Record
			reference  sql.NullString
			simulated  sql.NullString
			resultJSON []byte
		)
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ImageURL, &reference, &resultJSON,
			&simulated, &a.ParseFailed, &a.CatalogUsed, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ReferenceURL = reference.String
		a.SimulatedImageURL = simulated.String
		a.Result = resultJSON
		out = append(out, &a)
	}
	return out, rows.Err()
}
