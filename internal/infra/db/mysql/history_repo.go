package mysql

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

// Save inserts an analysis record
func (r *HistoryRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO environment_analyses
  (id, user_id, image_url, reference_url, result_json, simulated_image_url, parse_failed, catalog_used, created_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  result_json=VALUES(result_json), simulated_image_url=VALUES(simulated_image_url), parse_failed=VALUES(parse_failed);
`
	tenant := stringOrDash(a.TenantID)
	imageURL := stringOrDash(a.ImageURL)
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		a.ID, tenant, imageURL, nullIfEmpty(a.ReferenceURL), resultOrEmpty(a.Result),
		nullIfEmpty(a.SimulatedImageURL), a.ParseFailed, a.CatalogUsed, createdAt,
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
WHERE user_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		a, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanRecord(rows *sql.Rows) (*domain.Record, error) {
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
	return &a, nil
}
