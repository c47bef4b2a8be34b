package mysql

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/marcenaria-vision/internal/domain/catalog"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ActiveItems returns the tenant's active catalog rows ordered by name
func (r *CatalogRepository) ActiveItems(ctx context.Context, tenant string, limit int) ([]domain.Item, error) {
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	const q = `
SELECT id, name, category, base_price, description
FROM catalog_items
WHERE user_id=? AND active=1
ORDER BY name
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		var (
			it          domain.Item
			category    sql.NullString
			price       sql.NullFloat64
			description sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.Name, &category, &price, &description); err != nil {
			return nil, err
		}
		it.Category = category.String
		it.BasePrice = price.Float64
		it.Description = description.String
		out = append(out, it)
	}
	return out, rows.Err()
}
