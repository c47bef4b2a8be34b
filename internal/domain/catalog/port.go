package catalog

import "context"

// Repository port (read-only access to the product catalog)
type Repository interface {
	ActiveItems(ctx context.Context, tenant string, limit int) ([]Item, error)
}
