package history

import "context"

// Repository port for persisting and querying analyses
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Record, error)
}
