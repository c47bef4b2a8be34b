package analysis

import "context"

// ArtifactStore port (durable object storage with public URLs)
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
