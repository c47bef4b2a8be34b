package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/marcenaria-vision/internal/application"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	domain "github.com/bryanwahyu/marcenaria-vision/internal/domain/analysis"
)

// Persister stores synthesized images in object storage.
type Persister struct {
	Store   domain.ArtifactStore
	Fetcher ai.ImageFetcher
	Clock   application.Clock
	Log     *zap.Logger
	// Timeout bounds download plus upload, 0 means the caller's deadline.
	Timeout time.Duration
}

// Persist stores the image behind ref (data-URL or http(s) URL) under the
// tenant namespace and returns its public URL. Errors wrap domain.ErrPersistence.
func (p *Persister) Persist(ctx context.Context, tenant, ref string) (string, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	data, declared, err := p.resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	ext, contentType := ImageFormat(declared)
	key := ObjectKey(tenant, p.now(), ext)

	url, err := p.Store.Put(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	p.logger().Info("simulated image stored",
		zap.String("tenant", tenant),
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}

func (p *Persister) resolve(ctx context.Context, ref string) ([]byte, string, error) {
	if ai.IsDataURL(ref) {
		return DecodeDataURL(ref)
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return nil, "", errors.New("unsupported image reference")
	}
	if p.Fetcher == nil {
		return nil, "", errors.New("no downloader configured")
	}
	blob, err := p.Fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	return blob.Data, blob.ContentType, nil
}

// DecodeDataURL splits data:<mime>;base64,<payload> and decodes the payload.
func DecodeDataURL(ref string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, "", errors.New("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return nil, "", errors.New("data url without payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", errors.New("data url is not base64 encoded")
	}

	payload = strings.Join(strings.Fields(payload), "")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some providers drop the padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("decode base64 payload: %w", err)
		}
	}
	return data, strings.ToLower(strings.TrimSpace(mime)), nil
}

// ImageFormat picks the object extension and content type for a MIME type.
// Anything unrecognized is stored as png.
func ImageFormat(mime string) (ext, contentType string) {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/webp":
		return "webp", "image/webp"
	case "image/jpeg", "image/jpg":
		return "jpg", "image/jpeg"
	default:
		return "png", "image/png"
	}
}

// ObjectKey builds <tenant>/simulacoes/<unix-millis>-<random>.<ext>.
func ObjectKey(tenant string, now time.Time, ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/simulacoes/%d-%s.%s", tenant, now.UnixMilli(), suffix, ext)
}

func (p *Persister) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock.Now()
}

func (p *Persister) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}
