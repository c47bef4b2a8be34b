package ai

import (
	"context"
	"encoding/base64"
	"strings"
)

// Image is a downloaded picture. ContentType is the best known media type,
// "" when neither the server nor the bytes tell.
type Image struct {
	Data        []byte
	ContentType string
}

// DataURL re-encodes the payload as data:<type>;base64,<payload>.
func (i Image) DataURL() string {
	ct := i.ContentType
	if ct == "" {
		ct = "image/png"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// IsDataURL reports whether ref is an inline base64 image.
func IsDataURL(ref string) bool {
	return strings.HasPrefix(ref, "data:image/")
}

// ImageFetcher downloads remote images.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (Image, error)
}
