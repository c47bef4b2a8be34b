package analysis

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/marcenaria-vision/internal/application"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	domain "github.com/bryanwahyu/marcenaria-vision/internal/domain/analysis"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestPersistDataURLWebp(t *testing.T) {
	store := &fakeStore{}
	p := &Persister{Store: store, Clock: application.FixedClock{T: fixedNow}}

	url, err := p.Persist(context.Background(), "tenant-1", "data:image/webp;base64,UklGRg==")

	require.NoError(t, err)
	require.Len(t, store.objects, 1)
	obj := store.objects[0]
	require.Regexp(t, regexp.MustCompile(`^tenant-1/simulacoes/\d+-[0-9a-f]{8}\.webp$`), obj.Key)
	require.Equal(t, "image/webp", obj.ContentType)
	require.Equal(t, []byte("RIFF"), obj.Data)
	require.Equal(t, "https://storage.example.com/ambientes/"+obj.Key, url)
}

func TestPersistDataURLUnknownSubtypeDefaultsToPNG(t *testing.T) {
	store := &fakeStore{}
	p := &Persister{Store: store}

	_, err := p.Persist(context.Background(), "t", "data:image/heic;base64,QUJD")

	require.NoError(t, err)
	require.Regexp(t, `\.png$`, store.objects[0].Key)
	require.Equal(t, "image/png", store.objects[0].ContentType)
}

func TestPersistRemoteURLUsesHeaderType(t *testing.T) {
	store := &fakeStore{}
	fetcher := &fakeFetcher{blob: ai.Image{Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg"}}
	p := &Persister{Store: store, Fetcher: fetcher}

	_, err := p.Persist(context.Background(), "t", "https://cdn.example.com/out.jpg")

	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn.example.com/out.jpg"}, fetcher.urls)
	require.Regexp(t, `\.jpg$`, store.objects[0].Key)
	require.Equal(t, "image/jpeg", store.objects[0].ContentType)
}

func TestPersistRemoteURLWithoutHeaderDefaultsToPNG(t *testing.T) {
	store := &fakeStore{}
	p := &Persister{Store: store, Fetcher: &fakeFetcher{blob: ai.Image{Data: []byte("x")}}}

	_, err := p.Persist(context.Background(), "t", "https://cdn.example.com/out")

	require.NoError(t, err)
	require.Equal(t, "image/png", store.objects[0].ContentType)
}

func TestPersistFailuresWrapPersistenceError(t *testing.T) {
	p := &Persister{Store: &fakeStore{}, Fetcher: &fakeFetcher{err: errBoom}}
	_, err := p.Persist(context.Background(), "t", "https://cdn.example.com/out.png")
	require.ErrorIs(t, err, domain.ErrPersistence)

	p = &Persister{Store: &fakeStore{err: errBoom}}
	_, err = p.Persist(context.Background(), "t", "data:image/png;base64,QUJD")
	require.ErrorIs(t, err, domain.ErrPersistence)

	_, err = p.Persist(context.Background(), "t", "data:image/png;base64,%%%")
	require.ErrorIs(t, err, domain.ErrPersistence)
}

type stallingStore struct{}

func (stallingStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestPersistTimeoutBoundsUpload(t *testing.T) {
	p := &Persister{Store: stallingStore{}, Timeout: 20 * time.Millisecond}

	start := time.Now()
	_, err := p.Persist(context.Background(), "t", "data:image/png;base64,QUJD")

	require.ErrorIs(t, err, domain.ErrPersistence)
	require.Contains(t, err.Error(), "deadline exceeded")
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestDecodeDataURL(t *testing.T) {
	data, mime, err := DecodeDataURL("data:image/PNG;base64,QUJD")
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
	require.Equal(t, []byte("ABC"), data)

	data, _, err = DecodeDataURL("data:image/png;base64,QUI")
	require.NoError(t, err)
	require.Equal(t, []byte("AB"), data)

	_, _, err = DecodeDataURL("data:image/png,plain")
	require.Error(t, err)
}

func TestObjectKeysAreUnique(t *testing.T) {
	a := ObjectKey("t", fixedNow, "png")
	b := ObjectKey("t", fixedNow, "png")
	require.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "t/simulacoes/"))
}
