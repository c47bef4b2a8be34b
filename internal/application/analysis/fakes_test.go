package analysis

import (
	"context"
	"errors"
	"sync"

	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/catalog"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/history"
)

type fakeCatalog struct {
	items []catalog.Item
	err   error
	limit int
}

func (f *fakeCatalog) ActiveItems(ctx context.Context, tenant string, limit int) ([]catalog.Item, error) {
	f.limit = limit
	return f.items, f.err
}

type fakeVision struct {
	text  string
	err   error
	calls []ai.VisionRequest
}

func (f *fakeVision) Analyze(ctx context.Context, req ai.VisionRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.text, f.err
}

type fakeSynth struct {
	ref   string
	err   error
	calls []ai.SynthesisRequest
}

func (f *fakeSynth) Synthesize(ctx context.Context, req ai.SynthesisRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.ref, f.err
}

type storedObject struct {
	Key         string
	Data        []byte
	ContentType string
}

type fakeStore struct {
	mu      sync.Mutex
	objects []storedObject
	err     error
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, storedObject{Key: key, Data: data, ContentType: contentType})
	return "https://storage.example.com/ambientes/" + key, nil
}

type fakeFetcher struct {
	blob ai.Image
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (ai.Image, error) {
	f.urls = append(f.urls, url)
	return f.blob, f.err
}

type fakeHistory struct {
	saved          []*history.Record
	err            error
	page, pageSize int
}

func (f *fakeHistory) Save(ctx context.Context, r *history.Record) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeHistory) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*history.Record, error) {
	f.page, f.pageSize = page, pageSize
	var out []*history.Record
	for _, r := range f.saved {
		if r.TenantID == tenant {
			out = append(out, r)
		}
	}
	return out, f.err
}

type countingMetrics struct {
	started, failed, degraded, produced, unavailable, persistFailed int
}

func (c *countingMetrics) AnalysisStarted()      { c.started++ }
func (c *countingMetrics) AnalysisFailed()       { c.failed++ }
func (c *countingMetrics) ParseDegraded()        { c.degraded++ }
func (c *countingMetrics) ImageProduced()        { c.produced++ }
func (c *countingMetrics) SynthesisUnavailable() { c.unavailable++ }
func (c *countingMetrics) PersistenceFailed()    { c.persistFailed++ }

var errBoom = errors.New("boom")
