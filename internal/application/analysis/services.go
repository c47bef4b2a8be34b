package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/marcenaria-vision/internal/application"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	domain "github.com/bryanwahyu/marcenaria-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/catalog"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/history"
)

// Service runs the environment analysis pipeline.
// It only holds immutable collaborators and is safe for concurrent use.
type Service struct {
	Catalog   catalog.Repository
	Vision    ai.VisionAnalyzer
	Synth     ai.ImageSynthesizer
	Persister *Persister
	History   history.Repository
	Clock     application.Clock
	Metrics   Metrics
	Log       *zap.Logger

	CatalogLimit int
}

// repoTimeout bounds each catalog or history query.
const repoTimeout = 5 * time.Second

// Metrics receives pipeline outcomes.
type Metrics interface {
	AnalysisStarted()
	AnalysisFailed()
	ParseDegraded()
	ImageProduced()
	SynthesisUnavailable()
	PersistenceFailed()
}

// Response is what the endpoint returns on success.
type Response struct {
	Success           bool          `json:"success"`
	Analysis          domain.Result `json:"analise"`
	SimulatedImageURL *string       `json:"imagem_simulada_url"`
	CatalogUsed       int           `json:"catalogo_usado"`
}

// Analyze runs compose → analyze → extract → describe → synthesize → persist.
// Only validation, configuration and analysis-call failures are returned;
// everything after extraction degrades to a nil image.
func (s *Service) Analyze(ctx context.Context, req domain.Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.Vision == nil {
		return nil, fmt.Errorf("%w: vision analyzer missing (AI_API_KEY not set?)", domain.ErrConfiguration)
	}
	m := s.metrics()
	m.AnalysisStarted()
	log := s.logger().With(zap.String("tenant", req.UserID))

	items := s.loadCatalog(ctx, req.UserID, log)

	text, err := s.Vision.Analyze(ctx, ai.VisionRequest{
		SystemPrompt: domain.SystemPrompt(items),
		UserPrompt:   domain.UserPrompt(req.Preferences),
		ImageURL:     req.ImageURL,
		ReferenceURL: req.ReferenceURL,
	})
	if err != nil {
		m.AnalysisFailed()
		return nil, fmt.Errorf("analyze environment: %w", err)
	}

	result := domain.Extract(text)
	if result.ParseFailed {
		m.ParseDegraded()
		log.Warn("analysis returned in raw text mode", zap.Error(domain.ErrParseDegraded), zap.Int("text_len", len(text)))
	} else {
		checkTotal(result, log)
	}

	var imageURL *string
	if url := s.visualize(ctx, req, result, log); url != "" {
		imageURL = &url
	}

	resp := &Response{
		Success:           true,
		Analysis:          result,
		SimulatedImageURL: imageURL,
		CatalogUsed:       len(items),
	}
	s.record(ctx, req, resp, log)
	return resp, nil
}

func (s *Service) loadCatalog(ctx context.Context, tenant string, log *zap.Logger) []catalog.Item {
	if s.Catalog == nil {
		return nil
	}
	limit := s.CatalogLimit
	if limit <= 0 {
		limit = catalog.DefaultLimit
	}
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()
	items, err := s.Catalog.ActiveItems(ctx, tenant, limit)
	if err != nil {
		log.Error("catalog load failed, continuing without catalog", zap.Error(err))
		return nil
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// visualize is best-effort: every failure is logged and yields "".
func (s *Service) visualize(ctx context.Context, req domain.Request, result domain.Result, log *zap.Logger) string {
	if result.ParseFailed || len(result.Suggestions) == 0 || s.Synth == nil {
		return ""
	}
	m := s.metrics()

	instruction := domain.SynthesisInstruction(result.RoomType(), domain.DescribeFurniture(result.Suggestions), req.ReferenceURL != "")
	ref, err := s.Synth.Synthesize(ctx, ai.SynthesisRequest{
		Instruction:  instruction,
		ImageURL:     req.ImageURL,
		ReferenceURL: req.ReferenceURL,
	})
	if err != nil || ref == "" {
		if err == nil {
			err = ai.ErrSynthesisUnavailable
		}
		m.SynthesisUnavailable()
		log.Warn("no simulated image", zap.Error(err))
		return ""
	}

	if s.Persister == nil {
		m.PersistenceFailed()
		log.Warn("no simulated image", zap.Error(fmt.Errorf("%w: storage not configured", domain.ErrPersistence)))
		return ""
	}
	url, err := s.Persister.Persist(ctx, req.UserID, ref)
	if err != nil {
		m.PersistenceFailed()
		log.Error("no simulated image", zap.Error(err))
		return ""
	}
	m.ImageProduced()
	return url
}

func (s *Service) record(ctx context.Context, req domain.Request, resp *Response, log *zap.Logger) {
	if s.History == nil {
		return
	}
	raw, err := json.Marshal(resp.Analysis)
	if err != nil {
		log.Warn("history marshal failed", zap.Error(err))
		return
	}
	rec := &history.Record{
		ID:           history.RecordID(uuid.NewString()),
		TenantID:     req.UserID,
		ImageURL:     req.ImageURL,
		ReferenceURL: req.ReferenceURL,
		Result:       raw,
		ParseFailed:  resp.Analysis.ParseFailed,
		CatalogUsed:  resp.CatalogUsed,
		CreatedAt:    s.now(),
	}
	if resp.SimulatedImageURL != nil {
		rec.SimulatedImageURL = *resp.SimulatedImageURL
	}
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()
	if err := s.History.Save(ctx, rec); err != nil {
		log.Warn("history save failed", zap.Error(err))
	}
}

// CheckAI reports whether the vision model is wired. Used by /health.
func (s *Service) CheckAI(ctx context.Context) error {
	if s.Vision == nil {
		return fmt.Errorf("%w: AI_API_KEY not set", domain.ErrConfiguration)
	}
	return nil
}

// ListHistory returns a page of past analyses for a tenant.
func (s *Service) ListHistory(ctx context.Context, tenant string, page, pageSize int) (*history.Page, error) {
	if s.History == nil {
		return nil, fmt.Errorf("%w: history store missing", domain.ErrConfiguration)
	}
	page = min(max(page, 1), history.MaxPage)
	if pageSize <= 0 {
		pageSize = history.DefaultPageSize
	}
	pageSize = min(pageSize, history.MaxPageSize)
	list, err := s.History.Paginate(ctx, tenant, page, pageSize)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*history.Record{}
	}
	return &history.Page{Data: list, Page: page, PageSize: pageSize}, nil
}

// checkTotal only logs: the model's total is passed through untouched.
func checkTotal(r domain.Result, log *zap.Logger) {
	if r.TotalEstimatedValue == nil {
		return
	}
	sum, ok := r.SuggestionsTotal()
	if ok && math.Abs(sum-*r.TotalEstimatedValue) > 0.01 {
		log.Debug("model total differs from item sum",
			zap.Float64("total", *r.TotalEstimatedValue),
			zap.Float64("items_sum", sum),
		)
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) metrics() Metrics {
	if s.Metrics == nil {
		return nopMetrics{}
	}
	return s.Metrics
}

type nopMetrics struct{}

func (nopMetrics) AnalysisStarted()      {}
func (nopMetrics) AnalysisFailed()       {}
func (nopMetrics) ParseDegraded()        {}
func (nopMetrics) ImageProduced()        {}
func (nopMetrics) SynthesisUnavailable() {}
func (nopMetrics) PersistenceFailed()    {}
