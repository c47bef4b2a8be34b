package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/marcenaria-vision/internal/application/analysis"
	domai "github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	domain "github.com/bryanwahyu/marcenaria-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marcenaria-vision/internal/middleware"
)

const maxBodyBytes = 1 << 20

// Options wires the router's collaborators. Only Service is required.
type Options struct {
	Service  *appanalysis.Service
	Log      *zap.Logger
	Checkers map[string]middleware.HealthChecker
	APIKeys  []string
	Limiter  *middleware.RateLimiter
}

type Router struct {
	svc *appanalysis.Service
	log *zap.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{svc: opts.Service, log: log}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.Limiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.Limiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze-environment", r.wrap(r.handleAnalyze))
		rt.Get("/{tenant}/analyses", r.wrap(r.handleHistory))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps pipeline errors to {"error": ...} responses.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, msg := classify(err)
		log := r.log.With(zap.String("request_id", chimw.GetReqID(req.Context())), zap.Error(err))
		if status >= http.StatusInternalServerError {
			log.Error("request failed")
		} else {
			log.Warn("request rejected", zap.Int("status", status))
		}
		writeJSON(w, status, map[string]string{"error": msg})
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domai.ErrRateLimited):
		return http.StatusTooManyRequests, "Limite de requisições excedido. Tente novamente em alguns instantes."
	case errors.Is(err, domai.ErrQuotaExhausted):
		return http.StatusPaymentRequired, "Créditos de IA esgotados. Entre em contato com o suporte."
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, "Serviço de análise não configurado."
	default:
		return http.StatusInternalServerError, "Erro ao analisar o ambiente."
	}
}

// POST /v1/analyze-environment
// Body: {"image_url": "...", "reference_url": "...", "user_id": "...", "preferences": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body domain.Request
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return fmt.Errorf("%w: invalid JSON body", domain.ErrValidation)
	}
	if err := body.Validate(); err != nil {
		return err
	}
	if err := middleware.ValidateURL(body.ImageURL); err != nil {
		return fmt.Errorf("%w: image_url: %v", domain.ErrValidation, err)
	}
	if body.ReferenceURL != "" {
		if err := middleware.ValidateURL(body.ReferenceURL); err != nil {
			return fmt.Errorf("%w: reference_url: %v", domain.ErrValidation, err)
		}
	}
	if err := middleware.ValidateTenantID(body.UserID); err != nil {
		return fmt.Errorf("%w: user_id: %v", domain.ErrValidation, err)
	}
	body.Preferences = middleware.SanitizePreferences(body.Preferences)

	resp, err := r.svc.Analyze(req.Context(), body)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.ListHistory(req.Context(), tenant, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
