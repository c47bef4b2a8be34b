package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/marcenaria-vision/internal/application/analysis"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/history"
	"github.com/bryanwahyu/marcenaria-vision/internal/middleware"
)

type stubVision struct {
	text  string
	err   error
	calls int
}

func (s *stubVision) Analyze(ctx context.Context, req ai.VisionRequest) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubSynth struct{ calls int }

func (s *stubSynth) Synthesize(ctx context.Context, req ai.SynthesisRequest) (string, error) {
	s.calls++
	return "", ai.ErrSynthesisUnavailable
}

type memHistory struct {
	records  []*history.Record
	lastPage int
}

func (m *memHistory) Save(ctx context.Context, r *history.Record) error {
	m.records = append(m.records, r)
	return nil
}

func (m *memHistory) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*history.Record, error) {
	m.lastPage = page
	return m.records, nil
}

const modelAnswer = "```json\n" + `{"analise_ambiente": {"tipo_comodo": "quarto"},
 "sugestoes_moveis": [{"nome": "Guarda-roupa", "tipo": "armario", "item_catalogo_correspondente": null}],
 "valor_total_estimado": 4200}` + "\n```"

func newTestServer(t *testing.T, vision ai.VisionAnalyzer, synth ai.ImageSynthesizer) (*httptest.Server, *memHistory) {
	t.Helper()
	hist := &memHistory{}
	svc := &appanalysis.Service{Vision: vision, Synth: synth, History: hist}
	srv := httptest.NewServer(NewRouter(Options{Service: svc}))
	t.Cleanup(srv.Close)
	return srv, hist
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/v1/analyze-environment", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAnalyzeSuccessShape(t *testing.T) {
	synth := &stubSynth{}
	srv, hist := newTestServer(t, &stubVision{text: modelAnswer}, synth)

	resp, out := post(t, srv.URL, `{"image_url":"https://cdn.example.com/q.jpg","user_id":"tenant-1","preferences":"tons claros"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["success"])
	require.Contains(t, out, "imagem_simulada_url")
	require.Nil(t, out["imagem_simulada_url"])
	require.Equal(t, float64(0), out["catalogo_usado"])
	analise := out["analise"].(map[string]any)
	require.Equal(t, false, analise["erro_parse"])
	require.Equal(t, float64(4200), analise["valor_total_estimado"])
	require.Equal(t, 1, synth.calls)
	require.Len(t, hist.records, 1)
}

func TestAnalyzeRateLimitedMapsTo429(t *testing.T) {
	synth := &stubSynth{}
	srv, _ := newTestServer(t, &stubVision{err: ai.ErrRateLimited}, synth)

	resp, out := post(t, srv.URL, `{"image_url":"https://cdn.example.com/q.jpg","user_id":"tenant-1"}`)

	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, out["error"])
	require.Zero(t, synth.calls)
}

func TestAnalyzeErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		vision ai.VisionAnalyzer
		body   string
		want   int
	}{
		{"quota", &stubVision{err: ai.ErrQuotaExhausted}, `{"image_url":"https://x.example.com/a.jpg","user_id":"u1"}`, http.StatusPaymentRequired},
		{"upstream", &stubVision{err: ai.ErrUpstream}, `{"image_url":"https://x.example.com/a.jpg","user_id":"u1"}`, http.StatusInternalServerError},
		{"missing image", &stubVision{text: modelAnswer}, `{"user_id":"u1"}`, http.StatusBadRequest},
		{"missing user", &stubVision{text: modelAnswer}, `{"image_url":"https://x.example.com/a.jpg"}`, http.StatusBadRequest},
		{"bad json", &stubVision{text: modelAnswer}, `{`, http.StatusBadRequest},
		{"internal url", &stubVision{text: modelAnswer}, `{"image_url":"http://127.0.0.1/a.jpg","user_id":"u1"}`, http.StatusBadRequest},
		{"not configured", nil, `{"image_url":"https://x.example.com/a.jpg","user_id":"u1"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tc.vision, nil)
			resp, out := post(t, srv.URL, tc.body)
			require.Equal(t, tc.want, resp.StatusCode)
			require.NotEmpty(t, out["error"])
		})
	}
}

func TestPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &stubVision{text: modelAnswer}, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/analyze-environment", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "authorization, x-client-info, apikey, content-type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers")), "apikey")
}

func TestHistoryListing(t *testing.T) {
	srv, _ := newTestServer(t, &stubVision{text: modelAnswer}, nil)
	post(t, srv.URL, `{"image_url":"https://cdn.example.com/q.jpg","user_id":"tenant-1"}`)

	resp, err := http.Get(srv.URL + "/v1/tenant-1/analyses?page=1&page_size=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page history.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Equal(t, 5, page.PageSize)
	require.Len(t, page.Data, 1)
	require.Equal(t, "tenant-1", page.Data[0].TenantID)
}

func TestHistoryHugePageIsClamped(t *testing.T) {
	srv, hist := newTestServer(t, &stubVision{text: modelAnswer}, nil)

	resp, err := http.Get(srv.URL + "/v1/tenant-1/analyses?page=" + strconv.Itoa(math.MaxInt) + "&page_size=100000")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page history.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Equal(t, history.MaxPage, page.Page)
	require.Equal(t, history.MaxPageSize, page.PageSize)
	require.Equal(t, history.MaxPage, hist.lastPage)
}

type healthBody struct {
	Status string `json:"status"`
	Checks map[string]struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"checks"`
}

func getHealth(t *testing.T, svc *appanalysis.Service, checkers map[string]middleware.HealthChecker) (int, healthBody) {
	t.Helper()
	srv := httptest.NewServer(NewRouter(Options{Service: svc, Checkers: checkers}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body healthBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthReportsMissingAIKey(t *testing.T) {
	svc := &appanalysis.Service{History: &memHistory{}}
	status, body := getHealth(t, svc, map[string]middleware.HealthChecker{
		"ai": middleware.CheckFunc(svc.CheckAI),
		"db": middleware.CheckFunc(func(context.Context) error { return nil }),
	})

	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "unhealthy", body.Status)
	require.Equal(t, "unhealthy", body.Checks["ai"].Status)
	require.Contains(t, body.Checks["ai"].Message, "AI_API_KEY")
	require.Equal(t, "healthy", body.Checks["db"].Status)
}

func TestHealthAllChecksPass(t *testing.T) {
	svc := &appanalysis.Service{Vision: &stubVision{text: modelAnswer}, History: &memHistory{}}
	status, body := getHealth(t, svc, map[string]middleware.HealthChecker{
		"ai":      middleware.CheckFunc(svc.CheckAI),
		"storage": middleware.CheckFunc(func(context.Context) error { return nil }),
	})

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "healthy", body.Status)
	require.Equal(t, "healthy", body.Checks["ai"].Status)
}

func TestHealthStorageDown(t *testing.T) {
	svc := &appanalysis.Service{Vision: &stubVision{text: modelAnswer}}
	status, body := getHealth(t, svc, map[string]middleware.HealthChecker{
		"ai":      middleware.CheckFunc(svc.CheckAI),
		"storage": middleware.CheckFunc(func(context.Context) error { return errors.New("bucket unreachable") }),
	})

	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "healthy", body.Checks["ai"].Status)
	require.Equal(t, "bucket unreachable", body.Checks["storage"].Message)
}
