package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIKeyAuth(t *testing.T) {
	var seen string
	h := APIKeyAuth([]string{"k1", "k2"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAPIKeyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header map[string]string
		path   string
		want   int
		key    string
	}{
		{name: "bearer", header: map[string]string{"Authorization": "Bearer k2"}, path: "/v1/analyze-environment", want: 200, key: "k2"},
		{name: "apikey header", header: map[string]string{"apikey": "k1"}, path: "/v1/analyze-environment", want: 200, key: "k1"},
		{name: "missing", path: "/v1/analyze-environment", want: 401},
		{name: "wrong", header: map[string]string{"Authorization": "Bearer nope"}, path: "/v1/analyze-environment", want: 401},
		{name: "liveness", path: "/healthz", want: 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPost, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
			require.Equal(t, tc.key, seen)
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	h := APIKeyAuth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyze-environment", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
}
