package kit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err, "generated id %q", seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, strings.Repeat("x", maxRequestIDLen+1), seen)
}

func TestMetricsMiddleware_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware("test", ChiRoutePattern))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, p := range []string{"/items/1", "/items/2", "/random/path"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("test", "GET", "/items/{id}", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("test", "GET", unmatchedRoute, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestLogging_DoesNotAlterResponse(t *testing.T) {
	h := Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("hi"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "hi", w.Body.String())
}

func TestNewLogger_FallsBackOnBadLevel(t *testing.T) {
	l := NewLogger("test", "shouting")
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))

	l = NewLogger("test", "debug")
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestMetricsAuth(t *testing.T) {
	tokens := NewScrapeTokens(testSecret)
	tok, err := tokens.New("prometheus", time.Minute)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		tokens *ScrapeTokens
		authz  string
		want   int
	}{
		{"no tokens configured", nil, "Bearer " + tok, http.StatusForbidden},
		{"missing header", tokens, "", http.StatusForbidden},
		{"basic auth", tokens, "Basic Zm9vOmJhcg==", http.StatusForbidden},
		{"invalid token", tokens, "Bearer nope", http.StatusForbidden},
		{"valid token", tokens, "Bearer " + tok, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.authz != "" {
				req.Header.Set("Authorization", tc.authz)
			}
			w := httptest.NewRecorder()
			MetricsAuth(tc.tokens)(ok).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
