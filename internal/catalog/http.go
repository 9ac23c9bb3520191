package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"KLife/pkg/kit"
)

const readyTimeout = 1 * time.Second

type Server struct {
	Store Store
	Log   *zap.Logger
}

// Routes mounts the probes and the product API. apiMW wraps /api only.
func (s *Server) Routes(apiMW ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Route("/api", func(ar chi.Router) {
		ar.Use(apiMW...)
		ar.Get("/products", s.products)
	})

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		if s.Log != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	resp, err := BuildProductResponse(r.Context(), s.Store, id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("product lookup failed", zap.Error(err), zap.String("id", id))
		}
		kit.WriteJSON(w, http.StatusInternalServerError, Envelope{Error: InternalErrorMessage})
		return
	}

	if resp.Status == http.StatusOK {
		w.Header().Set("Cache-Control", CacheControl)
	} else if s.Log != nil {
		s.Log.Debug("product not found", zap.String("id", id))
	}
	kit.WriteJSON(w, resp.Status, resp.Body)
}
