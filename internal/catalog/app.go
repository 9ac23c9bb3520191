package catalog

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"KLife/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	ScrapeTokens   *kit.ScrapeTokens

	CORSOrigins []string
	RateLimiter *kit.IPRateLimiter
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, s, deps)

	var apiMW []func(http.Handler) http.Handler
	if deps.RateLimiter != nil {
		apiMW = append(apiMW, deps.RateLimiter.Middleware)
	}

	r.Mount("/", s.Routes(apiMW...))
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(kit.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(deps.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", kit.RequestIDHeader},
		ExposedHeaders: []string{kit.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.GetHead)
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func setupMetrics(r *chi.Mux, s *Server, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePattern))

	registerCatalogSize(deps.Registry, s.Store, deps.Log)

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.ScrapeTokens)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

// registerCatalogSize exports the product count once; the table is fixed
// for the life of the process.
func registerCatalogSize(reg prometheus.Registerer, store Store, log *zap.Logger) {
	products, err := store.List(context.Background())
	if err != nil {
		log.Warn("catalog size metric unavailable", zap.Error(err))
		return
	}

	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "klife",
		Name:      "catalog_products",
		Help:      "Number of products in the loaded catalog",
	})
	g.Set(float64(len(products)))
	reg.MustRegister(g)
}
