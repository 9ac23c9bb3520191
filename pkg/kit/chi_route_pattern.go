package kit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests that hit no route, so arbitrary paths
// cannot blow up metric cardinality.
const unmatchedRoute = "unmatched"

func ChiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if rp := rctx.RoutePattern(); rp != "" {
		return rp
	}
	return unmatchedRoute
}
