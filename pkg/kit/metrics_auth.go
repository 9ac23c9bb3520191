package kit

import (
	"net/http"
	"strings"
)

// MetricsAuth admits requests carrying a valid scrape token. A nil tokens
// value rejects everything.
func MetricsAuth(tokens *ScrapeTokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				WriteError(w, r, http.StatusForbidden, "forbidden", nil)
				return
			}

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				WriteError(w, r, http.StatusForbidden, "forbidden", nil)
				return
			}
			if _, err := tokens.Verify(strings.TrimPrefix(authz, "Bearer ")); err != nil {
				WriteError(w, r, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
