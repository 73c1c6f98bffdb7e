package middleware

import (
	"context"
	"net/http"

	"eddp/analizador_cfdi/internal/infrastructure/config"
)

// RequestTimeout bounds each request's context by the configured write
// timeout. Scan starts return immediately, so the bound only affects the
// synchronous part of each handler.
func RequestTimeout(cfg config.HTTPSettings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.WriteTimeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
