package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koinonia-app/koinonia/pkg/composables"
)

// ProvidePool exposes the shared pool to repositories through the request context.
func ProvidePool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pool == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}
