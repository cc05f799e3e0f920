package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Cors allows browser clients on the given origins to call the JSON API with the identity headers.
func Cors(allowedOrigins []string, allowedHeaders ...string) mux.MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: append([]string{"Content-Type"}, allowedHeaders...),
		ExposedHeaders: []string{"X-Trace-Id"},
	})
	return c.Handler
}
