package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newCorsHandler() http.Handler {
	return Cors([]string{"http://localhost:3000"}, "X-Tenant-ID", "X-Actor-ID")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func preflight(origin, requestHeaders string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, "/attendance/api/summary", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", requestHeaders)
	return req
}

func TestCors_AnswersPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newCorsHandler().ServeHTTP(rec, preflight("http://localhost:3000", "x-actor-id,x-tenant-id"))
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_RejectsUnknownOrigin(t *testing.T) {
	rec := httptest.NewRecorder()
	newCorsHandler().ServeHTTP(rec, preflight("http://evil.example", "x-tenant-id"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
