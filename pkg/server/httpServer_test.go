package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/pkg/application"
)

type pingController struct{}

func (pingController) Key() string { return "/ping" }

func (pingController) Register(r *mux.Router) {
	r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}).Methods(http.MethodGet)
}

func TestHTTPServer_RoutesThroughMiddleware(t *testing.T) {
	app := application.New(&application.ApplicationOptions{})
	app.RegisterControllers(pingController{})
	app.RegisterMiddleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Seen", "1")
			next.ServeHTTP(w, r)
		})
	})
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := NewHTTPServer(app, notFound, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pong", rec.Body.String())
	require.Equal(t, "1", rec.Header().Get("X-Seen"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Seen"))
}
