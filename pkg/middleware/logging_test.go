package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/pkg/composables"
)

func TestWithLogger_EchoesRequestIDAndProvidesLogger(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var sawLogger bool
	h := WithLogger(logger, "X-Request-ID")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := composables.UseLogger(r.Context())
		sawLogger = entry.Data["request-id"] == "req-1"
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/attendance/api/scope", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, sawLogger)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestWithLogger_RecoversPanics(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := WithLogger(logger, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}
