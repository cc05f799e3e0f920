package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/koinonia-app/koinonia/pkg/composables"
	"github.com/koinonia-app/koinonia/pkg/httpapi"
)

var tracer = otel.Tracer("koinonia-middleware")

type responseCaptureWriter struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
}

func (w *responseCaptureWriter) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *responseCaptureWriter) Write(b []byte) (int, error) {
	if !w.statusWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Status returns the HTTP status code
func (w *responseCaptureWriter) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *responseCaptureWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func getRequestID(r *http.Request, header string) string {
	if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
		return v
	}
	return uuid.NewString()
}

// WithLogger opens the root span of each request and stores a request-scoped logger in the context.
func WithLogger(logger *logrus.Logger, requestIDHeader string) mux.MiddlewareFunc {
	if requestIDHeader == "" {
		requestIDHeader = "X-Request-ID"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := getRequestID(r, requestIDHeader)
			r.Header.Set(requestIDHeader, requestID)

			fieldsLogger := logger.WithFields(logrus.Fields{
				"request-id": requestID,
				"path":       r.URL.Path,
				"method":     r.Method,
			})

			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(
				ctx,
				"http.request",
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
					attribute.String("http.request_id", requestID),
				),
			)
			defer span.End()

			if spanContext := span.SpanContext(); spanContext.HasTraceID() {
				w.Header().Set("X-Trace-Id", spanContext.TraceID().String())
				fieldsLogger = fieldsLogger.WithField("trace-id", spanContext.TraceID().String())
			}
			w.Header().Set(requestIDHeader, requestID)
			ctx = composables.WithLogger(ctx, fieldsLogger)

			wrapped := &responseCaptureWriter{ResponseWriter: w}
			defer func() {
				if recovered := recover(); recovered != nil {
					fieldsLogger.WithFields(logrus.Fields{
						"panic":    recovered,
						"stack":    string(debug.Stack()),
						"duration": time.Since(start),
					}).Error("panic recovered in request handler")
					if !wrapped.statusWritten {
						_ = httpapi.WriteError(wrapped, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", map[string]string{
							"request_id": requestID,
						})
					}
				}
			}()

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			statusCode := wrapped.Status()
			duration := time.Since(start)
			fieldsLogger.WithFields(logrus.Fields{
				"duration":     duration,
				"status-code":  statusCode,
				"status-class": statusCode / 100,
			}).Info("request completed")
			span.SetAttributes(
				attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
				attribute.Int("http.status_code", statusCode),
			)
		})
	}
}
