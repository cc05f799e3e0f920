package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/koinonia-app/koinonia/modules/attendance/domain/period"
	"github.com/koinonia-app/koinonia/modules/attendance/presentation/controllers/dtos"
	"github.com/koinonia-app/koinonia/modules/attendance/services"
	"github.com/koinonia-app/koinonia/pkg/application"
	"github.com/koinonia-app/koinonia/pkg/composables"
	"github.com/koinonia-app/koinonia/pkg/httpapi"
)

type ControllerOptions struct {
	TenantHeader    string
	ActorHeader     string
	RequestIDHeader string
}

type AnalyticsAPIController struct {
	analytics *services.AnalyticsService
	opts      ControllerOptions
	apiPrefix string
	now       func() time.Time
}

func NewAnalyticsAPIController(app application.Application, opts ControllerOptions) application.Controller {
	if opts.TenantHeader == "" {
		opts.TenantHeader = "X-Tenant-ID"
	}
	if opts.ActorHeader == "" {
		opts.ActorHeader = "X-Actor-ID"
	}
	if opts.RequestIDHeader == "" {
		opts.RequestIDHeader = "X-Request-ID"
	}
	return &AnalyticsAPIController{
		analytics: app.Service(services.AnalyticsService{}).(*services.AnalyticsService),
		opts:      opts,
		apiPrefix: "/attendance/api",
		now:       time.Now,
	}
}

func (c *AnalyticsAPIController) Key() string {
	return c.apiPrefix
}

func (c *AnalyticsAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(c.provideSession)

	api.HandleFunc("/scope", c.GetScope).Methods(http.MethodGet)
	api.HandleFunc("/summary", c.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/series/monthly", c.GetMonthlySeries).Methods(http.MethodGet)
	api.HandleFunc("/series/weekly", c.GetWeeklySeries).Methods(http.MethodGet)
	api.HandleFunc("/growth", c.GetGrowth).Methods(http.MethodGet)
	api.HandleFunc("/forecast", c.GetForecast).Methods(http.MethodGet)
	api.HandleFunc("/network", c.GetNetwork).Methods(http.MethodGet)
	api.HandleFunc("/cache:invalidate", c.InvalidateCache).Methods(http.MethodPost)
}

type actorKey struct{}

func useActorID(ctx context.Context) string {
	v, _ := ctx.Value(actorKey{}).(string)
	return v
}

// provideSession reads the tenant and actor the auth gateway forwards.
func (c *AnalyticsAPIController) provideSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)

		tenantID, err := uuid.Parse(strings.TrimSpace(r.Header.Get(c.opts.TenantHeader)))
		if err != nil || tenantID == uuid.Nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "ATTENDANCE_NO_TENANT", c.opts.TenantHeader+" header must be a tenant uuid")
			return
		}
		actorID := strings.TrimSpace(r.Header.Get(c.opts.ActorHeader))
		if actorID == "" {
			writeAPIError(w, http.StatusUnauthorized, requestID, "ATTENDANCE_NO_ACTOR", c.opts.ActorHeader+" header is required")
			return
		}

		ctx := composables.WithTenantID(r.Context(), tenantID)
		ctx = context.WithValue(ctx, actorKey{}, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *AnalyticsAPIController) GetScope(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)
	scope, err := c.analytics.Scope(r.Context(), useActorID(r.Context()))
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, scope)
}

func (c *AnalyticsAPIController) GetSummary(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)
	rng, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	summary, err := c.analytics.Summary(r.Context(), useActorID(r.Context()), rng)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (c *AnalyticsAPIController) GetMonthlySeries(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)
	rng, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	series, err := c.analytics.MonthlySeries(r.Context(), useActorID(r.Context()), rng)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"range": rng, "buckets": nonNil(series)})
}

func (c *AnalyticsAPIController) GetWeeklySeries(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)
	q, err := composables.UseQuery(&dtos.WeeklyQuery{}, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ATTENDANCE_INVALID_QUERY", dtos.Describe(err))
		return
	}
	rng, err := q.Range()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ATTENDANCE_INVALID_QUERY", err.Error())
		return
	}
	recent := q.Recent
	if recent == 0 {
		recent = c.analytics.RecentWeeks()
	}
	series, err := c.analytics.WeeklySeries(r.Context(), useActorID(r.Context()), rng, recent)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"range": rng, "recent": recent, "buckets": nonNil(series)})
}

func (c *AnalyticsAPIController) GetGrowth(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)
	rng, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	growth, err := c.analytics.Growth(r.Context(), useActorID(r.Context()), rng)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, growth)
}

func (c *AnalyticsAPIController) GetForecast(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)
	rng, ok := parseRange(w, r, requestID)
	if !ok {
		return
	}
	forecast, err := c.analytics.Forecast(r.Context(), useActorID(r.Context()), rng)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	forecast.Series = nonNil(forecast.Series)
	writeJSON(w, http.StatusOK, forecast)
}

func (c *AnalyticsAPIController) GetNetwork(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)
	q, err := composables.UseQuery(&dtos.NetworkQuery{}, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ATTENDANCE_INVALID_QUERY", dtos.Describe(err))
		return
	}
	now := c.now()
	if !q.AsOf.IsZero() {
		now = q.AsOf.Add(24*time.Hour - time.Nanosecond)
	}
	root, err := c.analytics.Network(r.Context(), useActorID(r.Context()), now)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (c *AnalyticsAPIController) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	requestID := httpapi.EnsureRequestID(w, r, c.opts.RequestIDHeader)
	q, err := composables.UseQuery(&dtos.InvalidateQuery{}, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ATTENDANCE_INVALID_QUERY", dtos.Describe(err))
		return
	}
	if err := c.analytics.InvalidateCache(r.Context(), q.Reason); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseRange(w http.ResponseWriter, r *http.Request, requestID string) (rng period.DateRange, ok bool) {
	q, err := composables.UseQuery(&dtos.RangeQuery{}, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ATTENDANCE_INVALID_QUERY", dtos.Describe(err))
		return rng, false
	}
	rng, err = q.Range()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "ATTENDANCE_INVALID_QUERY", err.Error())
		return rng, false
	}
	return rng, true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, requestID, "ATTENDANCE_INTERNAL", err.Error())
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	_ = httpapi.WriteError(w, status, code, message, meta)
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	_ = httpapi.WriteJSON(w, status, payload)
}
