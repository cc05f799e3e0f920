package services

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attendanceCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total number of attendance result cache lookups broken down by operation and hit/miss.",
	}, []string{"operation", "result"})

	attendanceCacheInvalidate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "cache",
		Name:      "invalidate_total",
		Help:      "Total number of attendance cache invalidations broken down by reason.",
	}, []string{"reason"})

	attendanceDataShapeWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "reports",
		Name:      "data_shape_warnings_total",
		Help:      "Total number of malformed presence fields found while aggregating reports.",
	}, []string{"field"})

	attendanceCollaboratorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "collaborator",
		Name:      "errors_total",
		Help:      "Total number of failed collaborator calls broken down by operation.",
	}, []string{"operation"})
)

func recordCacheRequest(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	attendanceCacheRequests.WithLabelValues(operation, result).Inc()
}

const (
	ReasonManual           = "manual"
	ReasonReportSubmitted  = "report_submitted"
	ReasonReportCorrected  = "report_corrected"
	ReasonRosterChanged    = "roster_changed"
	ReasonHierarchyChanged = "hierarchy_changed"
	ReasonOther            = "other"
)

// InvalidationReason maps a caller-supplied reason onto the fixed label set.
func InvalidationReason(raw string) string {
	switch r := strings.ToLower(strings.TrimSpace(raw)); r {
	case "":
		return ReasonManual
	case ReasonManual, ReasonReportSubmitted, ReasonReportCorrected, ReasonRosterChanged, ReasonHierarchyChanged:
		return r
	default:
		return ReasonOther
	}
}

func recordCacheInvalidate(reason string) {
	attendanceCacheInvalidate.WithLabelValues(InvalidationReason(reason)).Inc()
}

func recordDataShapeWarning(field string) {
	attendanceDataShapeWarnings.WithLabelValues(field).Inc()
}

func recordCollaboratorError(operation string) {
	attendanceCollaboratorErrors.WithLabelValues(operation).Inc()
}
