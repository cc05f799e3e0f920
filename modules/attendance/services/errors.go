package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAccessDenied            = errors.New("access denied")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func accessDenied(actorID string, role string) *ServiceError {
	return newServiceError(
		http.StatusForbidden,
		"ATTENDANCE_ACCESS_DENIED",
		fmt.Sprintf("role %q cannot view attendance analytics", role),
		fmt.Errorf("%w: actor %s", ErrAccessDenied, actorID),
	)
}

// collaboratorUnavailable wraps a store failure. Errors that are already service errors pass through.
func collaboratorUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	recordCollaboratorError(op)
	return newServiceError(
		http.StatusServiceUnavailable,
		"ATTENDANCE_COLLABORATOR_UNAVAILABLE",
		op+" failed",
		fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err),
	)
}

func invalidQuery(message string, cause error) *ServiceError {
	return newServiceError(http.StatusBadRequest, "ATTENDANCE_INVALID_QUERY", message, cause)
}

func actorNotFound(actorID string, cause error) *ServiceError {
	return newServiceError(http.StatusNotFound, "ATTENDANCE_ACTOR_NOT_FOUND", fmt.Sprintf("actor %s not found", actorID), cause)
}
