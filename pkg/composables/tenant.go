package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNoTenantID = errors.New("tenant id not found in context")

type tenantIDKey struct{}

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey{}, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(tenantIDKey{}).(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenantID
	}
	return tenantID, nil
}
