package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/koinonia-app/koinonia/pkg/composables"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgDate(t time.Time) pgtype.Date {
	y, m, d := t.UTC().Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func pgTextArray(values []string) pgtype.FlatArray[string] {
	return pgtype.FlatArray[string](values)
}

// session returns the querier and tenant every attendance query is scoped by.
func session(ctx context.Context) (composables.Tx, pgtype.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, pgtype.UUID{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, pgtype.UUID{}, err
	}
	return tx, pgUUID(tenantID), nil
}
