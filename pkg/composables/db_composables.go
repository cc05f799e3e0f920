package composables

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNoTx   = errors.New("no transaction found in context")
	ErrNoPool = errors.New("no database pool found in context")
)

type txKey struct{}
type poolKey struct{}

// Tx is the query surface shared by *pgxpool.Pool and pgx.Tx.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx stores any Tx in the context; tests use it to inject fakes.
func WithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func UseTx(ctx context.Context) (Tx, error) {
	tx, ok := ctx.Value(txKey{}).(Tx)
	if !ok || tx == nil {
		return UsePool(ctx)
	}
	return tx, nil
}

func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, poolKey{}, pool)
}

func UsePool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, ok := ctx.Value(poolKey{}).(*pgxpool.Pool)
	if !ok || pool == nil {
		return nil, ErrNoPool
	}
	return pool, nil
}
