package services

import "context"

// ResultCache stores encoded engine results for the tenant carried by ctx.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	InvalidateTenant(ctx context.Context) error
}

type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, string, []byte) error         { return nil }
func (NoopCache) InvalidateTenant(context.Context) error            { return nil }
