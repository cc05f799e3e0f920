package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/koinonia-app/koinonia/pkg/logging"
)

type loggerKey struct{}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// UseLogger returns the request logger, or a silent one when none was provided.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(loggerKey{}).(*logrus.Entry)
	if !ok || logger == nil {
		return logging.Nop()
	}
	return logger
}
