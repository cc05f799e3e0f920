package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileLogger returns a JSON logger that writes to stdout and to the file at path.
// The caller owns the returned file and must close it on shutdown.
func FileLogger(level logrus.Level, path string) (*os.File, *logrus.Logger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	return f, logger, nil
}

func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(level)
	return logger
}

// Nop returns an entry that drops everything below panic.
func Nop() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}
