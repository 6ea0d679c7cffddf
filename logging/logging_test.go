package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/niclabs/tmpsi/logging"
)

func TestLoggerWritesThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := logging.New(slog.New(handler)).With("round", "strict")

	ctx := context.Background()
	logger.Debug(ctx, "filters built", "count", 3)
	logger.Info(ctx, "round finished", logging.Redacted("elements"))

	out := buf.String()
	assert.Contains(t, out, "round=strict")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "[redacted]")
}

func TestNopDiscards(t *testing.T) {
	logger := logging.Nop()
	assert.NotPanics(t, func() {
		logger.Error(context.Background(), "ignored", "k", "v")
		logger.With("a", 1).Warn(context.Background(), "ignored")
	})
}

func TestNewDefaultsToSlogDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	logging.New(nil).Info(context.Background(), "hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
