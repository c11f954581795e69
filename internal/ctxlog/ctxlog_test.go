package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	assert.Same(t, slog.Default(), FromContext(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, slog.Default(), FromContext(nil))
	assert.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	FromContext(With(ctx, "request_id", "r1")).Info("hello")
	FromContext(ctx).Info("bare")

	assert.Contains(t, buf.String(), "msg=hello request_id=r1")
	assert.NotContains(t, buf.String(), "msg=bare request_id")
}
