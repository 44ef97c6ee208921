package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_NoLogger(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l)
}

func TestContextValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUserID(ctx, "user-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-9", GetUserID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetUserID(context.Background()))
}

func TestL_AddsUserAndTraceFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithUserID(ctx, "user-9")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	L(ctx).Info("payment recorded")

	entries := recorded.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "user-9", fields["user_id"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
	assert.Equal(t, "0102030405060708", fields["span_id"])
}

func TestL_PlainContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	L(ctx).Info("plain")

	assert.Empty(t, recorded.All()[0].Context)
}
