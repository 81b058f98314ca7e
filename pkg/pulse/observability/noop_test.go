package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordNodeProcess(ctx, "k", time.Millisecond, nil)
		m.RecordNodeProcess(ctx, "k", 0, errors.New("x"))
		m.RecordPulse(ctx, "s", time.Millisecond, context.Canceled)
		m.RecordParameter(ctx, "in")
	})
}

func TestNoopSpanManager(t *testing.T) {
	m := NoopSpanManager{}
	ctx := context.Background()

	t.Run("returns input context", func(t *testing.T) {
		got, span := m.StartPulseSpan(ctx, "p", "s", "r")
		assert.Equal(t, ctx, got)
		assert.NotNil(t, span)
		assert.False(t, span.IsRecording())

		got, span = m.StartNodeSpan(ctx, "n", "k")
		assert.Equal(t, ctx, got)
		assert.False(t, span.IsRecording())
	})

	t.Run("end and event do not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			_, span := m.StartNodeSpan(ctx, "n", "k")
			m.EndSpanWithError(span, errors.New("x"))
			m.AddSpanEvent(ctx, "e", attribute.Int("n", 1))
		})
	})
}
