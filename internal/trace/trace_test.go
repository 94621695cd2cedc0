package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpan_Disabled(t *testing.T) {
	require.NoError(t, Init(false, "market-snapshot", "test"))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())

	_, ok := TraceID(ctx)
	assert.False(t, ok)
	assert.NoError(t, Shutdown(context.Background()))
}
