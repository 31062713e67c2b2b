package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/pkg/telemetry"
)

func TestNew_NoOpWhenEndpointEmpty(t *testing.T) {
	p, err := telemetry.New(context.Background(), telemetry.Config{ServiceName: "warden"}, nil)

	require.NoError(t, err)
	require.NotNil(t, p)

	ctx, span := p.Tracer().Start(context.Background(), "test-span")
	defer span.End()
	assert.NotNil(t, ctx)
}

func TestNew_ShutdownIsSafeWithoutExporter(t *testing.T) {
	p, err := telemetry.New(context.Background(), telemetry.Config{ServiceName: "warden"}, nil)
	require.NoError(t, err)

	assert.NoError(t, p.Shutdown(context.Background()))
}
