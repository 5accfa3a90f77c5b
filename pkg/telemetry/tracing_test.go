package telemetry

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), NewConfig())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{"default", Config{}, trace.AlwaysSample().Description()},
		{"never", Config{SamplerType: "never"}, trace.NeverSample().Description()},
		{"ratio", Config{SamplerType: "ratio", SamplerRatio: 0.5}, trace.ParentBased(trace.TraceIDRatioBased(0.5)).Description()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sampler(tt.cfg).Description())
		})
	}
}

func TestWithSpan(t *testing.T) {
	called := false
	err := WithSpan(context.Background(), "test", func(context.Context) error {
		called = true
		return errors.New("boom")
	})
	assert.True(t, called)
	assert.EqualError(t, err, "boom")

	WithSpanFunc(context.Background(), "test", func(ctx context.Context) {
		SetAttributes(ctx)
	})
}
