package soak

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/go-drift/bind/pkg/binding"
	"github.com/go-drift/bind/pkg/config"
)

func runtime(t *testing.T, dispatch string) *config.Runtime {
	t.Helper()
	rt, err := (&config.Resolved{Dispatch: dispatch, Observer: config.ObserverNoop}).Runtime(nil, nil)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func TestRun_SerialConverges(t *testing.T) {
	res, err := Run(context.Background(), runtime(t, config.DispatchSerial), Options{
		SourceWriters:   4,
		PropertyWriters: 4,
		Iterations:      500,
		Mode:            binding.TwoWay,
		Locale:          language.German,
	})
	require.NoError(t, err)

	assert.True(t, res.Converged, "source=%d property=%q", res.Source, res.Property)
	assert.Equal(t, int64(4000), res.Writes)
	assert.Zero(t, res.Failures)
	assert.Zero(t, res.Panics)
	assert.Positive(t, res.Updates)
}

func TestRun_SingleWriterInline(t *testing.T) {
	res, err := Run(context.Background(), runtime(t, config.DispatchNone), Options{
		SourceWriters: 1,
		Iterations:    100,
	})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 100, res.Source)
	assert.Equal(t, "100", res.Property)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, runtime(t, config.DispatchSerial), Options{
		SourceWriters:   2,
		PropertyWriters: 2,
		Iterations:      1000,
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Writes)
	assert.True(t, res.Converged, "the initial sync still settles")
}
