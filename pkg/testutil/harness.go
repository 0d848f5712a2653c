// Package testutil provides testing utilities for code built on basekit.
// TestEnv bundles a logger, a deterministic trace recorder, a metrics
// collector and a plugin registry, and hands out the matching instance
// options.
package testutil

import (
	"fmt"
	"time"

	"basekit/internal/clock"
	"basekit/pkg/base"
	"basekit/pkg/metrics"
	"basekit/pkg/plugin"
	"basekit/pkg/trace"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// TestEnv provides a complete observation environment for instance tests.
type TestEnv struct {
	Logger   *zap.Logger
	Clock    *clock.Sequence
	Recorder *trace.Recorder
	Metrics  *metrics.Collector
	Registry *plugin.Registry

	// Prometheus is the private registry the collector is registered with.
	Prometheus *prometheus.Registry

	Calls CallLog
}

// NewTestEnv creates a test environment whose trace clock ticks one
// millisecond per reading.
//
// Example usage:
//
//	env, err := testutil.NewTestEnv()
//	require.NoError(t, err)
//
//	inst, err := base.New(class, nil, env.InstanceOptions()...)
//	assert.Equal(t, []string{"initializer"}, env.Recorder.Units())
func NewTestEnv() (*TestEnv, error) {
	logger, _ := zap.NewDevelopment()

	seq := clock.NewSequence(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), time.Millisecond)

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics collector: %w", err)
	}

	return &TestEnv{
		Logger:     logger,
		Clock:      seq,
		Recorder:   trace.NewRecorder(seq),
		Metrics:    collector,
		Registry:   plugin.NewRegistry(logger),
		Prometheus: reg,
	}, nil
}

// InstanceOptions returns the base.New options wiring the environment's
// logger, recorder and collector into an instance.
func (e *TestEnv) InstanceOptions() []base.Option {
	return []base.Option{
		base.WithLogger(e.Logger),
		base.WithObserver(e.Recorder),
		base.WithObserver(e.Metrics),
	}
}

// Reset clears recorded calls and trace entries.
func (e *TestEnv) Reset() {
	e.Calls.Reset()
	e.Recorder.Reset()
}
