// Package metrics exports lifecycle events as Prometheus metrics.
package metrics

import (
	"fmt"
	"sync"

	"basekit/pkg/lifecycle"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "basekit"

// Collector is a lifecycle.Observer that counts lifecycle events.
type Collector struct {
	mu sync.Mutex

	Transitions     *prometheus.CounterVec
	Steps           *prometheus.CounterVec
	ActiveInstances prometheus.Gauge
	AttachedPlugins prometheus.Gauge
}

// NewCollector creates a collector and registers its metrics with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Total number of instance lifecycle transitions, by target state.",
		}, []string{"class", "state"}),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_steps_total",
			Help:      "Total number of completed lifecycle steps (hooks, initializers, destructors).",
		}, []string{"class", "step"}),
		ActiveInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_instances",
			Help:      "Number of instances that reached Active and are not yet Destroyed.",
		}),
		AttachedPlugins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attached_plugins",
			Help:      "Number of plugins currently attached across observed instances.",
		}),
	}

	if reg != nil {
		for _, collector := range []prometheus.Collector{c.Transitions, c.Steps, c.ActiveInstances, c.AttachedPlugins} {
			if err := reg.Register(collector); err != nil {
				return nil, fmt.Errorf("failed to register lifecycle metrics: %w", err)
			}
		}
	}

	return c, nil
}

// Observe implements lifecycle.Observer
func (c *Collector) Observe(e lifecycle.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.Step == lifecycle.StepTransition {
		c.Transitions.WithLabelValues(e.Class, e.To.String()).Inc()
		switch {
		case e.To == lifecycle.Active:
			c.ActiveInstances.Inc()
		case e.To == lifecycle.Destroying && e.From == lifecycle.Active:
			c.ActiveInstances.Dec()
		}
		return
	}

	c.Steps.WithLabelValues(e.Class, string(e.Step)).Inc()
	switch e.Step {
	case lifecycle.StepPluginInit:
		c.AttachedPlugins.Inc()
	case lifecycle.StepPluginDestroy:
		c.AttachedPlugins.Dec()
	}
}
