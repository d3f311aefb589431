// Package metrics provides in-process counters and gauges for the
// inspection API. There is no scrape endpoint or exporter here: real
// metrics backends (Prometheus, Datadog, etc.) are out of scope, the same
// way real notification transports are — the registry exists so the
// local inspection surface has numbers to show, not to feed an external
// time-series database.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing value.
type Counter struct {
	value int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { atomic.AddInt64(&c.value, 1) }

// Add increments the counter by n.
func (c *Counter) Add(n int64) { atomic.AddInt64(&c.value, n) }

// Value returns the current count.
func (c *Counter) Value() int64 { return atomic.LoadInt64(&c.value) }

// Gauge is a value that can move up or down, stored as micros internally
// for lock-free float-like precision.
type Gauge struct {
	value int64
}

// Set assigns the gauge's current value.
func (g *Gauge) Set(v float64) { atomic.StoreInt64(&g.value, int64(v*1e6)) }

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { atomic.AddInt64(&g.value, 1e6) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { atomic.AddInt64(&g.value, -1e6) }

// Value returns the gauge's current value.
func (g *Gauge) Value() float64 { return float64(atomic.LoadInt64(&g.value)) / 1e6 }

// Registry is a named set of counters and gauges, safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}
}

// Counter returns the named counter, creating it on first use.
func (r *Registry) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

// Gauge returns the named gauge, creating it on first use.
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		g = &Gauge{}
		r.gauges[name] = g
	}
	return g
}

// Snapshot is a point-in-time readout of every registered metric, sorted by
// name for stable rendering.
type Snapshot struct {
	Counters map[string]int64   `json:"counters"`
	Gauges   map[string]float64 `json:"gauges"`
}

// Snapshot returns the current value of every registered metric.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Counters: make(map[string]int64, len(r.counters)),
		Gauges:   make(map[string]float64, len(r.gauges)),
	}
	names := make([]string, 0, len(r.counters))
	for name := range r.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		snap.Counters[name] = r.counters[name].Value()
	}

	gnames := make([]string, 0, len(r.gauges))
	for name := range r.gauges {
		gnames = append(gnames, name)
	}
	sort.Strings(gnames)
	for _, name := range gnames {
		snap.Gauges[name] = r.gauges[name].Value()
	}
	return snap
}
