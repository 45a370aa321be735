// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/hybridsync/utils/wrappers"
)

// Averager tracks a running average
type Averager interface {
	Observe(value float64)
	Read() float64
}

// averager implements Averager
type averager struct {
	mu    sync.RWMutex
	sum   float64
	count float64
	
	// Prometheus metrics
	promCount prometheus.Counter
	promSum   prometheus.Gauge
}

// NewAverager returns a new Averager
func NewAverager(name, help string, reg prometheus.Registerer) (Averager, error) {
	if reg == nil {
		return &averager{}, nil
	}
	// Register two metrics: one for count and one for sum
	count := prometheus.NewCounter(prometheus.CounterOpts{
		Name: name + "_count",
		Help: "Total # of observations of " + help,
	})
	sum := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name + "_sum",
		Help: "Sum of " + help,
	})
	
	if err := reg.Register(count); err != nil {
		return nil, err
	}
	if err := reg.Register(sum); err != nil {
		return nil, err
	}
	
	return &averager{
		promCount: count,
		promSum:   sum,
	}, nil
}

// Observe adds a value to the average
func (a *averager) Observe(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	
	a.sum += value
	a.count++
	
	// Update prometheus metrics if available
	if a.promCount != nil {
		a.promCount.Inc()
	}
	if a.promSum != nil {
		a.promSum.Add(value)
	}
}

// Read returns the current average
func (a *averager) Read() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	
	if a.count == 0 {
		return 0
	}
	return a.sum / a.count
}

// Counter tracks a count
type Counter interface {
	Inc()
	Add(delta int64)
	Read() int64
}

// counter implements Counter, mirroring averager's dual tracking: the
// local value backs Read() without a prometheus query round trip, and
// prom (nil-able) keeps the same value exported for scraping.
type counter struct {
	mu    sync.RWMutex
	value int64

	prom prometheus.Counter
}

// newCounter registers a prometheus counter named name and returns a
// Counter backed by it. reg may be nil, in which case the counter is
// local-only (the case for a Registry built with a nil Registerer).
func newCounter(name, help string, reg prometheus.Registerer) (*counter, error) {
	c := &counter{}
	if reg == nil {
		return c, nil
	}
	pc := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	if err := reg.Register(pc); err != nil {
		return nil, err
	}
	c.prom = pc
	return c, nil
}

// Inc increments the counter by 1
func (c *counter) Inc() {
	c.Add(1)
}

// Add adds delta to the counter
func (c *counter) Add(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += delta
	if c.prom != nil {
		c.prom.Add(float64(delta))
	}
}

// Read returns the current count
func (c *counter) Read() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Gauge tracks a value that can go up or down
type Gauge interface {
	Set(value float64)
	Add(delta float64)
	Read() float64
}

// gauge implements Gauge, with the same local-value-plus-prometheus
// dual tracking as counter and averager.
type gauge struct {
	mu    sync.RWMutex
	value float64

	prom prometheus.Gauge
}

// newGauge registers a prometheus gauge named name and returns a Gauge
// backed by it. reg may be nil for a local-only gauge.
func newGauge(name, help string, reg prometheus.Registerer) (*gauge, error) {
	g := &gauge{}
	if reg == nil {
		return g, nil
	}
	pg := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	if err := reg.Register(pg); err != nil {
		return nil, err
	}
	g.prom = pg
	return g, nil
}

// Set sets the gauge to a specific value
func (g *gauge) Set(value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = value
	if g.prom != nil {
		g.prom.Set(value)
	}
}

// Add adds delta to the gauge
func (g *gauge) Add(delta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value += delta
	if g.prom != nil {
		g.prom.Add(delta)
	}
}

// Read returns the current value
func (g *gauge) Read() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Registry is the collection of named metrics a Sink is built from:
// every metric Sink exposes is created once through a Registry so
// duplicate names collide loudly (via Register's error) instead of
// silently producing two independent counters under one field name.
type Registry interface {
	NewCounter(name, help string) (Counter, error)
	NewGauge(name, help string) (Gauge, error)
	NewAverager(name, help string) (Averager, error)
	GetCounter(name string) (Counter, error)
	GetGauge(name string) (Gauge, error)
	GetAverager(name string) (Averager, error)
}

// registry implements Registry against a single prometheus.Registerer.
type registry struct {
	mu        sync.RWMutex
	reg       prometheus.Registerer
	counters  map[string]Counter
	gauges    map[string]Gauge
	averagers map[string]Averager
}

// NewRegistry returns a Registry that registers every metric it
// creates against reg. reg may be nil for a registry that only tracks
// local values (tests that don't care about prometheus export).
func NewRegistry(reg prometheus.Registerer) Registry {
	return &registry{
		reg:       reg,
		counters:  make(map[string]Counter),
		gauges:    make(map[string]Gauge),
		averagers: make(map[string]Averager),
	}
}

// NewCounter creates, registers, and tracks a new counter under name.
func (r *registry) NewCounter(name, help string) (Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := newCounter(name, help, r.reg)
	if err != nil {
		return nil, err
	}
	r.counters[name] = c
	return c, nil
}

// NewGauge creates, registers, and tracks a new gauge under name.
func (r *registry) NewGauge(name, help string) (Gauge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, err := newGauge(name, help, r.reg)
	if err != nil {
		return nil, err
	}
	r.gauges[name] = g
	return g, nil
}

// NewAverager creates, registers, and tracks a new averager under name.
func (r *registry) NewAverager(name, help string) (Averager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := NewAverager(name, help, r.reg)
	if err != nil {
		return nil, err
	}
	r.averagers[name] = a
	return a, nil
}

// GetCounter returns a counter by name
func (r *registry) GetCounter(name string) (Counter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.counters[name]
	if !ok {
		return nil, fmt.Errorf("counter %q not found", name)
	}
	return c, nil
}

// GetGauge returns a gauge by name
func (r *registry) GetGauge(name string) (Gauge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.gauges[name]
	if !ok {
		return nil, fmt.Errorf("gauge %q not found", name)
	}
	return g, nil
}

// GetAverager returns an averager by name
func (r *registry) GetAverager(name string) (Averager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.averagers[name]
	if !ok {
		return nil, fmt.Errorf("averager %q not found", name)
	}
	return a, nil
}

// NewCounterWithErrs creates a counter through reg and adds any
// registration failure to errs, returning a local-only counter on
// error instead of a nil one so callers never need a nil check.
func NewCounterWithErrs(reg Registry, name, help string, errs *wrappers.Errs) Counter {
	c, err := reg.NewCounter(name, help)
	if err != nil {
		if errs != nil {
			errs.Add(err)
		}
		return &counter{}
	}
	return c
}

// NewGaugeWithErrs creates a gauge through reg and adds any
// registration failure to errs, returning a local-only gauge on error.
func NewGaugeWithErrs(reg Registry, name, help string, errs *wrappers.Errs) Gauge {
	g, err := reg.NewGauge(name, help)
	if err != nil {
		if errs != nil {
			errs.Add(err)
		}
		return &gauge{}
	}
	return g
}

// NewAveragerFromRegistry creates an averager through reg and adds any
// registration failure to errs, mirroring NewCounterWithErrs/
// NewGaugeWithErrs for the one metric kind that registers two
// prometheus collectors internally.
func NewAveragerFromRegistry(reg Registry, name, help string, errs *wrappers.Errs) Averager {
	a, err := reg.NewAverager(name, help)
	if err != nil {
		if errs != nil {
			errs.Add(err)
		}
		return &averager{}
	}
	return a
}