package alloc

import "github.com/prometheus/client_golang/prometheus"

// Metered wraps an allocator with Prometheus instrumentation: allocation and
// release counts, injected failure counts, and bytes currently in use. It
// adds no policy of its own; every call is forwarded to the inner allocator.
type Metered struct {
	inner Allocator

	allocs    prometheus.Counter
	releases  prometheus.Counter
	failures  prometheus.Counter
	allocated prometheus.Counter
	inUse     prometheus.Gauge
}

// NewMetered wraps inner and registers the collectors with reg. A nil inner
// uses Global; a nil reg skips registration (useful in tests that inspect
// the collectors directly).
func NewMetered(inner Allocator, reg prometheus.Registerer) (*Metered, error) {
	if inner == nil {
		inner = Global
	}
	m := &Metered{
		inner: inner,
		allocs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fallacy", Subsystem: "alloc",
			Name: "blocks_total", Help: "Blocks successfully allocated or grown.",
		}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fallacy", Subsystem: "alloc",
			Name: "releases_total", Help: "Blocks released.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fallacy", Subsystem: "alloc",
			Name: "failures_total", Help: "Allocation attempts that returned an error.",
		}),
		allocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fallacy", Subsystem: "alloc",
			Name: "allocated_bytes_total", Help: "Cumulative bytes handed out.",
		}),
		inUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fallacy", Subsystem: "alloc",
			Name: "in_use_bytes", Help: "Bytes currently held by live blocks.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.allocs, m.releases, m.failures, m.allocated, m.inUse} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Allocate implements Allocator.
func (m *Metered) Allocate(lay Layout) (Block, error) {
	b, err := m.inner.Allocate(lay)
	if err != nil {
		m.failures.Inc()
		return Block{}, err
	}
	m.allocs.Inc()
	m.allocated.Add(float64(b.Cap()))
	m.inUse.Add(float64(b.Cap()))
	return b, nil
}

// Grow implements Allocator.
func (m *Metered) Grow(b Block, newSize int) (Block, error) {
	old := b.Cap()
	nb, err := m.inner.Grow(b, newSize)
	if err != nil {
		m.failures.Inc()
		return Block{}, err
	}
	m.allocs.Inc()
	if delta := nb.Cap() - old; delta > 0 {
		m.allocated.Add(float64(delta))
		m.inUse.Add(float64(delta))
	}
	return nb, nil
}

// Shrink implements Allocator.
func (m *Metered) Shrink(b Block, newSize int) (Block, error) {
	old := b.Cap()
	nb, err := m.inner.Shrink(b, newSize)
	if err != nil {
		return Block{}, err
	}
	if delta := old - nb.Cap(); delta > 0 {
		m.inUse.Sub(float64(delta))
	}
	return nb, nil
}

// Release implements Allocator.
func (m *Metered) Release(b Block) {
	m.inner.Release(b)
	m.releases.Inc()
	m.inUse.Sub(float64(b.Cap()))
}
