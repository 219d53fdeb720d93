// Package metrics provides in-process counters and gauges for kbstate,
// with a Prometheus-style text rendering for diagnostics.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing counter.
type Counter struct {
	v atomic.Uint64
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.v.Add(1)
}

// Add increments the counter by n.
func (c *Counter) Add(n uint64) {
	c.v.Add(n)
}

// Value returns the current count.
func (c *Counter) Value() uint64 {
	return c.v.Load()
}

// Gauge is a value that can go up and down.
type Gauge struct {
	v atomic.Int64
}

// Set sets the gauge.
func (g *Gauge) Set(n int64) {
	g.v.Store(n)
}

// Value returns the current value.
func (g *Gauge) Value() int64 {
	return g.v.Load()
}

// Metrics holds every metric the session maintains.
type Metrics struct {
	// Polls counts snapshot polls performed.
	Polls Counter

	// KeysDown is the key count from the most recent poll.
	KeysDown Gauge

	// EventsDrained counts transition records returned by queue drains.
	EventsDrained Counter

	// DrainErrors counts drain loops aborted by a non-empty failure
	// status.
	DrainErrors Counter

	// InitFailures counts failed session or queue initializations.
	InitFailures Counter
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide metrics instance.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = &Metrics{}
	})
	return defaultMetrics
}

// WriteTo renders the metrics in Prometheus text exposition format, sorted
// by name.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	lines := map[string]uint64{
		"kbstate_polls_total":          m.Polls.Value(),
		"kbstate_keys_down":            uint64(m.KeysDown.Value()),
		"kbstate_events_drained_total": m.EventsDrained.Value(),
		"kbstate_drain_errors_total":   m.DrainErrors.Value(),
		"kbstate_init_failures_total":  m.InitFailures.Value(),
	}
	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	sort.Strings(names)

	var total int64
	for _, name := range names {
		n, err := fmt.Fprintf(w, "%s %d\n", name, lines[name])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
