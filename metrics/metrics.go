// Package metrics provides thin helpers over prometheus/client_golang.
// Metrics are created lazily on first use and cached; callers never hold
// on to instrument handles:
//
//	metrics.IncrCounter("net", "packets_sent_total", 1)
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dimension is a set of metric labels.
type Dimension map[string]string

var (
	mu         sync.RWMutex
	counters   = map[string]prometheus.Counter{}
	counterVec = map[string]*prometheus.CounterVec{}
	gauges     = map[string]prometheus.Gauge{}
	histograms = map[string]prometheus.Histogram{}
)

func fullName(group, name string) string {
	return strings.ReplaceAll(group, ".", "_") + "_" + strings.ReplaceAll(name, ".", "_")
}

// IncrCounter increases the counter identified by group and name.
func IncrCounter(group, name string, v float64) {
	key := fullName(group, name)
	mu.RLock()
	c, ok := counters[key]
	mu.RUnlock()
	if !ok {
		mu.Lock()
		if c, ok = counters[key]; !ok {
			c = promauto.NewCounter(prometheus.CounterOpts{Subsystem: group, Name: name})
			counters[key] = c
		}
		mu.Unlock()
	}
	c.Add(v)
}

// IncrCounterWithDim increases a labelled counter. The label keys of the
// first call fix the schema for that counter.
func IncrCounterWithDim(group, name string, v float64, dims Dimension) {
	key := fullName(group, name)
	mu.RLock()
	cv, ok := counterVec[key]
	mu.RUnlock()
	if !ok {
		keys := make([]string, 0, len(dims))
		for k := range dims {
			keys = append(keys, k)
		}
		mu.Lock()
		if cv, ok = counterVec[key]; !ok {
			cv = promauto.NewCounterVec(prometheus.CounterOpts{Subsystem: group, Name: name}, keys)
			counterVec[key] = cv
		}
		mu.Unlock()
	}
	cv.With(prometheus.Labels(dims)).Add(v)
}

// UpdateGauge sets the gauge identified by group and name.
func UpdateGauge(group, name string, v float64) {
	key := fullName(group, name)
	mu.RLock()
	g, ok := gauges[key]
	mu.RUnlock()
	if !ok {
		mu.Lock()
		if g, ok = gauges[key]; !ok {
			g = promauto.NewGauge(prometheus.GaugeOpts{Subsystem: group, Name: name})
			gauges[key] = g
		}
		mu.Unlock()
	}
	g.Set(v)
}

// Observe records a duration in seconds into the named histogram.
func Observe(group, name string, seconds float64) {
	key := fullName(group, name)
	mu.RLock()
	h, ok := histograms[key]
	mu.RUnlock()
	if !ok {
		mu.Lock()
		if h, ok = histograms[key]; !ok {
			h = promauto.NewHistogram(prometheus.HistogramOpts{
				Subsystem: group,
				Name:      name,
				Buckets:   prometheus.DefBuckets,
			})
			histograms[key] = h
		}
		mu.Unlock()
	}
	h.Observe(seconds)
}
