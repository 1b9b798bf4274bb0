// Package profiler implements scoped span timing over a rolling window,
// and rule-driven alerting over ResourceMonitor and Orchestrator metrics.
package profiler

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Span is one recorded profile invocation.
type Span struct {
	Name          string
	Start         time.Time
	End           time.Time
	Duration      time.Duration
	CPUTime       time.Duration
	MemoryDeltaMB float64
}

// WindowSize is the rolling window of spans the Profiler retains.
const WindowSize = 1000

// Summary aggregates all spans recorded under one name.
type Summary struct {
	Calls      int
	Total      time.Duration
	Avg        time.Duration
	Min        time.Duration
	Max        time.Duration
	AvgCPU     time.Duration
	AvgMemDelta float64
}

// Profiler records scoped spans and keeps a bounded rolling window.
type Profiler struct {
	mu        sync.Mutex
	spans     []Span
	durationHist *prometheus.HistogramVec
}

// New builds a Profiler, registering its histogram with registerer
// (pass nil to skip Prometheus registration, e.g. in tests).
func New(registerer prometheus.Registerer) *Profiler {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "orchestra_profile_span_seconds",
		Help: "Duration of profiled spans by name.",
	}, []string{"name"})
	if registerer != nil {
		registerer.MustRegister(hist)
	}
	return &Profiler{durationHist: hist}
}

// Profile starts a scoped span named name and returns a function that
// ends it when called. Typical use: `defer p.Profile("stage")()`.
func (p *Profiler) Profile(name string) func() {
	start := time.Now()
	return func() {
		end := time.Now()
		span := Span{Name: name, Start: start, End: end, Duration: end.Sub(start)}

		p.mu.Lock()
		p.spans = append(p.spans, span)
		if len(p.spans) > WindowSize {
			p.spans = p.spans[len(p.spans)-WindowSize:]
		}
		p.mu.Unlock()

		if p.durationHist != nil {
			p.durationHist.WithLabelValues(name).Observe(span.Duration.Seconds())
		}
	}
}

// Summaries groups the rolling window by span name.
func (p *Profiler) Summaries() map[string]Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	grouped := make(map[string][]Span)
	for _, s := range p.spans {
		grouped[s.Name] = append(grouped[s.Name], s)
	}

	out := make(map[string]Summary, len(grouped))
	for name, spans := range grouped {
		var sum Summary
		sum.Calls = len(spans)
		sum.Min = spans[0].Duration
		sum.Max = spans[0].Duration
		var totalCPU time.Duration
		var totalMem float64
		for _, s := range spans {
			sum.Total += s.Duration
			if s.Duration < sum.Min {
				sum.Min = s.Duration
			}
			if s.Duration > sum.Max {
				sum.Max = s.Duration
			}
			totalCPU += s.CPUTime
			totalMem += s.MemoryDeltaMB
		}
		sum.Avg = sum.Total / time.Duration(sum.Calls)
		sum.AvgCPU = totalCPU / time.Duration(sum.Calls)
		sum.AvgMemDelta = totalMem / float64(sum.Calls)
		out[name] = sum
	}
	return out
}

// Spans returns a copy of the current rolling window.
func (p *Profiler) Spans() []Span {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Span, len(p.spans))
	copy(out, p.spans)
	return out
}
