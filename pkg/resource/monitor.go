// Package resource polls system memory and thermal pressure, keeps a
// rolling history of samples, and emits rule-driven alerts. Grounded on the
// teacher's pkg/database/health.go poll-and-classify shape and on
// pkg/agent/orchestrator/runner.go's mutex-guarded-state idiom.
package resource

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sampler produces a memory/thermal Snapshot. A failed Sample call must
// never be fatal to the caller; Monitor.Poll substitutes a best-guess
// snapshot on error (spec §4.1 "Failure").
type Sampler interface {
	Sample(ctx context.Context) (Snapshot, error)
}

// Defaults used when a poll fails and no prior snapshot exists to estimate
// from.
var BestGuessDefaults = Snapshot{
	TotalGB:     16,
	UsedGB:      8,
	AvailableGB: 8,
	Thermal:     ThermalNormal,
}

// Config tunes Monitor thresholds, mirroring spec §4.1's constants.
type Config struct {
	HistorySize       int
	MaxAlerts         int
	SafetyBufferGB    float64
	ThermalThresholdPct float64
	PollInterval      time.Duration
}

// DefaultConfig returns the spec's default thresholds.
func DefaultConfig() Config {
	return Config{
		HistorySize:         100,
		MaxAlerts:           50,
		SafetyBufferGB:      2.0,
		ThermalThresholdPct: 90,
		PollInterval:        30 * time.Second,
	}
}

// Monitor samples system resource state on demand and on a timer, keeping a
// rolling history and emitting alerts to pluggable handlers.
type Monitor struct {
	mu      sync.Mutex
	sampler Sampler
	cfg     Config
	history []Snapshot
	alerts  []Alert
	rules   []Rule
	handlers []Handler

	lastPressure Pressure

	gaugeUsedPct prometheus.Gauge
	gaugeSwapGB  prometheus.Gauge
	counterAlert *prometheus.CounterVec
}

// New builds a Monitor with default alert rules installed.
func New(sampler Sampler, cfg Config, registerer prometheus.Registerer) *Monitor {
	m := &Monitor{
		sampler: sampler,
		cfg:     cfg,
		rules:   defaultRules(),
		lastPressure: PressureNormal,
		gaugeUsedPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orchestra_memory_used_pct",
			Help: "Percentage of total system memory in use.",
		}),
		gaugeSwapGB: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orchestra_swap_used_gb",
			Help: "Swap memory in use, in gigabytes.",
		}),
		counterAlert: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestra_resource_alerts_total",
			Help: "Count of resource alerts fired, by severity.",
		}, []string{"severity"}),
	}
	if registerer != nil {
		registerer.MustRegister(m.gaugeUsedPct, m.gaugeSwapGB, m.counterAlert)
	}
	return m
}

func defaultRules() []Rule {
	return []Rule{
		{Metric: "used_pct", Comparator: gte, Threshold: 95, Severity: SeverityCritical, Extract: func(s Snapshot) float64 { return s.UsedPct() }},
		{Metric: "used_pct", Comparator: gte, Threshold: 85, Severity: SeverityWarning, Extract: func(s Snapshot) float64 { return s.UsedPct() }},
		{Metric: "swap_gb", Comparator: gte, Threshold: 2.0, Severity: SeverityCritical, Extract: func(s Snapshot) float64 { return s.SwapGB }},
		{Metric: "swap_gb", Comparator: gte, Threshold: 0.5, Severity: SeverityWarning, Extract: func(s Snapshot) float64 { return s.SwapGB }},
		{Metric: "available_gb", Comparator: lte, Threshold: 1.0, Severity: SeverityCritical, Extract: func(s Snapshot) float64 { return s.AvailableGB }},
		{Metric: "available_gb", Comparator: lte, Threshold: 2.0, Severity: SeverityWarning, Extract: func(s Snapshot) float64 { return s.AvailableGB }},
	}
}

func gte(c, t float64) bool { return c >= t }
func lte(c, t float64) bool { return c <= t }

// OnAlert registers a handler invoked synchronously whenever a rule fires.
func (m *Monitor) OnAlert(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// Poll samples current state, appends it to history, and fires any alert
// rules that match. A failed sample never propagates — a best-guess
// snapshot (estimated from the last known snapshot, or BestGuessDefaults)
// is recorded instead.
func (m *Monitor) Poll(ctx context.Context) Snapshot {
	snap, err := m.sampler.Sample(ctx)
	if err != nil {
		slog.Warn("resource sampling failed, using best-guess snapshot", "error", err)
		snap = m.bestGuess()
	}

	m.mu.Lock()
	m.history = append(m.history, snap)
	if len(m.history) > m.cfg.HistorySize {
		m.history = m.history[len(m.history)-m.cfg.HistorySize:]
	}
	m.mu.Unlock()

	m.gaugeUsedPct.Set(snap.UsedPct())
	m.gaugeSwapGB.Set(snap.SwapGB)

	m.evaluateRules(snap)
	return snap
}

func (m *Monitor) bestGuess() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) > 0 {
		guess := m.history[len(m.history)-1]
		guess.Estimated = true
		return guess
	}
	guess := BestGuessDefaults
	guess.Estimated = true
	return guess
}

func (m *Monitor) evaluateRules(snap Snapshot) {
	now := snap.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	var fired []Alert
	for _, rule := range m.rules {
		current := rule.Extract(snap)
		if rule.Comparator(current, rule.Threshold) {
			fired = append(fired, Alert{
				Severity:  rule.Severity,
				Metric:    rule.Metric,
				Current:   current,
				Threshold: rule.Threshold,
				Message:   rule.Metric + " crossed threshold",
				Timestamp: now,
			})
		}
	}
	if len(fired) == 0 {
		return
	}

	m.mu.Lock()
	m.alerts = append(m.alerts, fired...)
	if len(m.alerts) > m.cfg.MaxAlerts {
		m.alerts = m.alerts[len(m.alerts)-m.cfg.MaxAlerts:]
	}
	handlers := append([]Handler(nil), m.handlers...)
	m.mu.Unlock()

	for _, a := range fired {
		m.counterAlert.WithLabelValues(string(a.Severity)).Inc()
		for _, h := range handlers {
			h(a)
		}
	}
}

// History returns a copy of the rolling snapshot history.
func (m *Monitor) History() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, len(m.history))
	copy(out, m.history)
	return out
}

// Alerts returns a copy of the bounded alert log.
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Latest returns the most recent snapshot and whether one exists.
func (m *Monitor) Latest() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return Snapshot{}, false
	}
	return m.history[len(m.history)-1], true
}

// Pressure derives the unified-memory pressure level from the latest
// snapshot, escalating monotonically: swap/compressed can only raise the
// percent-derived level, never lower it (spec §4.1).
func (m *Monitor) Pressure() Pressure {
	snap, ok := m.Latest()
	if !ok {
		return PressureNormal
	}
	return derivePressure(snap)
}

func derivePressure(s Snapshot) Pressure {
	level := PressureNormal
	switch {
	case s.UsedPct() >= 90 || s.SwapGB > 2.0:
		level = PressureCritical
	case s.UsedPct() >= 75 || s.SwapGB > 0.5 || s.CompressedGB > 3.0:
		level = PressureWarning
	}
	return level
}

// CanLoad answers whether a model estimated at estimateGB can be loaded
// given the latest snapshot, and a human-readable reason if not.
func (m *Monitor) CanLoad(estimateGB float64) (bool, string) {
	snap, ok := m.Latest()
	if !ok {
		return true, ""
	}
	if snap.UsedGB+estimateGB+m.cfg.SafetyBufferGB > snap.TotalGB {
		return false, "insufficient headroom under safety buffer"
	}
	if snap.SwapGB > 1.0 {
		return false, "swap usage too high"
	}
	if snap.UsedPct() > m.cfg.ThermalThresholdPct {
		return false, "memory usage above thermal threshold"
	}
	return true, ""
}

// RunTimer polls on cfg.PollInterval until ctx is done.
func (m *Monitor) RunTimer(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// NumCPU reports runtime.NumCPU. OSSampler does not call it; its thermal
// estimate divides by GOMAXPROCS instead.
func NumCPU() int { return runtime.NumCPU() }
