package profiler

import (
	"sync"
	"time"
)

// AlertSeverity mirrors resource.Severity's vocabulary for consistency
// across the module's two alerting surfaces.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Metrics is the snapshot of current values the alert rules compare
// against — sourced from ResourceMonitor and Orchestrator counters.
type Metrics struct {
	CPUPercent     float64
	MemoryPercent  float64
	AvailableGB    float64
	ResponseTime   time.Duration
	CacheHitRate   float64
}

// AlertRule compares one metric field to a threshold.
type AlertRule struct {
	Name      string
	Severity  AlertSeverity
	Extract   func(Metrics) float64
	Threshold float64
	// Above is true for >= comparisons, false for < comparisons.
	Above bool
}

// Alert is one active (metric, rule) pair.
type Alert struct {
	Rule      string
	Severity  AlertSeverity
	Value     float64
	Threshold float64
	StartedAt time.Time
	ResolvedAt time.Time
}

// DefaultRules implements the spec's default thresholds: CPU 85/95%,
// memory 80/90%, available <2GB/<1GB, response-time >5s/>10s, cache hit
// rate <0.5.
func DefaultRules() []AlertRule {
	return []AlertRule{
		{Name: "cpu_warning", Severity: SeverityWarning, Above: true, Threshold: 85, Extract: func(m Metrics) float64 { return m.CPUPercent }},
		{Name: "cpu_critical", Severity: SeverityCritical, Above: true, Threshold: 95, Extract: func(m Metrics) float64 { return m.CPUPercent }},
		{Name: "memory_warning", Severity: SeverityWarning, Above: true, Threshold: 80, Extract: func(m Metrics) float64 { return m.MemoryPercent }},
		{Name: "memory_critical", Severity: SeverityCritical, Above: true, Threshold: 90, Extract: func(m Metrics) float64 { return m.MemoryPercent }},
		{Name: "available_warning", Severity: SeverityWarning, Above: false, Threshold: 2.0, Extract: func(m Metrics) float64 { return m.AvailableGB }},
		{Name: "available_critical", Severity: SeverityCritical, Above: false, Threshold: 1.0, Extract: func(m Metrics) float64 { return m.AvailableGB }},
		{Name: "response_time_warning", Severity: SeverityWarning, Above: true, Threshold: 5, Extract: func(m Metrics) float64 { return m.ResponseTime.Seconds() }},
		{Name: "response_time_critical", Severity: SeverityCritical, Above: true, Threshold: 10, Extract: func(m Metrics) float64 { return m.ResponseTime.Seconds() }},
		{Name: "cache_hit_rate_low", Severity: SeverityWarning, Above: false, Threshold: 0.5, Extract: func(m Metrics) float64 { return m.CacheHitRate }},
	}
}

func (r AlertRule) fires(m Metrics) (float64, bool) {
	v := r.Extract(m)
	if r.Above {
		return v, v >= r.Threshold
	}
	return v, v < r.Threshold
}

// AlertManager tracks active alerts per rule, resolving explicitly when a
// rule stops firing.
type AlertManager struct {
	mu     sync.Mutex
	rules  []AlertRule
	active map[string]*Alert
}

// NewAlertManager builds an AlertManager over rules.
func NewAlertManager(rules []AlertRule) *AlertManager {
	return &AlertManager{rules: rules, active: make(map[string]*Alert)}
}

// Check evaluates every rule against m. A rule that newly fires opens an
// alert; a rule that stops firing resolves its open alert (if any).
// Returns the alerts that are active after this check.
func (am *AlertManager) Check(m Metrics, now time.Time) []Alert {
	am.mu.Lock()
	defer am.mu.Unlock()

	for _, rule := range am.rules {
		value, firing := rule.fires(m)
		existing, hasExisting := am.active[rule.Name]

		switch {
		case firing && !hasExisting:
			am.active[rule.Name] = &Alert{
				Rule: rule.Name, Severity: rule.Severity, Value: value,
				Threshold: rule.Threshold, StartedAt: now,
			}
		case firing && hasExisting:
			existing.Value = value
		case !firing && hasExisting:
			delete(am.active, rule.Name)
		}
	}

	out := make([]Alert, 0, len(am.active))
	for _, a := range am.active {
		out = append(out, *a)
	}
	return out
}

// Active returns a copy of the currently active alerts.
func (am *AlertManager) Active() []Alert {
	am.mu.Lock()
	defer am.mu.Unlock()
	out := make([]Alert, 0, len(am.active))
	for _, a := range am.active {
		out = append(out, *a)
	}
	return out
}
