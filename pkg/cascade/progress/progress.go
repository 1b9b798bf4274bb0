// Package progress implements Cascade stage seven: tracking subtask
// timing, classifying failures into obstacles, and deciding whether
// execution should stop.
package progress

import (
	"strings"
	"time"

	"github.com/orchestra/orchestra/pkg/cascade/planning"
)

// ObstacleKind is the closed set of obstacle classifications.
type ObstacleKind string

const (
	Timeout           ObstacleKind = "timeout"
	Error             ObstacleKind = "error"
	ResourceLimit     ObstacleKind = "resource_limit"
	DependencyFailure ObstacleKind = "dependency_failure"
	QualityIssue      ObstacleKind = "quality_issue"
	PerformanceIssue  ObstacleKind = "performance_issue"
	UnknownObstacle   ObstacleKind = "unknown"
)

// Severity is the closed set of obstacle severities.
type Severity string

const (
	Info     Severity = "info"
	Warning  Severity = "warning"
	ErrorSev Severity = "error"
	Critical Severity = "critical"
)

// Obstacle is one recorded problem encountered during execution.
type Obstacle struct {
	Kind              ObstacleKind
	SubtaskID         string
	Severity          Severity
	SuggestedActions  []string
	Context           string
	Timestamp         time.Time
}

var suggestedActions = map[ObstacleKind][]string{
	Timeout:           {"increase timeout", "simplify the prompt", "switch to a faster model"},
	ResourceLimit:     {"unload unused models", "reduce batch size", "wait for memory to free up"},
	DependencyFailure: {"retry the dependency", "skip and mark downstream tasks blocked"},
	Error:             {"inspect the error message", "retry with adjusted prompt"},
	QualityIssue:      {"request a refinement pass", "switch to a stronger model"},
	PerformanceIssue:  {"profile the slow step", "consider a smaller model"},
	UnknownObstacle:   {"inspect logs for more detail"},
}

func classify(errMsg string) ObstacleKind {
	lower := strings.ToLower(errMsg)
	switch {
	case strings.Contains(lower, "timeout"):
		return Timeout
	case strings.Contains(lower, "memory"), strings.Contains(lower, "resource"):
		return ResourceLimit
	case strings.Contains(lower, "dependency"):
		return DependencyFailure
	default:
		return Error
	}
}

func severityFor(kind ObstacleKind) Severity {
	switch kind {
	case ResourceLimit:
		return Critical
	case Timeout:
		return Warning
	default:
		return ErrorSev
	}
}

// DefaultPerformanceThreshold is the multiplier over expected duration
// beyond which a completed subtask is flagged as a performance issue.
const DefaultPerformanceThreshold = 2.0

// TestModePerformanceThreshold is the lower threshold used in test mode.
const TestModePerformanceThreshold = 1.5

// DefaultNonPerformanceErrorLimit is the number of non-performance
// obstacles that triggers ShouldStopExecution.
const DefaultNonPerformanceErrorLimit = 3

// subtaskTiming tracks start/finish for duration computation.
type subtaskTiming struct {
	start, finish time.Time
}

// Monitor tracks progress for one ExecutionPlan.
type Monitor struct {
	plan                 *planning.ExecutionPlan
	timings              map[string]*subtaskTiming
	obstacles            []Obstacle
	performanceThreshold float64
	started              time.Time
}

// NewMonitor builds a Monitor for plan with the given performance
// threshold (use DefaultPerformanceThreshold or TestModePerformanceThreshold).
func NewMonitor(plan *planning.ExecutionPlan, performanceThreshold float64) *Monitor {
	return &Monitor{
		plan:                  plan,
		timings:               make(map[string]*subtaskTiming),
		performanceThreshold:  performanceThreshold,
		started:               time.Now(),
	}
}

// Start records a subtask's start timestamp.
func (m *Monitor) Start(subtaskID string, at time.Time) {
	m.timings[subtaskID] = &subtaskTiming{start: at}
}

// Update records a status transition. On failure it classifies and
// appends an Obstacle; on completion it checks the performance threshold.
func (m *Monitor) Update(subtaskID string, status planning.Status, errMsg string, at time.Time) {
	for i := range m.plan.Subtasks {
		if m.plan.Subtasks[i].ID == subtaskID {
			m.plan.Subtasks[i].Status = status
			break
		}
	}

	timing, ok := m.timings[subtaskID]
	if !ok {
		timing = &subtaskTiming{start: at}
		m.timings[subtaskID] = timing
	}

	switch status {
	case planning.Failed:
		kind := classify(errMsg)
		m.obstacles = append(m.obstacles, Obstacle{
			Kind:             kind,
			SubtaskID:        subtaskID,
			Severity:         severityFor(kind),
			SuggestedActions: suggestedActions[kind],
			Context:          errMsg,
			Timestamp:        at,
		})
	case planning.Completed:
		timing.finish = at
		var expected float64
		for _, s := range m.plan.Subtasks {
			if s.ID == subtaskID {
				expected = s.EstimatedHours
			}
		}
		actualHours := timing.finish.Sub(timing.start).Hours()
		if expected > 0 && actualHours > expected*m.performanceThreshold {
			m.obstacles = append(m.obstacles, Obstacle{
				Kind:             PerformanceIssue,
				SubtaskID:        subtaskID,
				Severity:         Warning,
				SuggestedActions: suggestedActions[PerformanceIssue],
				Context:          "actual duration exceeded expected by performance threshold",
				Timestamp:        at,
			})
		}
	}
}

// Duration returns the observed duration for subtaskID, if both start and
// finish have been recorded.
func (m *Monitor) Duration(subtaskID string) (time.Duration, bool) {
	t, ok := m.timings[subtaskID]
	if !ok || t.finish.IsZero() {
		return 0, false
	}
	return t.finish.Sub(t.start), true
}

// ShouldStopExecution is true when any critical obstacle exists, or when
// non-performance errors reach the given limit.
func (m *Monitor) ShouldStopExecution(nonPerformanceErrorLimit int) bool {
	nonPerfErrors := 0
	for _, o := range m.obstacles {
		if o.Severity == Critical {
			return true
		}
		if o.Kind != PerformanceIssue {
			nonPerfErrors++
		}
	}
	return nonPerfErrors >= nonPerformanceErrorLimit
}

// Report is the generated progress snapshot.
type Report struct {
	ProgressPercent  float64
	CurrentSubtaskID string
	Obstacles        []Obstacle
	ElapsedTime      time.Duration
	RemainingTime    time.Duration
}

// GenerateReport summarizes progress, adjusting the remaining-time
// estimate by the empirical performance ratio observed so far.
func (m *Monitor) GenerateReport(now time.Time) Report {
	total := len(m.plan.Subtasks)
	completed := 0
	var current string
	var totalExpected, totalActual float64

	for _, s := range m.plan.Subtasks {
		if s.Status == planning.Completed {
			completed++
		}
		if s.Status == planning.InProgress {
			current = s.ID
		}
		if dur, ok := m.Duration(s.ID); ok {
			totalExpected += s.EstimatedHours
			totalActual += dur.Hours()
		}
	}

	ratio := 1.0
	if totalExpected > 0 {
		ratio = totalActual / totalExpected
	}

	remainingHours := 0.0
	for _, s := range m.plan.Subtasks {
		if s.Status != planning.Completed {
			remainingHours += s.EstimatedHours * ratio
		}
	}

	percent := 0.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}

	return Report{
		ProgressPercent:  percent,
		CurrentSubtaskID: current,
		Obstacles:        m.obstacles,
		ElapsedTime:      now.Sub(m.started),
		RemainingTime:    time.Duration(remainingHours * float64(time.Hour)),
	}
}
