package progress

import (
	"testing"
	"time"

	"github.com/orchestra/orchestra/pkg/cascade/pathgen"
	"github.com/orchestra/orchestra/pkg/cascade/planning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan() planning.ExecutionPlan {
	return planning.Decompose("p1", "x", pathgen.Coding, "moderate", "standard", "production", 20)
}

func TestMonitor_FailureClassifiesObstacle(t *testing.T) {
	plan := newTestPlan()
	m := NewMonitor(&plan, DefaultPerformanceThreshold)
	id := plan.Subtasks[0].ID
	m.Start(id, time.Now())
	m.Update(id, planning.Failed, "request timeout exceeded", time.Now())

	require.Len(t, m.obstacles, 1)
	assert.Equal(t, Timeout, m.obstacles[0].Kind)
	assert.Equal(t, Warning, m.obstacles[0].Severity)
	assert.NotEmpty(t, m.obstacles[0].SuggestedActions)
}

func TestMonitor_ResourceObstacleIsCritical(t *testing.T) {
	plan := newTestPlan()
	m := NewMonitor(&plan, DefaultPerformanceThreshold)
	id := plan.Subtasks[0].ID
	m.Start(id, time.Now())
	m.Update(id, planning.Failed, "out of memory", time.Now())

	require.Len(t, m.obstacles, 1)
	assert.Equal(t, ResourceLimit, m.obstacles[0].Kind)
	assert.Equal(t, Critical, m.obstacles[0].Severity)
	assert.True(t, m.ShouldStopExecution(DefaultNonPerformanceErrorLimit))
}

func TestMonitor_PerformanceIssueOnSlowCompletion(t *testing.T) {
	plan := newTestPlan()
	m := NewMonitor(&plan, DefaultPerformanceThreshold)
	id := plan.Subtasks[0].ID
	start := time.Now()
	m.Start(id, start)
	m.Update(id, planning.Completed, "", start.Add(3*time.Hour))

	require.Len(t, m.obstacles, 1)
	assert.Equal(t, PerformanceIssue, m.obstacles[0].Kind)
}

func TestMonitor_ShouldStopAfterErrorLimit(t *testing.T) {
	plan := newTestPlan()
	m := NewMonitor(&plan, DefaultPerformanceThreshold)
	for i := 0; i < 3; i++ {
		id := plan.Subtasks[i].ID
		m.Start(id, time.Now())
		m.Update(id, planning.Failed, "generic failure", time.Now())
	}
	assert.True(t, m.ShouldStopExecution(DefaultNonPerformanceErrorLimit))
}

func TestMonitor_GenerateReportTracksProgress(t *testing.T) {
	plan := newTestPlan()
	m := NewMonitor(&plan, DefaultPerformanceThreshold)
	id := plan.Subtasks[0].ID
	start := time.Now()
	m.Start(id, start)
	m.Update(id, planning.Completed, "", start.Add(time.Hour))

	report := m.GenerateReport(start.Add(2 * time.Hour))
	assert.Greater(t, report.ProgressPercent, 0.0)
	assert.Less(t, report.ProgressPercent, 100.0)
}
