package orchestrator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	orcherrors "github.com/orchestra/orchestra/pkg/errors"
	"github.com/orchestra/orchestra/pkg/promptcatalog"
	"github.com/orchestra/orchestra/pkg/resource"
	"github.com/orchestra/orchestra/pkg/responsecache"
	"github.com/orchestra/orchestra/pkg/rolemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSelector struct{ model string }

func (s stubSelector) Select(role string, constraints rolemap.SystemConstraints, criteria rolemap.SelectionCriteria) (rolemap.Selection, bool) {
	return rolemap.Selection{Name: s.model + ":" + role}, true
}

type stubFactory struct {
	responses   map[string]string
	loadCalls   []string
	unloadCalls []string
	invokeCalls int

	// failLoadsRemaining, if > 0, makes that many more Load calls return
	// loadErr before Load starts succeeding.
	failLoadsRemaining int
	loadErr            error
}

func (f *stubFactory) Load(ctx context.Context, name string) error {
	f.loadCalls = append(f.loadCalls, name)
	if f.failLoadsRemaining > 0 {
		f.failLoadsRemaining--
		return f.loadErr
	}
	return nil
}
func (f *stubFactory) Unload(ctx context.Context, name string) error {
	f.unloadCalls = append(f.unloadCalls, name)
	return nil
}
func (f *stubFactory) Invoke(ctx context.Context, name, prompt string, temperature float64, maxTokens int, timeout time.Duration) (string, error) {
	f.invokeCalls++
	return f.responses[name], nil
}
func (f *stubFactory) CleanupIdle(ctx context.Context, maxIdleSeconds int) int { return 0 }

type stubCache struct {
	entries map[string]responsecache.Entry
	gets    int
	sets    int
}

func newStubCache() *stubCache { return &stubCache{entries: map[string]responsecache.Entry{}} }

func (c *stubCache) Get(key string) (responsecache.Entry, bool) {
	c.gets++
	e, ok := c.entries[key]
	return e, ok
}

func (c *stubCache) Set(key string, entry responsecache.Entry) {
	c.sets++
	c.entries[key] = entry
}

type stubMonitor struct{ used float64 }

func (m stubMonitor) Latest() (resource.Snapshot, bool) {
	return resource.Snapshot{UsedGB: m.used}, true
}

func validPlanJSON(t *testing.T) string {
	t.Helper()
	plan := promptcatalog.Plan{
		PlanSummary: "do it",
		Complexity:  "simple",
		TotalSteps:  1,
		Steps:       []promptcatalog.PlanStep{{StepNumber: 1, Description: "step one"}},
	}
	b, err := json.Marshal(plan)
	require.NoError(t, err)
	return string(b)
}

func TestProcess_HappyPathAcceptsOnFirstCritique(t *testing.T) {
	plan := validPlanJSON(t)
	factory := &stubFactory{responses: map[string]string{
		"m:planner":  plan,
		"m:critic":   `{"is_valid":true,"risk_score":0.1}`,
		"m:executor": "final output",
	}}
	o := New(stubSelector{model: "m"}, factory, promptcatalog.New(), stubMonitor{used: 5}, nil, nil, Config{
		MaxCriticIterations: 3, RiskThreshold: 0.3, InvokeTimeout: time.Second,
	})

	result := o.Process(context.Background(), "do something", "", "")
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "final output", result.Output)
	assert.Equal(t, []string{"m:planner", "m:critic", "m:executor"}, factory.loadCalls)
	assert.ElementsMatch(t, factory.unloadCalls, []string{"m:planner", "m:critic", "m:executor"})
}

func TestProcess_InvalidPlanFailsFast(t *testing.T) {
	factory := &stubFactory{responses: map[string]string{
		"m:planner": `not json`,
	}}
	o := New(stubSelector{model: "m"}, factory, promptcatalog.New(), stubMonitor{}, nil, nil, DefaultConfig())

	result := o.Process(context.Background(), "x", "", "")
	assert.Equal(t, StatusFailed, result.Status)
	assert.Error(t, result.Error)
}

func TestProcess_CritiqueLoopExhaustsWithWarning(t *testing.T) {
	plan := validPlanJSON(t)
	factory := &stubFactory{responses: map[string]string{
		"m:planner":  plan,
		"m:critic":   `{"is_valid":false,"risk_score":0.9}`,
		"m:executor": "out",
	}}
	o := New(stubSelector{model: "m"}, factory, promptcatalog.New(), stubMonitor{}, nil, nil, Config{
		MaxCriticIterations: 2, RiskThreshold: 0.3, InvokeTimeout: time.Second,
	})

	result := o.Process(context.Background(), "x", "", "")
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Contains(t, result.Warning, "exhausted")
}

func TestProcess_SecondIdenticalCallHitsCacheAndSkipsInference(t *testing.T) {
	plan := validPlanJSON(t)
	factory := &stubFactory{responses: map[string]string{
		"m:planner":  plan,
		"m:critic":   `{"is_valid":true,"risk_score":0.1}`,
		"m:executor": "final output",
	}}
	cache := newStubCache()
	o := New(stubSelector{model: "m"}, factory, promptcatalog.New(), stubMonitor{}, nil, cache, Config{
		MaxCriticIterations: 3, RiskThreshold: 0.3, InvokeTimeout: time.Second,
	})

	first := o.Process(context.Background(), "do something", "ctx", "")
	require.Equal(t, StatusCompleted, first.Status)
	invokesAfterFirst := factory.invokeCalls
	require.Positive(t, invokesAfterFirst)

	second := o.Process(context.Background(), "do something", "ctx", "")
	assert.Equal(t, StatusCompleted, second.Status)
	assert.Equal(t, "final output", second.Output)
	assert.Equal(t, invokesAfterFirst, factory.invokeCalls, "second identical Process call must not invoke the model again")
}

func TestSelectModel_NoCandidateIsNotAvailable(t *testing.T) {
	o := New(stubSelectorNone{}, &stubFactory{}, promptcatalog.New(), stubMonitor{}, nil, nil, DefaultConfig())

	_, err := o.selectModel("planner")
	require.Error(t, err)
	assert.ErrorIs(t, err, orcherrors.ErrNotAvailable)
}

type stubSelectorNone struct{}

func (stubSelectorNone) Select(role string, constraints rolemap.SystemConstraints, criteria rolemap.SelectionCriteria) (rolemap.Selection, bool) {
	return rolemap.Selection{}, false
}

func TestLoadModel_RetriesOnceAfterResourceExhausted(t *testing.T) {
	factory := &stubFactory{
		failLoadsRemaining: 1,
		loadErr:            orcherrors.NewResourceExhausted("test", assert.AnError),
	}
	o := New(stubSelector{model: "m"}, factory, promptcatalog.New(), stubMonitor{}, nil, nil, DefaultConfig())

	err := o.loadModel(context.Background(), "m:planner", "planner")
	require.NoError(t, err)
	assert.Len(t, factory.loadCalls, 2)
}

func TestClassify_DistinguishesCancelledFromFailed(t *testing.T) {
	cancelled := classify(context.Canceled, WorkflowResult{})
	assert.Equal(t, StatusCancelled, cancelled.Status)

	failed := classify(assert.AnError, WorkflowResult{})
	assert.Equal(t, StatusFailed, failed.Status)
}
