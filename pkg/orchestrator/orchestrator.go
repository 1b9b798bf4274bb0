// Package orchestrator implements the three-phase Planner/Critic/Executor
// workflow: a plan is produced, iteratively critiqued and refined to a
// risk-score threshold, then executed, each phase borrowing a model from
// the factory for the duration of its invocation.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	orcherrors "github.com/orchestra/orchestra/pkg/errors"
	"github.com/orchestra/orchestra/pkg/promptcatalog"
	"github.com/orchestra/orchestra/pkg/resource"
	"github.com/orchestra/orchestra/pkg/responsecache"
	"github.com/orchestra/orchestra/pkg/rolemap"
)

// Status is the closed set of workflow outcomes.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// WorkflowResult is the outcome of Process.
type WorkflowResult struct {
	Status     Status
	Output     string
	Plan       promptcatalog.Plan
	Warning    string
	Error      error
	MemoryUsed float64
}

// Factory is the subset of ModelFactory the Orchestrator depends on.
type Factory interface {
	Load(ctx context.Context, name string) error
	Unload(ctx context.Context, name string) error
	Invoke(ctx context.Context, name, prompt string, temperature float64, maxTokens int, timeout time.Duration) (string, error)
	CleanupIdle(ctx context.Context, maxIdleSeconds int) int
}

// Cache is the subset of ResponseCache the Orchestrator consults before,
// and populates after, every model invocation (spec §2: "Cache sits in
// front of the Invoker").
type Cache interface {
	Get(key string) (responsecache.Entry, bool)
	Set(key string, entry responsecache.Entry)
}

// Selector is the subset of RoleMapper the Orchestrator depends on.
type Selector interface {
	Select(role string, constraints rolemap.SystemConstraints, criteria rolemap.SelectionCriteria) (rolemap.Selection, bool)
}

// Profiler records named timing spans.
type Profiler interface {
	Profile(name string) func()
}

// Snapshotter is the subset of ResourceMonitor the Orchestrator depends
// on for memoryUsed accounting.
type Snapshotter interface {
	Latest() (resource.Snapshot, bool)
}

// Config controls the refinement loop and invocation defaults.
type Config struct {
	MaxCriticIterations int
	RiskThreshold       float64
	RefinementBackoff   time.Duration
	InvokeTimeout       time.Duration
	SystemConstraints   rolemap.SystemConstraints
}

// DefaultConfig returns the spec's default Orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		MaxCriticIterations: 3,
		RiskThreshold:       0.3,
		RefinementBackoff:   time.Second,
		InvokeTimeout:       60 * time.Second,
	}
}

// Orchestrator runs the Planner/Critic/Executor workflow.
type Orchestrator struct {
	selector Selector
	factory  Factory
	catalog  *promptcatalog.Catalog
	monitor  Snapshotter
	profiler Profiler
	cache    Cache
	cfg      Config
}

// New builds an Orchestrator. cache may be nil, in which case every
// invocation bypasses the cache (used by tests that don't exercise it).
func New(selector Selector, factory Factory, catalog *promptcatalog.Catalog, monitor Snapshotter, profiler Profiler, cache Cache, cfg Config) *Orchestrator {
	return &Orchestrator{selector: selector, factory: factory, catalog: catalog, monitor: monitor, profiler: profiler, cache: cache, cfg: cfg}
}

func (o *Orchestrator) span(name string) func() {
	if o.profiler == nil {
		return func() {}
	}
	return o.profiler.Profile(name)
}

func (o *Orchestrator) memorySnapshot() float64 {
	if o.monitor == nil {
		return 0
	}
	snap, ok := o.monitor.Latest()
	if !ok {
		return 0
	}
	return snap.UsedGB
}

// Process runs Plan -> Critique -> Execute for userInput.
func (o *Orchestrator) Process(ctx context.Context, userInput, cascadeContext, additionalContext string) WorkflowResult {
	initialMem := o.memorySnapshot()

	plan, err := o.runPlanning(ctx, userInput, cascadeContext)
	if err != nil {
		return classify(err, WorkflowResult{})
	}

	plan, warning, err := o.runCritique(ctx, userInput, plan)
	if err != nil {
		return classify(err, WorkflowResult{Plan: plan})
	}

	output, err := o.runExecution(ctx, plan, additionalContext)
	if err != nil {
		return classify(err, WorkflowResult{Plan: plan})
	}

	finalMem := o.memorySnapshot()

	return WorkflowResult{
		Status:     StatusCompleted,
		Output:     output,
		Plan:       plan,
		Warning:    warning,
		MemoryUsed: finalMem - initialMem,
	}
}

// classify maps a phase error onto a terminal WorkflowResult. Cooperative
// cancellation (§5 "Cancellation") is not a failure for reporting
// purposes: it gets its own status rather than StatusFailed.
func classify(err error, partial WorkflowResult) WorkflowResult {
	if errors.Is(err, context.Canceled) || errors.Is(err, orcherrors.ErrCancelled) {
		partial.Status = StatusCancelled
		partial.Error = err
		return partial
	}
	partial.Status = StatusFailed
	partial.Error = err
	return partial
}

// selectModel picks a candidate for role without loading it, so the
// caller can fingerprint the cache key before paying for a load.
func (o *Orchestrator) selectModel(role string) (string, error) {
	sel, ok := o.selector.Select(role, o.cfg.SystemConstraints, rolemap.SelectionCriteria{})
	if !ok {
		return "", orcherrors.NewNotAvailable("orchestrator.selectModel", fmt.Errorf("no model satisfies role %q", role))
	}
	return sel.Name, nil
}

// loadModel loads modelName, retrying once after CleanupIdle when the
// factory reports ResourceExhausted (§7).
func (o *Orchestrator) loadModel(ctx context.Context, modelName, role string) error {
	err := o.factory.Load(ctx, modelName)
	if err != nil && errors.Is(err, orcherrors.ErrResourceExhausted) {
		o.factory.CleanupIdle(ctx, 0)
		err = o.factory.Load(ctx, modelName)
	}
	if err != nil {
		return fmt.Errorf("orchestrator: loading %q for role %q: %w", modelName, role, err)
	}
	return nil
}

// unloadBestEffort unloads modelName even when ctx has already been
// cancelled, per §5's "attempt to unload any loaded model (best-effort)"
// on observed cancellation.
func (o *Orchestrator) unloadBestEffort(ctx context.Context, modelName string) {
	uctx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		uctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := o.factory.Unload(uctx, modelName); err != nil {
		slog.Warn("best-effort unload failed", "model", modelName, "error", err)
	}
}

// cachedInvoke consults the Cache before invoking, and populates it after
// a successful invocation (spec §2: "Cache sits in front of the
// Invoker"). fingerprintContext distinguishes calls that share identical
// prompt text across phases (e.g. critic vs. refinement).
func (o *Orchestrator) cachedInvoke(ctx context.Context, modelName, prompt string, cfg promptcatalog.PromptConfig, fingerprintContext string) (string, error) {
	if o.cache == nil {
		return o.factory.Invoke(ctx, modelName, prompt, cfg.Temperature, cfg.MaxTokens, o.cfg.InvokeTimeout)
	}

	key := responsecache.Fingerprint(prompt, modelName, fingerprintContext)
	if entry, hit := o.cache.Get(key); hit {
		return entry.Response, nil
	}

	out, err := o.factory.Invoke(ctx, modelName, prompt, cfg.Temperature, cfg.MaxTokens, o.cfg.InvokeTimeout)
	if err != nil {
		return "", err
	}
	o.cache.Set(key, responsecache.Entry{Query: prompt, Response: out, Model: modelName})
	return out, nil
}

// runPlanning is Phase P.
func (o *Orchestrator) runPlanning(ctx context.Context, userInput, cascadeContext string) (promptcatalog.Plan, error) {
	done := o.span("phase.planning")
	defer done()

	modelName, err := o.selectModel("planner")
	if err != nil {
		return promptcatalog.Plan{}, err
	}

	cfg, ok := o.catalog.Get(promptcatalog.Planner, promptcatalog.Default)
	if !ok {
		return promptcatalog.Plan{}, orcherrors.NewInternal("orchestrator.runPlanning", fmt.Errorf("no planner prompt config"))
	}
	prompt, err := promptcatalog.Format(cfg.UserTemplate, map[string]string{"userInput": userInput, "context": cascadeContext})
	if err != nil {
		return promptcatalog.Plan{}, fmt.Errorf("orchestrator: formatting planner prompt: %w", err)
	}
	fullPrompt := cfg.SystemPrompt + "\n\n" + prompt

	if err := o.loadModel(ctx, modelName, "planner"); err != nil {
		return promptcatalog.Plan{}, err
	}
	defer o.unloadBestEffort(ctx, modelName)

	plan, err := o.invokePlan(ctx, modelName, fullPrompt, cfg, cascadeContext)
	if err != nil && errors.Is(err, orcherrors.ErrShape) {
		// ShapeError: one automatic retry re-invoking with the same prompt (§7).
		plan, err = o.invokePlan(ctx, modelName, fullPrompt, cfg, cascadeContext)
	}
	if err != nil {
		return promptcatalog.Plan{}, err
	}

	return plan, nil
}

func (o *Orchestrator) invokePlan(ctx context.Context, modelName, fullPrompt string, cfg promptcatalog.PromptConfig, fingerprintContext string) (promptcatalog.Plan, error) {
	raw, err := o.cachedInvoke(ctx, modelName, fullPrompt, cfg, fingerprintContext)
	if err != nil {
		return promptcatalog.Plan{}, fmt.Errorf("orchestrator: planner invocation: %w", err)
	}

	var plan promptcatalog.Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return promptcatalog.Plan{}, orcherrors.NewShape("orchestrator.runPlanning", err)
	}
	if valid, _ := promptcatalog.ValidateShape(plan); !valid {
		return promptcatalog.Plan{}, orcherrors.NewShape("orchestrator.runPlanning", fmt.Errorf("planner response failed shape validation"))
	}
	return plan, nil
}

// critiqueResponse mirrors the wire shape of a Critique.
type critiqueResponse struct {
	IsValid   bool    `json:"is_valid"`
	RiskScore float64 `json:"risk_score"`
}

// runCritique is Phase C: the refinement loop.
func (o *Orchestrator) runCritique(ctx context.Context, userInput string, plan promptcatalog.Plan) (promptcatalog.Plan, string, error) {
	done := o.span("phase.critique")
	defer done()

	modelName, err := o.selectModel("critic")
	if err != nil {
		return plan, "", err
	}
	if err := o.loadModel(ctx, modelName, "critic"); err != nil {
		return plan, "", err
	}
	defer o.unloadBestEffort(ctx, modelName)

	criticCfg, ok := o.catalog.Get(promptcatalog.Critic, promptcatalog.Default)
	if !ok {
		return plan, "", orcherrors.NewInternal("orchestrator.runCritique", fmt.Errorf("no critic prompt config"))
	}
	refinementCfg, _ := o.catalog.Get(promptcatalog.Refinement, promptcatalog.Default)

	maxIterations := o.cfg.MaxCriticIterations
	if maxIterations <= 0 {
		maxIterations = 3
	}

	current := plan
	for i := 0; i < maxIterations; i++ {
		planJSON, _ := json.Marshal(current)
		criticPrompt, err := promptcatalog.Format(criticCfg.UserTemplate, map[string]string{"plan": string(planJSON), "userInput": userInput})
		if err != nil {
			return current, "", err
		}

		fullCriticPrompt := criticCfg.SystemPrompt + "\n\n" + criticPrompt
		raw, err := o.cachedInvoke(ctx, modelName, fullCriticPrompt, criticCfg, fmt.Sprintf("critique:%d:%s", i, userInput))
		if err != nil {
			return current, "", fmt.Errorf("orchestrator: critic invocation: %w", err)
		}

		var critique critiqueResponse
		if err := json.Unmarshal([]byte(raw), &critique); err != nil {
			// ShapeError: the next loop iteration re-invokes with the same
			// (unchanged) plan, which already gives this one retry (§7).
			slog.Warn("critic response did not parse, skipping iteration", "error", orcherrors.NewShape("orchestrator.runCritique", err))
			continue
		}

		if critique.IsValid && critique.RiskScore < o.cfg.RiskThreshold {
			return current, "", nil
		}

		critiqueJSON, _ := json.Marshal(critique)
		refinementPrompt, err := promptcatalog.Format(refinementCfg.UserTemplate, map[string]string{"plan": string(planJSON), "critique": string(critiqueJSON)})
		if err == nil {
			fullRefinementPrompt := refinementCfg.SystemPrompt + "\n\n" + refinementPrompt
			refinedRaw, err := o.cachedInvoke(ctx, modelName, fullRefinementPrompt, refinementCfg, fmt.Sprintf("refinement:%d:%s", i, userInput))
			if err == nil {
				var refined promptcatalog.Plan
				if json.Unmarshal([]byte(refinedRaw), &refined) == nil {
					if valid, _ := promptcatalog.ValidateShape(refined); valid {
						current = refined
					}
				}
			}
		}

		if i < maxIterations-1 && o.cfg.RefinementBackoff > 0 {
			time.Sleep(o.cfg.RefinementBackoff)
		}
	}

	return current, "critique refinement loop exhausted iterations without reaching the risk threshold", nil
}

// runExecution is Phase E.
func (o *Orchestrator) runExecution(ctx context.Context, plan promptcatalog.Plan, additionalContext string) (string, error) {
	done := o.span("phase.execution")
	defer done()

	modelName, err := o.selectModel("executor")
	if err != nil {
		return "", err
	}
	if err := o.loadModel(ctx, modelName, "executor"); err != nil {
		return "", err
	}
	defer o.unloadBestEffort(ctx, modelName)

	cfg, ok := o.catalog.Get(promptcatalog.Executor, promptcatalog.Default)
	if !ok {
		return "", orcherrors.NewInternal("orchestrator.runExecution", fmt.Errorf("no executor prompt config"))
	}
	planJSON, _ := json.Marshal(plan)
	prompt, err := promptcatalog.Format(cfg.UserTemplate, map[string]string{"plan": string(planJSON), "additionalContext": additionalContext})
	if err != nil {
		return "", err
	}

	out, err := o.cachedInvoke(ctx, modelName, cfg.SystemPrompt+"\n\n"+prompt, cfg, additionalContext)
	if err != nil {
		return "", fmt.Errorf("orchestrator: executor invocation: %w", err)
	}
	return out, nil
}
