// Package modelfactory implements ModelFactory: exclusive load/unload of
// model instances under a memory budget, with hot-swap and per-model
// circuit breaking around invocation failures. Grounded structurally on
// the teacher's pkg/agent/orchestrator/runner.go SubAgentRunner: a
// mutex-guarded map, reserve-before-register to avoid TOCTOU races on
// concurrent operations, and a done-channel join for in-flight work.
package modelfactory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	orcherrors "github.com/orchestra/orchestra/pkg/errors"
)

// Loader performs the actual load/unload mechanics for a named model.
type Loader interface {
	Load(ctx context.Context, name string) error
	Unload(ctx context.Context, name string) error
}

// Invoker is the substitutable backend-invocation capability (spec §6).
type Invoker interface {
	Invoke(ctx context.Context, modelName, prompt string, temperature float64, maxTokens int, timeout time.Duration) (string, error)
}

type inFlight struct {
	done chan struct{}
	err  error
}

// Factory maintains a map of named model instances and enforces a memory
// budget across all currently-loaded instances.
type Factory struct {
	mu         sync.Mutex
	instances  map[string]*Instance
	loading    map[string]*inFlight
	breakers   map[string]*gobreaker.CircuitBreaker

	loader      Loader
	invoker     Invoker
	maxMemoryGB float64
	totalUsage  float64
	loadDeadline time.Duration

	memoryEstimates map[string]float64
}

// NewFactory builds a Factory. memoryEstimates maps model name to its
// declared recommendedMemoryGB, used for budget accounting on load/unload.
func NewFactory(loader Loader, invoker Invoker, maxMemoryGB float64, memoryEstimates map[string]float64) *Factory {
	return &Factory{
		instances:       make(map[string]*Instance),
		loading:         make(map[string]*inFlight),
		breakers:        make(map[string]*gobreaker.CircuitBreaker),
		loader:          loader,
		invoker:         invoker,
		maxMemoryGB:     maxMemoryGB,
		loadDeadline:    60 * time.Second,
		memoryEstimates: memoryEstimates,
	}
}

// WithLoadDeadline overrides the default 60s load deadline. A zero or
// negative d is a no-op, so callers can pass an unvalidated config value
// straight through.
func (f *Factory) WithLoadDeadline(d time.Duration) *Factory {
	if d > 0 {
		f.loadDeadline = d
	}
	return f
}

func (f *Factory) breakerFor(name string) *gobreaker.CircuitBreaker {
	if b, ok := f.breakers[name]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	f.breakers[name] = b
	return b
}

// withinBudget assumes f.mu is held.
func (f *Factory) withinBudget(extraGB float64) bool {
	return f.totalUsage+extraGB <= f.maxMemoryGB
}

// ValidateMemoryBudget answers whether totalUsage+extraGB fits the
// registry's max memory.
func (f *Factory) ValidateMemoryBudget(extraGB float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.withinBudget(extraGB)
}

// Load loads the named model, joining an in-flight load if one is already
// underway. Concurrent Load calls on the same instance share the result.
func (f *Factory) Load(ctx context.Context, name string) error {
	f.mu.Lock()
	if inst, ok := f.instances[name]; ok && inst.State == StateLoaded {
		f.mu.Unlock()
		return nil
	}
	if flight, ok := f.loading[name]; ok {
		f.mu.Unlock()
		select {
		case <-flight.done:
			return flight.err
		case <-ctx.Done():
			return orcherrors.NewCancelled("modelfactory.Load")
		}
	}

	estimate := f.memoryEstimates[name]
	if !f.withinBudget(estimate) {
		available := f.maxMemoryGB - f.totalUsage
		f.mu.Unlock()
		return orcherrors.NewResourceExhausted("modelfactory.Load", fmt.Errorf("loading %q needs %.2fGB, only %.2fGB free of %.2fGB budget", name, estimate, available, f.maxMemoryGB))
	}

	flight := &inFlight{done: make(chan struct{})}
	f.loading[name] = flight
	f.instances[name] = &Instance{Name: name, State: StateLoading}
	f.mu.Unlock()

	loadCtx, cancel := context.WithTimeout(ctx, f.loadDeadline)
	defer cancel()

	err := f.loader.Load(loadCtx, name)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.loading, name)
	close(flight.done)
	flight.err = err

	inst := f.instances[name]
	if err != nil {
		inst.State = StateError
		inst.ErrorCount++
		inst.LastError = "loading timeout or failure: " + err.Error()
		slog.Warn("model load failed", "model", name, "error", err)
		return orcherrors.NewResourceExhausted("modelfactory.Load", err)
	}

	inst.State = StateLoaded
	inst.LoadedAt = time.Now()
	inst.MemoryUsageGB = estimate
	f.totalUsage += estimate

	return nil
}

// Unload unloads the named model, subtracting its declared memory from
// the tracked usage.
func (f *Factory) Unload(ctx context.Context, name string) error {
	f.mu.Lock()
	inst, ok := f.instances[name]
	if !ok || inst.State == StateUnloaded {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	if err := f.loader.Unload(ctx, name); err != nil {
		return orcherrors.NewInternal("modelfactory.Unload", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalUsage -= inst.MemoryUsageGB
	if f.totalUsage < 0 {
		f.totalUsage = 0
	}
	inst.State = StateUnloaded
	inst.MemoryUsageGB = 0
	return nil
}

// Switch guarantees at-most-one resident large model: old is unloaded
// first, new is loaded second. If loading new fails, the slot is left
// empty — the caller decides whether to reload old.
func (f *Factory) Switch(ctx context.Context, oldName, newName string) error {
	if oldName != "" {
		f.mu.Lock()
		if inst, ok := f.instances[oldName]; ok {
			inst.State = StateSwitching
		}
		f.mu.Unlock()

		if err := f.Unload(ctx, oldName); err != nil {
			return err
		}
	}
	return f.Load(ctx, newName)
}

// Invoke runs prompt through the named model's Invoker, behind a per-model
// circuit breaker, and stamps LastUsedAt on success.
func (f *Factory) Invoke(ctx context.Context, name, prompt string, temperature float64, maxTokens int, timeout time.Duration) (string, error) {
	f.mu.Lock()
	breaker := f.breakerFor(name)
	f.mu.Unlock()

	result, err := breaker.Execute(func() (interface{}, error) {
		return f.invoker.Invoke(ctx, name, prompt, temperature, maxTokens, timeout)
	})
	if err != nil {
		f.mu.Lock()
		if inst, ok := f.instances[name]; ok {
			inst.ErrorCount++
			inst.LastError = err.Error()
		}
		f.mu.Unlock()
		return "", orcherrors.NewBackendFailure("modelfactory.Invoke", err)
	}

	f.mu.Lock()
	if inst, ok := f.instances[name]; ok {
		inst.LastUsedAt = time.Now()
	}
	f.mu.Unlock()

	return result.(string), nil
}

// CleanupIdle unloads instances idle for longer than maxIdleSeconds and
// returns the count unloaded.
func (f *Factory) CleanupIdle(ctx context.Context, maxIdleSeconds int) int {
	f.mu.Lock()
	var toUnload []string
	now := time.Now()
	for name, inst := range f.instances {
		if inst.State != StateLoaded {
			continue
		}
		if inst.LastUsedAt.IsZero() {
			continue
		}
		if now.Sub(inst.LastUsedAt) > time.Duration(maxIdleSeconds)*time.Second {
			toUnload = append(toUnload, name)
		}
	}
	f.mu.Unlock()

	count := 0
	for _, name := range toUnload {
		if err := f.Unload(ctx, name); err == nil {
			count++
		}
	}
	return count
}

// Snapshot returns a copy of the named instance's state.
func (f *Factory) Snapshot(name string) (Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[name]
	if !ok {
		return Snapshot{}, false
	}
	return *inst, true
}

// Active returns a copy of all currently-loaded instance snapshots —
// callers take a snapshot rather than holding a reference into the
// factory's internal map (spec §5 "Shared resources").
func (f *Factory) Active() map[string]Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Snapshot)
	for name, inst := range f.instances {
		if inst.State == StateLoaded {
			out[name] = *inst
		}
	}
	return out
}

// TotalUsageGB returns the current tracked memory usage across loaded
// instances.
func (f *Factory) TotalUsageGB() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalUsage
}
