package modelfactory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orcherrors "github.com/orchestra/orchestra/pkg/errors"
)

type stubLoader struct {
	mu       sync.Mutex
	loadErr  map[string]error
	loadDur  time.Duration
	loadCalls int
}

func (s *stubLoader) Load(ctx context.Context, name string) error {
	s.mu.Lock()
	s.loadCalls++
	s.mu.Unlock()
	if s.loadDur > 0 {
		select {
		case <-time.After(s.loadDur):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.loadErr != nil {
		return s.loadErr[name]
	}
	return nil
}

func (s *stubLoader) Unload(ctx context.Context, name string) error { return nil }

type stubInvoker struct {
	err error
}

func (s stubInvoker) Invoke(ctx context.Context, modelName, prompt string, temperature float64, maxTokens int, timeout time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "ok:" + modelName, nil
}

func TestFactory_ValidateMemoryBudget_RejectsOverBudget(t *testing.T) {
	f := NewFactory(&stubLoader{}, stubInvoker{}, 16, map[string]float64{"big": 20})
	assert.False(t, f.ValidateMemoryBudget(20))
	assert.True(t, f.ValidateMemoryBudget(10))
}

func TestFactory_LoadTracksUsageAndState(t *testing.T) {
	loader := &stubLoader{}
	f := NewFactory(loader, stubInvoker{}, 32, map[string]float64{"small": 4})

	require.NoError(t, f.Load(context.Background(), "small"))
	snap, ok := f.Snapshot("small")
	require.True(t, ok)
	assert.Equal(t, StateLoaded, snap.State)
	assert.Equal(t, 4.0, f.TotalUsageGB())
}

func TestFactory_SwitchIsExclusive(t *testing.T) {
	loader := &stubLoader{}
	f := NewFactory(loader, stubInvoker{}, 32, map[string]float64{"a": 10, "b": 12})

	require.NoError(t, f.Load(context.Background(), "a"))
	require.NoError(t, f.Switch(context.Background(), "a", "b"))

	aSnap, _ := f.Snapshot("a")
	bSnap, _ := f.Snapshot("b")
	assert.Equal(t, StateUnloaded, aSnap.State)
	assert.Equal(t, StateLoaded, bSnap.State)
	assert.Equal(t, 12.0, f.TotalUsageGB())

	active := f.Active()
	assert.Len(t, active, 1)
	_, stillHasA := active["a"]
	assert.False(t, stillHasA)
}

func TestFactory_LoadFailureMarksErrorState(t *testing.T) {
	loader := &stubLoader{loadErr: map[string]error{"broken": errors.New("boom")}}
	f := NewFactory(loader, stubInvoker{}, 32, map[string]float64{"broken": 4})

	err := f.Load(context.Background(), "broken")
	require.Error(t, err)

	snap, ok := f.Snapshot("broken")
	require.True(t, ok)
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, 1, snap.ErrorCount)
	assert.Equal(t, 0.0, f.TotalUsageGB())
}

func TestFactory_ConcurrentLoadJoinsInFlight(t *testing.T) {
	loader := &stubLoader{loadDur: 50 * time.Millisecond}
	f := NewFactory(loader, stubInvoker{}, 32, map[string]float64{"shared": 4})

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.Load(context.Background(), "shared")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, loader.loadCalls)
	assert.Equal(t, 4.0, f.TotalUsageGB())
}

func TestFactory_CleanupIdleUnloadsStale(t *testing.T) {
	loader := &stubLoader{}
	f := NewFactory(loader, stubInvoker{}, 32, map[string]float64{"idle": 4})
	require.NoError(t, f.Load(context.Background(), "idle"))

	f.mu.Lock()
	f.instances["idle"].LastUsedAt = time.Now().Add(-time.Hour)
	f.mu.Unlock()

	n := f.CleanupIdle(context.Background(), 60)
	assert.Equal(t, 1, n)
	snap, _ := f.Snapshot("idle")
	assert.Equal(t, StateUnloaded, snap.State)
}

func TestFactory_InvokeWrapsBackendFailure(t *testing.T) {
	loader := &stubLoader{}
	f := NewFactory(loader, stubInvoker{err: errors.New("upstream down")}, 32, map[string]float64{"m": 4})
	require.NoError(t, f.Load(context.Background(), "m"))

	_, err := f.Invoke(context.Background(), "m", "hi", 0.2, 256, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, orcherrors.ErrBackendFailure)

	snap, _ := f.Snapshot("m")
	assert.Equal(t, 1, snap.ErrorCount)
}

func TestFactory_InvokeSucceedsAndStampsLastUsed(t *testing.T) {
	loader := &stubLoader{}
	f := NewFactory(loader, stubInvoker{}, 32, map[string]float64{"m": 4})
	require.NoError(t, f.Load(context.Background(), "m"))

	out, err := f.Invoke(context.Background(), "m", "hi", 0.2, 256, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok:m", out)

	snap, _ := f.Snapshot("m")
	assert.False(t, snap.LastUsedAt.IsZero())
}
