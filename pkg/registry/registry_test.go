package registry

import (
	"context"
	"testing"

	"github.com/orchestra/orchestra/pkg/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	names       []string
	describeErr map[string]error
}

func (s stubLister) List(ctx context.Context) ([]string, error) { return s.names, nil }
func (s stubLister) Describe(ctx context.Context, name string) error {
	return s.describeErr[name]
}

type stubKeys struct{ has map[string]bool }

func (s stubKeys) Has(provider string) bool { return s.has[provider] }

func TestRegistry_RefreshMergesAndValidates(t *testing.T) {
	profiles := map[string]*capability.ModelCapabilities{
		"mistral": capability.New("mistral", capability.SourceLocal),
	}
	lister := stubLister{names: []string{"mistral", "qwen2.5"}, describeErr: map[string]error{}}
	keys := stubKeys{has: map[string]bool{}}

	reg := New(lister, keys, Config{Profiles: profiles})
	require.NoError(t, reg.Refresh(context.Background(), true))

	info, ok := reg.Get("mistral")
	require.True(t, ok)
	assert.True(t, info.Validated)

	info2, ok := reg.Get("qwen2.5")
	require.True(t, ok)
	assert.True(t, info2.Validated)
}

func TestRegistry_ValidationFailureIsolated(t *testing.T) {
	lister := stubLister{
		names: []string{"good", "bad"},
		describeErr: map[string]error{
			"bad": assertErr{},
		},
	}
	reg := New(lister, stubKeys{}, Config{})
	require.NoError(t, reg.Refresh(context.Background(), true))

	good, _ := reg.Get("good")
	bad, _ := reg.Get("bad")
	assert.True(t, good.Validated)
	assert.False(t, bad.Validated)
}

type assertErr struct{}

func (assertErr) Error() string { return "describe failed" }

func TestRegistry_RefreshIsRateLimitedUnlessForced(t *testing.T) {
	calls := 0
	lister := countingLister{count: &calls}
	reg := New(lister, stubKeys{}, Config{})

	require.NoError(t, reg.Refresh(context.Background(), false))
	require.NoError(t, reg.Refresh(context.Background(), false))
	assert.Equal(t, 1, calls)

	require.NoError(t, reg.Refresh(context.Background(), true))
	assert.Equal(t, 2, calls)
}

type countingLister struct{ count *int }

func (c countingLister) List(ctx context.Context) ([]string, error) {
	*c.count++
	return nil, nil
}
func (c countingLister) Describe(ctx context.Context, name string) error { return nil }
