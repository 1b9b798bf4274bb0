package responsecache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_IsDeterministic(t *testing.T) {
	a := Fingerprint("q", "model", "ctx")
	b := Fingerprint("q", "model", "ctx")
	assert.Equal(t, a, b)
}

func TestFingerprint_DiffersOnAnyComponent(t *testing.T) {
	base := Fingerprint("q", "model", "ctx")
	assert.NotEqual(t, base, Fingerprint("q2", "model", "ctx"))
	assert.NotEqual(t, base, Fingerprint("q", "model2", "ctx"))
	assert.NotEqual(t, base, Fingerprint("q", "model", "ctx2"))
}

func TestCache_SetThenGetHits(t *testing.T) {
	c, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	key := Fingerprint("q", "m", "c")
	c.Set(key, Entry{Query: "q", Response: "r", Model: "m"})

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "r", entry.Response)
	assert.Equal(t, 1, entry.HitCount)
	assert.Equal(t, 1, c.Statistics().Hits)
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	_, ok := c.Get("unknown")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Statistics().Misses)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	c, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	key := "k"
	c.Set(key, Entry{TTL: time.Millisecond, Timestamp: time.Now().Add(-time.Hour)})
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCache_EvictsLRUTailOnOverflow(t *testing.T) {
	c, err := New(Config{Capacity: 10, DefaultTTL: time.Hour, EvictFrac: 0.5}, nil)
	require.NoError(t, err)
	for i := 0; i < 11; i++ {
		c.Set(string(rune('a'+i)), Entry{Response: "r"})
	}
	assert.LessOrEqual(t, c.Len(), 10)
	assert.Greater(t, c.Statistics().Evictions, 0)
}

type memStore struct{ saved map[string]Entry }

func (m *memStore) Save(entries map[string]Entry) error {
	m.saved = entries
	return nil
}
func (m *memStore) Load() (map[string]Entry, error) {
	if m.saved == nil {
		return map[string]Entry{}, nil
	}
	return m.saved, nil
}

func TestCache_MirrorsToStoreOnMutation(t *testing.T) {
	store := &memStore{}
	c, err := New(DefaultConfig(), store)
	require.NoError(t, err)
	c.Set("k", Entry{Response: "r"})
	assert.Len(t, store.saved, 1)
}

func TestCache_DropsExpiredEntriesAtLoad(t *testing.T) {
	store := &memStore{saved: map[string]Entry{
		"stale": {TTL: time.Minute, Timestamp: time.Now().Add(-time.Hour)},
		"fresh": {TTL: time.Hour, Timestamp: time.Now()},
	}}
	c, err := New(DefaultConfig(), store)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}
