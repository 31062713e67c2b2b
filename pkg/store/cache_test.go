package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/pkg/rules"
	"warden/pkg/store"
)

type countingBackend struct {
	loads int
	saves int
	data  map[string]rules.RulesBundle
}

func newCountingBackend() *countingBackend {
	return &countingBackend{data: make(map[string]rules.RulesBundle)}
}

func (b *countingBackend) Save(ctx context.Context, firmName string, accepted []rules.Rule, totalIterations int) (rules.RulesBundle, error) {
	b.saves++
	bundle := store.BuildBundle(firmName, accepted, totalIterations, time.Now().UTC())
	b.data[rules.NormalizeFirmKey(firmName)] = bundle
	return bundle, nil
}

func (b *countingBackend) Load(ctx context.Context, firmName string) (rules.RulesBundle, bool, error) {
	b.loads++
	bundle, ok := b.data[rules.NormalizeFirmKey(firmName)]
	return bundle, ok, nil
}

func TestCachedStore_LoadAfterSaveNeverHitsBackend(t *testing.T) {
	backend := newCountingBackend()
	cached := store.NewCachedStore(backend, nil, time.Minute)

	_, err := cached.Save(context.Background(), "Acme Corp", []rules.Rule{{RuleID: "r1"}}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.saves)

	_, ok, err := cached.Load(context.Background(), "Acme Corp")
	require.NoError(t, err)
	assert.True(t, ok)
	// Save already populated the local cache tier, so Load shouldn't hit the backend.
	assert.Equal(t, 0, backend.loads)

	_, ok, err = cached.Load(context.Background(), "Acme Corp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, backend.loads)
}

func TestCachedStore_CacheKeyIsRawFirmNameNotNormalized(t *testing.T) {
	backend := newCountingBackend()
	cached := store.NewCachedStore(backend, nil, time.Minute)

	_, err := cached.Save(context.Background(), "ACME  Corp", nil, 0)
	require.NoError(t, err)

	// Same backend document, differently-spaced raw name: cache misses and
	// falls through to the backend, which still finds it via the
	// normalized key (spec.md §4.8/§9's documented mismatch).
	_, ok, err := cached.Load(context.Background(), "acme corp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, backend.loads)
}

func TestCachedStore_LoadMissPropagatesNotFound(t *testing.T) {
	backend := newCountingBackend()
	cached := store.NewCachedStore(backend, nil, time.Minute)

	_, ok, err := cached.Load(context.Background(), "Nobody Inc")
	require.NoError(t, err)
	assert.False(t, ok)
}
