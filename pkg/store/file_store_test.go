package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/pkg/rules"
	"warden/pkg/store"
)

func TestFileStore_SaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	require.NoError(t, err)

	accepted := []rules.Rule{{RuleID: "r1", RuleName: "Rule One", Active: true}}
	saved, err := fs.Save(context.Background(), "Acme Corp", accepted, 3)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", saved.FirmName)

	loaded, ok, err := fs.Load(context.Background(), "Acme Corp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Acme Corp", loaded.FirmName)
	assert.Len(t, loaded.Rules, 1)
}

func TestFileStore_LoadMissingFirmNotFound(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	require.NoError(t, err)

	_, ok, err := fs.Load(context.Background(), "Nobody Inc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_UsesNormalizedKeyWithRulesSuffix(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	require.NoError(t, err)

	_, err = fs.Save(context.Background(), "ACME  Corp", nil, 0)
	require.NoError(t, err)

	expected := filepath.Join(dir, "acme_corp_rules.json")
	assert.FileExists(t, expected)
}
