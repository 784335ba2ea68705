package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSnapshotStorePersist(t *testing.T) {
	dir := t.TempDir()
	store := NewFileSnapshotStore(dir)

	payload := map[string]any{"redirects": []any{}, "pages": []any{map[string]any{"key": "home"}}}
	require.NoError(t, store.Persist(context.Background(), "errors/error-summary", payload))

	raw, err := os.ReadFile(filepath.Join(dir, "errors", "error-summary.json"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "home", got["pages"].([]any)[0].(map[string]any)["key"])

	_, err = os.Stat(filepath.Join(dir, "errors", "error-summary.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileSnapshotStoreRejectsEscapingNames(t *testing.T) {
	store := NewFileSnapshotStore(t.TempDir())
	err := store.Persist(context.Background(), "../outside", map[string]any{})
	require.Error(t, err)
}
