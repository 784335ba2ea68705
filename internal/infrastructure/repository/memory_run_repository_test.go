package repository

import (
	"context"
	"testing"
	"time"

	"catalog-content-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, repo.SaveRun(ctx, &domain.RunReport{
			RunID:     id,
			Command:   "categories",
			Status:    "success",
			StartedAt: start.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := repo.GetRun(ctx, "r2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "categories", got.Command)

	got.Status = "mutated"
	again, err := repo.GetRun(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, "success", again.Status)

	missing, err := repo.GetRun(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].RunID)
	assert.Equal(t, "r2", runs[1].RunID)
}
