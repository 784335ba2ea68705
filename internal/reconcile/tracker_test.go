package reconcile

import (
	"context"
	"errors"
	"testing"

	"catalog-content-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerReport(t *testing.T) {
	tr := NewTracker()
	var seen []domain.ActionStatus
	tr.Observe(func(a domain.Action) { seen = append(seen, a.Status) })

	tr.Add("a", "create", "categories", nil)
	tr.Add("b", "update", "categories", nil)
	tr.Add("c", "update", "products", nil)
	tr.Add("d", "create", "pages", nil)
	tr.MarkSuccess("a")
	tr.MarkFailed("b", errors.New("status 500"))
	tr.MarkSkipped("c")
	tr.MarkSuccess("missing")

	assert.Equal(t, domain.ActionSummary{Total: 4, Success: 1, Failed: 1, Pending: 1, Skipped: 1}, tr.Report())

	b, ok := tr.Get("b")
	require.True(t, ok)
	assert.Equal(t, "status 500", b.Error)
	assert.Equal(t, "categories", b.Family)

	actions := tr.Actions()
	require.Len(t, actions, 4)
	assert.Equal(t, "a", actions[0].ID)
	assert.Len(t, seen, 7)
}

func TestUpsertFallsBackOnlyOnNotFound(t *testing.T) {
	ctx := context.Background()
	var creates int
	create := func(context.Context) error { creates++; return nil }

	created, err := Upsert(ctx, func(context.Context) error { return nil }, create)
	require.NoError(t, err)
	assert.False(t, created)

	notFound := func(context.Context) error { return errors.Join(errors.New("status 404"), domain.ErrNotFound) }
	created, err = Upsert(ctx, notFound, create)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, creates)

	serverErr := errors.New("status 500")
	created, err = Upsert(ctx, func(context.Context) error { return serverErr }, create)
	assert.ErrorIs(t, err, serverErr)
	assert.False(t, created)
	assert.Equal(t, 1, creates)
}
