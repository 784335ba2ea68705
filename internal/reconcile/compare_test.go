package reconcile

import (
	"testing"

	"catalog-content-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparerObjects(t *testing.T) {
	c := NewComparer()

	a := domain.Entity{"code": "A", "count": float64(2), "nested": map[string]any{"x": true}}
	b := domain.Entity{"code": "A", "count": 2, "nested": map[string]any{"x": true}}
	assert.True(t, c.Equal(a, b))

	b["extra"] = nil
	d := c.Diff(a, b)
	require.NotNil(t, d)
	assert.Equal(t, "$", d.Path)

	delete(b, "extra")
	b["nested"] = map[string]any{"x": false}
	d = c.Diff(a, b)
	require.NotNil(t, d)
	assert.Equal(t, "$.nested.x", d.Path)
}

func TestComparerScalarArraysAreUnordered(t *testing.T) {
	c := NewComparer()
	assert.True(t, c.Equal([]any{"b", "a", float64(1)}, []any{float64(1), "a", "b"}))
	assert.False(t, c.Equal([]any{"a", "a"}, []any{"a", "b"}))

	d := c.Diff([]any{"a"}, []any{"a", "b"})
	require.NotNil(t, d)
	assert.Equal(t, "$.length", d.Path)
}

func TestComparerIdentityKeyedArrays(t *testing.T) {
	c := NewComparer()
	a := domain.Entity{"productInCatalogs": []any{
		map[string]any{"catalogId": float64(2), "isActive": true},
		map[string]any{"catalogId": float64(1), "isActive": false},
	}}
	b := domain.Entity{"productInCatalogs": []any{
		map[string]any{"catalogId": float64(1), "isActive": false},
		map[string]any{"catalogId": float64(2), "isActive": true},
	}}
	assert.True(t, c.Equal(a, b))
}

func TestComparerUnkeyedObjectArraysAreOrdered(t *testing.T) {
	c := NewComparer()
	a := []any{map[string]any{"n": "x"}, map[string]any{"n": "y"}}
	b := []any{map[string]any{"n": "y"}, map[string]any{"n": "x"}}
	assert.False(t, c.Equal(a, b))

	c = NewComparer(WithIdentityKey("images", "n"))
	assert.True(t, c.Equal(domain.Entity{"images": a}, domain.Entity{"images": b}))
}

func TestComparerTypeMismatch(t *testing.T) {
	c := NewComparer()
	assert.False(t, c.Equal(domain.Entity{"a": "1"}, domain.Entity{"a": float64(1)}))
	assert.False(t, c.Equal(domain.Entity{"a": []any{}}, domain.Entity{"a": map[string]any{}}))
	assert.True(t, c.Equal(domain.Entity{"a": nil}, domain.Entity{"a": nil}))
}
