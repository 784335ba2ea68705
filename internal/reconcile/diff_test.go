package reconcile

import (
	"testing"

	"catalog-content-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifferCreateStripsRemoteFields(t *testing.T) {
	d := NewDiffer(FieldKey("categoryCode"))
	source := domain.Entity{"id": float64(1), "categoryCode": "A", "updateDate": "2024-01-01"}

	dec := d.Diff(source, nil)
	require.Equal(t, OpCreate, dec.Op)
	assert.Nil(t, dec.Target)
	assert.Equal(t, domain.Entity{"categoryCode": "A"}, dec.Entity)
	assert.Contains(t, source, "id", "source must not be mutated")
}

func TestDifferSkipAndUpdate(t *testing.T) {
	d := NewDiffer(FieldKey("categoryCode"))
	source := domain.Entity{"id": float64(1), "categoryCode": "A", "name": "Shoes", "tags": []any{"x", "y"}}
	target := domain.Entity{"id": float64(77), "categoryCode": "A", "name": "Shoes", "tags": []any{"y", "x"}}

	dec := d.Diff(source, []domain.Entity{target})
	assert.Equal(t, OpSkip, dec.Op)

	target["name"] = "Boots"
	dec = d.Diff(source, []domain.Entity{target})
	require.Equal(t, OpUpdate, dec.Op)
	assert.Equal(t, float64(77), dec.Entity["id"])
	assert.Equal(t, "Shoes", dec.Entity["name"])
	assert.Equal(t, "Boots", target["name"])
}

func TestDifferCreateThenDiffAgainSkips(t *testing.T) {
	d := NewDiffer(FieldKey("categoryCode"))
	source := domain.Entity{"id": float64(1), "categoryCode": "A", "content": map[string]any{"name": "A"}}

	dec := d.Diff(source, nil)
	require.Equal(t, OpCreate, dec.Op)

	created := dec.Entity.Clone()
	created["id"] = float64(501)
	created["insertDate"] = "2024-05-01T00:00:00Z"

	again := d.Diff(source, []domain.Entity{created})
	assert.Equal(t, OpSkip, again.Op)
}

func TestDifferIndexedLookup(t *testing.T) {
	d := NewDiffer(FieldKey("code"))
	idx := d.Index([]domain.Entity{{"code": "r1", "v": 1}, {"code": "r1", "v": 2}, {"code": "r2", "v": 3}})
	require.Len(t, idx, 2)
	assert.Equal(t, 1, idx["r1"]["v"])

	dec := d.DiffIndexed(domain.Entity{"code": "r2", "v": 3}, idx)
	assert.Equal(t, OpSkip, dec.Op)
}

func TestDifferCustomRemoteFields(t *testing.T) {
	d := NewDiffer(FieldKey("id"), WithRemoteFields())
	dec := d.Diff(domain.Entity{"id": "abc", "v": 1}, nil)
	require.Equal(t, OpCreate, dec.Op)
	assert.Equal(t, "abc", dec.Entity["id"])
}

func TestDifferChangedUsesMembershipOrder(t *testing.T) {
	d := NewDiffer(FieldKey("productCode"))
	before := domain.Entity{"productInCatalogs": []any{
		map[string]any{"catalogId": float64(1)},
		map[string]any{"catalogId": float64(2)},
	}}
	after := before.Clone()
	pic := after.List("productInCatalogs")
	pic[0], pic[1] = pic[1], pic[0]
	assert.Nil(t, d.Changed(before, after))

	after["productInCatalogs"] = append(pic, map[string]any{"catalogId": float64(3)})
	assert.NotNil(t, d.Changed(before, after))
}
