package reconcile

import (
	"testing"

	"catalog-content-sync/internal/domain"

	"github.com/stretchr/testify/assert"
)

func refs(ids ...int) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = map[string]any{"categoryId": float64(id)}
	}
	return out
}

func categoryIDs(e domain.Entity) []int {
	var ids []int
	for _, r := range e.Entities("productCategories") {
		id, _ := r.Int("categoryId")
		ids = append(ids, id)
	}
	return ids
}

func TestRemapReplacesCategories(t *testing.T) {
	source := domain.Entity{"catalogId": float64(1), "productCategories": refs(10)}
	dest := domain.Entity{"catalogId": float64(2)}

	RemapCategoryReferences(IdentifierMap{10: 99}, source, dest)

	assert.Equal(t, []int{99}, categoryIDs(dest))
	assert.NotContains(t, dest, "primaryProductCategory")
}

func TestRemapDropsDanglingReferences(t *testing.T) {
	source := domain.Entity{"catalogId": float64(1), "productCategories": refs(10, 11, 12)}
	dest := domain.Entity{"catalogId": float64(2), "productCategories": refs(5)}

	RemapCategoryReferences(IdentifierMap{10: 100, 12: 120}, source, dest)

	assert.ElementsMatch(t, []int{100, 120}, categoryIDs(dest))
}

func TestRemapKeepsMatchingDestination(t *testing.T) {
	source := domain.Entity{"catalogId": float64(1), "productCategories": refs(10, 11)}
	current := refs(110, 100)
	dest := domain.Entity{"catalogId": float64(2), "productCategories": current}

	RemapCategoryReferences(IdentifierMap{10: 100, 11: 110}, source, dest)

	assert.Equal(t, []int{110, 100}, categoryIDs(dest))
}

func TestRemapEmptyListIsAbsent(t *testing.T) {
	source := domain.Entity{"catalogId": float64(1), "productCategories": refs(10)}
	dest := domain.Entity{"catalogId": float64(2), "productCategories": refs(7)}

	RemapCategoryReferences(IdentifierMap{}, source, dest)

	assert.NotContains(t, dest, "productCategories")
}

func TestRemapUnmappedPrimaryIsRemoved(t *testing.T) {
	source := domain.Entity{
		"catalogId":              float64(1),
		"productCategories":      refs(10, 11),
		"primaryProductCategory": map[string]any{"categoryId": float64(11)},
	}
	dest := domain.Entity{
		"catalogId":              float64(2),
		"primaryProductCategory": map[string]any{"categoryId": float64(555)},
	}

	RemapCategoryReferences(IdentifierMap{10: 100}, source, dest)

	assert.NotContains(t, dest, "primaryProductCategory")
	assert.Equal(t, []int{100}, categoryIDs(dest))
}

func TestRemapPrimaryIsAlwaysMember(t *testing.T) {
	source := domain.Entity{
		"catalogId":              float64(1),
		"productCategories":      refs(10),
		"primaryProductCategory": map[string]any{"categoryId": float64(10)},
	}
	dest := domain.Entity{"catalogId": float64(2)}

	RemapCategoryReferences(IdentifierMap{10: 100}, source, dest)

	primary, _ := dest.Map("primaryProductCategory").Int("categoryId")
	assert.Equal(t, 100, primary)
	assert.Equal(t, []int{100}, categoryIDs(dest))
}

func TestRemapDropsSourcePrimaryOutsideItsList(t *testing.T) {
	source := domain.Entity{
		"catalogId":              float64(1),
		"productCategories":      refs(10),
		"primaryProductCategory": map[string]any{"categoryId": float64(42)},
	}
	dest := domain.Entity{"catalogId": float64(2)}

	RemapCategoryReferences(IdentifierMap{10: 100, 42: 420}, source, dest)

	assert.NotContains(t, source, "primaryProductCategory")
	assert.NotContains(t, dest, "primaryProductCategory")
}

func TestRemapSameMembershipIsNoop(t *testing.T) {
	source := domain.Entity{"catalogId": float64(1), "productCategories": refs(10)}
	RemapCategoryReferences(IdentifierMap{10: 99}, source, source)
	assert.Equal(t, []int{10}, categoryIDs(source))
}
