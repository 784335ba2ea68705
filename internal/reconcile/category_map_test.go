package reconcile

import (
	"bytes"
	"testing"

	"catalog-content-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func category(id int, code string) domain.Entity {
	return domain.Entity{"id": float64(id), "categoryCode": code}
}

func TestBuildIdentifierMap(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	source := []domain.Entity{category(1, "A"), category(2, "B"), category(3, "C")}
	target := []domain.Entity{category(10, "A"), category(20, "B"), category(21, "B")}

	m, stats := BuildIdentifierMap(source, target, CodeComparator, logger)

	assert.Equal(t, IdentifierMap{1: 10}, m)
	assert.Equal(t, MapStats{Mapped: 1, Unmatched: 1, Ambiguous: 1}, stats)
	assert.Contains(t, logs.String(), "ambiguous category match")
	assert.Contains(t, logs.String(), "no match for category")
}

func TestBuildIdentifierMapByCodeAgreesWithComparator(t *testing.T) {
	source := []domain.Entity{category(1, "A"), category(2, "B"), category(3, "C")}
	target := []domain.Entity{category(10, "A"), category(20, "B"), category(21, "B")}

	byCmp, cmpStats := BuildIdentifierMap(source, target, CodeComparator, zerolog.Nop())
	byCode, codeStats := BuildIdentifierMapByCode(source, target, zerolog.Nop())

	assert.Equal(t, byCmp, byCode)
	assert.Equal(t, cmpStats, codeStats)
}

func TestPrefixStrippingComparator(t *testing.T) {
	cmp := PrefixStrippingComparator("kw")
	m, stats := BuildIdentifierMap(
		[]domain.Entity{category(1, "KW-SHOES"), category(2, "BAGS")},
		[]domain.Entity{category(10, "SHOES"), category(20, "BAGS")},
		cmp, zerolog.Nop(),
	)
	require.Equal(t, 2, stats.Mapped)
	assert.Equal(t, 10, m[1])
	assert.Equal(t, 20, m[2])
}

func TestIdentifierMapIgnoresEntitiesWithoutID(t *testing.T) {
	m, stats := BuildIdentifierMap(
		[]domain.Entity{{"categoryCode": "A"}},
		[]domain.Entity{category(10, "A")},
		CodeComparator, zerolog.Nop(),
	)
	assert.Empty(t, m)
	assert.Zero(t, stats.Mapped)
}
