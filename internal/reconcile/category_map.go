package reconcile

import (
	"strings"

	"catalog-content-sync/internal/domain"

	"github.com/rs/zerolog"
)

// IdentifierMap maps source category ids to destination category ids.
type IdentifierMap map[int]int

func (m IdentifierMap) Lookup(sourceID int) (int, bool) {
	id, ok := m[sourceID]
	return id, ok
}

// MapStats counts the outcome of building an IdentifierMap.
type MapStats struct {
	Mapped    int
	Unmatched int
	Ambiguous int
}

// CategoryComparator reports whether target corresponds to source.
type CategoryComparator func(source, target domain.Entity) bool

// CodeComparator matches categories on identical categoryCode.
func CodeComparator(source, target domain.Entity) bool {
	code := source.String("categoryCode")
	return code != "" && code == target.String("categoryCode")
}

// PrefixStrippingComparator removes "<PREFIX>-" from the source code before
// comparing, bridging environments that namespace their category codes.
func PrefixStrippingComparator(prefix string) CategoryComparator {
	marker := strings.ToUpper(prefix) + "-"
	return func(source, target domain.Entity) bool {
		code := strings.Replace(source.String("categoryCode"), marker, "", 1)
		return code != "" && code == target.String("categoryCode")
	}
}

// BuildIdentifierMap evaluates cmp for every source and target pair. Only a
// single match is recorded; zero or several matches leave the source unmapped.
func BuildIdentifierMap(source, target []domain.Entity, cmp CategoryComparator, logger zerolog.Logger) (IdentifierMap, MapStats) {
	m := make(IdentifierMap, len(source))
	var stats MapStats
	for _, s := range source {
		sourceID, ok := s.Int("id")
		if !ok {
			continue
		}
		var matches []int
		for _, t := range target {
			if cmp(s, t) {
				if id, ok := t.Int("id"); ok {
					matches = append(matches, id)
				}
			}
		}
		stats.record(m, sourceID, matches, s.String("categoryCode"), logger)
	}
	return m, stats
}

// BuildIdentifierMapByCode is BuildIdentifierMap with CodeComparator, indexed
// by code instead of comparing every pair.
func BuildIdentifierMapByCode(source, target []domain.Entity, logger zerolog.Logger) (IdentifierMap, MapStats) {
	byCode := make(map[string][]int, len(target))
	for _, t := range target {
		code := t.String("categoryCode")
		if id, ok := t.Int("id"); ok && code != "" {
			byCode[code] = append(byCode[code], id)
		}
	}
	m := make(IdentifierMap, len(source))
	var stats MapStats
	for _, s := range source {
		sourceID, ok := s.Int("id")
		if !ok {
			continue
		}
		code := s.String("categoryCode")
		stats.record(m, sourceID, byCode[code], code, logger)
	}
	return m, stats
}

func (st *MapStats) record(m IdentifierMap, sourceID int, matches []int, code string, logger zerolog.Logger) {
	switch len(matches) {
	case 1:
		m[sourceID] = matches[0]
		st.Mapped++
	case 0:
		st.Unmatched++
		logger.Warn().
			Int("categoryId", sourceID).
			Str("categoryCode", code).
			Msg("no match for category")
	default:
		st.Ambiguous++
		logger.Warn().
			Int("categoryId", sourceID).
			Str("categoryCode", code).
			Ints("candidates", matches).
			Msg("ambiguous category match, leaving unmapped")
	}
}
