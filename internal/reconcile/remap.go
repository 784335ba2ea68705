package reconcile

import "catalog-content-sync/internal/domain"

// RemapCategoryReferences rewrites the category references of destination
// from the ids used by source, translating them through m.
//
// The mapped productCategories replace the destination list whenever they
// differ in size or membership. An empty list is removed rather than kept as
// []. The primary category is only ever set to a mapped id, and is always also
// a member of productCategories.
func RemapCategoryReferences(m IdentifierMap, source, destination domain.Entity) {
	if source == nil || destination == nil || sameMembership(source, destination) {
		return
	}

	if primary := source.Map("primaryProductCategory"); primary != nil {
		id, _ := primary.Int("categoryId")
		if !containsCategory(source.Entities("productCategories"), id) {
			delete(source, "primaryProductCategory")
		}
	}

	var mapped []domain.Entity
	for _, ref := range source.Entities("productCategories") {
		id, ok := ref.Int("categoryId")
		if !ok {
			continue
		}
		if to, ok := m.Lookup(id); ok {
			mapped = append(mapped, domain.Entity{"categoryId": to})
		}
	}

	current := destination.Entities("productCategories")
	if len(mapped) != len(current) {
		setCategories(destination, mapped)
	} else {
		for _, ref := range mapped {
			id, _ := ref.Int("categoryId")
			if !containsCategory(current, id) {
				setCategories(destination, mapped)
				break
			}
		}
	}
	if len(destination.List("productCategories")) == 0 {
		delete(destination, "productCategories")
	}

	primaryID, ok := mapPrimary(m, source)
	if !ok {
		delete(destination, "primaryProductCategory")
		return
	}
	destination["primaryProductCategory"] = map[string]any{"categoryId": primaryID}
	if !containsCategory(destination.Entities("productCategories"), primaryID) {
		list := destination.List("productCategories")
		destination["productCategories"] = append(list, map[string]any{"categoryId": primaryID})
	}
}

func mapPrimary(m IdentifierMap, source domain.Entity) (int, bool) {
	primary := source.Map("primaryProductCategory")
	if primary == nil {
		return 0, false
	}
	id, ok := primary.Int("categoryId")
	if !ok {
		return 0, false
	}
	return m.Lookup(id)
}

func setCategories(e domain.Entity, refs []domain.Entity) {
	e["productCategories"] = domain.FromEntities(refs)
}

func containsCategory(refs []domain.Entity, id int) bool {
	for _, r := range refs {
		if v, ok := r.Int("categoryId"); ok && v == id {
			return true
		}
	}
	return false
}

func sameMembership(a, b domain.Entity) bool {
	ida, oka := a.Int("catalogId")
	idb, okb := b.Int("catalogId")
	return oka && okb && ida == idb
}
