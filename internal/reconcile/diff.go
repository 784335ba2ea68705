package reconcile

import "catalog-content-sync/internal/domain"

// Operation is the write a diff decided on.
type Operation string

const (
	OpCreate Operation = "CREATE"
	OpUpdate Operation = "UPDATE"
	OpSkip   Operation = "SKIP"
)

// RemoteFields are assigned by the destination and never compared or copied.
var RemoteFields = []string{"id", "insertDate", "updateDate", "contentUpdateDate", "contentLength", "auditInfo"}

// Decision is the outcome of diffing one source entity.
type Decision struct {
	Op Operation
	// Entity is the working copy to write; for SKIP it is the existing target.
	Entity domain.Entity
	// Target is the matched destination entity, nil on CREATE.
	Target domain.Entity
}

// KeyFunc derives the business key used to pair source and target entities.
type KeyFunc func(domain.Entity) string

// FieldKey keys entities by a single top-level field.
func FieldKey(field string) KeyFunc {
	return func(e domain.Entity) string {
		return domain.KeyString(e[field])
	}
}

// Differ decides between create, update and skip for source entities.
type Differ struct {
	key          KeyFunc
	comparer     *Comparer
	remoteFields []string
	idFields     []string
}

type DifferOption func(*Differ)

// WithRemoteFields replaces the fields stripped before comparing and creating.
func WithRemoteFields(fields ...string) DifferOption {
	return func(d *Differ) {
		d.remoteFields = fields
	}
}

// WithComparer sets the comparer used for the equality check.
func WithComparer(c *Comparer) DifferOption {
	return func(d *Differ) {
		d.comparer = c
	}
}

// WithCarriedFields sets the target fields copied onto an update, "id" by default.
func WithCarriedFields(fields ...string) DifferOption {
	return func(d *Differ) {
		d.idFields = fields
	}
}

func NewDiffer(key KeyFunc, opts ...DifferOption) *Differ {
	d := &Differ{
		key:          key,
		comparer:     NewComparer(),
		remoteFields: RemoteFields,
		idFields:     []string{"id"},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Key returns the business key of e.
func (d *Differ) Key(e domain.Entity) string {
	return d.key(e)
}

// Index keys candidates for repeated lookups. The first entity wins a key.
func (d *Differ) Index(candidates []domain.Entity) map[string]domain.Entity {
	idx := make(map[string]domain.Entity, len(candidates))
	for _, c := range candidates {
		k := d.key(c)
		if _, exists := idx[k]; !exists {
			idx[k] = c
		}
	}
	return idx
}

// Diff matches source against candidates by key and decides the operation.
func (d *Differ) Diff(source domain.Entity, candidates []domain.Entity) Decision {
	k := d.key(source)
	for _, c := range candidates {
		if d.key(c) == k {
			return d.Decide(source, c)
		}
	}
	return d.Decide(source, nil)
}

// DiffIndexed is Diff against an index built by Index.
func (d *Differ) DiffIndexed(source domain.Entity, index map[string]domain.Entity) Decision {
	return d.Decide(source, index[d.key(source)])
}

// Decide compares source with an already matched target, which may be nil.
func (d *Differ) Decide(source, target domain.Entity) Decision {
	work := source.Without(d.remoteFields...)
	if target == nil {
		return Decision{Op: OpCreate, Entity: work}
	}
	if d.comparer.Equal(work, target.Without(d.remoteFields...)) {
		return Decision{Op: OpSkip, Entity: target, Target: target}
	}
	for _, f := range d.idFields {
		if v, ok := target[f]; ok {
			work[f] = v
		}
	}
	return Decision{Op: OpUpdate, Entity: work, Target: target}
}

// Equivalent reports whether a and b are equal once remote fields are removed.
func (d *Differ) Equivalent(a, b domain.Entity) bool {
	return d.comparer.Equal(a.Without(d.remoteFields...), b.Without(d.remoteFields...))
}

// Changed compares two snapshots of the same entity without stripping fields.
func (d *Differ) Changed(before, after domain.Entity) *Difference {
	return d.comparer.Diff(before, after)
}
