package reconcile

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"catalog-content-sync/internal/domain"
)

// Difference locates the first mismatch found by a Comparer.
type Difference struct {
	Path  string
	Left  any
	Right any
}

func (d *Difference) String() string {
	return fmt.Sprintf("%s: %v != %v", d.Path, d.Left, d.Right)
}

// Comparer performs the structural equality check behind the diff engine.
//
// Object key sets must match exactly and numbers compare by value. Arrays are
// compared length first and then element-wise: arrays under a field with a
// declared identity key are ordered by that key, arrays of scalars are sorted,
// and any other array of objects is compared in its received order.
type Comparer struct {
	identityKeys map[string]string
}

type CompareOption func(*Comparer)

// WithIdentityKey orders the array stored under field by the key property of
// its elements before comparing.
func WithIdentityKey(field, key string) CompareOption {
	return func(c *Comparer) {
		c.identityKeys[field] = key
	}
}

// NewComparer returns a comparer that already knows the catalog membership
// and product category identity keys.
func NewComparer(opts ...CompareOption) *Comparer {
	c := &Comparer{identityKeys: map[string]string{
		"productInCatalogs": "catalogId",
		"productCategories": "categoryId",
	}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Comparer) Equal(a, b any) bool {
	return c.Diff(a, b) == nil
}

// Diff returns the first difference between a and b, or nil when equal.
func (c *Comparer) Diff(a, b any) *Difference {
	return c.diff("$", "", a, b)
}

func (c *Comparer) diff(path, field string, a, b any) *Difference {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			return &Difference{Path: path, Left: a, Right: b}
		}
		keys := sortedKeys(av)
		if len(keys) != len(bv) {
			return &Difference{Path: path, Left: keys, Right: sortedKeys(bv)}
		}
		for _, k := range keys {
			if _, ok := bv[k]; !ok {
				return &Difference{Path: path + "." + k, Left: av[k], Right: nil}
			}
		}
		for _, k := range keys {
			if d := c.diff(path+"."+k, k, av[k], bv[k]); d != nil {
				return d
			}
		}
		return nil
	case []any:
		bv, ok := b.([]any)
		if !ok {
			return &Difference{Path: path, Left: a, Right: b}
		}
		if len(av) != len(bv) {
			return &Difference{Path: path + ".length", Left: len(av), Right: len(bv)}
		}
		as, bs := c.order(field, av), c.order(field, bv)
		for i := range as {
			if d := c.diff(path+"["+strconv.Itoa(i)+"]", field, as[i], bs[i]); d != nil {
				return d
			}
		}
		return nil
	default:
		if !scalarEqual(a, b) {
			return &Difference{Path: path, Left: a, Right: b}
		}
		return nil
	}
}

func (c *Comparer) order(field string, items []any) []any {
	out := append([]any(nil), items...)
	if key, ok := c.identityKeys[field]; ok {
		sort.SliceStable(out, func(i, j int) bool {
			return lessScalar(identity(out[i], key), identity(out[j], key))
		})
		return out
	}
	for _, it := range out {
		switch normalize(it).(type) {
		case map[string]any, []any:
			return out
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessScalar(out[i], out[j])
	})
	return out
}

func identity(v any, key string) any {
	if m, ok := normalize(v).(map[string]any); ok {
		return m[key]
	}
	return v
}

func normalize(v any) any {
	switch t := v.(type) {
	case domain.Entity:
		return map[string]any(t)
	case []domain.Entity:
		return domain.FromEntities(t)
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func scalarEqual(a, b any) bool {
	if rank(a) == 4 || rank(b) == 4 {
		return reflect.DeepEqual(a, b)
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

// scalar ordering: nil < bool < number < string < anything else
func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return 3
	}
	if _, ok := toFloat(v); ok {
		return 2
	}
	return 4
}

func lessScalar(a, b any) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 1:
		return !a.(bool) && b.(bool)
	case 2:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return fa < fb
	case 3:
		return a.(string) < b.(string)
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
