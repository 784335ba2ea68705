package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Entity is a decoded JSON object as returned by the platform API. Fields the
// sync does not interpret are carried through untouched.
type Entity map[string]any

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	return deepCopy(map[string]any(e)).(map[string]any)
}

// Without returns a deep copy with the given top-level fields removed.
func (e Entity) Without(fields ...string) Entity {
	out := e.Clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// String returns the string value of key, or "" when absent or not a string.
func (e Entity) String(key string) string {
	s, _ := e[key].(string)
	return s
}

// Int returns the numeric value of key as an int.
func (e Entity) Int(key string) (int, bool) {
	return AsInt(e[key])
}

// Bool returns the boolean value of key.
func (e Entity) Bool(key string) bool {
	b, _ := e[key].(bool)
	return b
}

// Map returns the nested object stored under key, or nil.
func (e Entity) Map(key string) Entity {
	switch v := e[key].(type) {
	case map[string]any:
		return Entity(v)
	case Entity:
		return v
	}
	return nil
}

// List returns the array stored under key, or nil.
func (e Entity) List(key string) []any {
	switch v := e[key].(type) {
	case []any:
		return v
	case []Entity:
		out := make([]any, len(v))
		for i := range v {
			out[i] = map[string]any(v[i])
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	}
	return nil
}

// Entities returns the object elements of the array stored under key. The
// returned entities share storage with e.
func (e Entity) Entities(key string) []Entity {
	return ToEntities(e.List(key))
}

// ID renders the "id" field as a string whatever its JSON type.
func (e Entity) ID() string {
	return KeyString(e["id"])
}

// ToEntities converts the object elements of a decoded JSON array.
func ToEntities(items []any) []Entity {
	out := make([]Entity, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case map[string]any:
			out = append(out, Entity(v))
		case Entity:
			out = append(out, v)
		}
	}
	return out
}

// FromEntities is the inverse of ToEntities.
func FromEntities(items []Entity) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = map[string]any(it)
	}
	return out
}

// AsInt converts a JSON number, or a Go integer set in code, to int.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// KeyString renders a scalar identifier as a string so ids decoded as numbers
// and ids set in code compare equal.
func KeyString(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return k
	case bool:
		return strconv.FormatBool(k)
	}
	if n, ok := AsInt(v); ok {
		return strconv.Itoa(n)
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case Entity:
		return deepCopy(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []Entity:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(map[string]any(val))
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
