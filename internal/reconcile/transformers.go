package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"catalog-content-sync/internal/domain"
)

// LocaleLinkTransformer rewrites "/<src>/" links to "/<dst>/" inside the
// dropzones of a content document. Documents without dropzones pass through.
func LocaleLinkTransformer(sourceLocale, targetLocale string) Step[domain.Entity] {
	from := "/" + strings.ToLower(sourceLocale) + "/"
	to := "/" + strings.ToLower(targetLocale) + "/"
	return func(_ context.Context, doc domain.Entity) (domain.Entity, error) {
		props := doc.Map("properties")
		if props == nil || props["dropzones"] == nil || from == to {
			return doc, nil
		}
		raw, err := json.Marshal(props["dropzones"])
		if err != nil {
			return nil, fmt.Errorf("failed to encode dropzones: %w", err)
		}
		var dropzones any
		if err := json.Unmarshal([]byte(strings.ReplaceAll(string(raw), from, to)), &dropzones); err != nil {
			return nil, fmt.Errorf("failed to decode dropzones: %w", err)
		}
		props["dropzones"] = dropzones
		return doc, nil
	}
}

// CopyRedirect starts the redirect pipeline from a private copy of the entry.
func CopyRedirect(_ context.Context, r domain.Entity) (domain.Entity, error) {
	return r.Clone(), nil
}

// RedirectLocaleTransformer moves the destination path d of a redirect from
// the source locale prefix to the target one. The locale is matched without
// regard to case and every other byte of d is preserved. The source path s is
// left alone.
func RedirectLocaleTransformer(sourceLocale, targetLocale string) Step[domain.Entity] {
	src := strings.ToLower(sourceLocale)
	dst := strings.ToLower(targetLocale)
	return func(_ context.Context, r domain.Entity) (domain.Entity, error) {
		d := r.String("d")
		lower := asciiLower(d)
		changed := false
		if strings.HasPrefix(lower, src+"/") {
			d = dst + d[len(src):]
			lower = dst + lower[len(src):]
			changed = true
		}
		if i := strings.Index(lower, "/"+src+"/"); i >= 0 {
			d = d[:i+1] + dst + d[i+1+len(src):]
			changed = true
		}
		if changed {
			r["d"] = d
		}
		return r, nil
	}
}

// asciiLower folds A-Z only, so byte offsets in the result match the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// PrefixStripper removes environment specific code prefixes from every
// string of an entity.
type PrefixStripper struct {
	pattern *regexp.Regexp
}

func NewPrefixStripper(pattern string) (*PrefixStripper, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid prefix pattern %q: %w", pattern, err)
	}
	return &PrefixStripper{pattern: re}, nil
}

// StripString removes every prefix occurrence from s.
func (p *PrefixStripper) StripString(s string) string {
	return p.pattern.ReplaceAllString(s, "")
}

// HasPrefix reports whether s starts with a prefix occurrence.
func (p *PrefixStripper) HasPrefix(s string) bool {
	loc := p.pattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

// TrimPrefix removes one leading prefix occurrence from s.
func (p *PrefixStripper) TrimPrefix(s string) string {
	loc := p.pattern.FindStringIndex(s)
	if loc == nil || loc[0] != 0 {
		return s
	}
	return s[loc[1]:]
}

// Strip returns a stripped copy of e and whether anything was removed.
func (p *PrefixStripper) Strip(e domain.Entity) (domain.Entity, bool) {
	changed := false
	out := p.walk(map[string]any(e.Clone()), &changed).(map[string]any)
	return domain.Entity(out), changed
}

// Step adapts the stripper to a pipeline.
func (p *PrefixStripper) Step() Step[domain.Entity] {
	return func(_ context.Context, e domain.Entity) (domain.Entity, error) {
		out, _ := p.Strip(e)
		return out, nil
	}
}

func (p *PrefixStripper) walk(v any, changed *bool) any {
	switch t := v.(type) {
	case string:
		s := p.StripString(t)
		if s != t {
			*changed = true
		}
		return s
	case map[string]any:
		for k, val := range t {
			t[k] = p.walk(val, changed)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = p.walk(val, changed)
		}
		return t
	}
	return v
}
