// Package platformtest provides an in-memory PlatformClient for tests.
package platformtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"catalog-content-sync/internal/domain"
)

// Call is one request received by the fake.
type Call struct {
	Method      string
	Path        string
	Query       url.Values
	Context     domain.RequestContext
	Body        any
	ContentType string
	Raw         []byte
	Params      map[string]string
}

// Handler answers a call. The returned value is encoded to JSON and decoded
// into the caller's output, so numbers arrive as float64 as they would over
// the wire.
type Handler func(call *Call) (any, error)

type route struct {
	method   string
	segments []string
	handler  Handler
}

// Platform is a scripted ports.PlatformClient. Routes are matched in
// registration order; "{name}" matches one path segment.
type Platform struct {
	mu     sync.Mutex
	routes []route
	calls  []*Call
}

func New() *Platform {
	return &Platform{}
}

// Handle registers a handler for method and pattern, e.g. "PUT", "/commerce/catalog/admin/categories/{id}".
func (p *Platform) Handle(method, pattern string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes = append(p.routes, route{method: method, segments: split(pattern), handler: h})
}

// Reply registers a handler that always returns v.
func (p *Platform) Reply(method, pattern string, v any) {
	p.Handle(method, pattern, func(*Call) (any, error) { return v, nil })
}

// Fail registers a handler that always returns err.
func (p *Platform) Fail(method, pattern string, err error) {
	p.Handle(method, pattern, func(*Call) (any, error) { return nil, err })
}

// Calls returns the received calls, optionally filtered by method.
func (p *Platform) Calls(method string) []*Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Call
	for _, c := range p.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallsTo returns calls with the given method whose path starts with prefix.
func (p *Platform) CallsTo(method, prefix string) []*Call {
	var out []*Call
	for _, c := range p.Calls(method) {
		if strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (p *Platform) Get(ctx context.Context, rc domain.RequestContext, path string, out any) error {
	return p.do(rc, "GET", path, nil, "", nil, out)
}

func (p *Platform) Post(ctx context.Context, rc domain.RequestContext, path string, body any, out any) error {
	return p.do(rc, "POST", path, body, "application/json", nil, out)
}

func (p *Platform) Put(ctx context.Context, rc domain.RequestContext, path string, body any, out any) error {
	return p.do(rc, "PUT", path, body, "application/json", nil, out)
}

func (p *Platform) Delete(ctx context.Context, rc domain.RequestContext, path string) error {
	return p.do(rc, "DELETE", path, nil, "", nil, nil)
}

func (p *Platform) PutContent(ctx context.Context, rc domain.RequestContext, path string, contentType string, body io.Reader) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return p.do(rc, "PUT", path, nil, contentType, raw, nil)
}

func (p *Platform) do(rc domain.RequestContext, method, rawPath string, body any, contentType string, raw []byte, out any) error {
	u, err := url.Parse(rawPath)
	if err != nil {
		return err
	}
	call := &Call{
		Method:      method,
		Path:        u.Path,
		Query:       u.Query(),
		Context:     rc,
		ContentType: contentType,
		Raw:         raw,
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &call.Body); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.calls = append(p.calls, call)
	var handler Handler
	for _, r := range p.routes {
		if params, ok := match(r, method, u.Path); ok {
			call.Params = params
			handler = r.handler
			break
		}
	}
	p.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("%s %s: %w", method, u.Path, domain.ErrNotFound)
	}
	result, err := handler(call)
	if err != nil {
		return err
	}
	if out == nil || result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.NewDecoder(bytes.NewReader(data)).Decode(out)
}

// BodyEntity returns the JSON body of a call as an entity.
func (c *Call) BodyEntity() domain.Entity {
	m, _ := c.Body.(map[string]any)
	return domain.Entity(m)
}

// Page wraps items in a paged collection response.
func Page(items ...domain.Entity) map[string]any {
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = map[string]any(it)
	}
	return map[string]any{
		"startIndex": 0,
		"pageSize":   len(items),
		"pageCount":  1,
		"totalCount": len(items),
		"items":      list,
	}
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func match(r route, method, path string) (map[string]string, bool) {
	if r.method != method {
		return nil, false
	}
	segs := split(path)
	if len(segs) != len(r.segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, s := range r.segments {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			params[strings.Trim(s, "{}")] = segs[i]
			continue
		}
		if s != segs[i] {
			return nil, false
		}
	}
	return params, true
}
