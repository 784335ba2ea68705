package ports

import (
	"context"
	"io"

	"catalog-content-sync/internal/domain"
)

// PlatformClient defines the authenticated REST operations against the commerce platform.
// Every call is scoped by an explicit request context instead of state held by the client.
type PlatformClient interface {
	// Get decodes the JSON response of a GET into out (nil discards the body)
	Get(ctx context.Context, rc domain.RequestContext, path string, out any) error

	// Post sends body as JSON and decodes the response into out
	Post(ctx context.Context, rc domain.RequestContext, path string, body any, out any) error

	// Put sends body as JSON and decodes the response into out
	Put(ctx context.Context, rc domain.RequestContext, path string, body any, out any) error

	// Delete removes the addressed resource
	Delete(ctx context.Context, rc domain.RequestContext, path string) error

	// PutContent uploads raw bytes with the given content type
	PutContent(ctx context.Context, rc domain.RequestContext, path string, contentType string, body io.Reader) error
}
