// Package resolver turns queue-entry keys into streamable upstream URLs.
package resolver

import (
	"context"
	"net/http"
)

// Resolver maps a video reference to a direct media URL plus the request
// headers the upstream requires. Implementations must be safe for
// concurrent use; the proxy calls Resolve on every renderer fetch.
type Resolver interface {
	Resolve(ctx context.Context, videoID string, page int) (string, http.Header, error)
}

// Func adapts a function to the Resolver interface.
type Func func(ctx context.Context, videoID string, page int) (string, http.Header, error)

func (f Func) Resolve(ctx context.Context, videoID string, page int) (string, http.Header, error) {
	return f(ctx, videoID, page)
}
