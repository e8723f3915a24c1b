package testutil

import (
	"context"
	"net/http"

	"dokflyt/internal/platform/middleware"
)

// WithCaller adds a caseworker identity to the request context, simulating
// what the caller-identity middleware does for authenticated requests.
func WithCaller(req *http.Request, ident, unit string) *http.Request {
	caller := middleware.Caller{Ident: ident, Unit: unit}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyCaller, caller)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
