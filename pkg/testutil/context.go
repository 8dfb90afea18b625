package testutil

import (
	"net/http"

	"keeptrack/pkg/requestcontext"
)

// WithCaller binds caller to the request the way the caller middleware would.
func WithCaller(req *http.Request, caller *requestcontext.Caller) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithBearer sets a bearer Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
