// Package caller is the request boundary for the ambient activity caller.
// Store resolves the bearer token of each request into a
// requestcontext.Caller, keeps it in a request-owned scope for the duration
// of the handler and clears it afterwards, so recorders downstream see who
// acted without it being passed explicitly.
package caller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"keeptrack/pkg/requestcontext"
)

//go:generate mockgen -source=caller.go -destination=mocks/mocks.go -package=mocks

// TokenValidator resolves a bearer token to a caller.
type TokenValidator interface {
	ValidateToken(token string) (*requestcontext.Caller, error)
}

const bearerPrefix = "Bearer "

// Store binds the caller of each request. Requests without an
// Authorization header run anonymously; a malformed or invalid token is
// rejected with 401.
func Store(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var c *requestcontext.Caller
			if header := r.Header.Get("Authorization"); header != "" {
				token, ok := strings.CutPrefix(header, bearerPrefix)
				if !ok || validator == nil {
					logger.WarnContext(ctx, "unauthorized access - malformed authorization header",
						"request_id", requestcontext.RequestID(ctx),
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
					return
				}
				resolved, err := validator.ValidateToken(token)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
					return
				}
				c = enrich(r, resolved)
			}

			_ = requestcontext.RunWithCaller(ctx, c, func(scoped context.Context) error {
				next.ServeHTTP(w, r.WithContext(scoped))
				return nil
			})
		})
	}
}

// RequireCaller rejects requests with no bound caller.
func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.CurrentCaller(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Browser describes a User-Agent as "<name> <version>", or "" for bots and
// unknown agents.
func Browser(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return ""
	}
	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	if version == "" {
		return name
	}
	return name + " " + version
}

func enrich(r *http.Request, c *requestcontext.Caller) *requestcontext.Caller {
	out := *c
	ctx := r.Context()
	out.ClientIP = requestcontext.ClientIP(ctx)
	out.UserAgent = requestcontext.UserAgent(ctx)
	if out.UserAgent == "" {
		out.UserAgent = r.Header.Get("User-Agent")
	}
	out.Browser = Browser(out.UserAgent)
	return &out
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}
