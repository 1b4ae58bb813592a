// Package web integrates the container with HTTP handling: one container
// scope per request, opened by middleware and disposed when the handler
// returns.
package web

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/name-of-okja/egovframe-container/container"
)

type scopeCtxKey struct{}

// NewRouter creates a chi router with sane defaults (Logger, Recoverer,
// RealIP) and per-request container scopes.
func NewRouter(c *container.Container) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(ScopeMiddleware(c))
	return r
}

// ScopeMiddleware opens a container scope for each request and closes it —
// disposing every scoped instance created during the request — when the
// handler returns. Handlers retrieve the scope with [ScopeFrom].
func ScopeMiddleware(c *container.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := c.NewScope()
			defer func() {
				if err := s.Close(); err != nil {
					log.Printf("web: closing request scope: %v", err)
				}
			}()
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), s)))
		})
	}
}

// WithScope stores a scope in a context.
func WithScope(ctx context.Context, s *container.Scope) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, s)
}

// ScopeFrom returns the request's scope, or nil if [ScopeMiddleware] is not
// installed.
func ScopeFrom(ctx context.Context) *container.Scope {
	s, _ := ctx.Value(scopeCtxKey{}).(*container.Scope)
	return s
}
