// Package middleware provides the HTTP middleware stack for the
// speakerlab server: recovery, request IDs, CORS, body-size limits,
// request logging, and JWT bearer authentication.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware wraps an http.Handler with additional behavior. It is the
// standard net/http middleware signature, applied at the server handler
// level so it covers every mounted route.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first in the list is the outermost
// (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// GinWrap adapts a Middleware for use in a Gin handler chain. Only
// request-side middleware belongs here: downstream handlers write
// through c.Writer, so a ResponseWriter substituted by the wrapped
// middleware is never seen by them. Response-observing middleware must
// be written natively for gin.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}
