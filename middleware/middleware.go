// Package middleware provides interceptors for the status provider consumed
// by the mint pollers.
package middleware

import (
	"github.com/hedeqiang/poapmint/provider"
)

// Middleware wraps a StatusProvider, adding cross-cutting behavior (logging, metrics, etc.).
type Middleware interface {
	// Wrap returns a new StatusProvider that decorates the given inner provider.
	Wrap(next provider.StatusProvider) provider.StatusProvider
}

// Func adapts a plain function to Middleware.
type Func func(next provider.StatusProvider) provider.StatusProvider

// Wrap calls f.
func (f Func) Wrap(next provider.StatusProvider) provider.StatusProvider {
	return f(next)
}

// Chain composes multiple middlewares around p, applying them in the order
// provided (first middleware is outermost).
func Chain(p provider.StatusProvider, mws ...Middleware) provider.StatusProvider {
	for i := len(mws) - 1; i >= 0; i-- {
		p = mws[i].Wrap(p)
	}
	return p
}
