// Package token defines the port for the request-authenticity (anti-forgery) token.
package token

import "context"

// Provider returns the token that must accompany mutating requests for the
// current page/session.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (string, error)

// Token calls f(ctx).
func (f ProviderFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Invalidator is implemented by providers that cache tokens. Invalidate drops
// the cached value so the next Token call fetches a fresh one.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
