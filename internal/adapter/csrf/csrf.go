// Package csrf provides token.Provider implementations for the admin site's
// anti-forgery token.
package csrf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/fieldtoggle/internal/adapter/markup"
	"github.com/Strob0t/fieldtoggle/internal/port/cache"
	"github.com/Strob0t/fieldtoggle/internal/port/token"
)

// ErrTokenNotFound is returned when the fetched page carries no token.
var ErrTokenNotFound = errors.New("csrf: token not found on page")

// Static returns a provider that always yields tok.
func Static(tok string) token.Provider {
	return token.ProviderFunc(func(context.Context) (string, error) { return tok, nil })
}

// PageFetcher fetches the page the token is rendered on.
type PageFetcher interface {
	Changelist(ctx context.Context) (*markup.Page, error)
}

// PageProvider reads the token from the changelist page and caches it.
// Concurrent cache misses share one fetch.
type PageProvider struct {
	fetcher PageFetcher
	cache   cache.Cache
	key     string
	ttl     time.Duration
	group   singleflight.Group
}

// NewPageProvider creates a provider caching under key (usually the page URL) for ttl.
func NewPageProvider(fetcher PageFetcher, c cache.Cache, key string, ttl time.Duration) *PageProvider {
	return &PageProvider{
		fetcher: fetcher,
		cache:   c,
		key:     "csrf:" + key,
		ttl:     ttl,
	}
}

// Token returns the cached token or fetches the page for a new one.
func (p *PageProvider) Token(ctx context.Context) (string, error) {
	if tok, ok, err := p.cache.Get(ctx, p.key); err == nil && ok {
		return tok, nil
	}

	v, err, _ := p.group.Do(p.key, func() (any, error) {
		page, err := p.fetcher.Changelist(ctx)
		if err != nil {
			return "", fmt.Errorf("csrf: fetch page: %w", err)
		}
		if page.Token == "" {
			return "", ErrTokenNotFound
		}
		// A failed cache write only costs a refetch next time.
		_ = p.cache.Set(ctx, p.key, page.Token, p.ttl)
		return page.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token.
func (p *PageProvider) Invalidate(ctx context.Context) error {
	return p.cache.Delete(ctx, p.key)
}

// seeded serves a token already known from a rendered page until it is
// invalidated, then defers to the next provider.
type seeded struct {
	mu   sync.Mutex
	seed string
	next token.Provider
}

// Seeded returns a provider that yields tok first and falls back to next
// once tok is empty or has been invalidated.
func Seeded(next token.Provider, tok string) token.Provider {
	return &seeded{seed: tok, next: next}
}

func (s *seeded) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	tok := s.seed
	s.mu.Unlock()
	if tok != "" {
		return tok, nil
	}
	return s.next.Token(ctx)
}

func (s *seeded) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.seed = ""
	s.mu.Unlock()
	if inv, ok := s.next.(token.Invalidator); ok {
		return inv.Invalidate(ctx)
	}
	return nil
}
