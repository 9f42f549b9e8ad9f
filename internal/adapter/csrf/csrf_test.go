package csrf

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/fieldtoggle/internal/adapter/markup"
	"github.com/Strob0t/fieldtoggle/internal/adapter/ristretto"
	"github.com/Strob0t/fieldtoggle/internal/port/token"
)

// Compile-time interface checks.
var (
	_ token.Provider    = (*PageProvider)(nil)
	_ token.Invalidator = (*PageProvider)(nil)
	_ token.Invalidator = (*seeded)(nil)
)

type fakeFetcher struct {
	calls atomic.Int32
	token string
	err   error
	gate  chan struct{} // when set, fetches block until closed
}

func (f *fakeFetcher) Changelist(context.Context) (*markup.Page, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return &markup.Page{Token: f.token}, nil
}

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestStatic(t *testing.T) {
	tok, err := Static("fixed").Token(context.Background())
	if err != nil || tok != "fixed" {
		t.Fatalf("expected fixed, got %q (%v)", tok, err)
	}
}

func TestPageProviderCaches(t *testing.T) {
	f := &fakeFetcher{token: "tok-1"}
	p := NewPageProvider(f, newCache(t), "http://admin/changelist", time.Minute)

	for range 3 {
		tok, err := p.Token(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if tok != "tok-1" {
			t.Fatalf("expected tok-1, got %q", tok)
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}
}

func TestPageProviderInvalidate(t *testing.T) {
	f := &fakeFetcher{token: "tok-1"}
	p := NewPageProvider(f, newCache(t), "k", time.Minute)

	if _, err := p.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Invalidate(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.token = "tok-2"
	tok, err := p.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tok != "tok-2" {
		t.Fatalf("expected refreshed tok-2, got %q", tok)
	}
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestPageProviderCollapsesConcurrentMisses(t *testing.T) {
	f := &fakeFetcher{token: "tok", gate: make(chan struct{})}
	p := NewPageProvider(f, newCache(t), "k", time.Minute)

	const n = 10
	var wg sync.WaitGroup
	results := make(chan string, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, _ := p.Token(context.Background())
			results <- tok
		}()
	}

	// Let the first fetch start before releasing it.
	deadline := time.Now().Add(time.Second)
	for f.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()
	close(results)

	for tok := range results {
		if tok != "tok" {
			t.Fatalf("expected tok, got %q", tok)
		}
	}
	if got := f.calls.Load(); got >= n {
		t.Fatalf("expected concurrent misses to share fetches, got %d fetches", got)
	}
}

func TestPageProviderMissingToken(t *testing.T) {
	p := NewPageProvider(&fakeFetcher{}, newCache(t), "k", time.Minute)
	if _, err := p.Token(context.Background()); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestPageProviderFetchError(t *testing.T) {
	errDown := errors.New("admin down")
	p := NewPageProvider(&fakeFetcher{err: errDown}, newCache(t), "k", time.Minute)
	if _, err := p.Token(context.Background()); !errors.Is(err, errDown) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

func TestSeeded(t *testing.T) {
	f := &fakeFetcher{token: "fresh"}
	p := Seeded(NewPageProvider(f, newCache(t), "k", time.Minute), "seed")

	tok, err := p.Token(context.Background())
	if err != nil || tok != "seed" {
		t.Fatalf("expected seed, got %q (%v)", tok, err)
	}
	if f.calls.Load() != 0 {
		t.Fatal("seeded token must not fetch")
	}

	if err := p.(token.Invalidator).Invalidate(context.Background()); err != nil {
		t.Fatal(err)
	}
	tok, err = p.Token(context.Background())
	if err != nil || tok != "fresh" {
		t.Fatalf("expected fresh after invalidate, got %q (%v)", tok, err)
	}
}

func TestSeededEmptyFallsThrough(t *testing.T) {
	p := Seeded(Static("fallback"), "")
	tok, err := p.Token(context.Background())
	if err != nil || tok != "fallback" {
		t.Fatalf("expected fallback, got %q (%v)", tok, err)
	}
}
