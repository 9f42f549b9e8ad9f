// Package middleware provides HTTP client middleware for calls to the admin site.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/fieldtoggle/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserAgent = "User-Agent"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(r).
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Transport wraps base so every outgoing request carries an X-Request-ID and
// the configured User-Agent. The ID is taken from the request context when
// set there, otherwise a new one is generated. Headers already present on the
// request win. A nil base means http.DefaultTransport.
func Transport(base http.RoundTripper, userAgent string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		needID := r.Header.Get(headerRequestID) == ""
		needUA := userAgent != "" && r.Header.Get(headerUserAgent) == ""
		if !needID && !needUA {
			return base.RoundTrip(r)
		}

		// RoundTrippers must not modify the caller's request.
		r = r.Clone(r.Context())
		if needID {
			id := logger.RequestID(r.Context())
			if id == "" {
				id = NewRequestID()
			}
			r.Header.Set(headerRequestID, id)
		}
		if needUA {
			r.Header.Set(headerUserAgent, userAgent)
		}
		return base.RoundTrip(r)
	})
}

// NewRequestID returns a fresh random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}
