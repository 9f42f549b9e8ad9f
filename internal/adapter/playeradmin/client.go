// Package playeradmin talks to the player admin site: it posts single-field
// updates and fetches the changelist page the controls are rendered on.
package playeradmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Strob0t/fieldtoggle/internal/adapter/markup"
	"github.com/Strob0t/fieldtoggle/internal/adapter/otel"
	"github.com/Strob0t/fieldtoggle/internal/config"
	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
	"github.com/Strob0t/fieldtoggle/internal/middleware"
)

const (
	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 4 << 20

	formField = "field"
	formValue = "value"
	formToken = "csrfmiddlewaretoken"

	sessionCookie = "sessionid"
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx answer.
	ErrUnexpectedStatus = errors.New("playeradmin: unexpected status")
	// ErrMalformedResponse is returned when a 2xx body is not the expected JSON.
	ErrMalformedResponse = errors.New("playeradmin: malformed response")
)

// StatusError reports a non-2xx answer. It matches ErrUnexpectedStatus.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v %d: %s", ErrUnexpectedStatus, e.Code, e.Body)
}

// Is reports whether target is ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// IsOutage reports whether err means the admin site could not be reached or
// failed on its side. Answers the site did give, like a 403 for a stale
// token or an unparsable body, are not outages.
func IsOutage(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, ErrMalformedResponse)
}

// Client is the HTTP client for the admin site.
type Client struct {
	baseURL        string
	updatePath     string
	changelistPath string
	sessionID      string
	checkboxClass  string
	httpClient     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCheckboxClass sets the class that marks inline-edit inputs on the changelist.
func WithCheckboxClass(class string) Option {
	return func(c *Client) { c.checkboxClass = class }
}

// NewClient creates a client for the admin site described by cfg. Requests go
// through the otel client transport and the request-id/user-agent transport.
func NewClient(cfg config.Endpoint, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		updatePath:     cfg.UpdatePath,
		changelistPath: cfg.ChangelistPath,
		sessionID:      cfg.SessionID,
		checkboxClass:  markup.DefaultCheckboxClass,
		httpClient: &http.Client{
			Transport: otel.HTTPTransport(middleware.Transport(http.DefaultTransport, cfg.UserAgent)),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChangelistURL is the page that carries the controls and the token.
// It is also sent as Referer, which the admin requires over HTTPS.
func (c *Client) ChangelistURL() string {
	return c.baseURL + c.changelistPath
}

// UpdateURL returns the update endpoint for recordID.
func (c *Client) UpdateURL(recordID string) string {
	return c.baseURL + strings.ReplaceAll(c.updatePath, "{id}", url.PathEscape(recordID))
}

// UpdateField posts one field change. A decoded answer is returned whether it
// reports success or not; every other outcome is an error.
func (c *Client) UpdateField(ctx context.Context, req toggle.UpdateRequest, token string) (toggle.UpdateResult, error) {
	form := url.Values{}
	form.Set(formField, req.Field)
	form.Set(formValue, req.FormValue())
	form.Set(formToken, token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.UpdateURL(req.RecordID), strings.NewReader(form.Encode()))
	if err != nil {
		return toggle.UpdateResult{}, fmt.Errorf("playeradmin update: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("Referer", c.ChangelistURL())
	if token != "" {
		httpReq.Header.Set("X-CSRFToken", token)
	}

	body, err := c.do(httpReq)
	if err != nil {
		return toggle.UpdateResult{}, fmt.Errorf("playeradmin update %s: %w", req.RecordID, err)
	}

	var result toggle.UpdateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return toggle.UpdateResult{}, fmt.Errorf("playeradmin update %s: %w: %v", req.RecordID, ErrMalformedResponse, err)
	}
	return result, nil
}

// Changelist fetches and parses the changelist page.
func (c *Client) Changelist(ctx context.Context) (*markup.Page, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ChangelistURL(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("playeradmin changelist: create request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/html")

	body, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("playeradmin changelist: %w", err)
	}

	page, err := markup.Parse(bytes.NewReader(body), markup.Options{CheckboxClass: c.checkboxClass})
	if err != nil {
		return nil, fmt.Errorf("playeradmin changelist: %w", err)
	}
	return page, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.sessionID})
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL is built from the configured base URL
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

// snippet keeps error messages readable when the server answers with a full HTML page.
func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
