// Package backend is the typed HTTP client for the sud REST API.
//
// The backend owns every workspace, branch, request, document and access
// grant. This package mirrors its wire format and reports each call as a
// bare success (any 2xx) or one of the errors in errors.go. Nothing here
// caches or retries: callers refetch after a confirmed write.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultCookieName   = "session"
	defaultMaxFileBytes = 50 << 20
	errorBodyLimit      = 1 << 10
)

// Config describes how to reach the backend.
type Config struct {
	BaseURL      string        // e.g. http://localhost:5000
	CookieName   string        // cookie carrying the user's credential
	Timeout      time.Duration // zero keeps the transport default
	MaxFileBytes int64         // cap on downloaded file bodies
}

// Credential is the per-user token attached to every request. Refresh is
// called when a response carries a newer token.
type Credential interface {
	Token() string
	Refresh(token string)
}

// Client holds the shared transport. Bind it to a user with Session.
type Client struct {
	base         *url.URL
	httpClient   *http.Client
	cookieName   string
	maxFileBytes int64
	log          *zap.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := parseBase(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		base:         base,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		cookieName:   cfg.CookieName,
		maxFileBytes: cfg.MaxFileBytes,
		log:          logger,
	}
	if c.cookieName == "" {
		c.cookieName = defaultCookieName
	}
	if c.maxFileBytes <= 0 {
		c.maxFileBytes = defaultMaxFileBytes
	}
	return c, nil
}

// NewForTesting builds a Client against an httptest.Server. It panics on a
// malformed base URL.
func NewForTesting(baseURL string, httpClient *http.Client) *Client {
	base, err := parseBase(baseURL)
	if err != nil {
		panic(err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:         base,
		httpClient:   httpClient,
		cookieName:   defaultCookieName,
		maxFileBytes: defaultMaxFileBytes,
		log:          zap.NewNop(),
	}
}

// CookieName returns the name of the credential cookie.
func (c *Client) CookieName() string {
	return c.cookieName
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("backend base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend base url %q: must be an absolute http(s) url", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// Session is a Client bound to one user's credential.
type Session struct {
	c    *Client
	cred Credential
}

// Session binds cred to the client. A nil cred sends no credential cookie.
func (c *Client) Session(cred Credential) *Session {
	return &Session{c: c, cred: cred}
}

type idempotencyKey struct{}

// WithIdempotencyKey marks writes issued under ctx with an Idempotency-Key
// header so a backend that honours it can drop duplicate submissions.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

func idempotencyKeyFrom(ctx context.Context) string {
	k, _ := ctx.Value(idempotencyKey{}).(string)
	return k
}

// endpoint joins the base URL with an already-escaped path.
func (s *Session) endpoint(path string, query url.Values) string {
	u := s.c.base.String() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do issues one request. A non-2xx status is returned as *StatusError with
// the body already closed; on success the caller owns the response body.
func (s *Session) do(ctx context.Context, op, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if key := idempotencyKeyFrom(ctx); key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
	}
	if s.cred != nil {
		if tok := s.cred.Token(); tok != "" {
			req.AddCookie(&http.Cookie{Name: s.c.cookieName, Value: tok})
		}
	}

	start := time.Now()
	resp, err := s.c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	s.c.log.Debug("backend call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	s.refresh(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return resp, nil
}

// refresh hands a newer credential from Set-Cookie to the session store.
func (s *Session) refresh(resp *http.Response) {
	if s.cred == nil {
		return
	}
	for _, ck := range resp.Cookies() {
		if ck.Name != s.c.cookieName || ck.Value == "" {
			continue
		}
		if ck.MaxAge < 0 {
			continue
		}
		if ck.Value != s.cred.Token() {
			s.cred.Refresh(ck.Value)
		}
		return
	}
}

// getJSON decodes a successful GET into out.
func (s *Session) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	return s.send(ctx, op, http.MethodGet, path, query, nil, out)
}

// send performs a write (or read) and optionally decodes the body into out.
// An empty body is accepted when out is non-nil; out is left untouched.
func (s *Session) send(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	resp, err := s.do(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// seg escapes one path segment.
func seg(v fmt.Stringer) string {
	return url.PathEscape(v.String())
}

func segString(v string) string {
	return url.PathEscape(v)
}
