package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobfinder/internal/model"
	"jobfinder/internal/ratelimit"
)

// Browser-like UA; several of the target sites serve a bot-challenge page to
// the default Go client string.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Session is a scoped fetch session shared by one adapter run. Requests go out
// one at a time (the adapters are strictly sequential within themselves), pass
// through a per-host courtesy limiter, and stop as soon as the context is
// cancelled. Close must run on every exit path; it is idempotent.
type Session struct {
	client    *http.Client
	limiter   *ratelimit.HostLimiter
	userAgent string
	logger    *slog.Logger
	closed    bool
}

// NewSession creates a fetch session. limiter may be shared across sessions so
// that all adapters targeting the same host respect one spacing budget.
func NewSession(client *http.Client, limiter *ratelimit.HostLimiter, logger *slog.Logger) *Session {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Session{
		client:    client,
		limiter:   limiter,
		userAgent: defaultUserAgent,
		logger:    logger,
	}
}

// SessionFactory mints one Session per adapter run. Sessions are single use:
// each Fetch takes a fresh one and closes it before returning.
type SessionFactory func() *Session

// NewSessionFactory returns a factory whose sessions share client and limiter.
func NewSessionFactory(client *http.Client, limiter *ratelimit.HostLimiter, logger *slog.Logger) SessionFactory {
	return func() *Session { return NewSession(client, limiter, logger) }
}

// GetDocument fetches url and parses the response body into a queryable tree.
// Non-200 responses surface as *model.HTTPError.
func (s *Session) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if s.closed {
		return nil, fmt.Errorf("fetch %s: session closed", url)
	}
	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, url); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{StatusCode: resp.StatusCode, Err: fmt.Errorf("fetch %s", url)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// Close tears down the session. Safe to call more than once and on every exit
// path, including cancellation.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.client.CloseIdleConnections()
}

// pause sleeps for d unless the context is cancelled first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
