// Package collyfetcher implements the scraper's Client using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/bunpro-yomitan/internal/scraper"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// Headers are added to every request.
	Headers http.Header
}

// Client issues one-off requests and opens shared sessions. Each one-off
// request gets its own collector, transport and cookie jar, so consecutive
// slow requests share nothing.
type Client struct {
	cfg Config
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg}
}

// Get executes a single GET on a fresh collector without keep-alive.
func (c *Client) Get(ctx context.Context, rawURL string) (scraper.Response, error) {
	transport := newHTTPTransport(false)
	defer transport.CloseIdleConnections()
	return c.fetch(ctx, c.buildCollector(transport), rawURL)
}

// NewSession opens a collector whose connections and cookies persist until Close.
func (c *Client) NewSession() scraper.Session {
	transport := newHTTPTransport(true)
	return &Session{
		client:    c,
		collector: c.buildCollector(transport),
		transport: transport,
	}
}

// Session reuses one collector and transport across requests.
type Session struct {
	client    *Client
	collector *colly.Collector
	transport *http.Transport
	closed    bool
}

// Get executes a GET on the shared collector.
func (s *Session) Get(ctx context.Context, rawURL string) (scraper.Response, error) {
	if s.closed {
		return scraper.Response{}, errors.New("session closed")
	}
	return s.client.fetch(ctx, s.collector, rawURL)
}

// Close drops the session's idle connections.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.transport.CloseIdleConnections()
	return nil
}

func (c *Client) buildCollector(transport http.RoundTripper) *colly.Collector {
	collector := colly.NewCollector(colly.Async(false))
	collector.AllowURLRevisit = true
	// Non-2xx responses are returned to the caller, which decides what a 429 means.
	collector.ParseHTTPErrorResponse = true
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.WithTransport(transport)
	collector.SetRequestTimeout(c.cfg.Timeout)
	return collector
}

func (c *Client) fetch(ctx context.Context, collector *colly.Collector, rawURL string) (scraper.Response, error) {
	var (
		result   scraper.Response
		fetchErr error
	)
	start := time.Now()
	// Hooks are registered per request on a clone so the shared collector does
	// not accumulate callbacks; the clone keeps the same backend and transport.
	clone := collector.Clone()
	c.configureCollectorHooks(clone, start, &result, &fetchErr)

	if err := runCollector(ctx, clone, rawURL, &fetchErr); err != nil {
		return scraper.Response{}, err
	}
	if result.StatusCode == 0 {
		return scraper.Response{}, fmt.Errorf("colly fetch produced no response for %s", rawURL)
	}
	return result, nil
}

func (c *Client) configureCollectorHooks(
	hooks collectorHooks,
	start time.Time,
	result *scraper.Response,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		c.copyHeaders(r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		*result = scraper.Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func (c *Client) copyHeaders(r *colly.Request) {
	if c.cfg.Headers == nil {
		return
	}
	for key, values := range c.cfg.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func newHTTPTransport(keepAlive bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     !keepAlive,
		MaxIdleConns:          1,
		MaxIdleConnsPerHost:   1,
		IdleConnTimeout:       90 * time.Second,
	}
}
