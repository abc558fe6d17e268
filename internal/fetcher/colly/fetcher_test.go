package collyfetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bunpro-yomitan/internal/scraper"
)

func newTestServer(t *testing.T) (*httptest.Server, *connTracker) {
	t.Helper()
	tracker := &connTracker{}
	mux := http.NewServeMux()
	mux.HandleFunc("/grammar_points/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Trace") != "" {
			w.Header().Set("X-Trace", r.Header.Get("X-Trace"))
		}
		_, _ = w.Write([]byte("<html><h1>" + r.URL.Path + "</h1></html>"))
	})
	mux.HandleFunc("/limited", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	mux.HandleFunc("/slow", func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
	})
	srv := httptest.NewUnstartedServer(mux)
	srv.Config.ConnState = tracker.observe
	srv.Start()
	t.Cleanup(srv.Close)
	return srv, tracker
}

type connTracker struct {
	mu    sync.Mutex
	conns int
}

func (c *connTracker) observe(_ net.Conn, state http.ConnState) {
	if state == http.StateNew {
		c.mu.Lock()
		c.conns++
		c.mu.Unlock()
	}
}

func (c *connTracker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns
}

func TestClientGet(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(Config{UserAgent: "test-agent", Timeout: time.Second})

	resp, err := c.Get(context.Background(), srv.URL+"/grammar_points/da")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "/grammar_points/da")
	assert.Equal(t, srv.URL+"/grammar_points/da", resp.URL)
}

func TestClientReturnsErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(Config{Timeout: time.Second})

	resp, err := c.Get(context.Background(), srv.URL+"/limited")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, err = c.Get(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientTransportError(t *testing.T) {
	srv, _ := newTestServer(t)
	addr := srv.URL
	srv.Close()

	_, err := New(Config{Timeout: time.Second}).Get(context.Background(), addr+"/grammar_points/da")
	assert.Error(t, err)
}

func TestClientTimeout(t *testing.T) {
	srv, _ := newTestServer(t)
	_, err := New(Config{Timeout: 50 * time.Millisecond}).Get(context.Background(), srv.URL+"/slow")
	assert.Error(t, err)
}

func TestSessionReusesConnection(t *testing.T) {
	srv, tracker := newTestServer(t)
	c := New(Config{Timeout: time.Second})

	session := c.NewSession()
	for _, id := range []string{"a", "b", "c"} {
		resp, err := session.Get(context.Background(), srv.URL+"/grammar_points/"+id)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.NoError(t, session.Close())
	assert.Equal(t, 1, tracker.count())

	_, err := session.Get(context.Background(), srv.URL+"/grammar_points/d")
	assert.Error(t, err)
	assert.NoError(t, session.Close())
}

func TestOneOffRequestsDoNotShareConnections(t *testing.T) {
	srv, tracker := newTestServer(t)
	c := New(Config{Timeout: time.Second})

	for _, id := range []string{"a", "b"} {
		_, err := c.Get(context.Background(), srv.URL+"/grammar_points/"+id)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, tracker.count())
}

func TestGetCanceledContext(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{Timeout: time.Second}).Get(ctx, srv.URL+"/slow")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigureCollectorHooks(t *testing.T) {
	c := New(Config{Headers: http.Header{"X-Trace": {"yes"}}})
	start := time.Unix(0, 0)
	var result scraper.Response
	var fetchErr error

	hooks := &stubHooks{}
	c.configureCollectorHooks(hooks, start, &result, &fetchErr)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	assert.Equal(t, "yes", collyReq.Headers.Get("X-Trace"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com")},
	})
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "body", string(result.Body))

	hooks.onError(nil, errors.New("boom"))
	assert.EqualError(t, fetchErr, "boom")
}

func TestCopyHeadersHandlesNil(t *testing.T) {
	collyReq := &colly.Request{Headers: &http.Header{}}
	New(Config{}).copyHeaders(collyReq)
	assert.Empty(t, *collyReq.Headers)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
