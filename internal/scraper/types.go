// Package scraper implements the paced, single-threaded fetch loop that saves
// grammar-point pages to the page store.
package scraper

import (
	"context"
	"time"

	"github.com/JakeFAU/bunpro-yomitan/internal/planner"
)

// Action classifies a loop result.
type Action string

// Loop result actions.
const (
	ActionScrape Action = "scrape"
	ActionError  Action = "error"
	ActionBreak  Action = "break"
)

// Step pairs a target with the delay to wait before fetching it.
type Step struct {
	Target planner.Target
	Delay  time.Duration
}

// Result is yielded once per attempted step.
type Result struct {
	Action     Action
	Target     planner.Target
	Delay      time.Duration
	Success    bool
	StatusCode int
	// Path is where the page was saved, set only on success.
	Path string
	Err  error
}

// Response is what a Fetcher returns for a completed HTTP exchange, whatever the status.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher issues one GET.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (Response, error)
}

// Session is a Fetcher that keeps connections and cookies between requests.
type Session interface {
	Fetcher
	Close() error
}

// Client issues unshared one-off requests and opens shared sessions.
type Client interface {
	Fetcher
	NewSession() Session
}

// PageSink persists fetched HTML.
type PageSink interface {
	Save(ctx context.Context, rawURL string, html []byte) (string, error)
}

// Summary tallies a finished run.
type Summary struct {
	Scraped     int
	Failed      int
	RateLimited bool
}
