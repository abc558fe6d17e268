package scraper

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/bunpro-yomitan/internal/metrics"
	"github.com/JakeFAU/bunpro-yomitan/internal/planner"
)

var tracer = otel.Tracer("github.com/JakeFAU/bunpro-yomitan/internal/scraper")

// Loop fetches targets one at a time, sleeping before each request. Requests
// whose delay is under the session threshold share one connection; slower
// requests close it and go out on their own.
type Loop struct {
	client           Client
	sink             PageSink
	sessionThreshold time.Duration
	pauser           pauseController
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

// NewLoop wires a Loop. metrics may be nil.
func NewLoop(client Client, sink PageSink, sessionThreshold time.Duration, m *metrics.Metrics, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		client:           client,
		sink:             sink,
		sessionThreshold: sessionThreshold,
		pauser:           &timerPauseController{},
		metrics:          m,
		logger:           logger,
	}
}

// Pair zips targets with delays. Extra elements on either side are dropped.
func Pair(targets []planner.Target, delays []time.Duration) []Step {
	n := min(len(targets), len(delays))
	steps := make([]Step, n)
	for i := 0; i < n; i++ {
		steps[i] = Step{Target: targets[i], Delay: delays[i]}
	}
	return steps
}

// Run returns a lazy sequence of results. Nothing is fetched until the
// sequence is ranged over; a 429 yields one ActionBreak and ends it. Any open
// session is closed when the sequence ends for whatever reason.
func (l *Loop) Run(ctx context.Context, steps []Step) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		var session Session
		defer func() {
			if session != nil {
				l.closeSession(session)
			}
		}()

		for _, step := range steps {
			l.metrics.ObserveDelay(step.Delay)
			l.pauser.Pause(ctx, step.Delay)
			if err := ctx.Err(); err != nil {
				l.logger.Warn("Scrape interrupted", zap.String("next", step.Target.URL), zap.Error(err))
				return
			}

			var fetcher Fetcher
			if step.Delay < l.sessionThreshold {
				if session == nil {
					session = l.client.NewSession()
					l.metrics.ObserveSessionOpened()
				}
				fetcher = session
			} else {
				if session != nil {
					l.closeSession(session)
					session = nil
				}
				fetcher = l.client
			}

			result := l.fetch(ctx, fetcher, step)
			l.metrics.ObserveScrape(string(result.Action))
			if !yield(result) || result.Action == ActionBreak {
				return
			}
		}
	}
}

// RunAll drains Run and tallies the outcome.
func (l *Loop) RunAll(ctx context.Context, steps []Step) Summary {
	var summary Summary
	for result := range l.Run(ctx, steps) {
		switch result.Action {
		case ActionScrape:
			summary.Scraped++
		case ActionError:
			summary.Failed++
		case ActionBreak:
			summary.RateLimited = true
		}
	}
	return summary
}

func (l *Loop) fetch(ctx context.Context, fetcher Fetcher, step Step) Result {
	ctx, span := tracer.Start(ctx, "scraper.fetch", trace.WithAttributes(
		attribute.String("url", step.Target.URL),
		attribute.Float64("delay_seconds", step.Delay.Seconds()),
	))
	defer span.End()

	result := l.attempt(ctx, fetcher, step)
	span.SetAttributes(
		attribute.String("action", string(result.Action)),
		attribute.Int("http.status_code", result.StatusCode),
	)
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, string(result.Action))
	}
	return result
}

func (l *Loop) attempt(ctx context.Context, fetcher Fetcher, step Step) Result {
	site := step.Target.URL
	result := Result{Target: step.Target, Delay: step.Delay}

	resp, err := fetcher.Get(ctx, site)
	if err != nil {
		l.logger.Error("Error scraping", zap.String("site", site), zap.Error(err))
		result.Action = ActionError
		result.Err = err
		return result
	}
	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		l.metrics.ObserveRateLimit()
		l.logger.Error("Rate limit exceeded. Exiting.", zap.String("site", site))
		result.Action = ActionBreak
		result.Err = fmt.Errorf("rate limited: status %d", resp.StatusCode)
		return result
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		l.logger.Error("HTTP error occurred while scraping",
			zap.String("site", site),
			zap.Int("status_code", resp.StatusCode),
		)
		result.Action = ActionError
		result.Err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		return result
	}

	path, err := l.sink.Save(ctx, site, resp.Body)
	if err != nil {
		l.logger.Error("Error saving source code", zap.String("site", site), zap.Error(err))
		result.Action = ActionError
		result.Err = err
		return result
	}
	l.logger.Info("Scraped",
		zap.String("site", site),
		zap.String("path", path),
		zap.Duration("sleep", step.Delay),
		zap.Duration("took", resp.Duration),
	)
	result.Action = ActionScrape
	result.Success = true
	result.Path = path
	return result
}

func (l *Loop) closeSession(session Session) {
	if err := session.Close(); err != nil {
		l.logger.Warn("Failed to close session", zap.Error(err))
	}
}
