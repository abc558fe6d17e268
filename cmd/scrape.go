package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/bunpro-yomitan/internal/config"
	collyfetcher "github.com/JakeFAU/bunpro-yomitan/internal/fetcher/colly"
	"github.com/JakeFAU/bunpro-yomitan/internal/planner"
	"github.com/JakeFAU/bunpro-yomitan/internal/schedule"
	"github.com/JakeFAU/bunpro-yomitan/internal/scraper"
	"github.com/JakeFAU/bunpro-yomitan/internal/storage/local"
)

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Fetch grammar-point pages into the page directory",
		Long: `Plans one target per grammar point of the configured levels, spreads them
over the scrape budget (or until the configured deadline) with a randomized
minimum-delay schedule, and saves each page as <name>.html. A 429 response
stops the run.`,
		RunE: runScrapeCommand,
	}
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.GetLogger().Named("scrape")
	m := appInstance.GetMetrics()

	steps, err := planSteps(cfg.Scrape, appInstance.GetClock().Now(), logger)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		logger.Info("Nothing to scrape")
		return nil
	}

	store, err := local.New(local.Config{BaseDir: cfg.Storage.PagesDir})
	if err != nil {
		return fmt.Errorf("init page store: %w", err)
	}
	client := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   cfg.Scrape.RequestTimeout,
	})
	loop := scraper.NewLoop(client, store, cfg.Scrape.SessionThreshold, m, logger)

	summary := loop.RunAll(cmd.Context(), steps)

	m.MarkRun("scrape", appInstance.GetClock().Now())
	logger.Info("Scrape finished",
		zap.Int("planned", len(steps)),
		zap.Int("scraped", summary.Scraped),
		zap.Int("failed", summary.Failed),
		zap.Bool("rate_limited", summary.RateLimited),
	)
	return nil
}

// planSteps builds the targets and pairs them with a sleep plan. Without a
// fixed budget the plan spans the time left until the configured deadline.
func planSteps(sc config.ScrapeConfig, now time.Time, logger *zap.Logger) ([]scraper.Step, error) {
	targets := planner.New(sc.BaseURL, logger).Targets(sc.PointsFile, sc.Levels...)
	if len(targets) == 0 {
		return nil, nil
	}

	budget := sc.Budget
	if budget == 0 {
		deadline, err := sc.DeadlineOn(now)
		if err != nil {
			return nil, err
		}
		budget, err = schedule.BudgetUntil(now, deadline)
		if err != nil {
			return nil, fmt.Errorf("resolve scrape budget: %w", err)
		}
	}

	var delays []time.Duration
	var err error
	if sc.Seed != 0 {
		delays, err = schedule.Plan(schedule.NewSeeded(sc.Seed), sc.MinDelay, budget, len(targets))
	} else {
		delays, err = schedule.Plan(nil, sc.MinDelay, budget, len(targets))
	}
	if err != nil {
		return nil, fmt.Errorf("plan delays for %d targets: %w", len(targets), err)
	}
	logger.Info("Planned scrape",
		zap.Int("targets", len(targets)),
		zap.Duration("budget", budget),
		zap.Duration("total_sleep", schedule.Total(delays)),
	)
	return scraper.Pair(targets, delays), nil
}
