// Package cmd defines and implements the CLI commands for the bunprodict executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/bunpro-yomitan/internal/app"
	"github.com/JakeFAU/bunpro-yomitan/internal/config"
	"github.com/JakeFAU/bunpro-yomitan/internal/metrics"
)

var (
	cfgFile string
	envFile string
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const (
	appKey    appKeyType = "app"
	holderKey appKeyType = "app-holder"
)

// appHolder keeps the App reachable after cobra returns. PersistentPostRun is
// skipped when RunE fails, so teardown cannot live there.
type appHolder struct {
	app App
}

func (h *appHolder) close() {
	if h.app == nil {
		return
	}
	h.app.Close()
	h.app = nil
}

// App defines the application interface that commands will use.
// This allows us to inject a fake app during tests.
type App interface {
	Close()
	Config() config.Config
	GetLogger() *zap.Logger
	GetMetrics() *metrics.Metrics
	GetClock() app.Clock
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(opts app.Options) (App, error) {
	return app.NewApp(opts)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bunprodict",
		Short: "Scrape Bunpro grammar points and build a Yomitan dictionary.",
		Long: `bunprodict runs two loosely coupled pipelines. "scrape" fetches grammar-point
pages on a randomized schedule and stores them as HTML files; "build" reads the
stored pages and writes a Yomitan term-bank archive.`,
		SilenceUsage: true,

		// Runs before every subcommand; builds the shared services. runRoot
		// closes them once the command returns, whether or not it failed.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(app.Options{ConfigPath: cfgFile, EnvFile: envFile})
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			if holder, ok := cmd.Context().Value(holderKey).(*appHolder); ok {
				holder.app = appInstance
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", app.DefaultEnvFile, "dotenv file loaded before configuration")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newSurveyCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runRoot(ctx, newRootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "bunprodict: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// runRoot executes root and then closes the application services on every
// exit path, so traces, metrics and logs are flushed for failed runs too.
func runRoot(ctx context.Context, root *cobra.Command) error {
	holder := &appHolder{}
	defer holder.close()
	return root.ExecuteContext(context.WithValue(ctx, holderKey, holder))
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
