package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/bunpro-yomitan/internal/schedule"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the scrape targets and their delays without fetching",
		RunE:  runPlanCommand,
	}
}

func runPlanCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	steps, err := planSteps(appInstance.Config().Scrape, appInstance.GetClock().Now(), appInstance.GetLogger().Named("plan"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDELAY\tURL")
	delays := make([]time.Duration, len(steps))
	for i, step := range steps {
		fmt.Fprintf(w, "%d\t%.1fs\t%s\n", i+1, step.Delay.Seconds(), step.Target.URL)
		delays[i] = step.Delay
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	fmt.Fprintf(out, "%d targets, %s total sleep\n", len(steps), schedule.Total(delays).Round(time.Second))
	return nil
}
