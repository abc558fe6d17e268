package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/bunpro-yomitan/internal/build"
	"github.com/JakeFAU/bunpro-yomitan/internal/grammar"
	"github.com/JakeFAU/bunpro-yomitan/internal/storage/local"
)

func newSurveyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "survey",
		Short: "List the part-of-speech labels found in stored pages",
		Long: `Prints every distinct "Part of Speech" label across the stored pages with
the tag it maps to, flagging labels that would abort a build.`,
		RunE: runSurveyCommand,
	}
}

func runSurveyCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	store, err := local.Open(local.Config{BaseDir: appInstance.Config().Storage.PagesDir})
	if err != nil {
		return fmt.Errorf("open page store: %w", err)
	}
	labels, err := build.Survey(store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, label := range labels {
		pos, err := grammar.ParsePartOfSpeech(label)
		if errors.Is(err, grammar.ErrUnknownPartOfSpeech) {
			fmt.Fprintf(out, "%s\t(unmapped)\n", label)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", label, pos)
	}
	return nil
}
