package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/cli"
	"github.com/Veraticus/spice-recurring/internal/recurring"
	"github.com/Veraticus/spice-recurring/internal/service"
)

func recurringDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Find recurring patterns in imported transactions",
		Long: `Group imported transactions by description and amount, measure how
regularly each group repeats, and predict the next occurrence.

Only patterns that clear the confidence threshold are shown unless --all is
given. With --accept they are saved as recurring definitions.`,
		RunE: runRecurringDetect,
	}

	cmd.Flags().Bool("all", false, "Show patterns below the confidence threshold too")
	cmd.Flags().Bool("accept", false, "Save every acceptable pattern as a recurring definition")
	cmd.Flags().Bool("auto-approve", false, "Book accepted definitions automatically when due")
	cmd.Flags().String("since", "", "Only consider transactions on or after this date (YYYY-MM-DD)")

	return cmd
}

func runRecurringDetect(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	showAll, _ := cmd.Flags().GetBool("all")
	accept, _ := cmd.Flags().GetBool("accept")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	since, _ := cmd.Flags().GetString("since")

	var filter service.TransactionFilter
	if since != "" {
		start, err := parseDateFlag(since, time.Now)
		if err != nil {
			return err
		}
		filter.StartDate = &start
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), settings)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	progress := cli.NewProgress(cmd.ErrOrStderr(), "Analyzing transaction series...")
	engine := initEngine(store, settings, progress.Update)

	interrupts := cli.NewInterruptHandler(out)
	ctx, cancel := interrupts.HandleInterrupts(cmd.Context(), "Detection", "")
	defer cancel()

	candidates, err := engine.DetectStored(ctx, filter)
	progress.Finish()
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	acceptable := recurring.Acceptable(candidates)
	shown := acceptable
	if showAll {
		shown = candidates
	}

	if len(shown) == 0 {
		fmt.Fprintln(out, cli.InfoStyle.Render("No recurring patterns found. Import more history or try --all."))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle("Recurring Patterns"))
	if err := cli.RenderCandidates(out, shown); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d patterns clear the %.0f%% confidence threshold\n",
		len(acceptable), len(candidates), recurring.AcceptanceThreshold*100)

	if !accept {
		if len(acceptable) > 0 {
			fmt.Fprintln(out, cli.SubtleStyle.Render("Run with --accept to save them as recurring definitions."))
		}
		return nil
	}

	created, errs := engine.Definitions.AcceptAll(ctx, acceptable, recurring.AcceptOptions{AutoApprove: autoApprove})
	fmt.Fprintln(out)
	for _, def := range created {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved %s (%s), next on %s",
			def.Name, def.Frequency, calendar.Format(def.NextRunDate))))
	}
	for _, e := range errs {
		fmt.Fprintln(out, cli.FormatError(e.Error()))
	}
	if len(created) == 0 && len(errs) > 0 {
		return fmt.Errorf("failed to save any of %d patterns", len(errs))
	}
	return nil
}
