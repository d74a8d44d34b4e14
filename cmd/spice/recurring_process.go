package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/cli"
	"github.com/Veraticus/spice-recurring/internal/recurring"
)

func recurringProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Book recurring occurrences that are due",
		Long: `Book one occurrence for every active, auto-approved definition whose next
run date has arrived, then move its schedule forward.

Definitions without auto-approve are listed as pending; confirm them with
'spice recurring confirm'. Each run books at most one occurrence per
definition, so run it again to catch up on a long gap. Running it twice on
the same day books nothing new.`,
		Args: cobra.NoArgs,
		RunE: runRecurringProcess,
	}

	cmd.Flags().String("as-of", "", "Process as if today were this date (YYYY-MM-DD)")

	return cmd
}

func runRecurringProcess(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	asOf, _ := cmd.Flags().GetString("as-of")

	today, err := parseDateFlag(asOf, time.Now)
	if err != nil {
		return err
	}

	return withEngine(cmd, func(engine *recurring.Engine) error {
		interrupts := cli.NewInterruptHandler(out)
		ctx, cancel := interrupts.HandleInterrupts(cmd.Context(), "Due processing", "spice recurring process")
		defer cancel()

		fmt.Fprintln(out, cli.FormatTitle("Recurring occurrences due by "+calendar.Format(today)))
		report, err := engine.Due.ProcessDue(ctx, today)
		if renderErr := cli.RenderDueReport(out, report); renderErr != nil {
			return renderErr
		}
		if err != nil {
			return fmt.Errorf("due processing stopped: %w", err)
		}
		if len(report.Errors) > 0 {
			return fmt.Errorf("%d of %d due definitions failed", len(report.Errors), report.Total())
		}
		return nil
	})
}

func recurringConfirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <definition-id>",
		Short: "Book the due occurrence of a definition without auto-approve",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecurringConfirm,
	}

	cmd.Flags().String("as-of", "", "Confirm as if today were this date (YYYY-MM-DD)")

	return cmd
}

func runRecurringConfirm(cmd *cobra.Command, args []string) error {
	asOf, _ := cmd.Flags().GetString("as-of")

	today, err := parseDateFlag(asOf, time.Now)
	if err != nil {
		return err
	}

	return withEngine(cmd, func(engine *recurring.Engine) error {
		id, err := resolveDefinitionID(cmd.Context(), engine.Definitions, args[0])
		if err != nil {
			return err
		}

		outcome, err := engine.Due.Confirm(cmd.Context(), id, today)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Booked %s on %s, next on %s",
			outcome.Name, calendar.Format(outcome.OccurrenceDate), calendar.Format(outcome.NextRunDate))))
		return nil
	})
}
