package main

import (
	"github.com/spf13/cobra"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"rec"},
		Short:   "Detect and manage recurring transactions",
		Long: `Detect recurring patterns in your transaction history and manage the
recurring definitions created from them.

A definition is either active or paused. Active definitions with auto-approve
are booked automatically by 'spice recurring process'; the others wait for
'spice recurring confirm'.`,
	}

	cmd.AddCommand(recurringDetectCmd())
	cmd.AddCommand(recurringListCmd())
	cmd.AddCommand(recurringShowCmd())
	cmd.AddCommand(recurringAddCmd())
	cmd.AddCommand(recurringEditCmd())
	cmd.AddCommand(recurringToggleCmd())
	cmd.AddCommand(recurringPauseCmd())
	cmd.AddCommand(recurringResumeCmd())
	cmd.AddCommand(recurringDeleteCmd())
	cmd.AddCommand(recurringProcessCmd())
	cmd.AddCommand(recurringConfirmCmd())

	return cmd
}
