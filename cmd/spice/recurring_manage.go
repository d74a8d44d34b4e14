package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-recurring/internal/cli"
	"github.com/Veraticus/spice-recurring/internal/common"
	"github.com/Veraticus/spice-recurring/internal/model"
	"github.com/Veraticus/spice-recurring/internal/recurring"
)

func recurringListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring definitions",
		Long: `Display recurring definitions ordered by their next run date.

Use --active or --paused to show only one state.`,
		Args: cobra.NoArgs,
		RunE: runRecurringList,
	}

	cmd.Flags().Bool("active", false, "Only show active definitions")
	cmd.Flags().Bool("paused", false, "Only show paused definitions")
	cmd.MarkFlagsMutuallyExclusive("active", "paused")

	return cmd
}

func runRecurringList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	onlyActive, _ := cmd.Flags().GetBool("active")
	onlyPaused, _ := cmd.Flags().GetBool("paused")

	var filter model.DefinitionFilter
	switch {
	case onlyActive:
		active := true
		filter.Active = &active
	case onlyPaused:
		active := false
		filter.Active = &active
	}

	return withEngine(cmd, func(engine *recurring.Engine) error {
		defs, err := engine.Definitions.List(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to list recurring definitions: %w", err)
		}

		if len(defs) == 0 {
			fmt.Fprintln(out, cli.InfoStyle.Render("No recurring definitions found. Use 'spice recurring detect --accept' or 'spice recurring add' to create one."))
			return nil
		}

		fmt.Fprintln(out, cli.FormatTitle("Recurring Definitions"))
		return cli.RenderDefinitions(out, defs)
	})
}

func recurringShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <definition-id>",
		Short: "Show the details of a recurring definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(engine *recurring.Engine) error {
				id, err := resolveDefinitionID(cmd.Context(), engine.Definitions, args[0])
				if err != nil {
					return err
				}
				def, err := engine.Definitions.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return cli.RenderDefinition(cmd.OutOrStdout(), *def)
			})
		},
	}
}

func recurringAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring definition by hand",
		Long: `Create a recurring definition without detection.

The next run date is predicted from --anchor, the date of the last known
occurrence, and moved forward to today if it has already passed.

Example:
  spice recurring add --description "RENT PAYMENT" --amount 1850 --frequency monthly --anchor 2024-03-01`,
		Args: cobra.NoArgs,
		RunE: runRecurringAdd,
	}

	addDefinitionFlags(cmd)
	cmd.Flags().String("anchor", "", "Date of the last known occurrence (YYYY-MM-DD, default today)")
	cmd.Flags().Bool("paused", false, "Create the definition paused")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runRecurringAdd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	description, _ := flags.GetString("description")
	amountText, _ := flags.GetString("amount")
	name, _ := flags.GetString("name")
	category, _ := flags.GetString("category")
	account, _ := flags.GetString("account")
	income, _ := flags.GetBool("income")
	autoApprove, _ := flags.GetBool("auto-approve")
	paused, _ := flags.GetBool("paused")
	anchorText, _ := flags.GetString("anchor")

	amount, err := parseAmount(amountText)
	if err != nil {
		return err
	}

	freq, err := frequencyFromFlags(cmd)
	if err != nil {
		return err
	}
	if freq == nil {
		monthly := model.Monthly
		freq = &monthly
	}

	var anchor time.Time
	if anchorText != "" {
		if anchor, err = parseDateFlag(anchorText, time.Now); err != nil {
			return err
		}
	}

	txnType := model.TypeExpense
	if income {
		txnType = model.TypeIncome
	}

	return withEngine(cmd, func(engine *recurring.Engine) error {
		def, err := engine.Definitions.Create(cmd.Context(), recurring.CreateInput{
			Anchor:      anchor,
			Amount:      amount,
			Name:        name,
			Description: description,
			Category:    category,
			AccountID:   account,
			Type:        txnType,
			Frequency:   *freq,
			AutoApprove: autoApprove,
			Paused:      paused,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created recurring definition %s", def.Name)))
		return cli.RenderDefinitions(out, []model.RecurringDefinition{*def})
	})
}

func recurringEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <definition-id>",
		Short: "Change a recurring definition",
		Long: `Change the fields of a recurring definition. Only the flags you pass are
applied.

Changing the frequency recomputes the next run date from the last run, or
from the creation date if the definition never ran.`,
		Args: cobra.ExactArgs(1),
		RunE: runRecurringEdit,
	}

	addDefinitionFlags(cmd)

	return cmd
}

func runRecurringEdit(cmd *cobra.Command, args []string) error {
	in, err := updateInputFromFlags(cmd)
	if err != nil {
		return err
	}

	return withEngine(cmd, func(engine *recurring.Engine) error {
		id, err := resolveDefinitionID(cmd.Context(), engine.Definitions, args[0])
		if err != nil {
			return err
		}

		def, err := engine.Definitions.Update(cmd.Context(), id, in)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated %s", def.Name)))
		return cli.RenderDefinitions(out, []model.RecurringDefinition{*def})
	})
}

func recurringToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <definition-id>",
		Short: "Switch a definition between active and paused",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return changeState(cmd, args[0], func(engine *recurring.Engine, id string) (*model.RecurringDefinition, error) {
				return engine.Definitions.Toggle(cmd.Context(), id)
			})
		},
	}
}

func recurringPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <definition-id>",
		Short: "Pause a definition so it is no longer processed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return changeState(cmd, args[0], func(engine *recurring.Engine, id string) (*model.RecurringDefinition, error) {
				return engine.Definitions.SetActive(cmd.Context(), id, false)
			})
		},
	}
}

func recurringResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <definition-id>",
		Short: "Resume a paused definition",
		Long: `Resume a paused definition. Its schedule is kept, so occurrences missed
while it was paused become due on the next process run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return changeState(cmd, args[0], func(engine *recurring.Engine, id string) (*model.RecurringDefinition, error) {
				return engine.Definitions.SetActive(cmd.Context(), id, true)
			})
		},
	}
}

func changeState(cmd *cobra.Command, ref string, apply func(*recurring.Engine, string) (*model.RecurringDefinition, error)) error {
	return withEngine(cmd, func(engine *recurring.Engine) error {
		id, err := resolveDefinitionID(cmd.Context(), engine.Definitions, ref)
		if err != nil {
			return err
		}

		def, err := apply(engine, id)
		if err != nil {
			return err
		}

		state := "active"
		if !def.IsActive {
			state = "paused"
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now %s", def.Name, state)))
		return nil
	})
}

func recurringDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <definition-id>",
		Short: "Delete a recurring definition",
		Long: `Delete a recurring definition permanently.

Transactions it already booked are kept. Use 'spice recurring pause' to
stop a definition without losing it.`,
		Args: cobra.ExactArgs(1),
		RunE: runRecurringDelete,
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runRecurringDelete(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	out := cmd.OutOrStdout()

	return withEngine(cmd, func(engine *recurring.Engine) error {
		ctx := cmd.Context()
		id, err := resolveDefinitionID(ctx, engine.Definitions, args[0])
		if err != nil {
			return err
		}
		def, err := engine.Definitions.Get(ctx, id)
		if err != nil {
			return err
		}

		if !force {
			fmt.Fprintf(out, "Delete %s (%s, %s)? (y/N): ", def.Name, def.Amount.StringFixed(2), def.Frequency)
			response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(response)) != "y" {
				fmt.Fprintln(out, "Operation canceled.")
				return nil
			}
		}

		if err := engine.Definitions.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted %s", def.Name)))
		return nil
	})
}

func addDefinitionFlags(cmd *cobra.Command) {
	cmd.Flags().String("description", "", "Description booked on each occurrence")
	cmd.Flags().String("amount", "", "Amount of each occurrence, e.g. 15.99")
	cmd.Flags().String("name", "", "Display name (default: derived from the description)")
	cmd.Flags().String("category", "", "Category booked on each occurrence")
	cmd.Flags().String("account", "", "Account ID booked on each occurrence")
	cmd.Flags().String("frequency", "", "daily, weekly, monthly, quarterly, yearly or custom (default monthly)")
	cmd.Flags().Int("interval-days", 0, "Days between occurrences for a custom frequency")
	cmd.Flags().Bool("income", false, "Book occurrences as income instead of expense")
	cmd.Flags().Bool("auto-approve", false, "Book occurrences automatically when due")
}

// frequencyFromFlags returns nil when neither --frequency nor
// --interval-days was given. --interval-days alone implies custom.
func frequencyFromFlags(cmd *cobra.Command) (*model.Frequency, error) {
	flags := cmd.Flags()
	if !flags.Changed("frequency") && !flags.Changed("interval-days") {
		return nil, nil
	}

	name, _ := flags.GetString("frequency")
	days, _ := flags.GetInt("interval-days")
	if !flags.Changed("frequency") {
		name = string(model.CadenceCustom)
	}

	freq, err := model.ParseFrequency(name, days)
	if err != nil {
		return nil, common.NewUserError("invalid frequency", err)
	}
	return &freq, nil
}

func updateInputFromFlags(cmd *cobra.Command) (recurring.UpdateInput, error) {
	var in recurring.UpdateInput
	flags := cmd.Flags()

	stringFields := map[string]**string{
		"name":        &in.Name,
		"description": &in.Description,
		"category":    &in.Category,
		"account":     &in.AccountID,
	}
	for flag, field := range stringFields {
		if flags.Changed(flag) {
			v, _ := flags.GetString(flag)
			*field = &v
		}
	}

	if flags.Changed("amount") {
		text, _ := flags.GetString("amount")
		amount, err := parseAmount(text)
		if err != nil {
			return in, err
		}
		in.Amount = &amount
	}

	freq, err := frequencyFromFlags(cmd)
	if err != nil {
		return in, err
	}
	in.Frequency = freq

	if flags.Changed("income") {
		income, _ := flags.GetBool("income")
		t := model.TypeExpense
		if income {
			t = model.TypeIncome
		}
		in.Type = &t
	}

	if flags.Changed("auto-approve") {
		v, _ := flags.GetBool("auto-approve")
		in.AutoApprove = &v
	}

	return in, nil
}

// parseAmount reads a positive amount; a leading $ and a minus sign are
// accepted since direction is set with --income.
func parseAmount(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	cleaned = strings.Replace(cleaned, "$", "", 1)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, common.NewUserError(fmt.Sprintf("invalid amount %q", text), err)
	}
	amount = amount.Abs().Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, common.NewUserError("amount must be greater than zero", model.ErrInvalidDefinition)
	}
	return amount, nil
}
