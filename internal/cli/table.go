package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/model"
)

// RenderCandidates writes detected patterns as a table.
func RenderCandidates(w io.Writer, candidates []model.PatternCandidate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeHeader(tw, "Name", "Amount", "Frequency", "Seen", "Confidence", "Next", ""); err != nil {
		return err
	}
	for _, c := range candidates {
		mark := ""
		if c.Acceptable {
			mark = SuccessStyle.Render(SuccessIcon)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			c.Name,
			formatAmount(c.Representative.Type, c.Signature.Amount().StringFixed(2)),
			c.Frequency,
			c.SampleCount,
			formatConfidence(c.Confidence),
			calendar.Format(c.NextDate),
			mark,
		); err != nil {
			return fmt.Errorf("failed to write pattern row: %w", err)
		}
	}
	return tw.Flush()
}

// RenderDefinitions writes recurring definitions as a table.
func RenderDefinitions(w io.Writer, defs []model.RecurringDefinition) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeHeader(tw, "ID", "Name", "Amount", "Frequency", "Next Run", "Last Run", "Status"); err != nil {
		return err
	}
	for _, d := range defs {
		lastRun := SubtleStyle.Render("never")
		if d.LastRunDate != nil {
			lastRun = calendar.Format(*d.LastRunDate)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(d.ID),
			d.Name,
			formatAmount(d.Type, d.Amount.StringFixed(2)),
			d.Frequency,
			calendar.Format(d.NextRunDate),
			lastRun,
			status(d),
		); err != nil {
			return fmt.Errorf("failed to write definition row: %w", err)
		}
	}
	return tw.Flush()
}

// RenderDueReport writes the outcome of a due scan grouped by result.
func RenderDueReport(w io.Writer, report model.DueReport) error {
	var b strings.Builder

	if report.Total() == 0 {
		b.WriteString(InfoStyle.Render("Nothing is due.") + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, o := range report.Materialized {
		b.WriteString(FormatSuccess(fmt.Sprintf("%s on %s, next %s",
			o.Name, calendar.Format(o.OccurrenceDate), calendar.Format(o.NextRunDate))) + "\n")
	}
	for _, o := range report.Pending {
		b.WriteString(FormatInfo(fmt.Sprintf("%s on %s awaits confirmation (spice recurring confirm %s)",
			o.Name, calendar.Format(o.OccurrenceDate), shortID(o.DefinitionID))) + "\n")
	}
	for _, o := range report.Skipped {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("- %s on %s: %s",
			o.Name, calendar.Format(o.OccurrenceDate), o.Reason)) + "\n")
	}
	for _, e := range report.Errors {
		b.WriteString(FormatError(fmt.Sprintf("%s on %s: %v",
			e.Name, calendar.Format(e.OccurrenceDate), e.Err)) + "\n")
	}

	b.WriteString(fmt.Sprintf("\n%d materialized, %d pending, %d skipped, %d failed\n",
		len(report.Materialized), len(report.Pending), len(report.Skipped), len(report.Errors)))

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDefinition writes the details of one definition in a box.
func RenderDefinition(w io.Writer, d model.RecurringDefinition) error {
	lastRun := "never"
	if d.LastRunDate != nil {
		lastRun = calendar.Format(*d.LastRunDate)
	}
	confidence := "entered by hand"
	if d.Confidence > 0 {
		confidence = formatConfidence(d.Confidence)
	}

	rows := [][2]string{
		{"ID", d.ID},
		{"Description", d.Description},
		{"Amount", formatAmount(d.Type, d.Amount.StringFixed(2))},
		{"Frequency", d.Frequency.String()},
		{"Category", d.Category},
		{"Account", d.AccountID},
		{"Status", status(d)},
		{"Next run", calendar.Format(d.NextRunDate)},
		{"Last run", lastRun},
		{"Confidence", confidence},
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", SubtleStyle.Render(row[0]), row[1]); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, RenderBox(d.Name, strings.TrimRight(b.String(), "\n")))
	return err
}

func writeHeader(w io.Writer, columns ...string) error {
	styled := make([]string, len(columns))
	for i, c := range columns {
		styled[i] = TableHeaderStyle.Render(c)
	}
	if _, err := fmt.Fprintln(w, strings.Join(styled, "\t")); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}
	return nil
}

func formatAmount(t model.TransactionType, amount string) string {
	if t == model.TypeIncome {
		return SuccessStyle.Render("+$" + amount)
	}
	return "$" + amount
}

func formatConfidence(c float64) string {
	text := fmt.Sprintf("%.0f%%", c*100)
	switch {
	case c >= 0.9:
		return SuccessStyle.Render(text)
	case c >= 0.7:
		return text
	default:
		return SubtleStyle.Render(text)
	}
}

func status(d model.RecurringDefinition) string {
	switch {
	case !d.IsActive:
		return WarningStyle.Render(PauseIcon + " paused")
	case d.AutoApprove:
		return SuccessStyle.Render(RepeatIcon + " auto")
	default:
		return InfoStyle.Render("manual")
	}
}

// shortID abbreviates a UUID for display. Commands accept the full ID or
// any unique prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
