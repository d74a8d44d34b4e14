package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-recurring/internal/cli"
	"github.com/Veraticus/spice-recurring/internal/csvimport"
	"github.com/Veraticus/spice-recurring/internal/model"
	"github.com/Veraticus/spice-recurring/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transaction history from OFX, QFX or CSV files",
		Long: `Import transactions exported from your bank so spice can look for
recurring patterns in them.

OFX and QFX files are read with their account IDs. CSV files need date,
amount and description columns; id, category, account and type are optional.
Transactions already in the database are skipped.

Examples:
  spice import ~/Downloads/chase_2024.qfx
  spice import ~/Downloads/*.csv --account checking`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	cmd.Flags().String("account", "", "Account ID for CSV rows that do not name one")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	account, _ := cmd.Flags().GetString("account")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	slog.Info("Importing transaction files", "file_count", len(files), "dry_run", dryRun)

	var all []model.Transaction
	seen := make(map[string]bool)
	for _, path := range files {
		txns, err := readTransactionFile(ctx, path)
		if err != nil {
			slog.Error("Failed to import file", "file", path, "error", err)
			fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", filepath.Base(path), err)))
			continue
		}

		added := 0
		for _, txn := range txns {
			if txn.AccountID == "" {
				txn.AccountID = account
			}
			if seen[txn.ID] {
				continue
			}
			seen[txn.ID] = true
			all = append(all, txn)
			added++
		}
		fmt.Fprintf(out, "  %s: %d transactions\n", filepath.Base(path), added)
	}

	if len(all) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found in any file"))
		return nil
	}

	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be imported", len(all))))
		return nil
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	if err := store.SaveTransactions(ctx, all); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions from %d files", len(all), len(files))))
	return nil
}

func readTransactionFile(ctx context.Context, path string) ([]model.Transaction, error) {
	f, err := os.Open(path) //nolint:gosec // user-selected import file
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close import file", "file", path, "error", closeErr)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return ofx.NewParser().ParseFile(ctx, f)
	case ".csv":
		txns, skipped, err := csvimport.Read(f)
		if skipped > 0 {
			slog.Warn("Skipped malformed CSV rows", "file", path, "skipped", skipped)
		}
		return txns, err
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
