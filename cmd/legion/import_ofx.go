package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/cli"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/engine"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var dryRun, noRun bool

	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files and run the engine",
		Long: `Import bank transactions from OFX or QFX statement files. Rows already
imported (same content hash) are skipped. After a successful import the rule
engine runs automatically over the new unreconciled transactions.

Examples:
  legion import-ofx ~/Downloads/statement_jan.qfx
  legion import-ofx ~/Downloads/*.ofx --no-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var files []string
			for _, arg := range args {
				matches, err := filepath.Glob(arg)
				if err != nil {
					return fmt.Errorf("invalid pattern %s: %w", arg, err)
				}
				if len(matches) == 0 {
					if _, err := os.Stat(arg); err == nil {
						files = append(files, arg)
					} else {
						slog.Warn("No files found matching pattern", "pattern", arg)
					}
					continue
				}
				files = append(files, matches...)
			}
			if len(files) == 0 {
				return fmt.Errorf("no files found to import")
			}

			parser := ofx.NewParser()
			var transactions []model.Transaction
			seen := make(map[string]bool)

			for _, path := range files {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				parsed, err := parser.ParseFile(ctx, f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", path, err)
				}

				for _, txn := range parsed {
					if seen[txn.Hash] {
						continue
					}
					seen[txn.Hash] = true
					transactions = append(transactions, txn)
				}
				slog.Info("Parsed statement", "file", filepath.Base(path), "transactions", len(parsed))
			}

			if dryRun {
				//nolint:forbidigo // User-facing output
				fmt.Println(cli.InfoStyle.Render(
					fmt.Sprintf("Dry run: %d transactions would be imported", len(transactions))))
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if len(transactions) > 0 {
				if err := store.SaveTransactions(ctx, transactions); err != nil {
					return fmt.Errorf("failed to save transactions: %w", err)
				}
			}

			//nolint:forbidigo // User-facing output
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Imported %d transactions from %d files", len(transactions), len(files))))

			if noRun {
				return nil
			}

			// Import batch complete; run the engine over whatever is now
			// unreconciled.
			summary, err := engine.New(store).Run(ctx)
			if err != nil {
				return fmt.Errorf("rule run after import failed: %w", err)
			}
			renderSummary(summary)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "parse without saving")
	cmd.Flags().BoolVar(&noRun, "no-run", false, "skip the automatic rule run after import")
	return cmd
}
