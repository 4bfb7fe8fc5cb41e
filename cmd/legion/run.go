package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/cli"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/engine"
)

func runCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the rule engine over unreconciled transactions",
		Long: `Execute one engine pass: every active rule is evaluated against every
unreconciled transaction, the highest-priority match wins, and its action is
applied directly or queued for approval.

Runs are idempotent: reconciled transactions are never rescanned and a
(transaction, rule) pair is queued at most once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			eng := engine.New(store)

			var bar *progressbar.ProgressBar
			if !quiet {
				eng.SetProgressCallback(func(done, total int) {
					if bar == nil {
						bar = progressbar.Default(int64(total), "matching")
					}
					_ = bar.Set(done)
				})
			}

			summary, err := eng.Run(ctx)
			if err != nil {
				return fmt.Errorf("rule run failed: %w", err)
			}

			renderSummary(summary)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the progress bar")
	return cmd
}

func renderSummary(summary *engine.Summary) {
	//nolint:forbidigo // User-facing output
	fmt.Println(cli.FormatTitle("Run Summary"))
	//nolint:forbidigo // User-facing output
	fmt.Printf("  scanned: %d\n  matched: %d\n  auto-applied: %d\n  queued: %d\n",
		summary.Scanned, summary.Matched, summary.AutoApplied, summary.Queued)

	if len(summary.SkippedRules) > 0 {
		//nolint:forbidigo // User-facing output
		fmt.Println(cli.WarningStyle.Render(
			fmt.Sprintf("  skipped rules with invalid patterns: %v", summary.SkippedRules)))
	}

	if len(summary.Errors) > 0 {
		//nolint:forbidigo // User-facing output
		fmt.Println(cli.ErrorStyle.Render(fmt.Sprintf("  errors: %d", len(summary.Errors))))
		for _, runErr := range summary.Errors {
			//nolint:forbidigo // User-facing output
			fmt.Println(cli.ErrorStyle.Render("    " + runErr.Error()))
		}
	}
}
