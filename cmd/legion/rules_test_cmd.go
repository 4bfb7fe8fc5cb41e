package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/cli"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/engine"
)

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <id>",
		Short: "Dry-run a saved rule against the unreconciled set",
		Long: `Evaluate a saved rule against every unreconciled transaction and report
what it would match. Nothing is written: no transaction changes, no pending
matches, no counters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			result, err := engine.New(store).TestRule(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to test rule: %w", err)
			}

			renderPreview(result)
			return nil
		},
	}
}

func rulesPreviewCmd() *cobra.Command {
	flags := &ruleFlags{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Dry-run an unsaved rule definition",
		Long: `Build a rule from the same flags as 'rules add' and evaluate it against
the unreconciled set without saving it. Useful for validating a pattern
before it goes live.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rule, err := flags.buildRule(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			result, err := engine.New(store).PreviewRule(ctx, *rule)
			if err != nil {
				return fmt.Errorf("failed to preview rule: %w", err)
			}

			renderPreview(result)
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func renderPreview(result *engine.PreviewResult) {
	//nolint:forbidigo // User-facing output
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Matched %d unreconciled transactions", result.MatchCount)))

	if len(result.Samples) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("Date"),
		cli.HeaderStyle.Render("Counter Party"),
		cli.HeaderStyle.Render("Description"),
		cli.HeaderStyle.Render("Amount"))
	for _, sample := range result.Samples {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n",
			sample.Date.Format("2006-01-02"),
			sample.CounterParty,
			sample.Description,
			sample.Amount)
	}
	_ = w.Flush()

	if result.MatchCount > len(result.Samples) {
		//nolint:forbidigo // User-facing output
		fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("... and %d more", result.MatchCount-len(result.Samples))))
	}
}
