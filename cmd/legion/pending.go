package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/cli"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/engine"
)

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Manage the approval queue",
		Long: `Rules flagged with --require-approval queue their proposed actions
instead of applying them. Approving a proposal applies the snapshot taken at
enqueue time; rejecting it leaves the transaction unreconciled.`,
	}

	cmd.AddCommand(pendingListCmd())
	cmd.AddCommand(pendingApproveCmd())
	cmd.AddCommand(pendingRejectCmd())

	return cmd
}

func pendingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued proposals awaiting review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			matches, err := store.GetOpenPendingMatches(ctx)
			if err != nil {
				return fmt.Errorf("failed to get pending matches: %w", err)
			}

			if len(matches) == 0 {
				fmt.Println(cli.InfoStyle.Render("Approval queue is empty.")) //nolint:forbidigo // User-facing output
				return nil
			}

			fmt.Println(cli.FormatTitle("Approval Queue")) //nolint:forbidigo // User-facing output

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Transaction"),
				cli.HeaderStyle.Render("Counter Party"),
				cli.HeaderStyle.Render("Amount"),
				cli.HeaderStyle.Render("Rule"),
				cli.HeaderStyle.Render("Queued"))
			for _, match := range matches {
				counterParty, amount := "?", ""
				if txn, err := store.GetTransactionByID(ctx, match.TransactionID); err == nil {
					counterParty = txn.CounterParty
					amount = fmt.Sprintf("%.2f", txn.Amount)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
					match.ID, match.TransactionID, counterParty, amount,
					match.RuleID, match.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func pendingApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a queued proposal and apply its action",
		Args:  cobra.ExactArgs(1),
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

			match, err := engine.New(store).Approve(ctx, id)
			if err != nil {
				return err
			}

			//nolint:forbidigo // User-facing output
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Approved: transaction %s reconciled by rule %d", match.TransactionID, match.RuleID)))
			return nil
		},
	}
}

func pendingRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a queued proposal",
		Args:  cobra.ExactArgs(1),
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

			match, err := engine.New(store).Reject(ctx, id)
			if err != nil {
				return err
			}

			//nolint:forbidigo // User-facing output
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Rejected: transaction %s stays unreconciled", match.TransactionID)))
			return nil
		},
	}
}
