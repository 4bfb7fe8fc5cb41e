package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/cli"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage reconciliation rules",
		Long: `Reconciliation rules automatically assign category, vendor, and staff
metadata to incoming bank transactions.

Each rule has a matching strategy (conditions, vendor, staff, counter party,
description, regex, amount range, or the legacy composite), a priority (lower
number wins), and an action. Rules flagged as requiring approval queue their
proposals for human review instead of applying them directly.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesToggleCmd())
	cmd.AddCommand(rulesTestCmd())
	cmd.AddCommand(rulesPreviewCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reconciliation rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			var rules []model.Rule
			if showAll {
				rules, err = store.GetAllRules(ctx)
			} else {
				rules, err = store.GetActiveRules(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules found. Use 'legion rules add' to create one.")) //nolint:forbidigo // User-facing output
				return nil
			}

			fmt.Println(cli.FormatTitle("Reconciliation Rules")) //nolint:forbidigo // User-facing output

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Priority"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Match"),
				cli.HeaderStyle.Render("Approval"),
				cli.HeaderStyle.Render("Active"),
				cli.HeaderStyle.Render("Matches"))
			for _, rule := range rules {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%d\n",
					rule.ID, rule.Priority, rule.Name, describeMatch(&rule),
					yesNo(rule.RequiresApproval), yesNo(rule.IsActive), rule.MatchCount)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "include inactive rules")
	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule and its open pending matches",
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

			if err := store.DeleteRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Deleted rule %d", id))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func rulesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a rule's active flag",
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

			rule, err := store.GetRule(ctx, id)
			if err != nil {
				return err
			}

			if err := store.SetRuleActive(ctx, id, !rule.IsActive); err != nil {
				return fmt.Errorf("failed to toggle rule: %w", err)
			}

			state := "enabled"
			if rule.IsActive {
				state = "disabled"
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Rule %d %s", id, state))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func describeMatch(rule *model.Rule) string {
	switch rule.MatchType {
	case model.MatchConditions:
		return fmt.Sprintf("conditions (%d)", len(rule.Conditions))
	case model.MatchCounterParty:
		return fmt.Sprintf("counter_party ~ %q", rule.MatchCounterPartyPattern)
	case model.MatchDescription:
		return fmt.Sprintf("description ~ %q", rule.MatchDescriptionPattern)
	case model.MatchRegex:
		return fmt.Sprintf("regex %s", rule.MatchDescriptionPattern)
	case model.MatchAmount:
		return fmt.Sprintf("amount %s", describeBounds(rule.MatchAmountMin, rule.MatchAmountMax))
	case model.MatchVendor, model.MatchStaff, model.MatchComposite:
		return string(rule.MatchType)
	}
	return string(rule.MatchType)
}

func describeBounds(minimum, maximum *float64) string {
	var parts []string
	if minimum != nil {
		parts = append(parts, fmt.Sprintf(">= %.2f", *minimum))
	}
	if maximum != nil {
		parts = append(parts, fmt.Sprintf("<= %.2f", *maximum))
	}
	return strings.Join(parts, " and ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
