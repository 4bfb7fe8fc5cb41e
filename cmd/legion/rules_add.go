package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/cli"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/pattern"
)

// ruleFlags collects every flag needed to define a rule from the command
// line. The same set backs both 'rules add' and 'rules preview'.
type ruleFlags struct {
	name            string
	matchType       string
	descriptionMode string
	description     string
	counterParty    string
	txnType         string
	notes           string
	conditions      []string
	priority        int
	vendorID        int64
	staffID         int64
	amountMin       float64
	amountMax       float64
	actionCategory  int64
	actionVendor    int64
	actionStaff     int64
	requireApproval bool
	inactive        bool
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "rule name (required)")
	cmd.Flags().IntVar(&f.priority, "priority", 100, "priority, lower number wins")
	cmd.Flags().StringVar(&f.matchType, "match-type", "", "matching strategy (conditions, vendor, staff, counter_party, description, regex, amount, composite)")
	cmd.Flags().StringVar(&f.descriptionMode, "description-mode", "contains", "description match mode (contains, exact, starts_with, ends_with, regex)")
	cmd.Flags().StringVar(&f.description, "description", "", "description text or pattern")
	cmd.Flags().StringVar(&f.counterParty, "counter-party", "", "counter party substring")
	cmd.Flags().Int64Var(&f.vendorID, "vendor-id", 0, "vendor to match")
	cmd.Flags().Int64Var(&f.staffID, "staff-id", 0, "staff member to match")
	cmd.Flags().Float64Var(&f.amountMin, "amount-min", 0, "minimum amount (absolute value)")
	cmd.Flags().Float64Var(&f.amountMax, "amount-max", 0, "maximum amount (absolute value)")
	cmd.Flags().StringVar(&f.txnType, "transaction-type", "any", "restrict to income or expense")
	cmd.Flags().StringArrayVar(&f.conditions, "condition", nil, "condition as field:operator:value[:value2], repeatable; implies --match-type conditions")
	cmd.Flags().Int64Var(&f.actionCategory, "category", 0, "category to assign on match")
	cmd.Flags().Int64Var(&f.actionVendor, "assign-vendor", 0, "vendor to assign on match")
	cmd.Flags().Int64Var(&f.actionStaff, "assign-staff", 0, "staff member to assign on match")
	cmd.Flags().StringVar(&f.notes, "notes", "", "notes appended to matched transactions")
	cmd.Flags().BoolVar(&f.requireApproval, "require-approval", false, "queue matches for approval instead of applying")
	cmd.Flags().BoolVar(&f.inactive, "inactive", false, "create the rule disabled")
}

// buildRule converts the flag set into a validated rule definition. The
// description mode is compiled here; the stored pattern is always canonical.
func (f *ruleFlags) buildRule(cmd *cobra.Command) (*model.Rule, error) {
	rule := &model.Rule{
		Name:                     f.name,
		Priority:                 f.priority,
		MatchType:                model.MatchType(f.matchType),
		MatchCounterPartyPattern: f.counterParty,
		MatchVendorID:            optionalInt64(f.vendorID),
		MatchStaffID:             optionalInt64(f.staffID),
		MatchAmountMin:           optionalFloat(f.amountMin, cmd.Flags().Changed("amount-min")),
		MatchAmountMax:           optionalFloat(f.amountMax, cmd.Flags().Changed("amount-max")),
		MatchTransactionType:     model.TransactionType(f.txnType),
		ActionCategoryID:         optionalInt64(f.actionCategory),
		ActionVendorID:           optionalInt64(f.actionVendor),
		ActionStaffID:            optionalInt64(f.actionStaff),
		ActionNotesTemplate:      f.notes,
		RequiresApproval:         f.requireApproval,
		IsActive:                 !f.inactive,
	}

	for _, raw := range f.conditions {
		cond, err := parseCondition(raw)
		if err != nil {
			return nil, err
		}
		rule.Conditions = append(rule.Conditions, cond)
	}

	if rule.MatchType == "" {
		rule.MatchType = inferMatchType(f)
	}

	// Description text goes through the compiler so the stored pattern is
	// canonical for the chosen mode.
	if f.description != "" &&
		(rule.MatchType == model.MatchDescription || rule.MatchType == model.MatchRegex) {
		mode := pattern.DescriptionMode(f.descriptionMode)
		if rule.MatchType == model.MatchRegex && f.descriptionMode == "contains" {
			mode = pattern.ModeRegex
		}
		compiled, matchType, err := pattern.Compile(mode, f.description)
		if err != nil {
			return nil, err
		}
		rule.MatchDescriptionPattern = compiled
		rule.MatchType = matchType
	} else if f.description != "" {
		// Vendor/staff/composite rules narrow by literal description text.
		rule.MatchDescriptionPattern = f.description
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

func inferMatchType(f *ruleFlags) model.MatchType {
	switch {
	case len(f.conditions) > 0:
		return model.MatchConditions
	case f.counterParty != "":
		return model.MatchCounterParty
	case f.vendorID != 0:
		return model.MatchVendor
	case f.staffID != 0:
		return model.MatchStaff
	case f.description != "":
		return model.MatchDescription
	default:
		return model.MatchAmount
	}
}

// parseCondition parses "field:operator:value[:value2]".
func parseCondition(raw string) (model.Condition, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 3 {
		return model.Condition{}, fmt.Errorf("condition %q must be field:operator:value[:value2]", raw)
	}

	cond := model.Condition{
		Field:    model.ConditionField(parts[0]),
		Operator: model.ConditionOperator(parts[1]),
		Value:    parts[2],
	}
	if len(parts) == 4 {
		cond.Value2 = parts[3]
	}

	if err := cond.Validate(); err != nil {
		return model.Condition{}, err
	}
	return cond, nil
}

func rulesAddCmd() *cobra.Command {
	flags := &ruleFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a reconciliation rule",
		Long: `Create a rule from flags. The matching strategy is inferred from the
flags you provide, or set explicitly with --match-type.

Examples:
  # Categorize any TESCO transaction
  legion rules add --name "Tesco groceries" --counter-party TESCO --category 3

  # Exact description match (compiled to an anchored regex)
  legion rules add --name Salary --description "ACME PAYROLL" --description-mode exact --category 7

  # Dynamic AND conditions, queued for approval
  legion rules add --name "Large card payments" \
    --condition counter_party:contains:CARD \
    --condition amount:greater_than:500 \
    --category 9 --require-approval`,
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

			if err := store.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render( //nolint:forbidigo // User-facing output
				fmt.Sprintf("Created rule %d (%s, priority %d)", rule.ID, rule.Name, rule.Priority)))
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
