package model

import (
	"fmt"
	"regexp"
	"time"
)

// MatchType selects the matching strategy a rule uses. The set is closed:
// every variant has exactly one evaluation branch in the matcher.
type MatchType string

// Match type constants.
const (
	MatchConditions   MatchType = "conditions"
	MatchVendor       MatchType = "vendor"
	MatchStaff        MatchType = "staff"
	MatchCounterParty MatchType = "counter_party"
	MatchDescription  MatchType = "description"
	MatchRegex        MatchType = "regex"
	MatchAmount       MatchType = "amount"
	// MatchComposite is the legacy catch-all: every non-empty criterion
	// among vendor/staff/description/amount/type must hold.
	MatchComposite MatchType = "composite"
)

// MatchTypes lists every valid match type.
var MatchTypes = []MatchType{
	MatchConditions,
	MatchVendor,
	MatchStaff,
	MatchCounterParty,
	MatchDescription,
	MatchRegex,
	MatchAmount,
	MatchComposite,
}

// Rule is a persisted user-defined matching-and-action definition.
// Lower Priority values take precedence; ties break by earliest CreatedAt.
type Rule struct {
	CreatedAt                time.Time
	UpdatedAt                time.Time
	MatchAmountMin           *float64
	MatchAmountMax           *float64
	MatchVendorID            *int64
	MatchStaffID             *int64
	ActionCategoryID         *int64
	ActionVendorID           *int64
	ActionStaffID            *int64
	Name                     string
	MatchType                MatchType
	MatchDescriptionPattern  string
	MatchCounterPartyPattern string
	MatchTransactionType     TransactionType // income, expense, or any
	ActionNotesTemplate      string
	Conditions               []Condition
	Priority                 int
	ID                       int64
	MatchCount               int
	RequiresApproval         bool
	IsActive                 bool
}

// Action is the snapshot of what a rule does to a matched transaction.
// Nil references mean "leave the existing value untouched".
type Action struct {
	CategoryID *int64
	VendorID   *int64
	StaffID    *int64
	Notes      string
}

// Action returns the rule's action snapshot.
func (r *Rule) Action() Action {
	return Action{
		CategoryID: r.ActionCategoryID,
		VendorID:   r.ActionVendorID,
		StaffID:    r.ActionStaffID,
		Notes:      r.ActionNotesTemplate,
	}
}

// Validate ensures the rule is internally consistent. It is called on every
// save; an invalid rule never reaches the database.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}

	valid := false
	for _, mt := range MatchTypes {
		if r.MatchType == mt {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown match type %q", r.MatchType)
	}

	switch r.MatchTransactionType {
	case "", TypeAny, TypeIncome, TypeExpense:
	default:
		return fmt.Errorf("unknown transaction type filter %q", r.MatchTransactionType)
	}

	switch r.MatchType {
	case MatchConditions:
		if len(r.Conditions) == 0 {
			return fmt.Errorf("conditions match type requires at least one condition")
		}
		for i := range r.Conditions {
			if err := r.Conditions[i].Validate(); err != nil {
				return fmt.Errorf("condition %d: %w", i+1, err)
			}
		}
	case MatchVendor:
		if r.MatchVendorID == nil {
			return fmt.Errorf("vendor match type requires a vendor")
		}
	case MatchStaff:
		if r.MatchStaffID == nil {
			return fmt.Errorf("staff match type requires a staff member")
		}
	case MatchCounterParty:
		if r.MatchCounterPartyPattern == "" {
			return fmt.Errorf("counter party match type requires a pattern")
		}
	case MatchDescription:
		if r.MatchDescriptionPattern == "" {
			return fmt.Errorf("description match type requires a pattern")
		}
	case MatchRegex:
		if r.MatchDescriptionPattern == "" {
			return fmt.Errorf("regex match type requires a pattern")
		}
		if _, err := regexp.Compile(r.MatchDescriptionPattern); err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
	case MatchAmount:
		if r.MatchAmountMin == nil && r.MatchAmountMax == nil {
			return fmt.Errorf("amount match type requires at least one bound")
		}
	case MatchComposite:
		// Unset criteria impose no constraint; an entirely empty composite
		// rule would match everything, which the UI never produces but is
		// technically valid.
	}

	if r.MatchAmountMin != nil && r.MatchAmountMax != nil && *r.MatchAmountMin > *r.MatchAmountMax {
		return fmt.Errorf("amount minimum must be less than or equal to amount maximum")
	}

	return nil
}
