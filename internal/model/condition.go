package model

import (
	"fmt"
	"strconv"
)

// ConditionField identifies the transaction attribute a condition inspects.
type ConditionField string

// Condition field constants.
const (
	FieldCounterParty    ConditionField = "counter_party"
	FieldReference       ConditionField = "reference"
	FieldAmount          ConditionField = "amount"
	FieldTransactionType ConditionField = "transaction_type"
)

// ConditionOperator identifies the comparison a condition performs.
type ConditionOperator string

// String operators.
const (
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "not_contains"
	OpEquals      ConditionOperator = "equals"
	OpStartsWith  ConditionOperator = "starts_with"
	OpEndsWith    ConditionOperator = "ends_with"
	OpRegex       ConditionOperator = "regex"
)

// Amount operators.
const (
	OpGreaterThan ConditionOperator = "greater_than"
	OpLessThan    ConditionOperator = "less_than"
	OpBetween     ConditionOperator = "between"
)

// Condition is one predicate inside a conditions-type rule. All conditions
// on a rule must hold for the rule to match.
type Condition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
	Value2   string            `json:"value2,omitempty"` // Only for between
}

var stringOperators = map[ConditionOperator]bool{
	OpContains:    true,
	OpNotContains: true,
	OpEquals:      true,
	OpStartsWith:  true,
	OpEndsWith:    true,
	OpRegex:       true,
}

var amountOperators = map[ConditionOperator]bool{
	OpEquals:      true,
	OpGreaterThan: true,
	OpLessThan:    true,
	OpBetween:     true,
}

// Validate ensures the condition's operator is compatible with its field and
// that numeric values parse.
func (c *Condition) Validate() error {
	switch c.Field {
	case FieldCounterParty, FieldReference:
		if !stringOperators[c.Operator] {
			return fmt.Errorf("operator %q is not valid for field %q", c.Operator, c.Field)
		}
	case FieldAmount:
		if !amountOperators[c.Operator] {
			return fmt.Errorf("operator %q is not valid for field %q", c.Operator, c.Field)
		}
		if _, err := strconv.ParseFloat(c.Value, 64); err != nil {
			return fmt.Errorf("amount condition value %q is not a number", c.Value)
		}
		if c.Operator == OpBetween {
			if _, err := strconv.ParseFloat(c.Value2, 64); err != nil {
				return fmt.Errorf("amount condition value2 %q is not a number", c.Value2)
			}
		}
	case FieldTransactionType:
		if c.Operator != OpEquals {
			return fmt.Errorf("operator %q is not valid for field %q", c.Operator, c.Field)
		}
		if c.Value != string(TypeIncome) && c.Value != string(TypeExpense) {
			return fmt.Errorf("transaction_type condition value must be income or expense, got %q", c.Value)
		}
	default:
		return fmt.Errorf("unknown condition field %q", c.Field)
	}

	if c.Value == "" {
		return fmt.Errorf("condition value is required")
	}

	return nil
}
