package pattern

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

// amountTolerance is the slack allowed when comparing amounts for equality.
const amountTolerance = 0.01

// EvaluateCondition evaluates one condition against one transaction. It
// never returns an error: a malformed regex or unparseable number makes the
// condition false and is logged.
func EvaluateCondition(cond model.Condition, txn model.Transaction) bool {
	switch cond.Field {
	case model.FieldCounterParty:
		return evalString(cond.Operator, cond.Value, txn.CounterParty)
	case model.FieldReference:
		return evalReference(cond, txn)
	case model.FieldAmount:
		return evalAmount(cond, math.Abs(txn.Amount))
	case model.FieldTransactionType:
		return string(txn.Type) == cond.Value
	default:
		slog.Warn("Skipping condition with unknown field", "field", cond.Field)
		return false
	}
}

// evalReference checks a condition against the transaction's description and
// notes. Positive operators match if either field matches; not_contains
// requires the text to be absent from both.
func evalReference(cond model.Condition, txn model.Transaction) bool {
	if cond.Operator == model.OpNotContains {
		return evalString(cond.Operator, cond.Value, txn.Description) &&
			(txn.Notes == "" || evalString(cond.Operator, cond.Value, txn.Notes))
	}
	if evalString(cond.Operator, cond.Value, txn.Description) {
		return true
	}
	return txn.Notes != "" && evalString(cond.Operator, cond.Value, txn.Notes)
}

func evalString(op model.ConditionOperator, value, field string) bool {
	f := strings.ToLower(field)
	v := strings.ToLower(value)

	switch op {
	case model.OpContains:
		return strings.Contains(f, v)
	case model.OpNotContains:
		return !strings.Contains(f, v)
	case model.OpEquals:
		return f == v
	case model.OpStartsWith:
		return strings.HasPrefix(f, v)
	case model.OpEndsWith:
		return strings.HasSuffix(f, v)
	case model.OpRegex:
		re, err := regexp.Compile(value)
		if err != nil {
			slog.Warn("Condition regex does not compile, treating as no match",
				"pattern", value, "error", err)
			return false
		}
		return re.MatchString(field)
	default:
		return false
	}
}

func evalAmount(cond model.Condition, amount float64) bool {
	value, err := strconv.ParseFloat(cond.Value, 64)
	if err != nil {
		slog.Warn("Amount condition value is not a number, treating as no match",
			"value", cond.Value)
		return false
	}

	switch cond.Operator {
	case model.OpEquals:
		return math.Abs(amount-value) <= amountTolerance
	case model.OpGreaterThan:
		return amount > value
	case model.OpLessThan:
		return amount < value
	case model.OpBetween:
		value2, err := strconv.ParseFloat(cond.Value2, 64)
		if err != nil {
			slog.Warn("Amount condition value2 is not a number, treating as no match",
				"value2", cond.Value2)
			return false
		}
		return amount >= value && amount <= value2
	default:
		return false
	}
}
