package pattern

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

// Matcher evaluates transactions against a fixed set of rules. Regex
// patterns are compiled once at construction; rules whose pattern fails to
// compile are recorded and skipped, never evaluated.
type Matcher struct {
	compiled map[int64]*regexp.Regexp
	invalid  map[int64]error
	rules    []model.Rule
}

// NewMatcher creates a matcher over the given rules. Rules are ordered by
// priority ascending (lower value wins), then creation time, then ID, so
// resolution is a deterministic first-match scan.
func NewMatcher(rules []model.Rule) *Matcher {
	m := &Matcher{
		rules:    make([]model.Rule, len(rules)),
		compiled: make(map[int64]*regexp.Regexp),
		invalid:  make(map[int64]error),
	}
	copy(m.rules, rules)

	sort.SliceStable(m.rules, func(i, j int) bool {
		a, b := &m.rules[i], &m.rules[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	for _, rule := range m.rules {
		if rule.MatchType != model.MatchRegex || rule.MatchDescriptionPattern == "" {
			continue
		}
		re, err := regexp.Compile(rule.MatchDescriptionPattern)
		if err != nil {
			m.invalid[rule.ID] = err
			continue
		}
		m.compiled[rule.ID] = re
	}

	return m
}

// InvalidRules returns compile errors for rules the matcher will skip.
func (m *Matcher) InvalidRules() map[int64]error {
	return m.invalid
}

// Resolve returns the winning rule for a transaction, or nil when no active
// rule fully matches.
func (m *Matcher) Resolve(txn model.Transaction) *model.Rule {
	for i := range m.rules {
		if m.Matches(txn, &m.rules[i]) {
			rule := m.rules[i]
			return &rule
		}
	}
	return nil
}

// Matches reports whether a single rule fully matches a transaction.
func (m *Matcher) Matches(txn model.Transaction, rule *model.Rule) bool {
	if !rule.IsActive {
		return false
	}
	if _, bad := m.invalid[rule.ID]; bad {
		return false
	}
	if !matchesType(txn, rule.MatchTransactionType) {
		return false
	}

	switch rule.MatchType {
	case model.MatchConditions:
		for _, cond := range rule.Conditions {
			if !EvaluateCondition(cond, txn) {
				return false
			}
		}
		return len(rule.Conditions) > 0
	case model.MatchVendor:
		if !idsEqual(txn.VendorID, rule.MatchVendorID) {
			return false
		}
		return rule.MatchDescriptionPattern == "" ||
			containsFold(txn.Description, rule.MatchDescriptionPattern)
	case model.MatchStaff:
		if !idsEqual(txn.StaffID, rule.MatchStaffID) {
			return false
		}
		return rule.MatchDescriptionPattern == "" ||
			containsFold(txn.Description, rule.MatchDescriptionPattern)
	case model.MatchCounterParty:
		return rule.MatchCounterPartyPattern != "" &&
			containsFold(txn.CounterParty, rule.MatchCounterPartyPattern)
	case model.MatchDescription:
		return rule.MatchDescriptionPattern != "" &&
			containsFold(txn.Description, rule.MatchDescriptionPattern)
	case model.MatchRegex:
		re, ok := m.compiled[rule.ID]
		if !ok {
			// Pattern compiled lazily for rules not seen at construction
			// (preview of unsaved definitions).
			var err error
			re, err = regexp.Compile(rule.MatchDescriptionPattern)
			if err != nil {
				return false
			}
			m.compiled[rule.ID] = re
		}
		return re.MatchString(txn.Description)
	case model.MatchAmount:
		return matchesAmountRange(txn, rule.MatchAmountMin, rule.MatchAmountMax)
	case model.MatchComposite:
		return m.matchesComposite(txn, rule)
	}

	return false
}

// matchesComposite implements the legacy catch-all: every non-empty
// criterion must hold; unset criteria impose no constraint.
func (m *Matcher) matchesComposite(txn model.Transaction, rule *model.Rule) bool {
	if rule.MatchVendorID != nil && !idsEqual(txn.VendorID, rule.MatchVendorID) {
		return false
	}
	if rule.MatchStaffID != nil && !idsEqual(txn.StaffID, rule.MatchStaffID) {
		return false
	}
	if rule.MatchDescriptionPattern != "" &&
		!containsFold(txn.Description, rule.MatchDescriptionPattern) {
		return false
	}
	if rule.MatchCounterPartyPattern != "" &&
		!containsFold(txn.CounterParty, rule.MatchCounterPartyPattern) {
		return false
	}
	if rule.MatchAmountMin != nil || rule.MatchAmountMax != nil {
		if !matchesAmountRange(txn, rule.MatchAmountMin, rule.MatchAmountMax) {
			return false
		}
	}
	return true
}

func matchesType(txn model.Transaction, filter model.TransactionType) bool {
	if filter == "" || filter == model.TypeAny {
		return true
	}
	return txn.Type == filter
}

func matchesAmountRange(txn model.Transaction, minimum, maximum *float64) bool {
	amount := math.Abs(txn.Amount)
	if minimum != nil && amount < *minimum {
		return false
	}
	if maximum != nil && amount > *maximum {
		return false
	}
	return true
}

func idsEqual(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
