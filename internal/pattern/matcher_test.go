package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/testutil"
)

func TestMatcher_MatchTypes(t *testing.T) {
	txn := model.Transaction{
		ID:           "txn-1",
		Description:  "AMZN Mktp UK AMAZON.CO.UK",
		CounterParty: "Amazon EU S.a.r.l.",
		Amount:       -75.00,
		Type:         model.TypeExpense,
		VendorID:     testutil.Int64Ptr(3),
		StaffID:      testutil.Int64Ptr(7),
	}

	tests := []struct {
		name string
		rule model.Rule
		want bool
	}{
		{
			name: "description substring case insensitive",
			rule: model.Rule{
				ID: 1, IsActive: true,
				MatchType:               model.MatchDescription,
				MatchDescriptionPattern: "amazon.co.uk",
			},
			want: true,
		},
		{
			name: "description miss",
			rule: model.Rule{
				ID: 2, IsActive: true,
				MatchType:               model.MatchDescription,
				MatchDescriptionPattern: "ebay",
			},
			want: false,
		},
		{
			name: "counter party substring",
			rule: model.Rule{
				ID: 3, IsActive: true,
				MatchType:                model.MatchCounterParty,
				MatchCounterPartyPattern: "amazon eu",
			},
			want: true,
		},
		{
			name: "regex anchored",
			rule: model.Rule{
				ID: 4, IsActive: true,
				MatchType:               model.MatchRegex,
				MatchDescriptionPattern: `^AMZN Mktp`,
			},
			want: true,
		},
		{
			name: "regex non-matching",
			rule: model.Rule{
				ID: 5, IsActive: true,
				MatchType:               model.MatchRegex,
				MatchDescriptionPattern: `^AMAZON`,
			},
			want: false,
		},
		{
			name: "vendor id match",
			rule: model.Rule{
				ID: 6, IsActive: true,
				MatchType:     model.MatchVendor,
				MatchVendorID: testutil.Int64Ptr(3),
			},
			want: true,
		},
		{
			name: "vendor id plus description narrowing",
			rule: model.Rule{
				ID: 7, IsActive: true,
				MatchType:               model.MatchVendor,
				MatchVendorID:           testutil.Int64Ptr(3),
				MatchDescriptionPattern: "ebay",
			},
			want: false,
		},
		{
			name: "vendor id mismatch",
			rule: model.Rule{
				ID: 8, IsActive: true,
				MatchType:     model.MatchVendor,
				MatchVendorID: testutil.Int64Ptr(99),
			},
			want: false,
		},
		{
			name: "staff id match",
			rule: model.Rule{
				ID: 9, IsActive: true,
				MatchType:    model.MatchStaff,
				MatchStaffID: testutil.Int64Ptr(7),
			},
			want: true,
		},
		{
			name: "amount range on absolute value",
			rule: model.Rule{
				ID: 10, IsActive: true,
				MatchType:      model.MatchAmount,
				MatchAmountMin: testutil.Float64Ptr(50),
				MatchAmountMax: testutil.Float64Ptr(100),
			},
			want: true,
		},
		{
			name: "amount above range",
			rule: model.Rule{
				ID: 11, IsActive: true,
				MatchType:      model.MatchAmount,
				MatchAmountMin: testutil.Float64Ptr(50),
				MatchAmountMax: testutil.Float64Ptr(70),
			},
			want: false,
		},
		{
			name: "conditions all must hold",
			rule: model.Rule{
				ID: 12, IsActive: true,
				MatchType: model.MatchConditions,
				Conditions: []model.Condition{
					{Field: model.FieldCounterParty, Operator: model.OpContains, Value: "amazon"},
					{Field: model.FieldAmount, Operator: model.OpLessThan, Value: "100"},
				},
			},
			want: true,
		},
		{
			name: "conditions one fails",
			rule: model.Rule{
				ID: 13, IsActive: true,
				MatchType: model.MatchConditions,
				Conditions: []model.Condition{
					{Field: model.FieldCounterParty, Operator: model.OpContains, Value: "amazon"},
					{Field: model.FieldAmount, Operator: model.OpGreaterThan, Value: "100"},
				},
			},
			want: false,
		},
		{
			name: "conditions empty never matches",
			rule: model.Rule{
				ID: 14, IsActive: true,
				MatchType: model.MatchConditions,
			},
			want: false,
		},
		{
			name: "composite all set criteria must hold",
			rule: model.Rule{
				ID: 15, IsActive: true,
				MatchType:               model.MatchComposite,
				MatchVendorID:           testutil.Int64Ptr(3),
				MatchDescriptionPattern: "amzn",
				MatchAmountMax:          testutil.Float64Ptr(100),
			},
			want: true,
		},
		{
			name: "composite one criterion fails",
			rule: model.Rule{
				ID: 16, IsActive: true,
				MatchType:      model.MatchComposite,
				MatchVendorID:  testutil.Int64Ptr(3),
				MatchAmountMax: testutil.Float64Ptr(50),
			},
			want: false,
		},
		{
			name: "transaction type filter blocks mismatched direction",
			rule: model.Rule{
				ID: 17, IsActive: true,
				MatchType:               model.MatchDescription,
				MatchDescriptionPattern: "amazon",
				MatchTransactionType:    model.TypeIncome,
			},
			want: false,
		},
		{
			name: "transaction type any passes",
			rule: model.Rule{
				ID: 18, IsActive: true,
				MatchType:               model.MatchDescription,
				MatchDescriptionPattern: "amazon",
				MatchTransactionType:    model.TypeAny,
			},
			want: true,
		},
		{
			name: "inactive rule never matches",
			rule: model.Rule{
				ID: 19, IsActive: false,
				MatchType:               model.MatchDescription,
				MatchDescriptionPattern: "amazon",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher([]model.Rule{tt.rule})
			assert.Equal(t, tt.want, m.Matches(txn, &tt.rule))
		})
	}
}

func TestMatcher_ResolvePriority(t *testing.T) {
	txn := model.Transaction{
		ID:          "txn-1",
		Description: "TESCO STORES 2041",
		Amount:      -32.50,
		Type:        model.TypeExpense,
	}

	rules := []model.Rule{
		{
			ID: 1, Name: "broad", IsActive: true, Priority: 10,
			MatchType:               model.MatchDescription,
			MatchDescriptionPattern: "tesco",
		},
		{
			ID: 2, Name: "specific", IsActive: true, Priority: 5,
			MatchType:               model.MatchDescription,
			MatchDescriptionPattern: "tesco stores",
		},
	}

	m := NewMatcher(rules)
	winner := m.Resolve(txn)
	require.NotNil(t, winner)
	assert.Equal(t, int64(2), winner.ID, "lower priority value must win")
}

func TestMatcher_ResolveTieBreaksByCreation(t *testing.T) {
	txn := model.Transaction{Description: "NETFLIX.COM", Amount: -9.99, Type: model.TypeExpense}

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	rules := []model.Rule{
		{
			ID: 5, Name: "newer", IsActive: true, Priority: 10, CreatedAt: newer,
			MatchType: model.MatchDescription, MatchDescriptionPattern: "netflix",
		},
		{
			ID: 9, Name: "older", IsActive: true, Priority: 10, CreatedAt: older,
			MatchType: model.MatchDescription, MatchDescriptionPattern: "netflix",
		},
	}

	m := NewMatcher(rules)
	winner := m.Resolve(txn)
	require.NotNil(t, winner)
	assert.Equal(t, int64(9), winner.ID, "equal priority must break by earliest creation")
}

func TestMatcher_ResolveNoMatch(t *testing.T) {
	m := NewMatcher([]model.Rule{{
		ID: 1, IsActive: true,
		MatchType:               model.MatchDescription,
		MatchDescriptionPattern: "rent",
	}})

	assert.Nil(t, m.Resolve(model.Transaction{Description: "COFFEE SHOP"}))
}

func TestMatcher_InvalidRegexSkipped(t *testing.T) {
	txn := model.Transaction{Description: "anything at all"}

	rules := []model.Rule{
		{
			ID: 1, Name: "broken", IsActive: true, Priority: 1,
			MatchType:               model.MatchRegex,
			MatchDescriptionPattern: "[unclosed",
		},
		{
			ID: 2, Name: "fallback", IsActive: true, Priority: 2,
			MatchType:               model.MatchDescription,
			MatchDescriptionPattern: "anything",
		},
	}

	m := NewMatcher(rules)
	require.Contains(t, m.InvalidRules(), int64(1))

	winner := m.Resolve(txn)
	require.NotNil(t, winner)
	assert.Equal(t, int64(2), winner.ID, "broken rule must be skipped, not abort the scan")
}

func TestMatcher_LazyCompileForUnsavedRule(t *testing.T) {
	// Preview evaluates rule definitions that were never registered with the
	// matcher, so regex compilation has to happen on first use.
	m := NewMatcher(nil)
	rule := model.Rule{
		IsActive:                true,
		MatchType:               model.MatchRegex,
		MatchDescriptionPattern: `^SALARY`,
	}

	assert.True(t, m.Matches(model.Transaction{Description: "SALARY MARCH"}, &rule))
	assert.False(t, m.Matches(model.Transaction{Description: "NOT SALARY"}, &rule))
}
