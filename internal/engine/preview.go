package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/pattern"
)

// maxPreviewSamples caps the sample list returned by a preview.
const maxPreviewSamples = 10

// SampleMatch is one matching transaction shown in a preview.
type SampleMatch struct {
	Date          time.Time
	TransactionID string
	Description   string
	CounterParty  string
	Amount        float64
}

// PreviewResult is the outcome of a dry run of a single rule.
type PreviewResult struct {
	Samples    []SampleMatch
	MatchCount int
}

// PreviewRule dry-runs a not-yet-saved rule definition against the current
// unreconciled set. It shares the matcher with the real run path but never
// writes: no transaction mutation, no pending matches, no match counters.
func (e *Engine) PreviewRule(ctx context.Context, rule model.Rule) (*PreviewResult, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	// Previews evaluate the rule regardless of its stored active flag.
	rule.IsActive = true

	transactions, err := e.storage.GetUnreconciledTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unreconciled transactions: %w", err)
	}

	matcher := pattern.NewMatcher([]model.Rule{rule})
	result := &PreviewResult{}

	for _, txn := range transactions {
		if !matcher.Matches(txn, &rule) {
			continue
		}
		result.MatchCount++
		if len(result.Samples) < maxPreviewSamples {
			result.Samples = append(result.Samples, SampleMatch{
				TransactionID: txn.ID,
				Description:   txn.Description,
				CounterParty:  txn.CounterParty,
				Amount:        txn.Amount,
				Date:          txn.Date,
			})
		}
	}

	return result, nil
}

// TestRule dry-runs an already-persisted rule by ID.
func (e *Engine) TestRule(ctx context.Context, ruleID int64) (*PreviewResult, error) {
	rule, err := e.storage.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	return e.PreviewRule(ctx, *rule)
}
