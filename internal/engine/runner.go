// Package engine implements the reconciliation rule engine: batch rule
// execution, the approval queue, and rule previews.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/pattern"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/service"
)

// Engine orchestrates rule execution against the transaction ledger.
type Engine struct {
	storage    service.Storage
	onProgress func(done, total int)
	runMu      sync.Mutex
}

// New creates a rule engine over the given storage.
func New(storage service.Storage) *Engine {
	return &Engine{storage: storage}
}

// SetProgressCallback registers a callback invoked after each transaction in
// a run, for CLI progress display.
func (e *Engine) SetProgressCallback(fn func(done, total int)) {
	e.onProgress = fn
}

// RunError records one transaction the run could not process.
type RunError struct {
	TransactionID string
	RuleID        int64
	Err           error
}

func (e RunError) Error() string {
	return fmt.Sprintf("transaction %s (rule %d): %v", e.TransactionID, e.RuleID, e.Err)
}

// Summary reports the outcome of one run. A run always produces a summary,
// even under partial failure.
type Summary struct {
	StartedAt    time.Time
	Duration     time.Duration
	Errors       []RunError
	SkippedRules []int64
	Scanned      int
	Matched      int
	AutoApplied  int
	Queued       int
}

// Run executes one bounded pass: active rules and unreconciled transactions
// are both snapshotted at the start, every transaction is resolved against
// the rules, and the winning action is applied or queued. Reconciled rows
// are excluded from the scan, so re-running after an interruption converges
// on the same net result. Concurrent calls are serialized.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	summary := &Summary{StartedAt: time.Now()}
	defer func() { summary.Duration = time.Since(summary.StartedAt) }()

	rules, err := e.storage.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	matcher := pattern.NewMatcher(rules)
	for id, compileErr := range matcher.InvalidRules() {
		// The offending rule is skipped for this run only; everything else
		// still executes.
		summary.SkippedRules = append(summary.SkippedRules, id)
		slog.Warn("Skipping rule with invalid pattern",
			"rule_id", id,
			"error", compileErr)
	}

	transactions, err := e.storage.GetUnreconciledTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unreconciled transactions: %w", err)
	}
	summary.Scanned = len(transactions)

	slog.Info("Starting rule run",
		"rules", len(rules),
		"unreconciled", len(transactions))

	for i, txn := range transactions {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		e.processTransaction(ctx, txn, matcher, summary)

		if e.onProgress != nil {
			e.onProgress(i+1, len(transactions))
		}
	}

	slog.Info("Rule run complete",
		"scanned", summary.Scanned,
		"matched", summary.Matched,
		"auto_applied", summary.AutoApplied,
		"queued", summary.Queued,
		"errors", len(summary.Errors))

	return summary, nil
}

func (e *Engine) processTransaction(ctx context.Context, txn model.Transaction, matcher *pattern.Matcher, summary *Summary) {
	rule := matcher.Resolve(txn)
	if rule == nil {
		// Left untouched; eligible for the external best-effort classifier.
		return
	}
	summary.Matched++

	if rule.RequiresApproval {
		e.enqueue(ctx, txn, rule, summary)
		return
	}

	if err := e.storage.ApplyAction(ctx, txn.ID, rule.Action()); err != nil {
		summary.Errors = append(summary.Errors, RunError{
			TransactionID: txn.ID,
			RuleID:        rule.ID,
			Err:           err,
		})
		slog.Error("Failed to apply rule action",
			"transaction_id", txn.ID,
			"rule_id", rule.ID,
			"error", err)
		return
	}

	summary.AutoApplied++
	e.bumpMatchCount(ctx, rule.ID)
}

func (e *Engine) enqueue(ctx context.Context, txn model.Transaction, rule *model.Rule, summary *Summary) {
	exists, err := e.storage.HasOpenPendingMatch(ctx, txn.ID, rule.ID)
	if err != nil {
		summary.Errors = append(summary.Errors, RunError{
			TransactionID: txn.ID,
			RuleID:        rule.ID,
			Err:           err,
		})
		return
	}
	if exists {
		// Already queued from an earlier run; nothing to do.
		return
	}

	action := rule.Action()
	match := &model.PendingMatch{
		TransactionID: txn.ID,
		RuleID:        rule.ID,
		CategoryID:    action.CategoryID,
		VendorID:      action.VendorID,
		StaffID:       action.StaffID,
		Notes:         action.Notes,
	}

	if err := e.storage.CreatePendingMatch(ctx, match); err != nil {
		summary.Errors = append(summary.Errors, RunError{
			TransactionID: txn.ID,
			RuleID:        rule.ID,
			Err:           err,
		})
		slog.Error("Failed to enqueue pending match",
			"transaction_id", txn.ID,
			"rule_id", rule.ID,
			"error", err)
		return
	}

	summary.Queued++
	e.bumpMatchCount(ctx, rule.ID)
}

func (e *Engine) bumpMatchCount(ctx context.Context, ruleID int64) {
	if err := e.storage.IncrementRuleMatchCount(ctx, ruleID); err != nil {
		// Counter drift is tolerable; the applied action is what matters.
		slog.Warn("Failed to increment rule match count",
			"rule_id", ruleID,
			"error", err)
	}
}
