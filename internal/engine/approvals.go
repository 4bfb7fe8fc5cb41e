package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

// Approve applies a queued match's snapshot to its transaction exactly as
// the auto-apply path would, and resolves the match.
func (e *Engine) Approve(ctx context.Context, pendingMatchID int64) (*model.PendingMatch, error) {
	match, err := e.storage.ApprovePendingMatch(ctx, pendingMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to approve pending match %d: %w", pendingMatchID, err)
	}

	slog.Info("Approved pending match",
		"pending_match_id", match.ID,
		"transaction_id", match.TransactionID,
		"rule_id", match.RuleID)
	return match, nil
}

// Reject resolves a queued match without touching the transaction; it stays
// unreconciled and re-eligible for future runs or manual action.
func (e *Engine) Reject(ctx context.Context, pendingMatchID int64) (*model.PendingMatch, error) {
	match, err := e.storage.RejectPendingMatch(ctx, pendingMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject pending match %d: %w", pendingMatchID, err)
	}

	slog.Info("Rejected pending match",
		"pending_match_id", match.ID,
		"transaction_id", match.TransactionID,
		"rule_id", match.RuleID)
	return match, nil
}
