package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/common"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

const pendingColumns = `id, transaction_id, rule_id, category_id, vendor_id,
	staff_id, notes, status, created_at, resolved_at`

// CreatePendingMatch enqueues a proposed action. The partial unique index on
// (transaction_id, rule_id, status='pending') makes duplicate enqueues fail;
// callers check HasOpenPendingMatch first, the index is the backstop against
// concurrent runs.
func (s *SQLiteStorage) CreatePendingMatch(ctx context.Context, match *model.PendingMatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(match.TransactionID, "transactionID"); err != nil {
		return err
	}

	query := `
		INSERT INTO pending_matches (
			transaction_id, rule_id, category_id, vendor_id, staff_id, notes, status
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		match.TransactionID, match.RuleID,
		match.CategoryID, match.VendorID, match.StaffID,
		match.Notes, model.PendingOpen)
	if err != nil {
		return fmt.Errorf("failed to create pending match: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get pending match ID: %w", err)
	}

	match.ID = id
	match.Status = model.PendingOpen
	match.CreatedAt = time.Now()
	return nil
}

// GetPendingMatch retrieves one pending match by ID.
func (s *SQLiteStorage) GetPendingMatch(ctx context.Context, id int64) (*model.PendingMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM pending_matches WHERE id = ?", pendingColumns), id)

	match, err := scanPendingMatch(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("pending match %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pending match: %w", err)
	}
	return match, nil
}

// GetOpenPendingMatches returns the active approval queue, oldest first.
func (s *SQLiteStorage) GetOpenPendingMatches(ctx context.Context) ([]model.PendingMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM pending_matches
		WHERE status = ?
		ORDER BY created_at ASC, id ASC`, pendingColumns)

	rows, err := s.db.QueryContext(ctx, query, model.PendingOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []model.PendingMatch
	for rows.Next() {
		match, err := scanPendingMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending match: %w", err)
		}
		matches = append(matches, *match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending matches: %w", err)
	}
	return matches, nil
}

// HasOpenPendingMatch reports whether a (transaction, rule) pair already has
// an open proposal.
func (s *SQLiteStorage) HasOpenPendingMatch(ctx context.Context, transactionID string, ruleID int64) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pending_matches
		WHERE transaction_id = ? AND rule_id = ? AND status = ?`,
		transactionID, ruleID, model.PendingOpen).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check pending match: %w", err)
	}
	return count > 0, nil
}

// ApprovePendingMatch applies the snapshotted action to the referenced
// transaction and resolves the match, all in one database transaction. An
// interrupted approval leaves both rows untouched.
func (s *SQLiteStorage) ApprovePendingMatch(ctx context.Context, id int64) (*model.PendingMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	match, err := s.GetPendingMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.Status != model.PendingOpen {
		return nil, fmt.Errorf("pending match %d is %s: %w", id, match.Status, common.ErrAlreadyResolved)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := applyActionTx(ctx, tx, match.TransactionID, match.Action()); err != nil {
			return err
		}
		return resolvePendingTx(ctx, tx, id, model.PendingApproved)
	})
	if err != nil {
		return nil, err
	}

	match.Status = model.PendingApproved
	now := time.Now()
	match.ResolvedAt = &now
	return match, nil
}

// RejectPendingMatch resolves the match without touching the transaction,
// which stays unreconciled and re-eligible for future runs.
func (s *SQLiteStorage) RejectPendingMatch(ctx context.Context, id int64) (*model.PendingMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	match, err := s.GetPendingMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.Status != model.PendingOpen {
		return nil, fmt.Errorf("pending match %d is %s: %w", id, match.Status, common.ErrAlreadyResolved)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		return resolvePendingTx(ctx, tx, id, model.PendingRejected)
	})
	if err != nil {
		return nil, err
	}

	match.Status = model.PendingRejected
	now := time.Now()
	match.ResolvedAt = &now
	return match, nil
}

func resolvePendingTx(ctx context.Context, tx *sql.Tx, id int64, status model.PendingStatus) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE pending_matches
		SET status = ?, resolved_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		status, id, model.PendingOpen)
	if err != nil {
		return fmt.Errorf("failed to resolve pending match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pending match %d: %w", id, common.ErrAlreadyResolved)
	}
	return nil
}

func scanPendingMatch(row rowScanner) (*model.PendingMatch, error) {
	var match model.PendingMatch
	err := row.Scan(
		&match.ID, &match.TransactionID, &match.RuleID,
		&match.CategoryID, &match.VendorID, &match.StaffID,
		&match.Notes, &match.Status, &match.CreatedAt, &match.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &match, nil
}
