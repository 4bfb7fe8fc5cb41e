package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/common"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

const transactionColumns = `id, hash, date, description, counter_party, account_id,
	amount, type, category_id, vendor_id, staff_id, notes, confirmed,
	reconciliation_status`

// SaveTransactions persists a batch of imported transactions. Rows whose
// content hash already exists are skipped, so re-importing a statement is a
// no-op.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (
				id, hash, date, description, counter_party, account_id,
				amount, type, notes, confirmed, reconciliation_status
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		inserted := 0
		for i := range transactions {
			txn := &transactions[i]
			if txn.Hash == "" {
				txn.Hash = txn.GenerateHash()
			}
			if txn.Status == "" {
				txn.Status = model.StatusUnreconciled
			}

			result, err := stmt.ExecContext(ctx,
				txn.ID, txn.Hash, txn.Date, txn.Description, txn.CounterParty,
				txn.AccountID, txn.Amount, txn.Type, txn.Notes, txn.Confirmed,
				txn.Status)
			if err != nil {
				return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
			}
			if n, err := result.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}

		slog.Debug("Saved transactions",
			"total", len(transactions),
			"inserted", inserted,
			"duplicates", len(transactions)-inserted)
		return nil
	})
}

// GetUnreconciledTransactions returns every transaction still eligible for a
// rule run, oldest first.
func (s *SQLiteStorage) GetUnreconciledTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE reconciliation_status = ?
		ORDER BY date ASC, id ASC`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, query, model.StatusUnreconciled)
	if err != nil {
		return nil, fmt.Errorf("failed to query unreconciled transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// GetTransactionByID retrieves one transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM transactions WHERE id = ?", transactionColumns), id)

	txn, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionCount returns the total number of transactions.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// ApplyAction mutates one transaction with a rule action in a single
// database transaction. Only non-nil references are written; existing
// category, vendor, and staff values are never cleared. The notes template
// is appended, and the row is confirmed and marked reconciled.
func (s *SQLiteStorage) ApplyAction(ctx context.Context, transactionID string, action model.Action) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return applyActionTx(ctx, tx, transactionID, action)
	})
}

// applyActionTx is the shared write path for auto-apply and approval.
func applyActionTx(ctx context.Context, tx *sql.Tx, transactionID string, action model.Action) error {
	query := `
		UPDATE transactions SET
			category_id = COALESCE(?, category_id),
			vendor_id = COALESCE(?, vendor_id),
			staff_id = COALESCE(?, staff_id),
			notes = CASE
				WHEN ? = '' THEN notes
				WHEN notes = '' THEN ?
				ELSE notes || char(10) || ?
			END,
			confirmed = 1,
			reconciliation_status = ?
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, query,
		action.CategoryID, action.VendorID, action.StaffID,
		action.Notes, action.Notes, action.Notes,
		model.StatusReconciled, transactionID)
	if err != nil {
		return fmt.Errorf("failed to apply action to transaction %s: %w", transactionID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
	}
	return nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	err := row.Scan(
		&txn.ID, &txn.Hash, &txn.Date, &txn.Description, &txn.CounterParty,
		&txn.AccountID, &txn.Amount, &txn.Type, &txn.CategoryID, &txn.VendorID,
		&txn.StaffID, &txn.Notes, &txn.Confirmed, &txn.Status,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
