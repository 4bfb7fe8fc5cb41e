package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/common"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

const ruleColumns = `id, name, priority, match_type, conditions,
	match_vendor_id, match_staff_id,
	match_description_pattern, match_counter_party_pattern,
	match_amount_min, match_amount_max, match_transaction_type,
	action_category_id, action_vendor_id, action_staff_id,
	action_notes_template, requires_approval, is_active, match_count,
	created_at, updated_at`

// CreateRule validates and persists a new rule.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	conditions, err := marshalConditions(rule.Conditions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rules (
			name, priority, match_type, conditions,
			match_vendor_id, match_staff_id,
			match_description_pattern, match_counter_party_pattern,
			match_amount_min, match_amount_max, match_transaction_type,
			action_category_id, action_vendor_id, action_staff_id,
			action_notes_template, requires_approval, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Priority, rule.MatchType, conditions,
		rule.MatchVendorID, rule.MatchStaffID,
		rule.MatchDescriptionPattern, rule.MatchCounterPartyPattern,
		rule.MatchAmountMin, rule.MatchAmountMax, transactionTypeFilter(rule.MatchTransactionType),
		rule.ActionCategoryID, rule.ActionVendorID, rule.ActionStaffID,
		rule.ActionNotesTemplate, rule.RequiresApproval, rule.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	rule.ID = id
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt

	return nil
}

// GetRule retrieves a rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM rules WHERE id = ?", ruleColumns), id)

	rule, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// GetAllRules retrieves every rule, active or not, in priority order.
func (s *SQLiteStorage) GetAllRules(ctx context.Context) ([]model.Rule, error) {
	return s.queryRules(ctx,
		fmt.Sprintf("SELECT %s FROM rules ORDER BY priority ASC, created_at ASC, id ASC", ruleColumns))
}

// GetActiveRules retrieves active rules ordered by priority ascending, then
// creation time, then ID. The ordering is the resolution order: the first
// fully matching rule in this list wins.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context) ([]model.Rule, error) {
	return s.queryRules(ctx,
		fmt.Sprintf("SELECT %s FROM rules WHERE is_active = 1 ORDER BY priority ASC, created_at ASC, id ASC", ruleColumns))
}

func (s *SQLiteStorage) queryRules(ctx context.Context, query string, args ...any) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

// UpdateRule validates and persists changes to an existing rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	conditions, err := marshalConditions(rule.Conditions)
	if err != nil {
		return err
	}

	query := `
		UPDATE rules SET
			name = ?, priority = ?, match_type = ?, conditions = ?,
			match_vendor_id = ?, match_staff_id = ?,
			match_description_pattern = ?, match_counter_party_pattern = ?,
			match_amount_min = ?, match_amount_max = ?, match_transaction_type = ?,
			action_category_id = ?, action_vendor_id = ?, action_staff_id = ?,
			action_notes_template = ?, requires_approval = ?, is_active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Priority, rule.MatchType, conditions,
		rule.MatchVendorID, rule.MatchStaffID,
		rule.MatchDescriptionPattern, rule.MatchCounterPartyPattern,
		rule.MatchAmountMin, rule.MatchAmountMax, transactionTypeFilter(rule.MatchTransactionType),
		rule.ActionCategoryID, rule.ActionVendorID, rule.ActionStaffID,
		rule.ActionNotesTemplate, rule.RequiresApproval, rule.IsActive,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", rule.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteRule removes a rule together with all of its pending matches.
// Transactions already reconciled by past applications are not rolled back.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM pending_matches WHERE rule_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete pending matches for rule: %w", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete rule: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

// SetRuleActive toggles a rule's active flag.
func (s *SQLiteStorage) SetRuleActive(ctx context.Context, id int64, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE rules SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		active, id)
	if err != nil {
		return fmt.Errorf("failed to toggle rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// IncrementRuleMatchCount bumps the historical application counter.
func (s *SQLiteStorage) IncrementRuleMatchCount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE rules SET match_count = match_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		id)
	if err != nil {
		return fmt.Errorf("failed to increment match count: %w", err)
	}
	return nil
}

func marshalConditions(conditions []model.Condition) (any, error) {
	if len(conditions) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	return string(data), nil
}

// transactionTypeFilter normalizes an empty filter to "any" for storage.
func transactionTypeFilter(t model.TransactionType) model.TransactionType {
	if t == "" {
		return model.TypeAny
	}
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var rule model.Rule
	var conditions sql.NullString

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Priority, &rule.MatchType, &conditions,
		&rule.MatchVendorID, &rule.MatchStaffID,
		&rule.MatchDescriptionPattern, &rule.MatchCounterPartyPattern,
		&rule.MatchAmountMin, &rule.MatchAmountMax, &rule.MatchTransactionType,
		&rule.ActionCategoryID, &rule.ActionVendorID, &rule.ActionStaffID,
		&rule.ActionNotesTemplate, &rule.RequiresApproval, &rule.IsActive, &rule.MatchCount,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if conditions.Valid && conditions.String != "" {
		if err := json.Unmarshal([]byte(conditions.String), &rule.Conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conditions for rule %d: %w", rule.ID, err)
		}
	}

	return &rule, nil
}
