package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/common"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

// CreateCategory adds a new category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, categoryType model.TransactionType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if categoryType != model.TypeIncome && categoryType != model.TypeExpense {
		return nil, fmt.Errorf("category type must be income or expense, got %q", categoryType)
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (name, type) VALUES (?, ?)", name, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	return &model.Category{ID: id, Name: name, Type: categoryType, IsActive: true}, nil
}

// GetCategories returns all active categories.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, type, is_active, created_at FROM categories WHERE is_active = 1 ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Type, &cat.IsActive, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByID retrieves one category.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var cat model.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, type, is_active, created_at FROM categories WHERE id = ?", id).
		Scan(&cat.ID, &cat.Name, &cat.Type, &cat.IsActive, &cat.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

// DeleteCategory removes a category and clears every reference to it, as one
// atomic unit: rule actions lose the assignment, unconfirmed transactions
// lose the categorization. A run pass can never observe a dangling reference.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		cleanups := []string{
			"UPDATE rules SET action_category_id = NULL WHERE action_category_id = ?",
			"UPDATE pending_matches SET category_id = NULL WHERE category_id = ? AND status = 'pending'",
			"UPDATE transactions SET category_id = NULL WHERE category_id = ?",
		}
		for _, query := range cleanups {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("failed to clear category references: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

// CreateVendor adds a new vendor.
func (s *SQLiteStorage) CreateVendor(ctx context.Context, name string) (*model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, "INSERT INTO vendors (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create vendor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor ID: %w", err)
	}
	return &model.Vendor{ID: id, Name: name}, nil
}

// GetVendors returns all vendors.
func (s *SQLiteStorage) GetVendors(ctx context.Context) ([]model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM vendors ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vendors []model.Vendor
	for rows.Next() {
		var v model.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendors: %w", err)
	}
	return vendors, nil
}

// CreateStaff adds a new staff member.
func (s *SQLiteStorage) CreateStaff(ctx context.Context, name string) (*model.Staff, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, "INSERT INTO staff (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get staff ID: %w", err)
	}
	return &model.Staff{ID: id, Name: name}, nil
}

// GetStaff returns all staff members.
func (s *SQLiteStorage) GetStaff(ctx context.Context) ([]model.Staff, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM staff ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []model.Staff
	for rows.Next() {
		var m model.Staff
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff: %w", err)
	}
	return members, nil
}
