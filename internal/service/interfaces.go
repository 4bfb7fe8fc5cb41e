// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetUnreconciledTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionCount(ctx context.Context) (int, error)
	// ApplyAction mutates a transaction with a rule action as one atomic
	// unit: only non-nil references are written, the notes template is
	// appended, and the row is confirmed and marked reconciled.
	ApplyAction(ctx context.Context, transactionID string, action model.Action) error

	// Rule operations
	CreateRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	GetAllRules(ctx context.Context) ([]model.Rule, error)
	// GetActiveRules returns active rules ordered by priority ascending,
	// then creation time, then ID.
	GetActiveRules(ctx context.Context) ([]model.Rule, error)
	UpdateRule(ctx context.Context, rule *model.Rule) error
	// DeleteRule removes a rule and cascades to its open pending matches.
	DeleteRule(ctx context.Context, id int64) error
	SetRuleActive(ctx context.Context, id int64, active bool) error
	IncrementRuleMatchCount(ctx context.Context, id int64) error

	// Pending match operations
	CreatePendingMatch(ctx context.Context, match *model.PendingMatch) error
	GetPendingMatch(ctx context.Context, id int64) (*model.PendingMatch, error)
	GetOpenPendingMatches(ctx context.Context) ([]model.PendingMatch, error)
	HasOpenPendingMatch(ctx context.Context, transactionID string, ruleID int64) (bool, error)
	// ApprovePendingMatch applies the snapshot and resolves the match in a
	// single database transaction.
	ApprovePendingMatch(ctx context.Context, id int64) (*model.PendingMatch, error)
	RejectPendingMatch(ctx context.Context, id int64) (*model.PendingMatch, error)

	// Reference tables
	CreateCategory(ctx context.Context, name string, categoryType model.TransactionType) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	// DeleteCategory removes a category and clears every rule action and
	// transaction reference to it in the same database transaction.
	DeleteCategory(ctx context.Context, id int64) error
	CreateVendor(ctx context.Context, name string) (*model.Vendor, error)
	GetVendors(ctx context.Context) ([]model.Vendor, error)
	CreateStaff(ctx context.Context, name string) (*model.Staff, error)
	GetStaff(ctx context.Context) ([]model.Staff, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
