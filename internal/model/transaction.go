// Package model defines the core domain models for the reconciliation engine.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionType indicates the direction of money movement.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
	// TypeAny is only valid as a rule filter, never on a transaction.
	TypeAny TransactionType = "any"
)

// ReconciliationStatus indicates whether a transaction has been settled.
type ReconciliationStatus string

// Reconciliation status constants.
const (
	StatusUnreconciled ReconciliationStatus = "unreconciled"
	StatusReconciled   ReconciliationStatus = "reconciled"
)

// Transaction represents a single bank transaction in the ledger.
type Transaction struct {
	Date         time.Time
	ID           string
	Description  string
	CounterParty string // Bank-reported name of the other side
	AccountID    string
	Hash         string
	Notes        string
	Type         TransactionType
	Status       ReconciliationStatus
	CategoryID   *int64
	VendorID     *int64
	StaffID      *int64
	Amount       float64 // Signed, negative = expense
	Confirmed    bool
}

// GenerateHash creates a content hash for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.CounterParty,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Unreconciled reports whether the transaction is still eligible for rule runs.
func (t *Transaction) Unreconciled() bool {
	return t.Status != StatusReconciled
}
