package storage_test

import (
	"time"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
)

// testTransaction builds a minimal valid transaction for seeding. The type is
// derived from the amount sign the way the importer derives it.
func testTransaction(id, description string, amount float64) model.Transaction {
	txnType := model.TypeExpense
	if amount > 0 {
		txnType = model.TypeIncome
	}
	return model.Transaction{
		ID:           id,
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:  description,
		CounterParty: description,
		AccountID:    "acct-1",
		Amount:       amount,
		Type:         txnType,
	}
}
