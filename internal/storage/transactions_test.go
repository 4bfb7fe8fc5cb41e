package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/common"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/testutil"
)

func TestSaveTransactions_DeduplicatesByHash(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	batch := []model.Transaction{
		testTransaction("txn-1", "COFFEE SHOP", -4.50),
		testTransaction("txn-2", "SALARY MARCH", 2500.00),
	}
	require.NoError(t, store.SaveTransactions(ctx, batch))

	count, err := store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Re-importing the same statement under new provisional IDs is a no-op.
	again := []model.Transaction{
		testTransaction("txn-1-copy", "COFFEE SHOP", -4.50),
		testTransaction("txn-2-copy", "SALARY MARCH", 2500.00),
	}
	require.NoError(t, store.SaveTransactions(ctx, again))

	count, err = store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSaveTransactions_DefaultsStatusAndHash(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	txn := testTransaction("txn-1", "RENT", -900)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	got, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnreconciled, got.Status)
	assert.NotEmpty(t, got.Hash)
	assert.False(t, got.Confirmed)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.VendorID)
	assert.Nil(t, got.StaffID)
}

func TestGetUnreconciledTransactions(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("txn-1", "FIRST", -10),
		testTransaction("txn-2", "SECOND", -20),
	}))

	// Reconcile txn-1; only txn-2 should remain eligible.
	require.NoError(t, store.ApplyAction(ctx, "txn-1", model.Action{}))

	unreconciled, err := store.GetUnreconciledTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, unreconciled, 1)
	assert.Equal(t, "txn-2", unreconciled[0].ID)
}

func TestGetTransactionByID_NotFound(t *testing.T) {
	store := testutil.SetupTestDB(t)

	_, err := store.GetTransactionByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestApplyAction_SetsReferencesAndReconciles(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Utilities", model.TypeExpense)
	require.NoError(t, err)
	vendor, err := store.CreateVendor(ctx, "British Gas")
	require.NoError(t, err)

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("txn-1", "BRITISH GAS DD", -84.20),
	}))

	require.NoError(t, store.ApplyAction(ctx, "txn-1", model.Action{
		CategoryID: &cat.ID,
		VendorID:   &vendor.ID,
		Notes:      "auto: utility bill",
	}))

	got, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)
	require.NotNil(t, got.VendorID)
	assert.Equal(t, vendor.ID, *got.VendorID)
	assert.Nil(t, got.StaffID)
	assert.Equal(t, "auto: utility bill", got.Notes)
	assert.True(t, got.Confirmed)
	assert.Equal(t, model.StatusReconciled, got.Status)
}

func TestApplyAction_NilReferencesPreserveExisting(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Travel", model.TypeExpense)
	require.NoError(t, err)
	staff, err := store.CreateStaff(ctx, "Jordan")
	require.NoError(t, err)

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("txn-1", "TRAINLINE", -45.00),
	}))

	// First action assigns a category.
	require.NoError(t, store.ApplyAction(ctx, "txn-1", model.Action{CategoryID: &cat.ID}))

	// Second action assigns staff only; the category must survive.
	require.NoError(t, store.ApplyAction(ctx, "txn-1", model.Action{StaffID: &staff.ID}))

	got, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)
	require.NotNil(t, got.StaffID)
	assert.Equal(t, staff.ID, *got.StaffID)
}

func TestApplyAction_AppendsNotes(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	txn := testTransaction("txn-1", "TAXI", -18.00)
	txn.Notes = "client visit"
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	require.NoError(t, store.ApplyAction(ctx, "txn-1", model.Action{Notes: "auto: travel"}))

	got, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "client visit\nauto: travel", got.Notes)

	// An empty template leaves notes unchanged.
	require.NoError(t, store.ApplyAction(ctx, "txn-1", model.Action{}))
	got, err = store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "client visit\nauto: travel", got.Notes)
}

func TestApplyAction_NotFound(t *testing.T) {
	store := testutil.SetupTestDB(t)

	err := store.ApplyAction(context.Background(), "missing", model.Action{})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestApplyAction_DanglingReferenceFails(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("txn-1", "MYSTERY", -10),
	}))

	// Foreign keys are enforced, so a category that does not exist must fail
	// cleanly instead of leaving a dangling reference.
	badID := int64(9999)
	err := store.ApplyAction(ctx, "txn-1", model.Action{CategoryID: &badID})
	require.Error(t, err)

	got, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnreconciled, got.Status, "failed apply must not reconcile")
}
