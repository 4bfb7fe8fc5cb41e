package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/common"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/model"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/storage"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/testutil"
)

// seedPendingMatch creates a transaction, a rule, and one open pending match.
func seedPendingMatch(t *testing.T, store *storageFixture, notes string) *model.PendingMatch {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("txn-1", "PAYPAL TRANSFER", -60),
	}))

	rule := &model.Rule{
		Name: "paypal", Priority: 10,
		MatchType: model.MatchDescription, MatchDescriptionPattern: "paypal",
		RequiresApproval: true, IsActive: true,
	}
	require.NoError(t, store.CreateRule(ctx, rule))

	match := &model.PendingMatch{
		TransactionID: "txn-1",
		RuleID:        rule.ID,
		CategoryID:    store.catID,
		Notes:         notes,
	}
	require.NoError(t, store.CreatePendingMatch(ctx, match))
	return match
}

type storageFixture struct {
	*storage.SQLiteStorage
	catID *int64
}

func newFixture(t *testing.T) *storageFixture {
	t.Helper()
	store := testutil.SetupTestDB(t)

	cat, err := store.CreateCategory(context.Background(), "Transfers", model.TypeExpense)
	require.NoError(t, err)

	return &storageFixture{SQLiteStorage: store, catID: &cat.ID}
}

func TestCreateAndGetPendingMatch(t *testing.T) {
	store := newFixture(t)
	ctx := context.Background()

	match := seedPendingMatch(t, store, "auto: transfer")
	require.NotZero(t, match.ID)

	got, err := store.GetPendingMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, "txn-1", got.TransactionID)
	assert.Equal(t, match.RuleID, got.RuleID)
	assert.Equal(t, model.PendingOpen, got.Status)
	assert.Equal(t, "auto: transfer", got.Notes)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, *store.catID, *got.CategoryID)
	assert.Nil(t, got.ResolvedAt)
}

func TestHasOpenPendingMatch(t *testing.T) {
	store := newFixture(t)
	ctx := context.Background()

	match := seedPendingMatch(t, store, "")

	has, err := store.HasOpenPendingMatch(ctx, "txn-1", match.RuleID)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasOpenPendingMatch(ctx, "txn-1", match.RuleID+1)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCreatePendingMatch_DuplicateOpenPairRejected(t *testing.T) {
	store := newFixture(t)
	ctx := context.Background()

	match := seedPendingMatch(t, store, "")

	dup := &model.PendingMatch{TransactionID: "txn-1", RuleID: match.RuleID}
	err := store.CreatePendingMatch(ctx, dup)
	require.Error(t, err, "second open proposal for the same pair must hit the unique index")
}

func TestApprovePendingMatch(t *testing.T) {
	store := newFixture(t)
	ctx := context.Background()

	match := seedPendingMatch(t, store, "auto: approved transfer")

	resolved, err := store.ApprovePendingMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PendingApproved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	// The snapshotted action was applied to the transaction.
	txn, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	require.NotNil(t, txn.CategoryID)
	assert.Equal(t, *store.catID, *txn.CategoryID)
	assert.Equal(t, "auto: approved transfer", txn.Notes)
	assert.True(t, txn.Confirmed)
	assert.Equal(t, model.StatusReconciled, txn.Status)

	// The queue no longer lists it.
	open, err := store.GetOpenPendingMatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestApprovePendingMatch_AlreadyResolved(t *testing.T) {
	store := newFixture(t)
	ctx := context.Background()

	match := seedPendingMatch(t, store, "")

	_, err := store.ApprovePendingMatch(ctx, match.ID)
	require.NoError(t, err)

	_, err = store.ApprovePendingMatch(ctx, match.ID)
	assert.True(t, errors.Is(err, common.ErrAlreadyResolved))

	_, err = store.RejectPendingMatch(ctx, match.ID)
	assert.True(t, errors.Is(err, common.ErrAlreadyResolved))
}

func TestRejectPendingMatch_LeavesTransactionUntouched(t *testing.T) {
	store := newFixture(t)
	ctx := context.Background()

	match := seedPendingMatch(t, store, "auto: should not appear")

	resolved, err := store.RejectPendingMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PendingRejected, resolved.Status)

	txn, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Nil(t, txn.CategoryID)
	assert.Empty(t, txn.Notes)
	assert.False(t, txn.Confirmed)
	assert.Equal(t, model.StatusUnreconciled, txn.Status, "rejected transaction stays eligible")
}

func TestGetPendingMatch_NotFound(t *testing.T) {
	store := newFixture(t)

	_, err := store.GetPendingMatch(context.Background(), 999)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
