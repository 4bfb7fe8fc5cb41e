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

func TestCreateCategory(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Consulting Income", model.TypeIncome)
	require.NoError(t, err)
	assert.NotZero(t, cat.ID)
	assert.Equal(t, model.TypeIncome, cat.Type)
	assert.True(t, cat.IsActive)

	_, err = store.CreateCategory(ctx, "Misc", model.TypeAny)
	assert.Error(t, err, "category type must be a concrete direction")

	cats, err := store.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Consulting Income", cats[0].Name)
}

func TestDeleteCategory_ClearsAllReferences(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Doomed", model.TypeExpense)
	require.NoError(t, err)

	rule := &model.Rule{
		Name: "assigns doomed", Priority: 10,
		MatchType: model.MatchDescription, MatchDescriptionPattern: "x",
		ActionCategoryID: &cat.ID,
		RequiresApproval: true, IsActive: true,
	}
	require.NoError(t, store.CreateRule(ctx, rule))

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("txn-1", "x ray", -10),
		testTransaction("txn-2", "x factor", -20),
	}))
	require.NoError(t, store.ApplyAction(ctx, "txn-1", model.Action{CategoryID: &cat.ID}))
	require.NoError(t, store.CreatePendingMatch(ctx, &model.PendingMatch{
		TransactionID: "txn-2", RuleID: rule.ID, CategoryID: &cat.ID,
	}))

	require.NoError(t, store.DeleteCategory(ctx, cat.ID))

	_, err = store.GetCategoryByID(ctx, cat.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	gotRule, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Nil(t, gotRule.ActionCategoryID, "rule action reference must be cleared")

	gotTxn, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Nil(t, gotTxn.CategoryID, "transaction reference must be cleared")

	open, err := store.GetOpenPendingMatches(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Nil(t, open[0].CategoryID, "queued snapshot reference must be cleared")
}

func TestCreateVendorAndStaff(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	vendor, err := store.CreateVendor(ctx, "Acme Supplies")
	require.NoError(t, err)
	assert.NotZero(t, vendor.ID)

	staff, err := store.CreateStaff(ctx, "Sam")
	require.NoError(t, err)
	assert.NotZero(t, staff.ID)

	vendors, err := store.GetVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Acme Supplies", vendors[0].Name)

	members, err := store.GetStaff(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Sam", members[0].Name)
}

func TestCreateVendor_EmptyName(t *testing.T) {
	store := testutil.SetupTestDB(t)

	_, err := store.CreateVendor(context.Background(), "")
	assert.True(t, errors.Is(err, storage.ErrEmptyString))
}
