package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/testutil"
)

func TestMigrate_Rerunnable(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	// SetupTestDB already migrated; a second pass must be a no-op.
	require.NoError(t, store.Migrate(ctx))

	// The schema is usable afterwards.
	_, err := store.GetActiveRules(ctx)
	require.NoError(t, err)
	_, err = store.GetOpenPendingMatches(ctx)
	require.NoError(t, err)
	_, err = store.GetUnreconciledTransactions(ctx)
	require.NoError(t, err)
}
