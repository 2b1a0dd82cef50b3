package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storycoin-backend/internal/domain"
)

func newLedgerFixture(t *testing.T) (*fakeStore, LedgerService, *BalanceCache) {
	t.Helper()
	store := newFakeStore()
	cache := NewBalanceCache()
	clock := fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewLedgerService(store, cache, newTestRetrier(), clock)
	return store, svc, cache
}

func TestLedgerService_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("BothSides", func(t *testing.T) {
		store, svc, _ := newLedgerFixture(t)
		store.seedAccount(1, 500)
		store.seedBudget(10, 0, 0)

		from := domain.UserRef(1)
		to := domain.BudgetRef(10)
		entries, err := svc.Transfer(ctx, &from, &to, 200, domain.EntryKindOther, "", 1)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, int64(-200), entries[0].Delta)
		assert.Equal(t, int64(300), entries[0].BalanceAfter)
		assert.Equal(t, int64(200), entries[1].Delta)
		assert.Equal(t, int64(200), entries[1].BalanceAfter)
		assert.Equal(t, entries[0].TxRef, entries[1].TxRef)
		assert.NotEmpty(t, entries[0].TxRef)

		assert.Equal(t, int64(300), store.data.accounts[1].Balance)
		assert.Equal(t, int64(200), store.data.budgets[10].Balance)
		assert.Equal(t, int64(200), store.data.budgets[10].Total)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		store, svc, _ := newLedgerFixture(t)
		store.seedAccount(1, 100)
		store.seedBudget(10, 0, 0)

		from := domain.UserRef(1)
		to := domain.BudgetRef(10)
		_, err := svc.Transfer(ctx, &from, &to, 200, domain.EntryKindOther, "", 1)
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

		// The failed unit left no trace.
		assert.Equal(t, int64(100), store.data.accounts[1].Balance)
		assert.Empty(t, store.data.entries)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		_, svc, _ := newLedgerFixture(t)
		from := domain.UserRef(1)
		to := domain.BudgetRef(10)

		_, err := svc.Transfer(ctx, &from, &to, 0, domain.EntryKindOther, "", 1)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = svc.Transfer(ctx, &from, &to, -5, domain.EntryKindOther, "", 1)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = svc.Transfer(ctx, nil, nil, 100, domain.EntryKindOther, "", 1)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, svc, _ := newLedgerFixture(t)
		from := domain.UserRef(99)
		_, err := svc.Transfer(ctx, &from, nil, 100, domain.EntryKindOther, "", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLedgerService_AdminTopUp(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newLedgerFixture(t)
	store.seedAccount(1, 0)

	entries, err := svc.AdminTopUp(ctx, 42, 1, 500)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, domain.EntryKindAdminTopUp, entries[0].Kind)
	assert.Equal(t, int64(500), entries[0].Delta)
	assert.Equal(t, int64(500), entries[0].BalanceAfter)
	assert.Equal(t, int64(42), entries[0].ActorID)
	assert.Equal(t, int64(500), store.data.accounts[1].Balance)
}

func TestLedgerService_RevokeAdminTopUp(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store, svc, _ := newLedgerFixture(t)
		store.seedAccount(1, 500)

		entries, err := svc.RevokeAdminTopUp(ctx, 42, 1, 300)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.EntryKindRevoke, entries[0].Kind)
		assert.Equal(t, int64(-300), entries[0].Delta)
		assert.Equal(t, int64(200), store.data.accounts[1].Balance)
	})

	t.Run("ExceedsBalance", func(t *testing.T) {
		store, svc, _ := newLedgerFixture(t)
		store.seedAccount(1, 100)

		_, err := svc.RevokeAdminTopUp(ctx, 42, 1, 300)
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.Equal(t, int64(100), store.data.accounts[1].Balance)
	})
}

func TestLedgerService_GetBalance(t *testing.T) {
	ctx := context.Background()
	store, svc, cache := newLedgerFixture(t)
	store.seedAccount(1, 700)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)

	// Cached now; a direct store change is invisible until invalidation.
	store.data.accounts[1].Balance = 50
	balance, err = svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)

	cache.Invalidate(1)
	balance, err = svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}

func TestLedgerService_CacheInvalidatedAfterTransfer(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newLedgerFixture(t)
	store.seedAccount(1, 500)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	from := domain.UserRef(1)
	_, err = svc.Transfer(ctx, &from, nil, 200, domain.EntryKindOther, "", 1)
	require.NoError(t, err)

	balance, err = svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance)
}

func TestLedgerService_ReplayBalance(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newLedgerFixture(t)
	store.seedAccount(1, 0)
	store.seedBudget(10, 0, 0)

	_, err := svc.AdminTopUp(ctx, 42, 1, 1000)
	require.NoError(t, err)

	from := domain.UserRef(1)
	to := domain.BudgetRef(10)
	_, err = svc.Transfer(ctx, &from, &to, 400, domain.EntryKindContribution, "", 1)
	require.NoError(t, err)
	_, err = svc.RevokeAdminTopUp(ctx, 42, 1, 100)
	require.NoError(t, err)

	// Replaying the ledger reproduces the stored balance on both sides.
	replayed, err := svc.ReplayBalance(ctx, domain.UserRef(1))
	require.NoError(t, err)
	assert.Equal(t, store.data.accounts[1].Balance, replayed)
	assert.Equal(t, int64(500), replayed)

	replayed, err = svc.ReplayBalance(ctx, domain.BudgetRef(10))
	require.NoError(t, err)
	assert.Equal(t, store.data.budgets[10].Balance, replayed)
	assert.Equal(t, int64(400), replayed)
}

func TestLedgerService_GetBudget(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newLedgerFixture(t)
	store.seedBudget(10, 150, 600)

	budget, err := svc.GetBudget(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(150), budget.Balance)
	assert.Equal(t, int64(600), budget.Total)

	_, err = svc.GetBudget(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerService_ListEntries(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newLedgerFixture(t)
	store.seedAccount(1, 0)

	_, err := svc.AdminTopUp(ctx, 42, 1, 100)
	require.NoError(t, err)
	_, err = svc.AdminTopUp(ctx, 42, 1, 200)
	require.NoError(t, err)

	entries, total, err := svc.ListEntries(ctx, domain.UserRef(1), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	assert.Len(t, entries, 2)
}
