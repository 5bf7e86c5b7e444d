package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladderbot/account"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := NewSQLite(filepath.Join(t.TempDir(), "ladderbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func attempt(accountID int64, tradeID string, close time.Time) TradeAttempt {
	return TradeAttempt{
		AccountID:     accountID,
		TradeID:       tradeID,
		Asset:         "EURUSD",
		Direction:     "call",
		Stake:         10,
		PayoutPercent: 87,
		OpenTime:      close.Add(-time.Minute),
		CloseTime:     close,
		Outcome:       Pending,
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := attempt(1, "Q-100", now)
	require.NoError(t, db.Upsert(ctx, a))

	// Settle the same trade: the pending row is updated, not duplicated.
	a.Outcome = Win
	a.Result = 8.7
	require.NoError(t, db.Upsert(ctx, a))
	require.NoError(t, db.Upsert(ctx, a))

	got, err := db.RecentSettled(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Win, got[0].Outcome)
	assert.Equal(t, 8.7, got[0].Result)
}

func TestRecentSettledOrderAndLimit(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"Q-1", "Q-2", "Q-3", "Q-4"} {
		a := attempt(1, id, base.Add(time.Duration(i)*time.Minute))
		a.Outcome = Loss
		a.Result = -10
		require.NoError(t, db.Upsert(ctx, a))
	}
	// Pending rows are invisible to history.
	require.NoError(t, db.Upsert(ctx, attempt(1, "Q-5", base.Add(time.Hour))))
	// Other accounts do not leak in.
	other := attempt(2, "Q-6", base.Add(2*time.Hour))
	other.Outcome = Win
	require.NoError(t, db.Upsert(ctx, other))

	got, err := db.RecentSettled(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Q-4", got[0].TradeID)
	assert.Equal(t, "Q-3", got[1].TradeID)
	assert.Equal(t, "Q-2", got[2].TradeID)
}

func TestSumSettledIgnoresTiesAndPending(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := []struct {
		id      string
		outcome Outcome
		result  float64
	}{
		{"Q-1", Win, 20},
		{"Q-2", Loss, -10},
		{"Q-3", Tie, 0},
		{"Q-4", Pending, 0},
	}
	for i, r := range rows {
		a := attempt(1, r.id, base.Add(time.Duration(i)*time.Minute))
		a.Outcome = r.outcome
		a.Result = r.result
		require.NoError(t, db.Upsert(ctx, a))
	}

	total, err := db.SumSettled(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10.0, total)
}

func TestSumSettledEmptyAccount(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	total, err := db.SumSettled(context.Background(), 99)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAccountRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	a := account.Account{
		ID:          1,
		Email:       "trader@example.com",
		Mode:        account.Real,
		Currency:    "R$",
		DemoBalance: 100,
		RealBalance: 250,
		Active:      true,
		BotActive:   true,
	}
	p := account.RiskProfile{
		Kind: account.Percent, EntryValue: 10, EntryPercent: 0.02,
		StopGain: 100, StopLoss: 50, MaxMartingale: 3, Factor: 2,
	}
	require.NoError(t, db.SeedAccount(ctx, a, p))

	got, err := db.Account(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, a.Email, got.Email)
	assert.Equal(t, a.Mode, got.Mode)
	assert.Equal(t, a.RealBalance, got.RealBalance)

	gotProf, err := db.Profile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, p, gotProf)
}

func TestListEligibleAndSetFlags(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	prof := account.RiskProfile{Kind: account.Fixed, EntryValue: 10, MaxMartingale: 2, Factor: 2}

	require.NoError(t, db.SeedAccount(ctx, account.Account{ID: 1, Active: true, BotActive: true}, prof))
	require.NoError(t, db.SeedAccount(ctx, account.Account{ID: 2, Active: true, BotActive: false}, prof))
	require.NoError(t, db.SeedAccount(ctx, account.Account{ID: 3, Active: false, BotActive: true}, prof))

	got, err := db.ListEligible(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	require.NoError(t, db.SetFlags(ctx, 1, true, false))
	got, err = db.ListEligible(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveBalances(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	prof := account.RiskProfile{Kind: account.Fixed, EntryValue: 10, MaxMartingale: 2, Factor: 2}

	a := account.Account{ID: 1, Mode: account.Practice, DemoBalance: 100, Active: true, BotActive: true}
	require.NoError(t, db.SeedAccount(ctx, a, prof))

	a.AddProfit(-21)
	require.NoError(t, db.SaveBalances(ctx, a))

	got, err := db.Account(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 79.0, got.DemoBalance)
}
