package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "hashminer-backend/internal/common/errors"
	"hashminer-backend/internal/common/locker"
	"hashminer-backend/internal/features/user/models"
	"hashminer-backend/internal/features/user/repository/memory"
)

func newTestService(repo *memory.Repository, now time.Time) *miningService {
	svc := NewService(repo, locker.New()).(*miningService)
	svc.now = func() time.Time { return now }
	return svc
}

func seedUser(t *testing.T, repo *memory.Repository, user *models.User) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), user))
}

func TestGetUserReconcilesAndPersists(t *testing.T) {
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)

	seedUser(t, repo, &models.User{
		ID: "u1",
		Miners: []models.Miner{{
			ID:            "m1",
			HashRate:      10,
			Capacity:      25,
			Status:        models.MinerStatusRunning,
			LastCollected: now.Add(-3 * time.Minute),
		}},
	})

	user, err := svc.GetUser(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 25.0, user.Miners[0].CoinsMined)
	assert.Equal(t, models.MinerStatusStopped, user.Miners[0].Status)

	// The reconciled state was written through, not just returned.
	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, stored.Miners[0].CoinsMined)
	assert.Equal(t, models.MinerStatusStopped, stored.Miners[0].Status)
}

func TestGetUserNotFound(t *testing.T) {
	svc := newTestService(memory.NewUserRepository(), time.Now())

	_, err := svc.GetUser(context.Background(), "missing")

	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeUserNotFound, appErr.Code)
}

func TestListUsersSkipsReconciliation(t *testing.T) {
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)

	seedUser(t, repo, &models.User{
		ID: "u1",
		Miners: []models.Miner{{
			ID:            "m1",
			HashRate:      10,
			Capacity:      100,
			Status:        models.MinerStatusRunning,
			LastCollected: now.Add(-5 * time.Minute),
		}},
	})

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)

	// Bulk reads return the raw stored state.
	assert.Equal(t, 0.0, users[0].Miners[0].CoinsMined)
}

func TestAddMinerFromCatalog(t *testing.T) {
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)
	seedUser(t, repo, &models.User{ID: "u1"})

	miner, err := svc.AddMiner(context.Background(), "u1", "#02")
	require.NoError(t, err)

	assert.NotEmpty(t, miner.ID)
	assert.Equal(t, "#02", miner.Type)
	assert.Equal(t, 0.0, miner.CoinsMined)
	assert.Equal(t, models.MinerStatusRunning, miner.Status)
	assert.True(t, miner.LastCollected.Equal(now))

	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, stored.Miners, 1)
	require.Len(t, stored.Transactions, 1)
	assert.Equal(t, models.TransactionTypeMiner, stored.Transactions[0].Type)
	assert.Equal(t, 0.0, stored.Transactions[0].Amount)
}

func TestAddMinerUnknownType(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newTestService(repo, time.Now())
	seedUser(t, repo, &models.User{ID: "u1"})

	_, err := svc.AddMiner(context.Background(), "u1", "#42")

	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeUnknownMinerType, appErr.Code)
}

func TestCollectSettlesIntoBalance(t *testing.T) {
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)

	seedUser(t, repo, &models.User{
		ID:      "u1",
		Balance: 10,
		Miners: []models.Miner{{
			ID:            "m1",
			HashRate:      10,
			Capacity:      100,
			CoinsMined:    25,
			Status:        models.MinerStatusStopped,
			LastCollected: now.Add(-time.Hour),
		}},
	})

	balance, err := svc.Collect(context.Background(), "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, 35.0, balance)

	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 35.0, stored.Balance)
	assert.Equal(t, 25.0, stored.TotalCoinsMined)

	m := stored.Miners[0]
	assert.Equal(t, 0.0, m.CoinsMined)
	assert.Equal(t, models.MinerStatusRunning, m.Status)
	assert.True(t, m.LastCollected.Equal(now))
}

func TestCollectIncludesOutstandingAccrual(t *testing.T) {
	// A running miner with elapsed ticks is settled before collection, so
	// the payout reflects production up to now.
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)

	seedUser(t, repo, &models.User{
		ID: "u1",
		Miners: []models.Miner{{
			ID:            "m1",
			HashRate:      5,
			Capacity:      100,
			CoinsMined:    40,
			Status:        models.MinerStatusRunning,
			LastCollected: now.Add(-150 * time.Second),
		}},
	})

	balance, err := svc.Collect(context.Background(), "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, balance)
}

func TestCollectMinerNotFound(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newTestService(repo, time.Now())
	seedUser(t, repo, &models.User{ID: "u1"})

	_, err := svc.Collect(context.Background(), "u1", "nope")

	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeMinerNotFound, appErr.Code)
}

func TestConcurrentCollectsDoNotDoubleCredit(t *testing.T) {
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)

	seedUser(t, repo, &models.User{
		ID: "u1",
		Miners: []models.Miner{{
			ID:            "m1",
			HashRate:      10,
			Capacity:      100,
			CoinsMined:    60,
			Status:        models.MinerStatusStopped,
			LastCollected: now.Add(-time.Hour),
		}},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Collect(context.Background(), "u1", "m1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	// The first collect takes the 60; the rest settle an already reset
	// miner with no elapsed ticks.
	assert.Equal(t, 60.0, stored.Balance)
	assert.Equal(t, 60.0, stored.TotalCoinsMined)
}

func TestRecordCoinTransactionDebitsBalance(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newTestService(repo, time.Now())
	seedUser(t, repo, &models.User{ID: "u1", Balance: 80, PayoutAddress: "wallet-1"})

	transactions, err := svc.RecordTransaction(context.Background(), "u1", "Weekly payout", models.TransactionTypeCoin, 50)
	require.NoError(t, err)
	require.Len(t, transactions, 1)

	tx := transactions[0]
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, 50.0, tx.Amount)
	assert.Equal(t, "wallet-1", tx.Counterparty)

	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, stored.Balance)
}

func TestRecordCoinTransactionInsufficientBalance(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newTestService(repo, time.Now())
	seedUser(t, repo, &models.User{ID: "u1", Balance: 30, PayoutAddress: "wallet-1"})

	_, err := svc.RecordTransaction(context.Background(), "u1", "Payout", models.TransactionTypeCoin, 50)

	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeInsufficientBalance, appErr.Code)

	// Balance and ledger unchanged after the failed debit.
	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, stored.Balance)
	assert.Empty(t, stored.Transactions)
}

func TestRecordCoinTransactionMissingPayoutTarget(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newTestService(repo, time.Now())
	seedUser(t, repo, &models.User{ID: "u1", Balance: 100})

	_, err := svc.RecordTransaction(context.Background(), "u1", "Payout", models.TransactionTypeCoin, 50)

	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeMissingPayoutTarget, appErr.Code)
}

func TestRecordMinerTransactionLeavesBalanceAlone(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newTestService(repo, time.Now())
	seedUser(t, repo, &models.User{ID: "u1", Balance: 100})

	transactions, err := svc.RecordTransaction(context.Background(), "u1", "Bought Rig Mini", models.TransactionTypeMiner, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, 0.0, transactions[0].Amount)

	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Balance)
}

func TestCompleteTransaction(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newTestService(repo, time.Now())
	seedUser(t, repo, &models.User{
		ID: "u1",
		Transactions: []models.Transaction{{
			ID:     "t1",
			Title:  "Payout",
			Type:   models.TransactionTypeCoin,
			Status: models.TransactionStatusPending,
			Amount: 10,
		}},
	})

	tx, err := svc.CompleteTransaction(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)

	// Completing twice is a conflict.
	_, err = svc.CompleteTransaction(context.Background(), "u1", "t1")
	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeConflict, appErr.Code)
}

func TestCompleteTransactionNotFound(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newTestService(repo, time.Now())
	seedUser(t, repo, &models.User{ID: "u1"})

	_, err := svc.CompleteTransaction(context.Background(), "u1", "nope")

	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeTransactionNotFound, appErr.Code)
}

func TestRunSweepAppliesFlatIncrement(t *testing.T) {
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)

	seedUser(t, repo, &models.User{
		ID: "u1",
		Miners: []models.Miner{
			{ID: "m1", HashRate: 7, Capacity: 100, CoinsMined: 10, Status: models.MinerStatusRunning, LastCollected: now},
			{ID: "m2", HashRate: 10, Capacity: 25, CoinsMined: 20, Status: models.MinerStatusRunning, LastCollected: now},
			{ID: "m3", HashRate: 10, Capacity: 25, CoinsMined: 25, Status: models.MinerStatusStopped, LastCollected: now},
		},
	})

	require.NoError(t, svc.RunSweep(context.Background()))

	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 17.0, stored.Miners[0].CoinsMined)
	assert.Equal(t, 25.0, stored.Miners[1].CoinsMined)
	assert.Equal(t, models.MinerStatusStopped, stored.Miners[1].Status)
	assert.Equal(t, 25.0, stored.Miners[2].CoinsMined)
}

func TestRunSweepContinuesPastFailingUser(t *testing.T) {
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)

	seedUser(t, repo, &models.User{
		ID:        "broken",
		CreatedAt: now.Add(-2 * time.Hour),
		Miners: []models.Miner{
			{ID: "m1", HashRate: 5, Capacity: 100, Status: models.MinerStatusRunning, LastCollected: now},
		},
	})
	seedUser(t, repo, &models.User{
		ID:        "healthy",
		CreatedAt: now.Add(-time.Hour),
		Miners: []models.Miner{
			{ID: "m1", HashRate: 5, Capacity: 100, Status: models.MinerStatusRunning, LastCollected: now},
		},
	})
	repo.FailUpdates("broken", errors.New("write refused"))

	require.NoError(t, svc.RunSweep(context.Background()))

	healthy, err := repo.GetByID(context.Background(), "healthy")
	require.NoError(t, err)
	assert.Equal(t, 5.0, healthy.Miners[0].CoinsMined)

	broken, err := repo.GetByID(context.Background(), "broken")
	require.NoError(t, err)
	assert.Equal(t, 0.0, broken.Miners[0].CoinsMined)
}

func TestSweepAndReconcileConverge(t *testing.T) {
	// Interleaving the sweep with on-access reconciliation must never push
	// a miner past capacity.
	now := time.Now()
	repo := memory.NewUserRepository()
	svc := newTestService(repo, now)

	seedUser(t, repo, &models.User{
		ID: "u1",
		Miners: []models.Miner{
			{ID: "m1", HashRate: 10, Capacity: 30, CoinsMined: 0, Status: models.MinerStatusRunning, LastCollected: now.Add(-2 * time.Minute)},
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.RunSweep(context.Background())
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.GetUser(context.Background(), "u1")
		}()
	}
	wg.Wait()

	stored, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	m := stored.Miners[0]
	assert.LessOrEqual(t, m.CoinsMined, m.Capacity)
	assert.Equal(t, 30.0, m.CoinsMined)
	assert.Equal(t, models.MinerStatusStopped, m.Status)
}
