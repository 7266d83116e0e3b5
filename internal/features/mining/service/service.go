package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hashminer-backend/internal/common/errors"
	"hashminer-backend/internal/common/locker"
	"hashminer-backend/internal/common/logger"
	"hashminer-backend/internal/common/validation"
	"hashminer-backend/internal/features/mining/accrual"
	"hashminer-backend/internal/features/mining/catalog"
	"hashminer-backend/internal/features/user/models"
	"hashminer-backend/internal/features/user/repository"
)

// Service is the idle accrual and settlement engine. Every operation that
// touches one user's miners runs under that user's lock, so reconciliation,
// settlement and the background sweep serialize per user.
type Service interface {
	// GetUser reconciles the user's miners against the current time,
	// persists any change, and returns the settled view.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// ListUsers returns the raw, unreconciled state of all users. Bulk reads
	// deliberately skip reconciliation; only the single-user path settles.
	ListUsers(ctx context.Context) ([]*models.User, error)
	// AddMiner creates a miner of the given catalog class and records the
	// purchase in the user's ledger.
	AddMiner(ctx context.Context, userID, minerType string) (*models.Miner, error)
	// Collect settles a miner's accrued coins into the user's balance and
	// returns the new balance.
	Collect(ctx context.Context, userID, minerID string) (float64, error)
	// RecordTransaction appends a ledger entry and returns the updated log.
	RecordTransaction(ctx context.Context, userID, title string, txType models.TransactionType, amount float64) ([]models.Transaction, error)
	// CompleteTransaction flips a pending entry to completed.
	CompleteTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error)
	// RunSweep applies the flat accrual pass to every user. Per-user
	// failures are logged and skipped.
	RunSweep(ctx context.Context) error
}

type miningService struct {
	repo  repository.UserRepository
	lazy  accrual.Strategy
	sweep accrual.Strategy
	locks *locker.Keyed
	now   func() time.Time
}

func NewService(repo repository.UserRepository, locks *locker.Keyed) Service {
	return &miningService{
		repo:  repo,
		lazy:  accrual.TickStrategy{},
		sweep: accrual.FlatStrategy{},
		locks: locks,
		now:   time.Now,
	}
}

func (s *miningService) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NewUserNotFoundError(id)
		}
		return nil, errors.NewDatabaseError("get user", err)
	}
	return user, nil
}

func (s *miningService) GetUser(ctx context.Context, id string) (*models.User, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if accrual.ApplyAll(s.lazy, user.Miners, s.now()) {
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, errors.NewDatabaseError("save reconciled user", err)
		}
	}

	return user, nil
}

func (s *miningService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("list users", err)
	}
	return users, nil
}

func (s *miningService) AddMiner(ctx context.Context, userID, minerType string) (*models.Miner, error) {
	spec, err := catalog.Lookup(minerType)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	miner := models.Miner{
		ID:            uuid.NewString(),
		Type:          spec.Type,
		HashRate:      spec.HashRate,
		Capacity:      spec.Capacity,
		CoinsMined:    0,
		Status:        models.MinerStatusRunning,
		LastCollected: now,
	}
	user.Miners = append(user.Miners, miner)
	user.Transactions = append(user.Transactions, models.Transaction{
		ID:     uuid.NewString(),
		Title:  "Bought " + spec.Name,
		Type:   models.TransactionTypeMiner,
		Date:   now,
		Status: models.TransactionStatusCompleted,
	})

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, errors.NewDatabaseError("save user", err)
	}
	return &miner, nil
}

func (s *miningService) Collect(ctx context.Context, userID, minerID string) (float64, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	miner := user.FindMiner(minerID)
	if miner == nil {
		return 0, errors.NewMinerNotFoundError(userID, minerID)
	}

	now := s.now()
	// Settle outstanding production first so the collected amount reflects
	// up-to-the-second mining.
	s.lazy.Apply(miner, now)

	amount := miner.CoinsMined
	user.Balance += amount
	user.TotalCoinsMined += amount

	miner.CoinsMined = 0
	miner.Status = models.MinerStatusRunning
	miner.LastCollected = now

	if err := s.repo.Update(ctx, user); err != nil {
		return 0, errors.NewDatabaseError("save collected user", err)
	}
	return user.Balance, nil
}

func (s *miningService) RecordTransaction(ctx context.Context, userID, title string, txType models.TransactionType, amount float64) ([]models.Transaction, error) {
	if err := validation.ValidateTitle(title); err != nil {
		return nil, errors.NewValidationError("title", err.Error())
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:    uuid.NewString(),
		Title: title,
		Type:  txType,
		Date:  s.now(),
	}

	switch txType {
	case models.TransactionTypeCoin:
		if amount <= 0 {
			return nil, errors.NewValidationError("amount", "must be positive")
		}
		if user.PayoutAddress == "" {
			return nil, errors.NewMissingPayoutTargetError(userID)
		}
		if user.Balance < amount {
			return nil, errors.NewInsufficientBalanceError(user.Balance, amount)
		}
		user.Balance -= amount
		tx.Status = models.TransactionStatusPending
		tx.Amount = amount
		tx.Counterparty = user.PayoutAddress
	case models.TransactionTypeMiner:
		// Purchase records carry no amount; the shop flow owns the debit.
		tx.Status = models.TransactionStatusCompleted
	default:
		return nil, errors.NewValidationError("type", "must be Coin or Miner")
	}

	user.Transactions = append(user.Transactions, tx)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, errors.NewDatabaseError("save transaction", err)
	}
	return user.Transactions, nil
}

func (s *miningService) CompleteTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx := user.FindTransaction(txID)
	if tx == nil {
		return nil, errors.NewTransactionNotFoundError(userID, txID)
	}
	if tx.Status == models.TransactionStatusCompleted {
		return nil, errors.NewConflictError("transaction", "already completed")
	}

	tx.Status = models.TransactionStatusCompleted

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, errors.NewDatabaseError("save transaction status", err)
	}
	return tx, nil
}

func (s *miningService) RunSweep(ctx context.Context) error {
	users, err := s.repo.List(ctx)
	if err != nil {
		return errors.NewDatabaseError("list users for sweep", err)
	}

	swept := 0
	for _, u := range users {
		if err := s.sweepUser(ctx, u.ID); err != nil {
			logger.Error().
				Str("user_id", u.ID).
				Err(err).
				Msg("Sweep failed for user")
			continue
		}
		swept++
	}

	logger.Debug().
		Int("users", len(users)).
		Int("swept", swept).
		Msg("Mining sweep completed")
	return nil
}

// sweepUser re-reads the user under its lock so a concurrent request-path
// update is never overwritten.
func (s *miningService) sweepUser(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !accrual.ApplyAll(s.sweep, user.Miners, s.now()) {
		return nil
	}
	return s.repo.Update(ctx, user)
}
