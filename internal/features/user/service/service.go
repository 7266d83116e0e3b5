package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hashminer-backend/internal/common/errors"
	"hashminer-backend/internal/common/locker"
	"hashminer-backend/internal/common/validation"
	"hashminer-backend/internal/features/user/models"
	"hashminer-backend/internal/features/user/repository"
)

// UserService is the identity collaborator: account creation and profile
// maintenance. Miner and balance semantics live in the mining service.
type UserService interface {
	CreateUser(ctx context.Context, username, email, referredBy string) (*models.User, error)
	SetPayoutAddress(ctx context.Context, id, address string) (*models.User, error)
}

type userService struct {
	repo  repository.UserRepository
	locks *locker.Keyed
}

func NewUserService(repo repository.UserRepository, locks *locker.Keyed) UserService {
	return &userService{
		repo:  repo,
		locks: locks,
	}
}

func (s *userService) CreateUser(ctx context.Context, username, email, referredBy string) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, errors.NewValidationError("username", err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, errors.NewValidationError("email", err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, errors.NewConflictError("user", "email already registered")
	} else if err != repository.ErrNotFound {
		return nil, errors.NewDatabaseError("get user by email", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		ReferredBy:   referredBy,
		Miners:       []models.Miner{},
		Transactions: []models.Transaction{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, errors.NewDatabaseError("create user", err)
	}

	return user, nil
}

func (s *userService) SetPayoutAddress(ctx context.Context, id, address string) (*models.User, error) {
	if address == "" {
		return nil, errors.NewValidationError("payout_address", "cannot be empty")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NewUserNotFoundError(id)
		}
		return nil, errors.NewDatabaseError("get user", err)
	}

	user.PayoutAddress = address
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, errors.NewDatabaseError("save user", err)
	}

	return user, nil
}
