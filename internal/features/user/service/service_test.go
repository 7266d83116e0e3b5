package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "hashminer-backend/internal/common/errors"
	"hashminer-backend/internal/common/locker"
	"hashminer-backend/internal/features/user/repository/memory"
)

func newTestService() (UserService, *memory.Repository) {
	repo := memory.NewUserRepository()
	return NewUserService(repo, locker.New()), repo
}

func TestCreateUser(t *testing.T) {
	svc, repo := newTestService()

	user, err := svc.CreateUser(context.Background(), "miner_joe", "joe@example.com", "")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "miner_joe", user.Username)
	assert.Equal(t, 0.0, user.Balance)
	assert.Empty(t, user.Miners)
	assert.Empty(t, user.Transactions)

	stored, err := repo.GetByEmail(context.Background(), "joe@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateUser(context.Background(), "miner_joe", "joe@example.com", "")
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), "other_joe", "joe@example.com", "")
	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeConflict, appErr.Code)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name     string
		username string
		email    string
	}{
		{"short username", "ab", "joe@example.com"},
		{"empty email", "miner_joe", ""},
		{"malformed email", "miner_joe", "not-an-email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tc.username, tc.email, "")
			appErr, ok := commonerrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeValidation, appErr.Code)
		})
	}
}

func TestSetPayoutAddress(t *testing.T) {
	svc, repo := newTestService()

	user, err := svc.CreateUser(context.Background(), "miner_joe", "joe@example.com", "")
	require.NoError(t, err)

	updated, err := svc.SetPayoutAddress(context.Background(), user.ID, "wallet-9")
	require.NoError(t, err)
	assert.Equal(t, "wallet-9", updated.PayoutAddress)

	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "wallet-9", stored.PayoutAddress)
}

func TestSetPayoutAddressUserNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SetPayoutAddress(context.Background(), "missing", "wallet-9")
	appErr, ok := commonerrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeUserNotFound, appErr.Code)
}
