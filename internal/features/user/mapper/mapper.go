package mapper

import "hashminer-backend/internal/features/user/models"

// ToUserResponse strips the fields that never leave the backend.
func ToUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Balance:         user.Balance,
		TotalCoinsMined: user.TotalCoinsMined,
		Miners:          user.Miners,
		Transactions:    user.Transactions,
		CreatedAt:       user.CreatedAt,
	}
}

// ToUserResponses maps a bulk listing.
func ToUserResponses(users []*models.User) []*models.UserResponse {
	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}
