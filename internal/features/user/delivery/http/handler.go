package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hashminer-backend/internal/common/middleware"
	"hashminer-backend/internal/features/user/mapper"
	"hashminer-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("", h.createUser)
		users.PUT("/:id/payout-address", h.setPayoutAddress)
	}
}

type createUserRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required"`
	ReferredBy string `json:"referred_by"`
}

// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Success 201 {object} models.UserResponse "Created user"
// @Failure 400 {object} map[string]interface{} "Invalid payload"
// @Failure 409 {object} map[string]interface{} "Email already registered"
// @Router /users [post]
func (h *UserHandler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.Username, req.Email, req.ReferredBy)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapper.ToUserResponse(user))
}

type setPayoutAddressRequest struct {
	PayoutAddress string `json:"payout_address" binding:"required"`
}

// @Summary Set the payout address used as counterparty for coin withdrawals
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse "Updated user"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Router /users/{id}/payout-address [put]
func (h *UserHandler) setPayoutAddress(c *gin.Context) {
	var req setPayoutAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.service.SetPayoutAddress(c.Request.Context(), c.Param("id"), req.PayoutAddress)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}
