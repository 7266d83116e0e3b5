package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hashminer-backend/internal/common/middleware"
	"hashminer-backend/internal/features/mining/catalog"
	"hashminer-backend/internal/features/mining/service"
	"hashminer-backend/internal/features/user/mapper"
	"hashminer-backend/internal/features/user/models"
)

type MiningHandler struct {
	service    service.Service
	adminToken string
}

func NewMiningHandler(service service.Service, adminToken string) *MiningHandler {
	return &MiningHandler{
		service:    service,
		adminToken: adminToken,
	}
}

func (h *MiningHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/miners/catalog", h.getCatalog)

	users := router.Group("/users")
	{
		users.GET("", h.listUsers)
		users.GET("/:id", h.getUser)
		users.POST("/:id/miners", h.addMiner)
		users.POST("/:id/miners/:minerId/collect", h.collect)
		users.POST("/:id/transactions", h.recordTransaction)
	}

	admin := router.Group("/users")
	admin.Use(middleware.RequireAdmin(h.adminToken))
	{
		admin.PATCH("/:id/transactions/:txId/status", h.completeTransaction)
	}
}

// @Summary List the purchasable miner classes
// @Tags miners
// @Produce json
// @Success 200 {array} catalog.MinerSpec
// @Router /miners/catalog [get]
func (h *MiningHandler) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.All())
}

// @Summary Get a user with miners reconciled to the current time
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse "Settled user view"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Router /users/{id} [get]
func (h *MiningHandler) getUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

// @Summary List all users
// @Description Returns raw stored state; miners are not reconciled on the
// @Description bulk path.
// @Tags users
// @Produce json
// @Success 200 {array} models.UserResponse
// @Router /users [get]
func (h *MiningHandler) listUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapper.ToUserResponses(users))
}

type addMinerRequest struct {
	Type string `json:"type" binding:"required"`
}

// @Summary Add a miner of a catalog class to a user
// @Tags miners
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 201 {object} models.Miner "Created miner"
// @Failure 400 {object} map[string]interface{} "Unknown miner type"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Router /users/{id}/miners [post]
func (h *MiningHandler) addMiner(c *gin.Context) {
	var req addMinerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	miner, err := h.service.AddMiner(c.Request.Context(), c.Param("id"), req.Type)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, miner)
}

// @Summary Collect a miner's accrued coins into the user's balance
// @Tags miners
// @Produce json
// @Param id path string true "User ID"
// @Param minerId path string true "Miner ID"
// @Success 200 {object} map[string]interface{} "New balance"
// @Failure 404 {object} map[string]interface{} "User or miner not found"
// @Router /users/{id}/miners/{minerId}/collect [post]
func (h *MiningHandler) collect(c *gin.Context) {
	balance, err := h.service.Collect(c.Request.Context(), c.Param("id"), c.Param("minerId"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

type recordTransactionRequest struct {
	Title  string                 `json:"title" binding:"required"`
	Type   models.TransactionType `json:"type" binding:"required"`
	Amount float64                `json:"amount"`
}

// @Summary Record a ledger transaction
// @Description Coin transactions debit the balance immediately and stay
// @Description pending until an operator completes them. Miner transactions
// @Description only record the purchase.
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 201 {array} models.Transaction "Updated transaction log"
// @Failure 422 {object} map[string]interface{} "Insufficient balance or missing payout address"
// @Router /users/{id}/transactions [post]
func (h *MiningHandler) recordTransaction(c *gin.Context) {
	var req recordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	transactions, err := h.service.RecordTransaction(c.Request.Context(), c.Param("id"), req.Title, req.Type, req.Amount)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transactions)
}

// @Summary Mark a pending transaction as completed (admin only)
// @Tags transactions
// @Produce json
// @Param id path string true "User ID"
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 403 {object} map[string]interface{} "Admin access required"
// @Failure 404 {object} map[string]interface{} "Transaction not found"
// @Router /users/{id}/transactions/{txId}/status [patch]
func (h *MiningHandler) completeTransaction(c *gin.Context) {
	tx, err := h.service.CompleteTransaction(c.Request.Context(), c.Param("id"), c.Param("txId"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}
