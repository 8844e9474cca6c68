package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
	"github.com/Haleralex/coinvault/internal/adapters/http/middleware"
	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/engine"
)

// IdempotencyKeyHeader - заголовок идемпотентности для мутирующих операций.
const IdempotencyKeyHeader = "Idempotency-Key"

// ============================================
// Service Interface
// ============================================

// WalletService - интерфейс кошелькового движка для HTTP слоя.
type WalletService interface {
	TopUp(ctx context.Context, cmd dtos.TopUpCommand) (*engine.Outcome, error)
	IssueBonus(ctx context.Context, cmd dtos.BonusCommand) (*engine.Outcome, error)
	Spend(ctx context.Context, cmd dtos.SpendCommand) (*engine.Outcome, error)
	GetBalance(ctx context.Context, accountID, assetTypeID uuid.UUID) (*dtos.BalanceResponse, error)
	GetTransactionHistory(ctx context.Context, q dtos.HistoryQuery) (*dtos.TransactionListResponse, error)
	ListAssetTypes(ctx context.Context) ([]dtos.AssetTypeOut, error)
	ListAccounts(ctx context.Context, includeSystem bool) ([]dtos.AccountOut, error)
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler обрабатывает HTTP запросы кошелькового API.
type WalletHandler struct {
	service WalletService
}

// NewWalletHandler создаёт новый WalletHandler.
func NewWalletHandler(service WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

// ============================================
// Request DTOs
// ============================================

// TopUpRequest - запрос на пополнение кошелька.
type TopUpRequest struct {
	UserAccountID    string `json:"user_account_id" binding:"required,uuid"`
	AssetTypeID      string `json:"asset_type_id" binding:"required,uuid"`
	Amount           string `json:"amount" binding:"required,money_amount"`
	PaymentReference string `json:"payment_reference" binding:"omitempty,max=255"`
	Description      string `json:"description" binding:"omitempty,max=500"`
}

// BonusRequest - запрос на начисление бонуса.
type BonusRequest struct {
	UserAccountID string `json:"user_account_id" binding:"required,uuid"`
	AssetTypeID   string `json:"asset_type_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required,money_amount"`
	Reason        string `json:"reason" binding:"omitempty,max=255"`
	Description   string `json:"description" binding:"omitempty,max=500"`
}

// SpendRequest - запрос на списание средств.
type SpendRequest struct {
	UserAccountID string `json:"user_account_id" binding:"required,uuid"`
	AssetTypeID   string `json:"asset_type_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required,money_amount"`
	ItemReference string `json:"item_reference" binding:"omitempty,max=255"`
	Description   string `json:"description" binding:"omitempty,max=500"`
}

// ============================================
// Mutation Handlers
// ============================================

// TopUp обрабатывает POST /wallet/topup.
//
// Зачисляет средства пользователю против системного казначейства.
// 201 для новой операции, 200 для повтора по Idempotency-Key.
func (h *WalletHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if !BindJSON(c, &req) {
		return
	}

	accountID, assetTypeID, amount, ok := parseMutationFields(c, req.UserAccountID, req.AssetTypeID, req.Amount)
	if !ok {
		return
	}

	outcome, err := h.service.TopUp(c.Request.Context(), dtos.TopUpCommand{
		UserAccountID:    accountID,
		AssetTypeID:      assetTypeID,
		Amount:           amount,
		PaymentReference: req.PaymentReference,
		Description:      req.Description,
		IdempotencyKey:   c.GetHeader(IdempotencyKeyHeader),
	})
	middleware.ObserveLedgerOperation(engine.EndpointTopUp, outcome != nil && outcome.Duplicate, err)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	writeOutcome(c, outcome)
}

// IssueBonus обрабатывает POST /wallet/bonus.
func (h *WalletHandler) IssueBonus(c *gin.Context) {
	var req BonusRequest
	if !BindJSON(c, &req) {
		return
	}

	accountID, assetTypeID, amount, ok := parseMutationFields(c, req.UserAccountID, req.AssetTypeID, req.Amount)
	if !ok {
		return
	}

	outcome, err := h.service.IssueBonus(c.Request.Context(), dtos.BonusCommand{
		UserAccountID:  accountID,
		AssetTypeID:    assetTypeID,
		Amount:         amount,
		Reason:         req.Reason,
		Description:    req.Description,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	middleware.ObserveLedgerOperation(engine.EndpointBonus, outcome != nil && outcome.Duplicate, err)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	writeOutcome(c, outcome)
}

// Spend обрабатывает POST /wallet/spend.
func (h *WalletHandler) Spend(c *gin.Context) {
	var req SpendRequest
	if !BindJSON(c, &req) {
		return
	}

	accountID, assetTypeID, amount, ok := parseMutationFields(c, req.UserAccountID, req.AssetTypeID, req.Amount)
	if !ok {
		return
	}

	outcome, err := h.service.Spend(c.Request.Context(), dtos.SpendCommand{
		UserAccountID:  accountID,
		AssetTypeID:    assetTypeID,
		Amount:         amount,
		ItemReference:  req.ItemReference,
		Description:    req.Description,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	middleware.ObserveLedgerOperation(engine.EndpointSpend, outcome != nil && outcome.Duplicate, err)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	writeOutcome(c, outcome)
}

// ============================================
// Query Handlers
// ============================================

// GetBalance обрабатывает GET /wallet/balance/:account_id/:asset_type_id.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	accountID, assetTypeID, ok := parsePathIDs(c)
	if !ok {
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), accountID, assetTypeID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// GetTransactionHistory обрабатывает GET /wallet/transactions/:account_id/:asset_type_id.
//
// Query параметры: limit (1..100, default 20), offset (>= 0, default 0).
func (h *WalletHandler) GetTransactionHistory(c *gin.Context) {
	accountID, assetTypeID, ok := parsePathIDs(c)
	if !ok {
		return
	}

	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	if c.Query("limit") != "" && limit < 1 {
		common.ValidationFailed(c, "limit: must be between 1 and 100")
		return
	}
	offset, ok := parseIntQuery(c, "offset", 0)
	if !ok {
		return
	}

	history, err := h.service.GetTransactionHistory(c.Request.Context(), dtos.HistoryQuery{
		AccountID:   accountID,
		AssetTypeID: assetTypeID,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// ListAssetTypes обрабатывает GET /wallet/asset-types.
func (h *WalletHandler) ListAssetTypes(c *gin.Context) {
	assetTypes, err := h.service.ListAssetTypes(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assetTypes)
}

// ListAccounts обрабатывает GET /wallet/accounts.
//
// Query параметр include_system включает системные счета в выдачу.
func (h *WalletHandler) ListAccounts(c *gin.Context) {
	includeSystem := false
	if raw := c.Query("include_system"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			common.ValidationFailed(c, "include_system: invalid boolean value")
			return
		}
		includeSystem = parsed
	}

	accounts, err := h.service.ListAccounts(c.Request.Context(), includeSystem)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// ============================================
// Helpers
// ============================================

// writeOutcome отдаёт результат мутации клиенту.
//
// Тело пишется байтами как было закэшировано: повтор по Idempotency-Key
// обязан вернуть байт-в-байт тот же ответ. 200 для повтора, 201 для новой.
func writeOutcome(c *gin.Context, outcome *engine.Outcome) {
	status := http.StatusCreated
	if outcome.Duplicate {
		status = http.StatusOK
	}
	c.Data(status, "application/json", outcome.Body)
}

// parseMutationFields разбирает общие поля мутирующих запросов.
func parseMutationFields(c *gin.Context, rawAccountID, rawAssetTypeID, rawAmount string) (uuid.UUID, uuid.UUID, decimal.Decimal, bool) {
	accountID, err := uuid.Parse(rawAccountID)
	if err != nil {
		common.ValidationFailed(c, "user_account_id: invalid UUID format")
		return uuid.Nil, uuid.Nil, decimal.Zero, false
	}

	assetTypeID, err := uuid.Parse(rawAssetTypeID)
	if err != nil {
		common.ValidationFailed(c, "asset_type_id: invalid UUID format")
		return uuid.Nil, uuid.Nil, decimal.Zero, false
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		common.ValidationFailed(c, "amount: invalid decimal value")
		return uuid.Nil, uuid.Nil, decimal.Zero, false
	}

	return accountID, assetTypeID, amount, true
}

// parsePathIDs разбирает account_id и asset_type_id из path параметров.
func parsePathIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	accountID, err := uuid.Parse(c.Param("account_id"))
	if err != nil {
		common.ValidationFailed(c, "account_id: invalid UUID format")
		return uuid.Nil, uuid.Nil, false
	}

	assetTypeID, err := uuid.Parse(c.Param("asset_type_id"))
	if err != nil {
		common.ValidationFailed(c, "asset_type_id: invalid UUID format")
		return uuid.Nil, uuid.Nil, false
	}

	return accountID, assetTypeID, true
}

// parseIntQuery разбирает целочисленный query параметр.
func parseIntQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		common.ValidationFailed(c, name+": invalid integer value")
		return 0, false
	}

	return value, true
}
