// Package common содержит общие типы для HTTP слоя.
//
// Вынесен в отдельный пакет чтобы избежать циклических импортов
// между handlers и основным http пакетом.
package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

// ============================================
// Error Response Format
// ============================================

// ErrorResponse - единый формат ошибки API.
//
// Успешные ответы отдаются как плоские DTO без обёртки,
// ошибки всегда в этом конверте.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ============================================
// Error Codes
// ============================================

const (
	ErrCodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	ErrCodeWalletNotFound      = "WALLET_NOT_FOUND"
	ErrCodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	ErrCodeAssetTypeNotFound   = "ASSET_TYPE_NOT_FOUND"
	ErrCodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
	ErrCodeNegativeBalance     = "NEGATIVE_BALANCE"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInternal            = "INTERNAL_ERROR"

	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive    = "ACCOUNT_INACTIVE"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotFound           = "NOT_FOUND"
)

// ============================================
// Request ID
// ============================================

const RequestIDHeader = "X-Request-ID"

// GetRequestID возвращает Request ID из контекста Gin.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}

// SetRequestID сохраняет Request ID в контекст Gin и заголовок ответа.
func SetRequestID(c *gin.Context, requestID string) {
	c.Set("request_id", requestID)
	c.Header(RequestIDHeader, requestID)
}

// ============================================
// Response Helpers
// ============================================

// Error отправляет ошибку в стандартном конверте.
func Error(c *gin.Context, httpStatus int, code, message string) {
	c.JSON(httpStatus, ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

// ValidationFailed отправляет 422 с кодом VALIDATION_ERROR.
func ValidationFailed(c *gin.Context, message string) {
	Error(c, http.StatusUnprocessableEntity, ErrCodeValidation, message)
}

// ============================================
// Service Error Mapping
// ============================================

// HandleServiceError транслирует доменные ошибки в HTTP ответы.
//
// Маппинг:
// - InsufficientFundsError   -> 402
// - *NotFoundError           -> 404
// - IdempotencyConflictError -> 409
// - ValidationError          -> 422
// - NegativeBalanceError     -> 500 (инвариант леджера нарушен)
// - всё остальное            -> 500 INTERNAL_ERROR без деталей
func HandleServiceError(c *gin.Context, err error) {
	var insufficientFunds *domainerrors.InsufficientFundsError
	var walletNotFound *domainerrors.WalletNotFoundError
	var accountNotFound *domainerrors.AccountNotFoundError
	var assetNotFound *domainerrors.AssetTypeNotFoundError
	var idemConflict *domainerrors.IdempotencyConflictError
	var negativeBalance *domainerrors.NegativeBalanceError
	var validation domainerrors.ValidationError

	switch {
	case errors.As(err, &insufficientFunds):
		Error(c, http.StatusPaymentRequired, ErrCodeInsufficientFunds, insufficientFunds.Error())

	case errors.As(err, &walletNotFound):
		Error(c, http.StatusNotFound, ErrCodeWalletNotFound, walletNotFound.Error())

	case errors.As(err, &accountNotFound):
		Error(c, http.StatusNotFound, ErrCodeAccountNotFound, accountNotFound.Error())

	case errors.As(err, &assetNotFound):
		Error(c, http.StatusNotFound, ErrCodeAssetTypeNotFound, assetNotFound.Error())

	case errors.As(err, &idemConflict):
		Error(c, http.StatusConflict, ErrCodeIdempotencyConflict, idemConflict.Error())

	case errors.As(err, &validation):
		ValidationFailed(c, validation.Error())

	case errors.As(err, &negativeBalance):
		// Баланс не может уйти в минус при работающих блокировках.
		// Если дошли сюда - это дефект сервиса, а не ошибка клиента.
		slog.ErrorContext(c.Request.Context(), "ledger invariant violated",
			"error", err,
			"request_id", GetRequestID(c),
		)
		Error(c, http.StatusInternalServerError, ErrCodeNegativeBalance, "balance invariant violated")

	case errors.Is(err, domainerrors.ErrUsernameTaken):
		Error(c, http.StatusConflict, ErrCodeUsernameTaken, "username is already taken")

	case errors.Is(err, domainerrors.ErrEmailTaken):
		Error(c, http.StatusConflict, ErrCodeEmailTaken, "email is already registered")

	case errors.Is(err, domainerrors.ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid username or password")

	case errors.Is(err, domainerrors.ErrAccountInactive):
		Error(c, http.StatusForbidden, ErrCodeAccountInactive, "account is deactivated")

	case errors.Is(err, domainerrors.ErrEntityNotFound):
		Error(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")

	default:
		slog.ErrorContext(c.Request.Context(), "unhandled service error",
			"error", err,
			"request_id", GetRequestID(c),
		)
		Error(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
