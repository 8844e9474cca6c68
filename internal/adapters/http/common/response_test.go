package common

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performWithError(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	HandleServiceError(c, err)
	return w
}

func TestHandleServiceError_Mapping(t *testing.T) {
	accountID := uuid.New()
	assetTypeID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient funds",
			err:        domainerrors.NewInsufficientFunds(decimal.NewFromInt(10), decimal.NewFromInt(50), "GC"),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   ErrCodeInsufficientFunds,
		},
		{
			name:       "wallet not found",
			err:        &domainerrors.WalletNotFoundError{AccountID: accountID, AssetTypeID: assetTypeID},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeWalletNotFound,
		},
		{
			name:       "account not found",
			err:        &domainerrors.AccountNotFoundError{AccountID: accountID.String()},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeAccountNotFound,
		},
		{
			name:       "asset type not found",
			err:        &domainerrors.AssetTypeNotFoundError{AssetTypeID: assetTypeID},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeAssetTypeNotFound,
		},
		{
			name:       "idempotency conflict",
			err:        &domainerrors.IdempotencyConflictError{Key: "key-1"},
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeIdempotencyConflict,
		},
		{
			name:       "validation error",
			err:        domainerrors.ValidationError{Field: "amount", Message: "must be positive"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "negative balance",
			err:        &domainerrors.NegativeBalanceError{WalletID: uuid.New(), ResultingBalance: decimal.NewFromInt(-5)},
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeNegativeBalance,
		},
		{
			name:       "username taken",
			err:        domainerrors.ErrUsernameTaken,
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeUsernameTaken,
		},
		{
			name:       "email taken",
			err:        domainerrors.ErrEmailTaken,
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeEmailTaken,
		},
		{
			name:       "invalid credentials",
			err:        domainerrors.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantCode:   ErrCodeInvalidCredentials,
		},
		{
			name:       "inactive account",
			err:        domainerrors.ErrAccountInactive,
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeAccountInactive,
		},
		{
			name:       "generic not found",
			err:        domainerrors.ErrEntityNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "unknown error hides details",
			err:        fmt.Errorf("connection refused to 10.0.0.1:5432"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performWithError(tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"error"`)
			assert.Contains(t, w.Body.String(), fmt.Sprintf(`"code":%q`, tt.wantCode))
		})
	}
}

func TestHandleServiceError_InternalErrorHidesDetails(t *testing.T) {
	w := performWithError(fmt.Errorf("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestRequestID_RoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	assert.Empty(t, GetRequestID(c))

	SetRequestID(c, "req-42")
	assert.Equal(t, "req-42", GetRequestID(c))
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}
