package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/engine"
	domainerrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================
// Mock Service
// ============================================

type mockWalletService struct {
	topUpFn       func(ctx context.Context, cmd dtos.TopUpCommand) (*engine.Outcome, error)
	issueBonusFn  func(ctx context.Context, cmd dtos.BonusCommand) (*engine.Outcome, error)
	spendFn       func(ctx context.Context, cmd dtos.SpendCommand) (*engine.Outcome, error)
	getBalanceFn  func(ctx context.Context, accountID, assetTypeID uuid.UUID) (*dtos.BalanceResponse, error)
	getHistoryFn  func(ctx context.Context, q dtos.HistoryQuery) (*dtos.TransactionListResponse, error)
	listAssetsFn  func(ctx context.Context) ([]dtos.AssetTypeOut, error)
	listAccountFn func(ctx context.Context, includeSystem bool) ([]dtos.AccountOut, error)
}

func (m *mockWalletService) TopUp(ctx context.Context, cmd dtos.TopUpCommand) (*engine.Outcome, error) {
	return m.topUpFn(ctx, cmd)
}

func (m *mockWalletService) IssueBonus(ctx context.Context, cmd dtos.BonusCommand) (*engine.Outcome, error) {
	return m.issueBonusFn(ctx, cmd)
}

func (m *mockWalletService) Spend(ctx context.Context, cmd dtos.SpendCommand) (*engine.Outcome, error) {
	return m.spendFn(ctx, cmd)
}

func (m *mockWalletService) GetBalance(ctx context.Context, accountID, assetTypeID uuid.UUID) (*dtos.BalanceResponse, error) {
	return m.getBalanceFn(ctx, accountID, assetTypeID)
}

func (m *mockWalletService) GetTransactionHistory(ctx context.Context, q dtos.HistoryQuery) (*dtos.TransactionListResponse, error) {
	return m.getHistoryFn(ctx, q)
}

func (m *mockWalletService) ListAssetTypes(ctx context.Context) ([]dtos.AssetTypeOut, error) {
	return m.listAssetsFn(ctx)
}

func (m *mockWalletService) ListAccounts(ctx context.Context, includeSystem bool) ([]dtos.AccountOut, error) {
	return m.listAccountFn(ctx, includeSystem)
}

// ============================================
// Helpers
// ============================================

func newWalletRouter(service WalletService) *gin.Engine {
	SetupValidator()
	router := gin.New()
	handler := NewWalletHandler(service)

	wallet := router.Group("/wallet")
	wallet.POST("/topup", handler.TopUp)
	wallet.POST("/bonus", handler.IssueBonus)
	wallet.POST("/spend", handler.Spend)
	wallet.GET("/balance/:account_id/:asset_type_id", handler.GetBalance)
	wallet.GET("/transactions/:account_id/:asset_type_id", handler.GetTransactionHistory)
	wallet.GET("/asset-types", handler.ListAssetTypes)
	wallet.GET("/accounts", handler.ListAccounts)

	return router
}

func performJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func successOutcome(t *testing.T, resp dtos.TransactionResponse) *engine.Outcome {
	t.Helper()
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	return &engine.Outcome{Body: body}
}

// ============================================
// Mutation Tests
// ============================================

func TestWalletHandler_TopUp(t *testing.T) {
	accountID := uuid.New()
	assetTypeID := uuid.New()

	t.Run("success returns 201", func(t *testing.T) {
		var captured dtos.TopUpCommand
		service := &mockWalletService{
			topUpFn: func(ctx context.Context, cmd dtos.TopUpCommand) (*engine.Outcome, error) {
				captured = cmd
				return successOutcome(t, dtos.TransactionResponse{
					Status:          "success",
					ReferenceID:     uuid.New(),
					TransactionType: "TOPUP",
					Amount:          decimal.RequireFromString("100.5"),
					BalanceAfter:    decimal.RequireFromString("100.5"),
					Message:         "Successfully credited 100.5 GC to your wallet.",
				}), nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodPost, "/wallet/topup", gin.H{
			"user_account_id":   accountID.String(),
			"asset_type_id":     assetTypeID.String(),
			"amount":            "100.5",
			"payment_reference": "pay-123",
		}, map[string]string{IdempotencyKeyHeader: "key-1"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), `"status":"success"`)

		assert.Equal(t, accountID, captured.UserAccountID)
		assert.Equal(t, assetTypeID, captured.AssetTypeID)
		assert.True(t, captured.Amount.Equal(decimal.RequireFromString("100.5")))
		assert.Equal(t, "pay-123", captured.PaymentReference)
		assert.Equal(t, "key-1", captured.IdempotencyKey)
	})

	t.Run("idempotent replay returns 200 with cached bytes", func(t *testing.T) {
		cached := []byte(`{"status":"success","amount":"100.5"}`)
		service := &mockWalletService{
			topUpFn: func(ctx context.Context, cmd dtos.TopUpCommand) (*engine.Outcome, error) {
				return &engine.Outcome{Body: cached, Duplicate: true}, nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodPost, "/wallet/topup", gin.H{
			"user_account_id": accountID.String(),
			"asset_type_id":   assetTypeID.String(),
			"amount":          "100.5",
		}, map[string]string{IdempotencyKeyHeader: "key-1"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(cached), w.Body.String())
	})

	t.Run("missing idempotency key header is allowed", func(t *testing.T) {
		var captured dtos.TopUpCommand
		service := &mockWalletService{
			topUpFn: func(ctx context.Context, cmd dtos.TopUpCommand) (*engine.Outcome, error) {
				captured = cmd
				return successOutcome(t, dtos.TransactionResponse{Status: "success"}), nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodPost, "/wallet/topup", gin.H{
			"user_account_id": accountID.String(),
			"asset_type_id":   assetTypeID.String(),
			"amount":          "10",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, captured.IdempotencyKey)
	})

	t.Run("validation failures return 422", func(t *testing.T) {
		service := &mockWalletService{
			topUpFn: func(ctx context.Context, cmd dtos.TopUpCommand) (*engine.Outcome, error) {
				t.Fatal("service must not be called on invalid input")
				return nil, nil
			},
		}
		router := newWalletRouter(service)

		tests := []struct {
			name string
			body gin.H
		}{
			{"missing user_account_id", gin.H{"asset_type_id": assetTypeID.String(), "amount": "10"}},
			{"malformed user_account_id", gin.H{"user_account_id": "not-a-uuid", "asset_type_id": assetTypeID.String(), "amount": "10"}},
			{"negative amount", gin.H{"user_account_id": accountID.String(), "asset_type_id": assetTypeID.String(), "amount": "-5"}},
			{"zero amount", gin.H{"user_account_id": accountID.String(), "asset_type_id": assetTypeID.String(), "amount": "0"}},
			{"too many fraction digits", gin.H{"user_account_id": accountID.String(), "asset_type_id": assetTypeID.String(), "amount": "1.00001"}},
			{"non numeric amount", gin.H{"user_account_id": accountID.String(), "asset_type_id": assetTypeID.String(), "amount": "ten"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := performJSON(router, http.MethodPost, "/wallet/topup", tt.body, nil)
				assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
				assert.Contains(t, w.Body.String(), `"code":"VALIDATION_ERROR"`)
			})
		}
	})

	t.Run("idempotency conflict returns 409", func(t *testing.T) {
		service := &mockWalletService{
			topUpFn: func(ctx context.Context, cmd dtos.TopUpCommand) (*engine.Outcome, error) {
				return nil, &domainerrors.IdempotencyConflictError{Key: "key-1"}
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodPost, "/wallet/topup", gin.H{
			"user_account_id": accountID.String(),
			"asset_type_id":   assetTypeID.String(),
			"amount":          "10",
		}, map[string]string{IdempotencyKeyHeader: "key-1"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"IDEMPOTENCY_CONFLICT"`)
	})
}

func TestWalletHandler_IssueBonus(t *testing.T) {
	accountID := uuid.New()
	assetTypeID := uuid.New()

	t.Run("passes reason through", func(t *testing.T) {
		var captured dtos.BonusCommand
		service := &mockWalletService{
			issueBonusFn: func(ctx context.Context, cmd dtos.BonusCommand) (*engine.Outcome, error) {
				captured = cmd
				return successOutcome(t, dtos.TransactionResponse{Status: "success"}), nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodPost, "/wallet/bonus", gin.H{
			"user_account_id": accountID.String(),
			"asset_type_id":   assetTypeID.String(),
			"amount":          "25",
			"reason":          "signup reward",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "signup reward", captured.Reason)
	})

	t.Run("account not found returns 404", func(t *testing.T) {
		service := &mockWalletService{
			issueBonusFn: func(ctx context.Context, cmd dtos.BonusCommand) (*engine.Outcome, error) {
				return nil, &domainerrors.AccountNotFoundError{AccountID: accountID.String()}
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodPost, "/wallet/bonus", gin.H{
			"user_account_id": accountID.String(),
			"asset_type_id":   assetTypeID.String(),
			"amount":          "25",
		}, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"ACCOUNT_NOT_FOUND"`)
	})
}

func TestWalletHandler_Spend(t *testing.T) {
	accountID := uuid.New()
	assetTypeID := uuid.New()

	t.Run("insufficient funds returns 402", func(t *testing.T) {
		service := &mockWalletService{
			spendFn: func(ctx context.Context, cmd dtos.SpendCommand) (*engine.Outcome, error) {
				return nil, domainerrors.NewInsufficientFunds(
					decimal.NewFromInt(10), decimal.NewFromInt(50), "GC")
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodPost, "/wallet/spend", gin.H{
			"user_account_id": accountID.String(),
			"asset_type_id":   assetTypeID.String(),
			"amount":          "50",
			"item_reference":  "sword-7",
		}, nil)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"INSUFFICIENT_FUNDS"`)
	})

	t.Run("passes item reference through", func(t *testing.T) {
		var captured dtos.SpendCommand
		service := &mockWalletService{
			spendFn: func(ctx context.Context, cmd dtos.SpendCommand) (*engine.Outcome, error) {
				captured = cmd
				return successOutcome(t, dtos.TransactionResponse{Status: "success"}), nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodPost, "/wallet/spend", gin.H{
			"user_account_id": accountID.String(),
			"asset_type_id":   assetTypeID.String(),
			"amount":          "50",
			"item_reference":  "sword-7",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "sword-7", captured.ItemReference)
	})
}

// ============================================
// Query Tests
// ============================================

func TestWalletHandler_GetBalance(t *testing.T) {
	accountID := uuid.New()
	assetTypeID := uuid.New()

	t.Run("success", func(t *testing.T) {
		service := &mockWalletService{
			getBalanceFn: func(ctx context.Context, gotAccount, gotAsset uuid.UUID) (*dtos.BalanceResponse, error) {
				assert.Equal(t, accountID, gotAccount)
				assert.Equal(t, assetTypeID, gotAsset)
				return &dtos.BalanceResponse{
					AccountID: accountID,
					Username:  "alice",
					AssetType: "Gold Coins",
					Symbol:    "GC",
					Balance:   decimal.NewFromInt(70),
				}, nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet,
			"/wallet/balance/"+accountID.String()+"/"+assetTypeID.String(), nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"balance":"70"`)
	})

	t.Run("malformed path id returns 422", func(t *testing.T) {
		service := &mockWalletService{}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet,
			"/wallet/balance/nope/"+assetTypeID.String(), nil, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("wallet not found returns 404", func(t *testing.T) {
		service := &mockWalletService{
			getBalanceFn: func(ctx context.Context, gotAccount, gotAsset uuid.UUID) (*dtos.BalanceResponse, error) {
				return nil, &domainerrors.WalletNotFoundError{AccountID: accountID, AssetTypeID: assetTypeID}
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet,
			"/wallet/balance/"+accountID.String()+"/"+assetTypeID.String(), nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"WALLET_NOT_FOUND"`)
	})
}

func TestWalletHandler_GetTransactionHistory(t *testing.T) {
	accountID := uuid.New()
	assetTypeID := uuid.New()
	basePath := "/wallet/transactions/" + accountID.String() + "/" + assetTypeID.String()

	t.Run("passes pagination params", func(t *testing.T) {
		var captured dtos.HistoryQuery
		service := &mockWalletService{
			getHistoryFn: func(ctx context.Context, q dtos.HistoryQuery) (*dtos.TransactionListResponse, error) {
				captured = q
				return &dtos.TransactionListResponse{Transactions: []dtos.TransactionOut{}}, nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet, basePath+"?limit=50&offset=10", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 50, captured.Limit)
		assert.Equal(t, 10, captured.Offset)
	})

	t.Run("defaults applied when params missing", func(t *testing.T) {
		var captured dtos.HistoryQuery
		service := &mockWalletService{
			getHistoryFn: func(ctx context.Context, q dtos.HistoryQuery) (*dtos.TransactionListResponse, error) {
				captured = q
				return &dtos.TransactionListResponse{}, nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet, basePath, nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, captured.Limit)
		assert.Zero(t, captured.Offset)
	})

	t.Run("explicit non-positive limit returns 422", func(t *testing.T) {
		service := &mockWalletService{
			getHistoryFn: func(ctx context.Context, q dtos.HistoryQuery) (*dtos.TransactionListResponse, error) {
				t.Fatal("service must not be called for non-positive limit")
				return nil, nil
			},
		}
		router := newWalletRouter(service)

		for _, query := range []string{"?limit=0", "?limit=-1"} {
			w := performJSON(router, http.MethodGet, basePath+query, nil, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, query)
			assert.Contains(t, w.Body.String(), `"code":"VALIDATION_ERROR"`, query)
		}
	})

	t.Run("non numeric limit returns 422", func(t *testing.T) {
		service := &mockWalletService{}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet, basePath+"?limit=many", nil, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("out of range limit rejected by service returns 422", func(t *testing.T) {
		service := &mockWalletService{
			getHistoryFn: func(ctx context.Context, q dtos.HistoryQuery) (*dtos.TransactionListResponse, error) {
				return nil, domainerrors.ValidationError{Field: "limit", Message: "must be between 1 and 100"}
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet, basePath+"?limit=500", nil, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"VALIDATION_ERROR"`)
	})
}

func TestWalletHandler_ListAssetTypes(t *testing.T) {
	service := &mockWalletService{
		listAssetsFn: func(ctx context.Context) ([]dtos.AssetTypeOut, error) {
			return []dtos.AssetTypeOut{
				{ID: uuid.New(), Name: "Gold Coins", Symbol: "GC", IsActive: true},
			}, nil
		},
	}
	router := newWalletRouter(service)

	w := performJSON(router, http.MethodGet, "/wallet/asset-types", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"symbol":"GC"`)
}

func TestWalletHandler_ListAccounts(t *testing.T) {
	t.Run("include_system forwarded", func(t *testing.T) {
		var capturedInclude bool
		service := &mockWalletService{
			listAccountFn: func(ctx context.Context, includeSystem bool) ([]dtos.AccountOut, error) {
				capturedInclude = includeSystem
				return []dtos.AccountOut{}, nil
			},
		}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet, "/wallet/accounts?include_system=true", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, capturedInclude)

		w = performJSON(router, http.MethodGet, "/wallet/accounts", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, capturedInclude)
	})

	t.Run("invalid boolean returns 422", func(t *testing.T) {
		service := &mockWalletService{}
		router := newWalletRouter(service)

		w := performJSON(router, http.MethodGet, "/wallet/accounts?include_system=banana", nil, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
