package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/coinvault/internal/application/auth"
	"github.com/Haleralex/coinvault/internal/pkg/logger"
)

// ============================================
// Mock Verifier
// ============================================

type mockVerifier struct {
	claims *auth.Claims
	err    error
}

func (m *mockVerifier) VerifyToken(tokenString string) (*auth.Claims, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func validClaims(accountID uuid.UUID) *auth.Claims {
	return &auth.Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: accountID.String(),
		},
	}
}

func newAuthTestRouter(verifier TokenVerifier) (*gin.Engine, *struct {
	accountID uuid.UUID
	username  string
	ctxID     string
	called    bool
}) {
	state := &struct {
		accountID uuid.UUID
		username  string
		ctxID     string
		called    bool
	}{}

	router := gin.New()
	router.GET("/protected", Auth(verifier), func(c *gin.Context) {
		state.called = true
		state.accountID, _ = GetAccountID(c)
		state.username, _ = GetUsername(c)
		state.ctxID = logger.GetAccountID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	return router, state
}

func performAuth(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ============================================
// Tests
// ============================================

func TestAuth_ValidToken(t *testing.T) {
	accountID := uuid.New()
	router, state := newAuthTestRouter(&mockVerifier{claims: validClaims(accountID)})

	w := performAuth(router, "Bearer good-token")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, state.called)
	assert.Equal(t, accountID, state.accountID)
	assert.Equal(t, "alice", state.username)
	assert.Equal(t, accountID.String(), state.ctxID, "account id must reach the request context for logging")
}

func TestAuth_Rejections(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name     string
		verifier TokenVerifier
		header   string
	}{
		{
			name:     "missing header",
			verifier: &mockVerifier{claims: validClaims(accountID)},
			header:   "",
		},
		{
			name:     "not bearer scheme",
			verifier: &mockVerifier{claims: validClaims(accountID)},
			header:   "Basic dXNlcjpwYXNz",
		},
		{
			name:     "invalid token",
			verifier: &mockVerifier{err: errors.New("signature invalid")},
			header:   "Bearer bad-token",
		},
		{
			name: "malformed subject",
			verifier: &mockVerifier{claims: &auth.Claims{
				Username:         "alice",
				RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"},
			}},
			header: "Bearer token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, state := newAuthTestRouter(tt.verifier)

			w := performAuth(router, tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, state.called, "handler must not run without valid auth")
			assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
		})
	}
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	accountID := uuid.New()
	router, state := newAuthTestRouter(&mockVerifier{claims: validClaims(accountID)})

	w := performAuth(router, "bearer good-token")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, state.called)
}

func TestGetAccountID_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := GetAccountID(c)
	assert.False(t, ok)

	_, ok = GetUsername(c)
	assert.False(t, ok)
}
