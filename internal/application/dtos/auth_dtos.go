package dtos

import "github.com/google/uuid"

// RegisterCommand creates a new user account.
type RegisterCommand struct {
	Username string
	Email    string
	Password string
}

// LoginCommand authenticates an existing account by username.
type LoginCommand struct {
	Username string
	Password string
}

// TokenResponse is returned by /auth/register and /auth/login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	AccountID   uuid.UUID `json:"account_id"`
	Username    string    `json:"username"`
}
