// Package auth содержит регистрацию, логин и выпуск JWT-токенов.
//
// Passwords are stored as bcrypt hashes; access tokens are HS256 JWTs whose
// subject is the account id. The wallet endpoints do not require a token,
// auth exists for account self-service (/auth/me) and future admin surfaces.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/errors"
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and verifies access tokens and manages account credentials.
type Service struct {
	accounts    ports.AccountRepository
	secret      []byte
	tokenExpiry time.Duration
	log         *slog.Logger
}

// NewService creates the auth service. secret signs HS256 tokens.
func NewService(accounts ports.AccountRepository, secret string, tokenExpiry time.Duration, log *slog.Logger) *Service {
	return &Service{
		accounts:    accounts,
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
		log:         log,
	}
}

// Register creates a user account and returns a fresh token.
//
// Wallets are provisioned separately (seed data or an admin flow), so a new
// account starts without any.
func (s *Service) Register(ctx context.Context, cmd dtos.RegisterCommand) (*dtos.TokenResponse, error) {
	// 1. Uniqueness pre-checks give precise conflict errors; the database
	// unique constraints remain the authority under races.
	if _, err := s.accounts.FindByUsername(ctx, cmd.Username); err == nil {
		return nil, errors.ErrUsernameTaken
	} else if !errors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	// 2. Hash the password.
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. Persist.
	account := entities.NewAccount(cmd.Username, cmd.Email, string(hash))
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "account registered", "account_id", account.ID, "username", account.Username)
	return s.issueToken(account)
}

// Login authenticates by username and password.
func (s *Service) Login(ctx context.Context, cmd dtos.LoginCommand) (*dtos.TokenResponse, error) {
	account, err := s.accounts.FindByUsername(ctx, cmd.Username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if account.IsSystem {
		return nil, errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.HashedPassword), []byte(cmd.Password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, errors.ErrAccountInactive
	}

	return s.issueToken(account)
}

// CurrentAccount resolves the account behind a verified token.
func (s *Service) CurrentAccount(ctx context.Context, accountID uuid.UUID) (*dtos.AccountOut, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.AccountNotFoundError{AccountID: accountID.String()}
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if !account.IsActive {
		return nil, errors.ErrAccountInactive
	}
	out := dtos.ToAccountOut(account)
	return &out, nil
}

// VerifyToken parses and validates an access token, returning its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, stderrors.Join(errors.ErrInvalidCredentials, err)
	}
	if !token.Valid {
		return nil, errors.ErrInvalidCredentials
	}
	return claims, nil
}

func (s *Service) issueToken(account *entities.Account) (*dtos.TokenResponse, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username: account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dtos.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		AccountID:   account.ID,
		Username:    account.Username,
	}, nil
}
