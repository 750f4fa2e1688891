package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/wheelround/go/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines what the app layer needs from the repository
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
	SetToken(ctx context.Context, userID int64, token *string) error
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// App handles login and token verification. A user holds at most one valid
// token: logging in replaces the stored token.
type App struct {
	repo   UserRepository
	tokens *TokenManager
}

// NewApp creates a new auth App
func NewApp(repo UserRepository, tokens *TokenManager) *App {
	return &App{repo: repo, tokens: tokens}
}

// CreateUser hashes the password and stores a new user.
func (a *App) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	// Check if user with same username already exists
	existing, err := a.repo.GetUserByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := a.repo.CreateUser(ctx, username, string(hash))
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", username).Msg("created user")
	return user, nil
}

// Login checks credentials and issues a new session token.
func (a *App) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := a.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}
	if err := a.repo.SetToken(ctx, user.ID, &token); err != nil {
		return nil, err
	}
	user.Token = &token

	log.Info().Str("username", username).Msg("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// VerifyToken checks the token signature and that it is still the user's
// current session.
func (a *App) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := a.repo.GetUserByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: token is not active", ErrInvalidToken)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Username != claims.Username {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	return user, nil
}

// Logout clears the stored session token.
func (a *App) Logout(ctx context.Context, token string) error {
	user, err := a.VerifyToken(ctx, token)
	if err != nil {
		return err
	}
	return a.repo.SetToken(ctx, user.ID, nil)
}
