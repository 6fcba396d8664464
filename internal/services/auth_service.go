package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/financialmanagement/backend/internal/auth/service"
	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/policy"
	"go.uber.org/zap"
)

// TokenBearerType is the token_type returned with every token pair
const TokenBearerType = "bearer"

var errBadCredentials = fmt.Errorf("%w: incorrect username or password", models.ErrUnauthorized)

// CredentialRepository is the part of the user store needed to authenticate users
type CredentialRepository interface {
	// Method GetByUsername retrieves a user by username.
	//
	// "username" parameter is used to retrieve a user by username.
	//
	// If user with such username does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// "id" parameter is used to retrieve a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// TokenIssuer issues token pairs and validates refresh tokens
type TokenIssuer interface {
	// Method GenerateTokens creates an access and a refresh token for a user.
	//
	// "userID" parameter is the subject of both tokens.
	GenerateTokens(userID int) (string, string, error)
	// Method ValidateRefreshToken checks a refresh token and returns its subject.
	//
	// Every failure wraps models.ErrInvalidToken.
	ValidateRefreshToken(token string) (int, error)
}

// UserCreator creates users on behalf of the auth service
type UserCreator interface {
	// Method Create validates and stores a new user.
	//
	// "req" parameter holds the new user's fields.
	//
	// Validation failures wrap models.ErrValidation and taken usernames or emails wrap models.ErrDuplicate.
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
}

// authService implements login, refresh and admin registration
type authService struct {
	users   CredentialRepository
	creator UserCreator
	tokens  TokenIssuer
	logger  *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users CredentialRepository, creator UserCreator, tokens TokenIssuer, logger *zap.Logger) *authService {
	return &authService{
		users:   users,
		creator: creator,
		tokens:  tokens,
		logger:  logger,
	}
}

// Login checks the username and password and returns a fresh token pair.
// Unknown usernames and wrong passwords fail with the same error.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, models.ValidationError("username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// hash anyway so unknown usernames take as long as wrong passwords
			service.VerifyPassword(req.Password, dummyPasswordHash)
			return nil, errBadCredentials
		}
		return nil, err
	}

	if !service.VerifyPassword(req.Password, user.PasswordHash) {
		s.logger.Info("failed login attempt", zap.Int("userId", user.ID))
		return nil, errBadCredentials
	}

	return s.issue(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
// The token is rejected when its user no longer exists.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	userID, err := s.tokens.ValidateRefreshToken(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", models.ErrInvalidToken)
		}
		return nil, err
	}

	return s.issue(user)
}

// Register creates a new account on behalf of actor, who must be allowed to register users
func (s *authService) Register(ctx context.Context, actor *models.User, req *models.CreateUserRequest) (*models.User, error) {
	if err := policy.Require(policy.CanRegisterUser(actor.Role)); err != nil {
		return nil, err
	}
	return s.creator.Create(ctx, req)
}

func (s *authService) issue(user *models.User) (*models.TokenResponse, error) {
	accessToken, refreshToken, err := s.tokens.GenerateTokens(user.ID)
	if err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenBearerType,
		Role:         user.Role,
	}, nil
}

// dummyPasswordHash is a bcrypt hash of a random string
const dummyPasswordHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoO5Qd7w4yX0p/7s8JY5h6oS0Ph4Z0j7xG"
