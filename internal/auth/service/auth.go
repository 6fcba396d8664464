package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/financialmanagement/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminators carried in the "type" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of both access and refresh tokens
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry, refreshExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:             secret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// GenerateTokens generates both access and refresh tokens for a user
func (tg *TokenGenerator) GenerateTokens(userID int) (string, string, error) {
	accessToken, err := tg.GenerateAccessToken(userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := tg.GenerateRefreshToken(userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// GenerateAccessToken creates a short-lived access token for userID
func (tg *TokenGenerator) GenerateAccessToken(userID int) (string, error) {
	return tg.sign(userID, TokenTypeAccess, tg.accessTokenExpiry)
}

// GenerateRefreshToken creates a long-lived refresh token for userID
func (tg *TokenGenerator) GenerateRefreshToken(userID int) (string, error) {
	return tg.sign(userID, TokenTypeRefresh, tg.refreshTokenExpiry)
}

func (tg *TokenGenerator) sign(userID int, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns the user ID it was issued for
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (int, error) {
	return tg.validate(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns the user ID it was issued for
func (tg *TokenGenerator) ValidateRefreshToken(tokenString string) (int, error) {
	return tg.validate(tokenString, TokenTypeRefresh)
}

// validate checks signature, algorithm (HS256 only), expiry and type.
// Every failure wraps models.ErrInvalidToken.
func (tg *TokenGenerator) validate(tokenString, expectedType string) (int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return 0, fmt.Errorf("%w: failed to parse token: %w", models.ErrInvalidToken, err)
	}

	if !token.Valid {
		return 0, fmt.Errorf("%w: token is invalid", models.ErrInvalidToken)
	}

	if claims.Type != expectedType {
		return 0, fmt.Errorf("%w: expected %s token, got %q", models.ErrInvalidToken, expectedType, claims.Type)
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || claims.Subject == "" {
		return 0, fmt.Errorf("%w: subject not found in token", models.ErrInvalidToken)
	}

	return userID, nil
}
