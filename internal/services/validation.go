package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/financialmanagement/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Field limits
const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MinUsernameLength    = 3
	MaxUsernameLength    = 50
	MinPasswordLength    = 6
	MaxPasswordBytes     = 72 // bcrypt input limit
	MaxDescriptionLength = 500
	DefaultPageLimit     = 100
	MaxPageLimit         = 100
	amountDecimalPlaces  = 2
)

// maxAmount is the first value that no longer fits DECIMAL(15,2)
var maxAmount = decimal.New(1, 13)

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// usernameRegex allows letters, digits and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateName(name string) error {
	if n := utf8.RuneCountInString(name); n < MinNameLength || n > MaxNameLength {
		return models.ValidationError("name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	return nil
}

func validateUsername(username string) error {
	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return models.ValidationError("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return models.ValidationError("username may only contain letters, digits and underscores")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return models.ValidationError("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return models.ValidationError("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return models.ValidationError("password must be at most %d bytes long", MaxPasswordBytes)
	}
	return nil
}

func validateRole(role models.Role) error {
	if !role.Valid() {
		return models.ValidationError("role must be one of %q, %q or %q", models.RoleAdmin, models.RoleAccountant, models.RoleUser)
	}
	return nil
}

func validateTransactionType(t models.TransactionType) error {
	if !t.Valid() {
		return models.ValidationError("type must be %q or %q", models.TransactionTypeDeposit, models.TransactionTypeExpense)
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ValidationError("amount must be greater than 0")
	}
	if !amount.Equal(amount.Truncate(amountDecimalPlaces)) {
		return models.ValidationError("amount must have at most %d decimal places", amountDecimalPlaces)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return models.ValidationError("amount must be less than %s", maxAmount)
	}
	return nil
}

func validateDescription(description string) error {
	if n := utf8.RuneCountInString(description); n < 1 || n > MaxDescriptionLength {
		return models.ValidationError("description must be between 1 and %d characters", MaxDescriptionLength)
	}
	return nil
}

// validatePage checks skip and limit of a listing
func validatePage(skip, limit int) error {
	if skip < 0 {
		return models.ValidationError("skip must be greater than or equal to 0")
	}
	if limit < 1 || limit > MaxPageLimit {
		return models.ValidationError("limit must be between 1 and %d", MaxPageLimit)
	}
	return nil
}

// UniquenessChecker is the part of the user store needed to check username and email uniqueness
type UniquenessChecker interface {
	// Method ExistsByUsername checks if a user other than excludeID has such username.
	//
	// "username" parameter is the exact username to look for.
	// "excludeID" parameter is the ID of the user being updated, or 0 on creation.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string, excludeID int) (bool, error)
	// Method ExistsByEmail checks if a user other than excludeID has such email.
	//
	// "email" parameter is the exact email to look for.
	// "excludeID" parameter is the ID of the user being updated, or 0 on creation.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string, excludeID int) (bool, error)
}

// checkUniqueness checks username and email against the other users in parallel.
// An empty username or email is skipped. A taken username is reported before a taken email.
func checkUniqueness(ctx context.Context, repo UniquenessChecker, username, email string, excludeID int) error {
	usernameErr := make(chan error, 1)
	emailErr := make(chan error, 1)

	go func() {
		if username == "" {
			usernameErr <- nil
			return
		}
		exists, err := repo.ExistsByUsername(ctx, username, excludeID)
		switch {
		case err != nil:
			usernameErr <- err
		case exists:
			usernameErr <- models.ErrDuplicateUsername
		default:
			usernameErr <- nil
		}
	}()

	go func() {
		if email == "" {
			emailErr <- nil
			return
		}
		exists, err := repo.ExistsByEmail(ctx, email, excludeID)
		switch {
		case err != nil:
			emailErr <- err
		case exists:
			emailErr <- models.ErrDuplicateEmail
		default:
			emailErr <- nil
		}
	}()

	errU, errE := <-usernameErr, <-emailErr
	if errU != nil {
		return errU
	}
	return errE
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
