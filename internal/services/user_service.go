package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/financialmanagement/backend/internal/auth/service"
	"github.com/financialmanagement/backend/internal/models"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	UniquenessChecker
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user. Its ID is set on success.
	//
	// If the username or email is already taken, an error wrapping models.ErrDuplicate will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// "id" parameter is used to retrieve a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method GetByUsername retrieves a user by username.
	//
	// "username" parameter is used to retrieve a user by username.
	//
	// If user with such username does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method List retrieves a page of users ordered by ID.
	//
	// "skip" parameter is the number of users to skip.
	// "limit" parameter is the maximum number of users to return.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	List(ctx context.Context, skip, limit int) ([]models.User, error)
	// Method Update applies the non-nil fields of a patch to a user.
	//
	// "id" parameter is the ID of the user to update.
	// "patch" parameter holds the already validated new values.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned.
	Update(ctx context.Context, id int, patch *models.UserPatch) error
	// Method Delete deletes a user by ID.
	//
	// "id" parameter is the ID of the user to delete.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
	// Method Count returns the total number of users.
	//
	// If some error occurs during counting, the error will be returned together with 0.
	Count(ctx context.Context) (int, error)
}

// userService implements the user directory
type userService struct {
	repo   UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(repo UserRepository, logger *zap.Logger) *userService {
	return &userService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates the request, checks uniqueness, hashes the password and stores the user.
// An empty role defaults to models.RoleUser.
func (s *userService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	for _, err := range []error{
		validateName(name),
		validateUsername(username),
		validateEmail(email),
		validatePassword(req.Password),
		validateRole(role),
	} {
		if err != nil {
			return nil, err
		}
	}

	if err := checkUniqueness(ctx, s.repo, username, email, 0); err != nil {
		return nil, err
	}

	passwordHash, err := service.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.Int("userId", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// GetByID returns the user with the given ID
func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of users ordered by ID
func (s *userService) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	if err := validatePage(skip, limit); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, skip, limit)
}

// Update applies the supplied fields of req to the user and returns the updated user.
// A request without fields returns the user unchanged.
func (s *userService) Update(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	patch := &models.UserPatch{
		Name:     trimPtr(req.Name),
		Username: trimPtr(req.Username),
		Email:    trimPtr(req.Email),
		Role:     req.Role,
	}

	if patch.Name != nil {
		if err := validateName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Username != nil {
		if err := validateUsername(*patch.Username); err != nil {
			return nil, err
		}
	}
	if patch.Email != nil {
		if err := validateEmail(*patch.Email); err != nil {
			return nil, err
		}
	}
	if patch.Role != nil {
		if err := validateRole(*patch.Role); err != nil {
			return nil, err
		}
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	var username, email string
	if patch.Username != nil {
		username = *patch.Username
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if err := checkUniqueness(ctx, s.repo, username, email, id); err != nil {
		return nil, err
	}

	if req.Password != nil {
		passwordHash, err := service.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &passwordHash
	}

	if !patch.IsEmpty() {
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return nil, err
		}
	}

	return s.repo.GetByID(ctx, id)
}

// Delete removes the user with the given ID
func (s *userService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int("userId", id))
	return nil
}

// EnsureAdmin creates the bootstrap administrator when the users table is empty.
// It reports whether a user was created.
func (s *userService) EnsureAdmin(ctx context.Context, req *models.CreateUserRequest) (bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	admin := *req
	admin.Role = models.RoleAdmin
	if _, err := s.Create(ctx, &admin); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			// another instance seeded the table first
			return false, nil
		}
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	return true, nil
}
