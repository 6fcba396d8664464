package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/policy"
	"go.uber.org/zap"
)

// UnknownUserName is shown for transactions whose owner no longer exists
const UnknownUserName = "Unknown"

// TransactionRepository is the interface that wraps methods for transactions table data access
type TransactionRepository interface {
	// Method Create inserts a new transaction into the database.
	//
	// "tx" parameter is used to create a new transaction. Its ID is set on success.
	//
	// If some error occurs during creation, the error will be returned.
	Create(ctx context.Context, tx *models.Transaction) error
	// Method GetByID retrieves a transaction by ID.
	//
	// "id" parameter is used to retrieve a transaction by ID.
	//
	// If transaction with such ID does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Transaction, error)
	// Method List retrieves a page of transactions ordered by date descending.
	//
	// "ownerID" parameter restricts the page to one owner when it is not nil.
	// "skip" parameter is the number of transactions to skip.
	// "limit" parameter is the maximum number of transactions to return.
	//
	// If some error occurs during data retrieval, the error will be returned together with "nil" value.
	List(ctx context.Context, ownerID *int, skip, limit int) ([]models.Transaction, error)
	// Method Update applies the non-nil fields of a patch to a transaction.
	//
	// "id" parameter is the ID of the transaction to update.
	// "patch" parameter holds the already validated new values.
	//
	// If transaction with such ID does not exist, an error wrapping models.ErrNotFound will be returned.
	Update(ctx context.Context, id int, patch *models.UpdateTransactionRequest) error
	// Method Delete deletes a transaction by ID.
	//
	// "id" parameter is the ID of the transaction to delete.
	//
	// If transaction with such ID does not exist, an error wrapping models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// UserDirectory resolves transaction owners
type UserDirectory interface {
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method NamesByIDs returns the names of the users with the given IDs.
	//
	// IDs without a matching user are absent from the returned map.
	NamesByIDs(ctx context.Context, ids []int) (map[int]string, error)
}

// transactionService implements the transaction ledger.
// Every operation takes the calling user and enforces the access policy itself.
type transactionService struct {
	repo       TransactionRepository
	users      UserDirectory
	visibility policy.Visibility
	logger     *zap.Logger
	now        func() time.Time
}

// NewTransactionService creates a new transaction service
func NewTransactionService(repo TransactionRepository, users UserDirectory, visibility policy.Visibility, logger *zap.Logger) *transactionService {
	return &transactionService{
		repo:       repo,
		users:      users,
		visibility: visibility,
		logger:     logger,
		now:        time.Now,
	}
}

// Create records a new transaction.
// A deposit is credited to req.UserID, or to the actor when it is nil. An expense always belongs to the actor.
func (s *transactionService) Create(ctx context.Context, actor *models.User, req *models.CreateTransactionRequest) (*models.TransactionResponse, error) {
	if err := policy.Require(policy.CanManageTransactions(actor.Role)); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	for _, err := range []error{
		validateTransactionType(req.Type),
		validateAmount(req.Amount),
		validateDescription(description),
	} {
		if err != nil {
			return nil, err
		}
	}

	ownerID := actor.ID
	if req.Type == models.TransactionTypeDeposit && req.UserID != nil {
		ownerID = *req.UserID
		if ownerID != actor.ID {
			if _, err := s.users.GetByID(ctx, ownerID); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return nil, models.ErrInvalidOwner
				}
				return nil, err
			}
		}
	}

	date := s.now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}

	tx := &models.Transaction{
		Type:        req.Type,
		Amount:      req.Amount,
		Description: description,
		Date:        date,
		UserID:      ownerID,
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.Int("transactionId", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.Int("ownerId", tx.UserID),
		zap.Int("actorId", actor.ID),
	)

	return s.enrichOne(ctx, tx)
}

// GetByID returns one transaction if the actor may see it
func (s *transactionService) GetByID(ctx context.Context, actor *models.User, id int) (*models.TransactionResponse, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Require(policy.CanViewTransaction(s.visibility, actor.Role, actor.ID, tx.UserID)); err != nil {
		return nil, err
	}

	return s.enrichOne(ctx, tx)
}

// List returns a page of the transactions visible to the actor, newest first
func (s *transactionService) List(ctx context.Context, actor *models.User, skip, limit int) ([]models.TransactionResponse, error) {
	if !actor.Role.Valid() {
		return nil, models.ErrForbidden
	}
	if err := validatePage(skip, limit); err != nil {
		return nil, err
	}

	var ownerID *int
	if !policy.CanListAllTransactions(s.visibility, actor.Role) {
		ownerID = &actor.ID
	}

	txs, err := s.repo.List(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, err
	}

	return s.enrich(ctx, txs)
}

// Update applies the supplied fields of req to a transaction and returns the result.
// The permission check runs before the lookup.
func (s *transactionService) Update(ctx context.Context, actor *models.User, id int, req *models.UpdateTransactionRequest) (*models.TransactionResponse, error) {
	if err := policy.Require(policy.CanManageTransactions(actor.Role)); err != nil {
		return nil, err
	}

	patch := &models.UpdateTransactionRequest{
		Type:        req.Type,
		Amount:      req.Amount,
		Description: trimPtr(req.Description),
		Date:        req.Date,
	}

	if patch.Type != nil {
		if err := validateTransactionType(*patch.Type); err != nil {
			return nil, err
		}
	}
	if patch.Amount != nil {
		if err := validateAmount(*patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		if err := validateDescription(*patch.Description); err != nil {
			return nil, err
		}
	}
	if patch.Date != nil {
		date := patch.Date.UTC()
		patch.Date = &date
	}

	if !patch.IsEmpty() {
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return nil, err
		}
		s.logger.Info("transaction updated", zap.Int("transactionId", id), zap.Int("actorId", actor.ID))
	}

	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.enrichOne(ctx, tx)
}

// Delete removes a transaction.
// The permission check runs before the lookup.
func (s *transactionService) Delete(ctx context.Context, actor *models.User, id int) error {
	if err := policy.Require(policy.CanManageTransactions(actor.Role)); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("transaction deleted", zap.Int("transactionId", id), zap.Int("actorId", actor.ID))
	return nil
}

func (s *transactionService) enrichOne(ctx context.Context, tx *models.Transaction) (*models.TransactionResponse, error) {
	enriched, err := s.enrich(ctx, []models.Transaction{*tx})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// enrich attaches the owner name to every transaction with a single lookup
func (s *transactionService) enrich(ctx context.Context, txs []models.Transaction) ([]models.TransactionResponse, error) {
	responses := make([]models.TransactionResponse, 0, len(txs))
	if len(txs) == 0 {
		return responses, nil
	}

	seen := make(map[int]struct{}, len(txs))
	ids := make([]int, 0, len(txs))
	for _, tx := range txs {
		if _, ok := seen[tx.UserID]; !ok {
			seen[tx.UserID] = struct{}{}
			ids = append(ids, tx.UserID)
		}
	}

	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, tx := range txs {
		name, ok := names[tx.UserID]
		if !ok {
			name = UnknownUserName
		}
		responses = append(responses, models.TransactionResponse{
			ID:          tx.ID,
			Type:        tx.Type,
			Amount:      tx.Amount,
			Description: tx.Description,
			Date:        tx.Date.UTC(),
			UserID:      tx.UserID,
			UserName:    name,
		})
	}

	return responses, nil
}
