package handlers

import (
	"context"
	"net/http"

	"github.com/financialmanagement/backend/internal/auth/middleware"
	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/policy"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TransactionService is the interface that wraps the ledger operations.
// Every method takes the authenticated caller and enforces the access policy itself.
type TransactionService interface {
	// Method Create records a deposit or an expense.
	//
	// If the caller may not manage transactions, models.ErrForbidden will be returned.
	// If an explicit owner does not exist, models.ErrInvalidOwner will be returned.
	Create(ctx context.Context, actor *models.User, req *models.CreateTransactionRequest) (*models.TransactionResponse, error)
	// Method GetByID retrieves one transaction.
	//
	// If transaction with such ID does not exist, an error wrapping models.ErrNotFound will be returned.
	// If the caller may not see it, models.ErrForbidden will be returned.
	GetByID(ctx context.Context, actor *models.User, id int) (*models.TransactionResponse, error)
	// Method List retrieves a page of the transactions visible to the caller, newest first.
	//
	// "skip" parameter must be >= 0 and "limit" parameter must be between 1 and 100.
	List(ctx context.Context, actor *models.User, skip, limit int) ([]models.TransactionResponse, error)
	// Method Update applies the supplied fields to a transaction.
	//
	// The permission check runs before the lookup, so forbidden callers never see models.ErrNotFound.
	Update(ctx context.Context, actor *models.User, id int, req *models.UpdateTransactionRequest) (*models.TransactionResponse, error)
	// Method Delete removes a transaction.
	//
	// The permission check runs before the lookup, so forbidden callers never see models.ErrNotFound.
	Delete(ctx context.Context, actor *models.User, id int) error
}

// TransactionHandler handles ledger requests
type TransactionHandler struct {
	BaseHandler
	transactionService TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		BaseHandler:        BaseHandler{Logger: logger},
		transactionService: transactionService,
	}
}

// RegisterRoutes registers the transaction routes behind authentication
func (h *TransactionHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/transactions", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		// writes are rejected for plain users before the body or the id is looked at
		r.Group(func(r chi.Router) {
			r.Use(middleware.RoleMiddleware(policy.CanManageTransactions))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles GET /transactions/
// @Summary List transactions
// @Description Newest first. Plain users only see their own transactions unless the deployment is transparent.
// @Tags transactions
// @Produce json
// @Param skip query int false "Number of transactions to skip" default(0)
// @Param limit query int false "Maximum number of transactions" default(100)
// @Success 200 {array} models.TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/ [get]
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	skip, limit, err := parsePage(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.transactionService.List(r.Context(), actor, skip, limit)
	if err != nil {
		h.RespondServiceError(w, r, err, "transaction")
		return
	}

	h.RespondJSON(w, http.StatusOK, txs)
}

// Create handles POST /transactions/
// @Summary Record a transaction
// @Description Deposits are credited to user_id (default: caller). Expenses always belong to the caller.
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body models.CreateTransactionRequest true "New transaction"
// @Success 201 {object} models.TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/ [post]
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var req models.CreateTransactionRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	tx, err := h.transactionService.Create(r.Context(), actor, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "transaction")
		return
	}

	h.RespondJSON(w, http.StatusCreated, tx)
}

// Get handles GET /transactions/{id}
// @Summary Get transaction
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} models.TransactionResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	id, err := parseID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.transactionService.GetByID(r.Context(), actor, id)
	if err != nil {
		h.RespondServiceError(w, r, err, "transaction")
		return
	}

	h.RespondJSON(w, http.StatusOK, tx)
}

// Update handles PUT /transactions/{id}
// @Summary Update transaction
// @Description Partial update: only the supplied fields are changed. The owner cannot be changed.
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path int true "Transaction ID"
// @Param request body models.UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} models.TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/{id} [put]
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	id, err := parseID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateTransactionRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	tx, err := h.transactionService.Update(r.Context(), actor, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "transaction")
		return
	}

	h.RespondJSON(w, http.StatusOK, tx)
}

// Delete handles DELETE /transactions/{id}
// @Summary Delete transaction
// @Tags transactions
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	id, err := parseID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.transactionService.Delete(r.Context(), actor, id); err != nil {
		h.RespondServiceError(w, r, err, "transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
