package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/financialmanagement/backend/internal/models"
	"go.uber.org/zap"
)

const transactionColumns = `id, type, amount, description, date, user_id`

// transactionRepository implements the ledger store on top of MySQL
type transactionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, logger *zap.Logger) *transactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := row.Scan(
		&tx.ID,
		&tx.Type,
		&tx.Amount,
		&tx.Description,
		&tx.Date,
		&tx.UserID,
	)
	if err != nil {
		return nil, err
	}
	tx.Date = tx.Date.UTC()
	return tx, nil
}

func (r *transactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query transactions", zap.Error(err))
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("failed to scan transaction", zap.Error(err))
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return transactions, nil
}

// Create inserts a new transaction and sets its ID
func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (type, amount, description, date, user_id)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, tx.Type, tx.Amount, tx.Description, tx.Date.UTC(), tx.UserID)
	if err != nil {
		r.logger.Error("failed to create transaction", zap.Error(err))
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	tx.ID = int(id)
	return nil
}

// GetByID retrieves a transaction by ID
func (r *transactionRepository) GetByID(ctx context.Context, id int) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get transaction by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to get transaction by id: %w", err)
	}

	return tx, nil
}

// List retrieves a page of transactions, newest first.
// When ownerID is not nil only the transactions of that user are returned.
func (r *transactionRepository) List(ctx context.Context, ownerID *int, skip, limit int) ([]models.Transaction, error) {
	var where string
	var args []any
	if ownerID != nil {
		where = "WHERE user_id = ?"
		args = append(args, *ownerID)
	}
	args = append(args, limit, skip)

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		%s
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`, transactionColumns, where)

	return r.queryTransactions(ctx, query, args...)
}

// Update applies the non-nil fields of patch to the transaction with the given ID
func (r *transactionRepository) Update(ctx context.Context, id int, patch *models.UpdateTransactionRequest) error {
	var setParts []string
	var args []any

	if patch.Type != nil {
		setParts = append(setParts, "type = ?")
		args = append(args, *patch.Type)
	}
	if patch.Amount != nil {
		setParts = append(setParts, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Date != nil {
		setParts = append(setParts, "date = ?")
		args = append(args, patch.Date.UTC())
	}

	if len(setParts) == 0 {
		return fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}

	query := fmt.Sprintf(`
		UPDATE transactions
		SET %s
		WHERE id = ?
	`, strings.Join(setParts, ", "))

	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update transaction", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}

	return nil
}

// Delete deletes a transaction by ID
func (r *transactionRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM transactions WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to delete transaction", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}

	return nil
}

// TotalsByType sums and counts the whole ledger per transaction type
func (r *transactionRepository) TotalsByType(ctx context.Context) ([]models.TypeTotal, error) {
	query := `
		SELECT type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
		FROM transactions
		GROUP BY type
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to aggregate totals by type", zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate totals by type: %w", err)
	}
	defer rows.Close()

	var totals []models.TypeTotal
	for rows.Next() {
		var row models.TypeTotal
		if err := rows.Scan(&row.Type, &row.Total, &row.Count); err != nil {
			r.logger.Error("failed to scan type total", zap.Error(err))
			return nil, fmt.Errorf("failed to scan type total: %w", err)
		}
		totals = append(totals, row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return totals, nil
}

// MonthlyTotals sums the whole ledger per calendar month and transaction type
func (r *transactionRepository) MonthlyTotals(ctx context.Context) ([]models.MonthlyTypeTotal, error) {
	query := `
		SELECT YEAR(date) AS year, MONTH(date) AS month, type, COALESCE(SUM(amount), 0) AS total
		FROM transactions
		GROUP BY YEAR(date), MONTH(date), type
		ORDER BY year DESC, month DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to aggregate monthly totals", zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate monthly totals: %w", err)
	}
	defer rows.Close()

	var totals []models.MonthlyTypeTotal
	for rows.Next() {
		var row models.MonthlyTypeTotal
		if err := rows.Scan(&row.Year, &row.Month, &row.Type, &row.Total); err != nil {
			r.logger.Error("failed to scan monthly total", zap.Error(err))
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		totals = append(totals, row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return totals, nil
}

// DepositsByUser retrieves every deposit credited to userID, newest first
func (r *transactionRepository) DepositsByUser(ctx context.Context, userID int) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE type = ? AND user_id = ?
		ORDER BY date DESC, id DESC
	`

	return r.queryTransactions(ctx, query, models.TransactionTypeDeposit, userID)
}
