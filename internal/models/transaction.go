package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts and totals are written as JSON numbers; strings and numbers are both accepted on input
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType is the kind of a ledger entry
type TransactionType string

// TransactionType constants
const (
	TransactionTypeDeposit TransactionType = "deposit"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether the transaction type is known
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeExpense:
		return true
	default:
		return false
	}
}

// Transaction represents a deposit or an expense
type Transaction struct {
	ID          int             `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	UserID      int             `json:"user_id"`
}

// TransactionResponse is a transaction enriched with its owner's name
type TransactionResponse struct {
	ID          int             `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	UserID      int             `json:"user_id"`
	UserName    string          `json:"user_name"`
}

// CreateTransactionRequest represents a request to record a transaction.
// UserID is only honoured for deposits; expenses always belong to their creator.
type CreateTransactionRequest struct {
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date,omitempty"`
	UserID      *int            `json:"user_id,omitempty"`
}

// UpdateTransactionRequest represents a partial update of a transaction.
// Nil fields are left unchanged.
type UpdateTransactionRequest struct {
	Type        *TransactionType `json:"type,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty" swaggertype:"number"`
	Description *string          `json:"description,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (r *UpdateTransactionRequest) IsEmpty() bool {
	return r.Type == nil && r.Amount == nil && r.Description == nil && r.Date == nil
}
