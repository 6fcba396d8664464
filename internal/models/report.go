package models

import "github.com/shopspring/decimal"

// TypeTotal is one row of the ledger grouped by transaction type
type TypeTotal struct {
	Type  TransactionType
	Total decimal.Decimal
	Count int
}

// MonthlyTypeTotal is one row of the ledger grouped by year, month and type
type MonthlyTypeTotal struct {
	Year  int
	Month int
	Type  TransactionType
	Total decimal.Decimal
}

// MonthlyTotals holds deposit and expense sub-totals for one month
type MonthlyTotals struct {
	Deposits decimal.Decimal `json:"deposits" swaggertype:"number"`
	Expenses decimal.Decimal `json:"expenses" swaggertype:"number"`
}

// FinancialSummary is the organisation wide report
type FinancialSummary struct {
	TotalDeposits    decimal.Decimal          `json:"total_deposits" swaggertype:"number"`
	TotalExpenses    decimal.Decimal          `json:"total_expenses" swaggertype:"number"`
	Balance          decimal.Decimal          `json:"balance" swaggertype:"number"`
	DepositCount     int                      `json:"deposit_count"`
	ExpenseCount     int                      `json:"expense_count"`
	MonthlyBreakdown map[string]MonthlyTotals `json:"monthly_breakdown"`
	// MonthlyOrder lists MonthlyBreakdown keys from the newest month to the oldest
	MonthlyOrder []string `json:"monthly_breakdown_order"`
}

// UserDepositReport summarises the deposits credited to one user
type UserDepositReport struct {
	UserID        int             `json:"user_id"`
	UserName      string          `json:"user_name,omitempty"`
	TotalDeposits decimal.Decimal `json:"total_deposits" swaggertype:"number"`
	DepositCount  int             `json:"deposit_count"`
	Transactions  []Transaction   `json:"transactions"`
}
