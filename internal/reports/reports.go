// Package reports folds grouped ledger rows into the report shapes served by the API.
// The functions are pure: the store does the grouping and this package only assembles the result.
package reports

import (
	"fmt"
	"sort"

	"github.com/financialmanagement/backend/internal/models"
	"github.com/shopspring/decimal"
)

// MonthKey formats a year and month as the "YYYY-MM" key used by the monthly breakdown
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Summarize builds the organisation wide summary from per type totals and per month totals.
// Types missing from totals count as zero. Every month present in monthly gets both deposit and
// expense entries, and MonthlyOrder lists the months newest first.
func Summarize(totals []models.TypeTotal, monthly []models.MonthlyTypeTotal) models.FinancialSummary {
	summary := models.FinancialSummary{
		TotalDeposits:    decimal.Zero,
		TotalExpenses:    decimal.Zero,
		MonthlyBreakdown: make(map[string]models.MonthlyTotals),
		MonthlyOrder:     []string{},
	}

	for _, row := range totals {
		switch row.Type {
		case models.TransactionTypeDeposit:
			summary.TotalDeposits = summary.TotalDeposits.Add(row.Total)
			summary.DepositCount += row.Count
		case models.TransactionTypeExpense:
			summary.TotalExpenses = summary.TotalExpenses.Add(row.Total)
			summary.ExpenseCount += row.Count
		}
	}
	summary.Balance = summary.TotalDeposits.Sub(summary.TotalExpenses)

	type yearMonth struct{ year, month int }
	var months []yearMonth

	for _, row := range monthly {
		key := MonthKey(row.Year, row.Month)
		entry, ok := summary.MonthlyBreakdown[key]
		if !ok {
			entry = models.MonthlyTotals{Deposits: decimal.Zero, Expenses: decimal.Zero}
			months = append(months, yearMonth{row.Year, row.Month})
		}
		switch row.Type {
		case models.TransactionTypeDeposit:
			entry.Deposits = entry.Deposits.Add(row.Total)
		case models.TransactionTypeExpense:
			entry.Expenses = entry.Expenses.Add(row.Total)
		}
		summary.MonthlyBreakdown[key] = entry
	}

	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year > months[j].year
		}
		return months[i].month > months[j].month
	})
	for _, m := range months {
		summary.MonthlyOrder = append(summary.MonthlyOrder, MonthKey(m.year, m.month))
	}

	return summary
}

// DepositReport builds the deposit report of one user from their deposit transactions.
// Non deposit entries are ignored.
func DepositReport(userID int, deposits []models.Transaction) models.UserDepositReport {
	report := models.UserDepositReport{
		UserID:        userID,
		TotalDeposits: decimal.Zero,
		Transactions:  make([]models.Transaction, 0, len(deposits)),
	}

	for _, tx := range deposits {
		if tx.Type != models.TransactionTypeDeposit {
			continue
		}
		report.TotalDeposits = report.TotalDeposits.Add(tx.Amount)
		report.DepositCount++
		report.Transactions = append(report.Transactions, tx)
	}

	return report
}
