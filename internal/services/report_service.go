package services

import (
	"context"

	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/policy"
	"github.com/financialmanagement/backend/internal/reports"
	"go.uber.org/zap"
)

// ReportRepository is the interface that wraps the aggregate queries over the transactions table
type ReportRepository interface {
	// Method TotalsByType sums and counts the whole ledger per transaction type.
	//
	// Types without transactions are absent from the result.
	TotalsByType(ctx context.Context) ([]models.TypeTotal, error)
	// Method MonthlyTotals sums the whole ledger per calendar month and transaction type.
	//
	// If some error occurs during aggregation, the error will be returned together with "nil" value.
	MonthlyTotals(ctx context.Context) ([]models.MonthlyTypeTotal, error)
	// Method DepositsByUser retrieves every deposit credited to a user, newest first.
	//
	// "userID" parameter is the owner of the deposits.
	//
	// A user without deposits gives an empty slice.
	DepositsByUser(ctx context.Context, userID int) ([]models.Transaction, error)
}

// UserLookup finds a single user by ID
type UserLookup interface {
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// reportService implements the reporting engine.
// Reports are recomputed from the ledger on every call.
type reportService struct {
	repo       ReportRepository
	users      UserLookup
	visibility policy.Visibility
	logger     *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(repo ReportRepository, users UserLookup, visibility policy.Visibility, logger *zap.Logger) *reportService {
	return &reportService{
		repo:       repo,
		users:      users,
		visibility: visibility,
		logger:     logger,
	}
}

// FinancialSummary returns organisation wide totals and the monthly breakdown
func (s *reportService) FinancialSummary(ctx context.Context, actor *models.User) (*models.FinancialSummary, error) {
	if err := policy.Require(policy.CanViewSummary(s.visibility, actor.Role)); err != nil {
		return nil, err
	}

	totals, err := s.repo.TotalsByType(ctx)
	if err != nil {
		return nil, err
	}

	monthly, err := s.repo.MonthlyTotals(ctx)
	if err != nil {
		return nil, err
	}

	summary := reports.Summarize(totals, monthly)
	return &summary, nil
}

// UserDepositReport returns the deposits credited to userID.
// The permission check runs before the user lookup, so a missing user is only reported to callers allowed to see it.
func (s *reportService) UserDepositReport(ctx context.Context, actor *models.User, userID int) (*models.UserDepositReport, error) {
	if err := policy.Require(policy.CanViewReport(s.visibility, actor.Role, actor.ID, userID)); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	deposits, err := s.repo.DepositsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := reports.DepositReport(userID, deposits)
	report.UserName = user.Name
	return &report, nil
}
