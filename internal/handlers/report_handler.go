package handlers

import (
	"context"
	"net/http"

	"github.com/financialmanagement/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportService is the interface that wraps the reporting operations.
type ReportService interface {
	// Method FinancialSummary returns organisation wide totals and the monthly breakdown.
	//
	// If the caller may not see the summary, models.ErrForbidden will be returned.
	FinancialSummary(ctx context.Context, actor *models.User) (*models.FinancialSummary, error)
	// Method UserDepositReport returns the deposits credited to a user.
	//
	// "userID" parameter is the user the report is about.
	//
	// If the caller may not see the report, models.ErrForbidden will be returned.
	// If the user does not exist, an error wrapping models.ErrNotFound will be returned.
	UserDepositReport(ctx context.Context, actor *models.User, userID int) (*models.UserDepositReport, error)
}

// ReportHandler handles reporting requests
type ReportHandler struct {
	BaseHandler
	reportService ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		reportService: reportService,
	}
}

// RegisterRoutes registers the report routes behind authentication
func (h *ReportHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/summary", h.Summary)
		r.Get("/user/{id}", h.UserReport)
	})
}

// Summary handles GET /reports/summary
// @Summary Financial summary
// @Description Totals, counts, balance and a per month breakdown keyed "YYYY-MM". monthly_breakdown_order lists the keys newest first.
// @Tags reports
// @Produce json
// @Success 200 {object} models.FinancialSummary
// @Failure 403 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	summary, err := h.reportService.FinancialSummary(r.Context(), actor)
	if err != nil {
		h.RespondServiceError(w, r, err, "report")
		return
	}

	h.RespondJSON(w, http.StatusOK, summary)
}

// UserReport handles GET /reports/user/{id}
// @Summary User deposit report
// @Tags reports
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserDepositReport
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /reports/user/{id} [get]
func (h *ReportHandler) UserReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	userID, err := parseID(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.reportService.UserDepositReport(r.Context(), actor, userID)
	if err != nil {
		h.RespondServiceError(w, r, err, "user")
		return
	}

	h.RespondJSON(w, http.StatusOK, report)
}
