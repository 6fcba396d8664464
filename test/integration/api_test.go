package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/financialmanagement/backend/internal/auth/middleware"
	"github.com/financialmanagement/backend/internal/auth/service"
	"github.com/financialmanagement/backend/internal/config"
	"github.com/financialmanagement/backend/internal/database"
	"github.com/financialmanagement/backend/internal/handlers"
	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/repositories"
	"github.com/financialmanagement/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDB     *sql.DB
	testCfg    *config.Config
	testLogger *zap.Logger
)

const (
	adminUsername = "root_admin"
	adminPassword = "admin-secret"
)

// TestMain connects to the test database and applies the migrations.
// Without TEST_DB_* variables every test is skipped.
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, ok, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	testCfg = cfg

	if ok {
		testDB, err = database.Connect(context.Background(), cfg.DSN())
		if err != nil {
			panic(fmt.Sprintf("Failed to connect to test database: %v", err))
		}
		if err := database.RunMigrations(testDB); err != nil {
			panic(fmt.Sprintf("Failed to run migrations: %v", err))
		}
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if testDB == nil {
		t.Skip("TEST_DB_* not configured")
	}
}

// resetDatabase empties both tables and seeds the bootstrap administrator
func resetDatabase(t *testing.T, users services.UserRepository) {
	t.Helper()
	for _, stmt := range []string{"DELETE FROM transactions", "DELETE FROM users", "ALTER TABLE transactions AUTO_INCREMENT = 1", "ALTER TABLE users AUTO_INCREMENT = 1"} {
		_, err := testDB.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	created, err := services.NewUserService(users, testLogger).EnsureAdmin(context.Background(), &models.CreateUserRequest{
		Name:     "Administrator",
		Username: adminUsername,
		Email:    "admin@example.com",
		Password: adminPassword,
	})
	require.NoError(t, err)
	require.True(t, created)
}

// setupTestRouter creates a router with every handler backed by the test database
func setupTestRouter(t *testing.T) chi.Router {
	t.Helper()
	tokens := service.NewTokenGenerator(testCfg.JWT.Secret, testCfg.JWT.AccessTokenExpiry, testCfg.JWT.RefreshTokenExpiry)

	userRepo := repositories.NewUserRepository(testDB, testLogger)
	transactionRepo := repositories.NewTransactionRepository(testDB, testLogger)
	resetDatabase(t, userRepo)

	userService := services.NewUserService(userRepo, testLogger)
	authMiddleware := middleware.AuthMiddleware(tokens, userRepo, testLogger)

	r := chi.NewRouter()
	handlers.NewHealthHandler(testDB, testLogger).RegisterRoutes(r)
	handlers.NewAuthHandler(services.NewAuthService(userRepo, userService, tokens, testLogger), testLogger).RegisterRoutes(r, authMiddleware)
	handlers.NewUserHandler(userService, testLogger).RegisterRoutes(r, authMiddleware)
	handlers.NewTransactionHandler(services.NewTransactionService(transactionRepo, userRepo, testCfg.Visibility, testLogger), testLogger).RegisterRoutes(r, authMiddleware)
	handlers.NewReportHandler(services.NewReportService(transactionRepo, userRepo, testCfg.Visibility, testLogger), testLogger).RegisterRoutes(r, authMiddleware)
	return r
}

func call(t *testing.T, r http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func login(t *testing.T, r http.Handler, username, password string) models.TokenResponse {
	t.Helper()
	w := call(t, r, http.MethodPost, "/auth/login", "", models.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.TokenResponse](t, w)
}

func register(t *testing.T, r http.Handler, adminToken, username string, role models.Role) models.UserResponse {
	t.Helper()
	w := call(t, r, http.MethodPost, "/auth/register", adminToken, models.CreateUserRequest{
		Name:     "User " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.UserResponse](t, w)
}

func TestIntegration_Health(t *testing.T) {
	requireDB(t)
	r := setupTestRouter(t)

	w := call(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestIntegration_AuthFlow(t *testing.T) {
	requireDB(t)
	r := setupTestRouter(t)

	admin := login(t, r, adminUsername, adminPassword)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "bearer", admin.TokenType)

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		wrong := call(t, r, http.MethodPost, "/auth/login", "", models.LoginRequest{Username: adminUsername, Password: "nope"})
		unknown := call(t, r, http.MethodPost, "/auth/login", "", models.LoginRequest{Username: "ghost", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})

	t.Run("refresh", func(t *testing.T) {
		w := call(t, r, http.MethodPost, "/auth/refresh", admin.RefreshToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode[models.TokenResponse](t, w).AccessToken)

		w = call(t, r, http.MethodPost, "/auth/refresh", admin.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("registration is admin only", func(t *testing.T) {
		register(t, r, admin.AccessToken, "carol", models.RoleUser)
		carol := login(t, r, "carol", "secret1")

		w := call(t, r, http.MethodPost, "/auth/register", carol.AccessToken, models.CreateUserRequest{
			Name: "Mallory", Username: "mallory", Email: "mallory@example.com", Password: "secret1",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := call(t, r, http.MethodPost, "/auth/register", admin.AccessToken, models.CreateUserRequest{
			Name: "Other", Username: "carol", Email: "other@example.com", Password: "secret1",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "username already exists")
	})

	t.Run("usernames and emails are case sensitive", func(t *testing.T) {
		register(t, r, admin.AccessToken, "casey", models.RoleUser)
		upper := register(t, r, admin.AccessToken, "Casey", models.RoleUser)
		assert.Equal(t, "Casey", upper.Username)
		assert.Equal(t, "Casey@example.com", upper.Email)

		assert.Equal(t, "casey", decode[models.UserResponse](t, call(t, r, http.MethodGet, "/auth/me", login(t, r, "casey", "secret1").AccessToken, nil)).Username)
		assert.Equal(t, "Casey", decode[models.UserResponse](t, call(t, r, http.MethodGet, "/auth/me", login(t, r, "Casey", "secret1").AccessToken, nil)).Username)

		w := call(t, r, http.MethodPost, "/auth/login", "", models.LoginRequest{Username: "CASEY", Password: "secret1"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deleted user loses access", func(t *testing.T) {
		dave := register(t, r, admin.AccessToken, "dave", models.RoleUser)
		daveTokens := login(t, r, "dave", "secret1")

		w := call(t, r, http.MethodDelete, fmt.Sprintf("/users/%d", dave.ID), admin.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = call(t, r, http.MethodGet, "/auth/me", daveTokens.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		w = call(t, r, http.MethodPost, "/auth/refresh", daveTokens.RefreshToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestIntegration_LedgerAndReports(t *testing.T) {
	requireDB(t)
	r := setupTestRouter(t)

	admin := login(t, r, adminUsername, adminPassword)
	accountant := register(t, r, admin.AccessToken, "acct", models.RoleAccountant)
	member := register(t, r, admin.AccessToken, "member", models.RoleUser)
	acctTokens := login(t, r, "acct", "secret1")
	memberTokens := login(t, r, "member", "secret1")

	// accountant credits a deposit to the member and books an expense
	w := call(t, r, http.MethodPost, "/transactions/", acctTokens.AccessToken, map[string]any{
		"type": "deposit", "amount": "150.00", "description": "salary", "user_id": member.ID, "date": "2024-01-15T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	deposit := decode[models.TransactionResponse](t, w)
	assert.Equal(t, member.ID, deposit.UserID)
	assert.Equal(t, "User member", deposit.UserName)

	w = call(t, r, http.MethodPost, "/transactions/", acctTokens.AccessToken, map[string]any{
		"type": "expense", "amount": "30.00", "description": "office", "user_id": member.ID, "date": "2024-01-20T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	expense := decode[models.TransactionResponse](t, w)
	assert.Equal(t, accountant.ID, expense.UserID)

	t.Run("plain users cannot record", func(t *testing.T) {
		w := call(t, r, http.MethodPost, "/transactions/", memberTokens.AccessToken, map[string]any{"type": "deposit", "amount": "1"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("invalid owner", func(t *testing.T) {
		w := call(t, r, http.MethodPost, "/transactions/", acctTokens.AccessToken, map[string]any{"type": "deposit", "amount": "1", "user_id": 99999})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("restricted listing", func(t *testing.T) {
		w := call(t, r, http.MethodGet, "/transactions/", memberTokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		txs := decode[[]models.TransactionResponse](t, w)
		require.Len(t, txs, 1)
		assert.Equal(t, deposit.ID, txs[0].ID)

		w = call(t, r, http.MethodGet, "/transactions/", acctTokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		txs = decode[[]models.TransactionResponse](t, w)
		require.Len(t, txs, 2)
		assert.Equal(t, expense.ID, txs[0].ID, "newest first")

		w = call(t, r, http.MethodGet, fmt.Sprintf("/transactions/%d", expense.ID), memberTokens.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("summary", func(t *testing.T) {
		w := call(t, r, http.MethodGet, "/reports/summary", memberTokens.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = call(t, r, http.MethodGet, "/reports/summary", admin.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		summary := decode[models.FinancialSummary](t, w)
		assert.True(t, decimal.NewFromInt(150).Equal(summary.TotalDeposits))
		assert.True(t, decimal.NewFromInt(30).Equal(summary.TotalExpenses))
		assert.True(t, decimal.NewFromInt(120).Equal(summary.Balance))
		assert.Equal(t, 1, summary.DepositCount)
		assert.Equal(t, 1, summary.ExpenseCount)
		assert.Equal(t, []string{"2024-01"}, summary.MonthlyOrder)
	})

	t.Run("user report", func(t *testing.T) {
		w := call(t, r, http.MethodGet, fmt.Sprintf("/reports/user/%d", member.ID), memberTokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		report := decode[models.UserDepositReport](t, w)
		assert.Equal(t, 1, report.DepositCount)
		assert.True(t, decimal.NewFromInt(150).Equal(report.TotalDeposits))

		w = call(t, r, http.MethodGet, fmt.Sprintf("/reports/user/%d", accountant.ID), memberTokens.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = call(t, r, http.MethodGet, "/reports/user/99999", admin.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update and delete", func(t *testing.T) {
		w := call(t, r, http.MethodPut, fmt.Sprintf("/transactions/%d", deposit.ID), acctTokens.AccessToken, map[string]any{"amount": "175.50"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[models.TransactionResponse](t, w)
		assert.True(t, decimal.RequireFromString("175.50").Equal(updated.Amount))
		assert.Equal(t, "salary", updated.Description)

		w = call(t, r, http.MethodDelete, fmt.Sprintf("/transactions/%d", deposit.ID), memberTokens.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = call(t, r, http.MethodDelete, fmt.Sprintf("/transactions/%d", deposit.ID), acctTokens.AccessToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = call(t, r, http.MethodGet, fmt.Sprintf("/transactions/%d", deposit.ID), acctTokens.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
