package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/financialmanagement/backend/internal/models"
	"github.com/financialmanagement/backend/internal/policy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	adminActor      = &models.User{ID: 1, Name: "Admin", Role: models.RoleAdmin}
	accountantActor = &models.User{ID: 2, Name: "Acc", Role: models.RoleAccountant}
	plainActor      = &models.User{ID: 3, Name: "Bob", Role: models.RoleUser}
	otherActor      = &models.User{ID: 4, Name: "Eve", Role: models.RoleUser}
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ledgerFixture() []models.Transaction {
	return []models.Transaction{
		{ID: 1, Type: models.TransactionTypeDeposit, Amount: amount("100"), Description: "salary", Date: fixedNow.Add(-72 * time.Hour), UserID: 3},
		{ID: 2, Type: models.TransactionTypeDeposit, Amount: amount("50"), Description: "bonus", Date: fixedNow.Add(-48 * time.Hour), UserID: 3},
		{ID: 3, Type: models.TransactionTypeExpense, Amount: amount("30"), Description: "rent", Date: fixedNow.Add(-24 * time.Hour), UserID: 2},
		{ID: 4, Type: models.TransactionTypeDeposit, Amount: amount("10"), Description: "gift", Date: fixedNow.Add(-24 * time.Hour), UserID: 99},
	}
}

func newTransactionFixture(t *testing.T, visibility policy.Visibility) (*transactionService, *mockTransactionRepository, *mockUserRepository) {
	t.Helper()
	users := newMockUserRepository(adminActor, accountantActor, plainActor, otherActor)
	repo := newMockTransactionRepository(ledgerFixture()...)
	svc := NewTransactionService(repo, users, visibility, zaptest.NewLogger(t))
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, users
}

func TestTransactionService_Create(t *testing.T) {
	explicitDate := time.Date(2024, 1, 15, 9, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))

	tests := []struct {
		name          string
		actor         *models.User
		req           *models.CreateTransactionRequest
		expectedError error
		expectedOwner int
		expectedDate  time.Time
	}{
		{
			name:          "deposit for another user",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeDeposit, Amount: amount("100"), Description: "salary", UserID: ptr(3)},
			expectedOwner: 3,
			expectedDate:  fixedNow,
		},
		{
			name:          "deposit without owner defaults to actor",
			actor:         accountantActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeDeposit, Amount: amount("5.5"), Description: "petty cash"},
			expectedOwner: 2,
			expectedDate:  fixedNow,
		},
		{
			name:          "expense ignores requested owner",
			actor:         accountantActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeExpense, Amount: amount("30"), Description: "rent", UserID: ptr(3)},
			expectedOwner: 2,
			expectedDate:  fixedNow,
		},
		{
			name:          "explicit date is stored in UTC",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeExpense, Amount: amount("1"), Description: "coffee", Date: &explicitDate},
			expectedOwner: 1,
			expectedDate:  explicitDate.UTC(),
		},
		{
			name:          "plain user is forbidden",
			actor:         plainActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeDeposit, Amount: amount("100"), Description: "salary"},
			expectedError: models.ErrForbidden,
		},
		{
			name:          "unknown owner",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeDeposit, Amount: amount("100"), Description: "salary", UserID: ptr(404)},
			expectedError: models.ErrInvalidOwner,
		},
		{
			name:          "zero amount",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeDeposit, Amount: decimal.Zero, Description: "nothing"},
			expectedError: models.ErrValidation,
		},
		{
			name:          "negative amount",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeExpense, Amount: amount("-1"), Description: "refund"},
			expectedError: models.ErrValidation,
		},
		{
			name:          "too many decimal places",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeExpense, Amount: amount("1.005"), Description: "fee"},
			expectedError: models.ErrValidation,
		},
		{
			name:          "amount too large",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeExpense, Amount: amount("10000000000000"), Description: "fee"},
			expectedError: models.ErrValidation,
		},
		{
			name:          "unknown type",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: "transfer", Amount: amount("1"), Description: "move"},
			expectedError: models.ErrValidation,
		},
		{
			name:          "blank description",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeExpense, Amount: amount("1"), Description: "   "},
			expectedError: models.ErrValidation,
		},
		{
			name:          "description too long",
			actor:         adminActor,
			req:           &models.CreateTransactionRequest{Type: models.TransactionTypeExpense, Amount: amount("1"), Description: strings.Repeat("x", 501)},
			expectedError: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTransactionFixture(t, policy.VisibilityRestricted)
			before := len(repo.txs)

			resp, err := svc.Create(context.Background(), tt.actor, tt.req)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
				assert.Len(t, repo.txs, before)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 5, resp.ID)
			assert.Equal(t, tt.expectedOwner, resp.UserID)
			assert.True(t, tt.req.Amount.Equal(resp.Amount))
			assert.True(t, tt.expectedDate.Equal(resp.Date))
			assert.Equal(t, time.UTC, resp.Date.Location())
			assert.NotEqual(t, UnknownUserName, resp.UserName)
			assert.Len(t, repo.txs, before+1)
		})
	}
}

func TestTransactionService_GetByID(t *testing.T) {
	tests := []struct {
		name          string
		visibility    policy.Visibility
		actor         *models.User
		id            int
		expectedError error
		expectedName  string
	}{
		{name: "owner reads own", visibility: policy.VisibilityRestricted, actor: plainActor, id: 1, expectedName: "Bob"},
		{name: "accountant reads any", visibility: policy.VisibilityRestricted, actor: accountantActor, id: 1, expectedName: "Bob"},
		{name: "other user forbidden", visibility: policy.VisibilityRestricted, actor: otherActor, id: 1, expectedError: models.ErrForbidden},
		{name: "other user allowed when transparent", visibility: policy.VisibilityTransparent, actor: otherActor, id: 1, expectedName: "Bob"},
		{name: "deleted owner shows unknown", visibility: policy.VisibilityRestricted, actor: adminActor, id: 4, expectedName: UnknownUserName},
		{name: "missing", visibility: policy.VisibilityRestricted, actor: adminActor, id: 404, expectedError: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTransactionFixture(t, tt.visibility)

			resp, err := svc.GetByID(context.Background(), tt.actor, tt.id)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.id, resp.ID)
			assert.Equal(t, tt.expectedName, resp.UserName)
		})
	}
}

func TestTransactionService_List(t *testing.T) {
	tests := []struct {
		name          string
		visibility    policy.Visibility
		actor         *models.User
		skip          int
		limit         int
		expectedIDs   []int
		expectOwner   bool
		expectedError error
	}{
		{name: "admin sees all newest first", visibility: policy.VisibilityRestricted, actor: adminActor, limit: 100, expectedIDs: []int{4, 3, 2, 1}},
		{name: "plain user sees own", visibility: policy.VisibilityRestricted, actor: plainActor, limit: 100, expectedIDs: []int{2, 1}, expectOwner: true},
		{name: "user without transactions", visibility: policy.VisibilityRestricted, actor: otherActor, limit: 100, expectedIDs: []int{}, expectOwner: true},
		{name: "transparent user sees all", visibility: policy.VisibilityTransparent, actor: otherActor, limit: 100, expectedIDs: []int{4, 3, 2, 1}},
		{name: "pagination", visibility: policy.VisibilityRestricted, actor: adminActor, skip: 1, limit: 2, expectedIDs: []int{3, 2}},
		{name: "invalid limit", visibility: policy.VisibilityRestricted, actor: adminActor, limit: 500, expectedError: models.ErrValidation},
		{name: "unknown role", visibility: policy.VisibilityTransparent, actor: &models.User{ID: 9, Role: "ghost"}, limit: 10, expectedError: models.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTransactionFixture(t, tt.visibility)

			txs, err := svc.List(context.Background(), tt.actor, tt.skip, tt.limit)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, 0, repo.listCalls)
				return
			}

			require.NoError(t, err)
			ids := []int{}
			for _, tx := range txs {
				ids = append(ids, tx.ID)
				if tt.expectOwner {
					assert.Equal(t, tt.actor.ID, tx.UserID)
				}
			}
			assert.Equal(t, tt.expectedIDs, ids)
			if tt.expectOwner {
				require.NotNil(t, repo.lastOwner)
				assert.Equal(t, tt.actor.ID, *repo.lastOwner)
			} else {
				assert.Nil(t, repo.lastOwner)
			}
		})
	}

	t.Run("names resolved in one lookup", func(t *testing.T) {
		svc, _, _ := newTransactionFixture(t, policy.VisibilityRestricted)

		txs, err := svc.List(context.Background(), adminActor, 0, 100)
		require.NoError(t, err)
		names := map[int]string{}
		for _, tx := range txs {
			names[tx.ID] = tx.UserName
		}
		assert.Equal(t, map[int]string{1: "Bob", 2: "Bob", 3: "Acc", 4: UnknownUserName}, names)
	})
}

func TestTransactionService_Update(t *testing.T) {
	newDate := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		actor         *models.User
		id            int
		req           *models.UpdateTransactionRequest
		expectedError error
		expectLookup  bool
		check         func(t *testing.T, resp *models.TransactionResponse)
	}{
		{
			name:         "amount",
			actor:        accountantActor,
			id:           1,
			req:          &models.UpdateTransactionRequest{Amount: ptr(amount("120.25"))},
			expectLookup: true,
			check: func(t *testing.T, resp *models.TransactionResponse) {
				assert.True(t, amount("120.25").Equal(resp.Amount))
				assert.Equal(t, "salary", resp.Description)
			},
		},
		{
			name:         "type description and date",
			actor:        adminActor,
			id:           1,
			req:          &models.UpdateTransactionRequest{Type: ptr(models.TransactionTypeExpense), Description: ptr(" corrected "), Date: &newDate},
			expectLookup: true,
			check: func(t *testing.T, resp *models.TransactionResponse) {
				assert.Equal(t, models.TransactionTypeExpense, resp.Type)
				assert.Equal(t, "corrected", resp.Description)
				assert.True(t, newDate.Equal(resp.Date))
				assert.Equal(t, 3, resp.UserID)
			},
		},
		{
			name:         "empty update returns current",
			actor:        adminActor,
			id:           1,
			req:          &models.UpdateTransactionRequest{},
			expectLookup: true,
			check: func(t *testing.T, resp *models.TransactionResponse) {
				assert.True(t, amount("100").Equal(resp.Amount))
			},
		},
		{name: "plain user forbidden before lookup", actor: plainActor, id: 1, req: &models.UpdateTransactionRequest{Amount: ptr(amount("1"))}, expectedError: models.ErrForbidden},
		{name: "forbidden even when missing", actor: plainActor, id: 404, req: &models.UpdateTransactionRequest{Amount: ptr(amount("1"))}, expectedError: models.ErrForbidden},
		{name: "invalid amount", actor: adminActor, id: 1, req: &models.UpdateTransactionRequest{Amount: ptr(amount("0"))}, expectedError: models.ErrValidation},
		{name: "invalid type", actor: adminActor, id: 1, req: &models.UpdateTransactionRequest{Type: ptr(models.TransactionType("loan"))}, expectedError: models.ErrValidation},
		{name: "missing", actor: adminActor, id: 404, req: &models.UpdateTransactionRequest{Amount: ptr(amount("1"))}, expectedError: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTransactionFixture(t, policy.VisibilityRestricted)

			resp, err := svc.Update(context.Background(), tt.actor, tt.id, tt.req)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
				if errors.Is(tt.expectedError, models.ErrForbidden) {
					assert.Equal(t, 0, repo.getCalls)
					assert.Equal(t, 0, repo.updateCalls)
				}
				return
			}

			require.NoError(t, err)
			if tt.expectLookup {
				assert.Equal(t, 1, repo.getCalls)
			}
			tt.check(t, resp)
		})
	}
}

func TestTransactionService_Delete(t *testing.T) {
	tests := []struct {
		name          string
		actor         *models.User
		id            int
		expectedError error
		expectDelete  bool
	}{
		{name: "admin deletes", actor: adminActor, id: 3, expectDelete: true},
		{name: "accountant deletes", actor: accountantActor, id: 1, expectDelete: true},
		{name: "plain user forbidden", actor: plainActor, id: 1, expectedError: models.ErrForbidden},
		{name: "plain user forbidden on missing id", actor: plainActor, id: 404, expectedError: models.ErrForbidden},
		{name: "missing", actor: adminActor, id: 404, expectedError: models.ErrNotFound, expectDelete: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTransactionFixture(t, policy.VisibilityRestricted)

			err := svc.Delete(context.Background(), tt.actor, tt.id)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				_, ok := repo.txs[tt.id]
				assert.False(t, ok)
			}
			if tt.expectDelete {
				assert.Equal(t, 1, repo.deleteCalls)
			} else {
				assert.Equal(t, 0, repo.deleteCalls)
			}
		})
	}
}
