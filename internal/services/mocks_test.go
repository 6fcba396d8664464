package services

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/financialmanagement/backend/internal/models"
)

// mockUserRepository is an in-memory implementation of UserRepository and UserDirectory
type mockUserRepository struct {
	users  map[int]*models.User
	nextID int

	err         error
	existsErr   error
	updateCalls int
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[int]*models.User), nextID: 1}
	for _, u := range users {
		copied := *u
		m.users[u.ID] = &copied
		if u.ID >= m.nextID {
			m.nextID = u.ID + 1
		}
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.err != nil {
		return m.err
	}
	user.ID = m.nextID
	m.nextID++
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string, excludeID int) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, u := range m.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string, excludeID int) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	users := []models.User{}
	for i, id := range ids {
		if i < skip || len(users) >= limit {
			continue
		}
		users = append(users, *m.users[id])
	}
	return users, nil
}

func (m *mockUserRepository) NamesByIDs(ctx context.Context, ids []int) (map[int]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	names := make(map[int]string)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			names[id] = u.Name
		}
	}
	return names, nil
}

func (m *mockUserRepository) Update(ctx context.Context, id int, patch *models.UserPatch) error {
	m.updateCalls++
	if m.err != nil {
		return m.err
	}
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.users), nil
}

// mockTransactionRepository is an in-memory implementation of TransactionRepository and ReportRepository
type mockTransactionRepository struct {
	txs    map[int]*models.Transaction
	nextID int

	err         error
	lastOwner   *int
	listCalls   int
	getCalls    int
	updateCalls int
	deleteCalls int

	totals  []models.TypeTotal
	monthly []models.MonthlyTypeTotal
}

func newMockTransactionRepository(txs ...models.Transaction) *mockTransactionRepository {
	m := &mockTransactionRepository{txs: make(map[int]*models.Transaction), nextID: 1}
	for _, tx := range txs {
		copied := tx
		m.txs[tx.ID] = &copied
		if tx.ID >= m.nextID {
			m.nextID = tx.ID + 1
		}
	}
	return m
}

func (m *mockTransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if m.err != nil {
		return m.err
	}
	tx.ID = m.nextID
	m.nextID++
	copied := *tx
	m.txs[tx.ID] = &copied
	return nil
}

func (m *mockTransactionRepository) GetByID(ctx context.Context, id int) (*models.Transaction, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	tx, ok := m.txs[id]
	if !ok {
		return nil, fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	copied := *tx
	return &copied, nil
}

// sorted returns the stored transactions newest first
func (m *mockTransactionRepository) sorted() []models.Transaction {
	txs := make([]models.Transaction, 0, len(m.txs))
	for _, tx := range m.txs {
		txs = append(txs, *tx)
	}
	slices.SortFunc(txs, func(a, b models.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.ID - a.ID
	})
	return txs
}

func (m *mockTransactionRepository) List(ctx context.Context, ownerID *int, skip, limit int) ([]models.Transaction, error) {
	m.listCalls++
	m.lastOwner = ownerID
	if m.err != nil {
		return nil, m.err
	}
	result := []models.Transaction{}
	matched := 0
	for _, tx := range m.sorted() {
		if ownerID != nil && tx.UserID != *ownerID {
			continue
		}
		matched++
		if matched <= skip || len(result) >= limit {
			continue
		}
		result = append(result, tx)
	}
	return result, nil
}

func (m *mockTransactionRepository) Update(ctx context.Context, id int, patch *models.UpdateTransactionRequest) error {
	m.updateCalls++
	if m.err != nil {
		return m.err
	}
	tx, ok := m.txs[id]
	if !ok {
		return fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	return nil
}

func (m *mockTransactionRepository) Delete(ctx context.Context, id int) error {
	m.deleteCalls++
	if m.err != nil {
		return m.err
	}
	if _, ok := m.txs[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	delete(m.txs, id)
	return nil
}

func (m *mockTransactionRepository) TotalsByType(ctx context.Context) ([]models.TypeTotal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.totals, nil
}

func (m *mockTransactionRepository) MonthlyTotals(ctx context.Context) ([]models.MonthlyTypeTotal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.monthly, nil
}

func (m *mockTransactionRepository) DepositsByUser(ctx context.Context, userID int) ([]models.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := []models.Transaction{}
	for _, tx := range m.sorted() {
		if tx.UserID == userID && tx.Type == models.TransactionTypeDeposit {
			result = append(result, tx)
		}
	}
	return result, nil
}

// mockTokenIssuer is a mock implementation of TokenIssuer
type mockTokenIssuer struct {
	refreshUserID int
	refreshErr    error
	generateErr   error
	issuedFor     []int
}

func (m *mockTokenIssuer) GenerateTokens(userID int) (string, string, error) {
	if m.generateErr != nil {
		return "", "", m.generateErr
	}
	m.issuedFor = append(m.issuedFor, userID)
	return fmt.Sprintf("access-%d", userID), fmt.Sprintf("refresh-%d", userID), nil
}

func (m *mockTokenIssuer) ValidateRefreshToken(token string) (int, error) {
	if m.refreshErr != nil {
		return 0, m.refreshErr
	}
	return m.refreshUserID, nil
}
