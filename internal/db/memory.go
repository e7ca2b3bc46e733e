package db

import (
	"context"
	"sync"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps accounts and reset requests in process memory with the same
// semantics as MongoStore. Used with DB_DRIVER=memory and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[models.AccountType]map[primitive.ObjectID]*models.Account
	resets   map[primitive.ObjectID]*models.PasswordResetRequest
	slots    map[string]time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	accounts := make(map[models.AccountType]map[primitive.ObjectID]*models.Account, len(models.AllAccountTypes))
	for _, t := range models.AllAccountTypes {
		accounts[t] = make(map[primitive.ObjectID]*models.Account)
	}
	return &MemoryStore{
		accounts: accounts,
		resets:   make(map[primitive.ObjectID]*models.PasswordResetRequest),
		slots:    make(map[string]time.Time),
	}
}

func (m *MemoryStore) CreateAccount(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.accounts[account.AccountType]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range coll {
		if existing.Email == account.Email {
			return ErrDuplicate
		}
	}

	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	stored := *account
	coll[stored.ID] = &stored
	return nil
}

func (m *MemoryStore) FindAccountByEmail(_ context.Context, t models.AccountType, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts[t] {
		if a.Email == email {
			found := *a
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindAccountByID(_ context.Context, t models.AccountType, id string) (*models.Account, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[t][objID]
	if !ok {
		return nil, ErrNotFound
	}
	found := *a
	return &found, nil
}

func (m *MemoryStore) UpdatePassword(_ context.Context, t models.AccountType, id primitive.ObjectID, hash string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[t][id]
	if !ok {
		return false, nil
	}
	a.Password = hash
	a.UpdatedAt = now
	return true, nil
}

func (m *MemoryStore) SetProfileImage(_ context.Context, t models.AccountType, id primitive.ObjectID, key string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[t][id]
	if !ok {
		return "", ErrNotFound
	}
	previous := a.ProfileImageKey
	a.ProfileImageKey = key
	a.UpdatedAt = now
	return previous, nil
}

// DeleteAccount exists for tests that need an account to vanish mid-flow.
func (m *MemoryStore) DeleteAccount(t models.AccountType, id primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts[t], id)
}

func (m *MemoryStore) ReserveResetSlot(_ context.Context, email string, now time.Time, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if until, ok := m.slots[email]; ok && until.After(now) {
		return false, nil
	}
	m.slots[email] = now.Add(window)
	return true, nil
}

func (m *MemoryStore) ReleaseResetSlot(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, email)
	return nil
}

func (m *MemoryStore) CreateResetRequest(_ context.Context, req *models.PasswordResetRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.resets {
		if r.TokenHash == req.TokenHash {
			return ErrDuplicate
		}
	}

	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	stored := *req
	m.resets[stored.ID] = &stored
	return nil
}

func (m *MemoryStore) FindActiveResetRequest(_ context.Context, tokenHash string, now time.Time) (*models.PasswordResetRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.resets {
		if r.TokenHash == tokenHash && r.Active(now) {
			found := *r
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ConsumeResetRequest(_ context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.resets[id]
	if !ok || r.UsedAt != nil {
		return false, nil
	}
	usedAt := now
	r.UsedAt = &usedAt
	return true, nil
}

// ReleaseResetRequest undoes a consume made at usedAt.
func (m *MemoryStore) ReleaseResetRequest(_ context.Context, id primitive.ObjectID, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.resets[id]; ok && r.UsedAt != nil && r.UsedAt.Equal(usedAt) {
		r.UsedAt = nil
	}
	return nil
}

// ResetRequests returns a snapshot of every stored reset request.
func (m *MemoryStore) ResetRequests() []models.PasswordResetRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.PasswordResetRequest, 0, len(m.resets))
	for _, r := range m.resets {
		out = append(out, *r)
	}
	return out
}
