package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/db"
	"github.com/blackwealthexchange/bwe-auth/internal/logger"
	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return logger.Discard()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type welcomeMail struct {
	To          string
	Name        string
	AccountType models.AccountType
}

type resetMail struct {
	To   string
	Link string
}

// recordingMailer captures outgoing mail and can be told to fail.
type recordingMailer struct {
	mu         sync.Mutex
	welcomes   []welcomeMail
	resets     []resetMail
	welcomeErr error
	resetErr   error
}

func (m *recordingMailer) SendWelcome(_ context.Context, to, name string, t models.AccountType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.welcomeErr != nil {
		return m.welcomeErr
	}
	m.welcomes = append(m.welcomes, welcomeMail{To: to, Name: name, AccountType: t})
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resets = append(m.resets, resetMail{To: to, Link: link})
	return nil
}

func (m *recordingMailer) resetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resets)
}

// lastResetToken extracts the raw token from the most recent reset link.
func (m *recordingMailer) lastResetToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.resets, "no reset mail sent")

	link, err := url.Parse(m.resets[len(m.resets)-1].Link)
	require.NoError(t, err)
	return link.Query().Get("token")
}

// failingAccountStore wraps a MemoryStore and injects errors per method.
type failingAccountStore struct {
	*db.MemoryStore
	createErr error
	findErr   error
	updateErr error
}

func (f *failingAccountStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.MemoryStore.CreateAccount(ctx, a)
}

func (f *failingAccountStore) FindAccountByEmail(ctx context.Context, t models.AccountType, email string) (*models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.MemoryStore.FindAccountByEmail(ctx, t, email)
}

func (f *failingAccountStore) UpdatePassword(ctx context.Context, t models.AccountType, id primitive.ObjectID, hash string, now time.Time) (bool, error) {
	if f.updateErr != nil {
		return false, f.updateErr
	}
	return f.MemoryStore.UpdatePassword(ctx, t, id, hash, now)
}

// fakeObjectStore keeps objects in a map.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjectStore) PutObject(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = buf.Bytes()
	f.types[key] = contentType
	return nil
}

func (f *fakeObjectStore) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	return "https://objects.test/" + key + "?expires=" + expiry.String(), nil
}

func (f *fakeObjectStore) RemoveObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	delete(f.types, key)
	return nil
}

func (f *fakeObjectStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

const testAppURL = "https://bwe.test"

type fixture struct {
	store    *db.MemoryStore
	clock    *fakeClock
	mailer   *recordingMailer
	hasher   *PasswordHasher
	sessions *SessionIssuer
	auth     *AuthService
	reset    *ResetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := db.NewMemoryStore()
	clock := newFakeClock()
	mailer := &recordingMailer{}
	hasher := NewPasswordHasher(bcrypt.MinCost)
	sessions := NewSessionIssuer("test-secret", clock.Now)
	log := discardLogger()

	return &fixture{
		store:    store,
		clock:    clock,
		mailer:   mailer,
		hasher:   hasher,
		sessions: sessions,
		auth:     NewAuthService(store, hasher, sessions, mailer, clock.Now, log),
		reset:    NewResetService(store, store, NewResetTokenHasher("reset-key"), hasher, mailer, testAppURL, clock.Now, log),
	}
}

func (f *fixture) signup(t *testing.T, email, password string, accountType models.AccountType) *Session {
	t.Helper()
	in := SignupInput{Email: email, Password: password, AccountType: string(accountType)}
	switch accountType {
	case models.AccountBusiness:
		in.BusinessName = "Biz Co"
	case models.AccountEmployer:
		in.CompanyName = "Hire Co"
	}
	session, err := f.auth.Signup(context.Background(), in)
	require.NoError(t, err)
	return session
}
