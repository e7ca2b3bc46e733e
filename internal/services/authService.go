package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/db"
	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountStore persists accounts, one collection per account type.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccountByEmail(ctx context.Context, t models.AccountType, email string) (*models.Account, error)
	FindAccountByID(ctx context.Context, t models.AccountType, id string) (*models.Account, error)
	UpdatePassword(ctx context.Context, t models.AccountType, id primitive.ObjectID, hash string, now time.Time) (bool, error)
	SetProfileImage(ctx context.Context, t models.AccountType, id primitive.ObjectID, key string, now time.Time) (string, error)
}

// Mailer delivers the transactional emails sent by the auth flows.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name string, accountType models.AccountType) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Email           string
	Password        string
	AccountType     string
	Name            string
	BusinessName    string
	BusinessAddress string
	BusinessPhone   string
	CompanyName     string
	Website         string
}

// LoginInput carries login credentials for one account type.
type LoginInput struct {
	Email       string
	Password    string
	AccountType string
}

// Session is the result of a successful signup or login.
type Session struct {
	Account   *models.Account
	Token     string
	ExpiresAt time.Time
}

// AuthService handles signup, login and session lookups.
type AuthService struct {
	accounts AccountStore
	hasher   *PasswordHasher
	sessions *SessionIssuer
	mailer   Mailer
	now      func() time.Time
	log      *slog.Logger
}

// NewAuthService creates an AuthService. A nil now uses time.Now.
func NewAuthService(accounts AccountStore, hasher *PasswordHasher, sessions *SessionIssuer, mailer Mailer, now func() time.Time, log *slog.Logger) *AuthService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		sessions: sessions,
		mailer:   mailer,
		now:      now,
		log:      log,
	}
}

// Signup creates an account in the collection of the requested type and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	accountType, ok := models.ParseAccountType(in.AccountType)
	if !ok {
		return nil, ErrInvalidAccountType
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:           email,
		AccountType:     accountType,
		Name:            strings.TrimSpace(in.Name),
		BusinessName:    strings.TrimSpace(in.BusinessName),
		BusinessAddress: strings.TrimSpace(in.BusinessAddress),
		BusinessPhone:   strings.TrimSpace(in.BusinessPhone),
		CompanyName:     strings.TrimSpace(in.CompanyName),
		Website:         strings.TrimSpace(in.Website),
	}
	if err := requireProfileFields(account); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	account.Password = hash
	account.CreatedAt = now
	account.UpdatedAt = now

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	session, err := s.open(account)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendWelcome(ctx, account.Email, displayName(account), account.AccountType); err != nil {
		s.log.Warn("welcome email failed", "account_id", account.ID.Hex(), "account_type", account.AccountType, "error", err)
	}
	return session, nil
}

// Login verifies credentials against the collection of the requested type.
// Unknown emails and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	accountType, ok := models.ParseAccountType(in.AccountType)
	if !ok {
		return nil, ErrInvalidAccountType
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.FindAccountByEmail(ctx, accountType, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if !s.hasher.Verify(in.Password, account.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.open(account)
}

// Account loads the account a session belongs to.
func (s *AuthService) Account(ctx context.Context, claims *Claims) (*models.Account, error) {
	account, err := s.accounts.FindAccountByID(ctx, claims.AccountType, claims.AccountID())
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *AuthService) open(account *models.Account) (*Session, error) {
	token, expiresAt, err := s.sessions.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Session{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

func requireProfileFields(a *models.Account) error {
	switch a.AccountType {
	case models.AccountBusiness:
		if a.BusinessName == "" {
			return fmt.Errorf("%w: businessName", ErrMissingField)
		}
	case models.AccountEmployer:
		if a.CompanyName == "" {
			return fmt.Errorf("%w: companyName", ErrMissingField)
		}
	}
	return nil
}

func displayName(a *models.Account) string {
	switch {
	case a.Name != "":
		return a.Name
	case a.BusinessName != "":
		return a.BusinessName
	case a.CompanyName != "":
		return a.CompanyName
	}
	return a.Email
}
