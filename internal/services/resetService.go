package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/db"
	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ResetTokenTTL       = 60 * time.Minute
	ResetThrottleWindow = 10 * time.Minute
)

// ResetStore persists password reset requests and the per-email throttle.
type ResetStore interface {
	ReserveResetSlot(ctx context.Context, email string, now time.Time, window time.Duration) (bool, error)
	ReleaseResetSlot(ctx context.Context, email string) error
	CreateResetRequest(ctx context.Context, req *models.PasswordResetRequest) error
	FindActiveResetRequest(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetRequest, error)
	ConsumeResetRequest(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	ReleaseResetRequest(ctx context.Context, id primitive.ObjectID, usedAt time.Time) error
}

// RequestResetInput is a reset request plus the client details stored with it.
type RequestResetInput struct {
	Email     string
	IPAddress string
	UserAgent string
}

// ResetPasswordInput is a raw reset token and the replacement password.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ResetService runs the password reset token lifecycle.
type ResetService struct {
	accounts AccountStore
	resets   ResetStore
	tokens   *ResetTokenHasher
	hasher   *PasswordHasher
	mailer   Mailer
	appURL   string
	now      func() time.Time
	log      *slog.Logger
}

// NewResetService creates a ResetService. Links point at appURL.
func NewResetService(accounts AccountStore, resets ResetStore, tokens *ResetTokenHasher, hasher *PasswordHasher, mailer Mailer, appURL string, now func() time.Time, log *slog.Logger) *ResetService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &ResetService{
		accounts: accounts,
		resets:   resets,
		tokens:   tokens,
		hasher:   hasher,
		mailer:   mailer,
		appURL:   appURL,
		now:      now,
		log:      log,
	}
}

// RequestReset mails a reset link when the email belongs to an account and no other
// request for it was made in the last ResetThrottleWindow. Callers must answer the client
// the same way whatever this returns.
func (s *ResetService) RequestReset(ctx context.Context, in RequestResetInput) error {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}

	account, err := s.findAccount(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		s.log.Debug("password reset requested for unknown email")
		return nil
	}

	now := s.now().UTC()
	reserved, err := s.resets.ReserveResetSlot(ctx, email, now, ResetThrottleWindow)
	if err != nil {
		return fmt.Errorf("reserve reset slot: %w", err)
	}
	if !reserved {
		s.log.Info("password reset throttled", "account_id", account.ID.Hex(), "account_type", account.AccountType)
		return nil
	}

	pair, err := s.tokens.Generate()
	if err != nil {
		s.release(ctx, email)
		return fmt.Errorf("generate reset token: %w", err)
	}

	req := &models.PasswordResetRequest{
		Email:       email,
		AccountType: account.AccountType,
		AccountID:   account.ID,
		TokenHash:   pair.Hash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ResetTokenTTL),
		IPAddress:   in.IPAddress,
		UserAgent:   in.UserAgent,
	}
	if err := s.resets.CreateResetRequest(ctx, req); err != nil {
		s.release(ctx, email)
		return fmt.Errorf("store reset request: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, email, s.resetLink(pair.Token)); err != nil {
		// No link went out; allow an immediate retry.
		s.release(ctx, email)
		s.log.Warn("password reset email failed", "account_id", account.ID.Hex(), "error", err)
		return nil
	}

	s.log.Info("password reset requested", "account_id", account.ID.Hex(), "account_type", account.AccountType)
	return nil
}

// ResetPassword redeems a reset token exactly once and replaces the account password.
func (s *ResetService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if !wellFormedResetToken(in.Token) {
		return ErrInvalidResetToken
	}
	if err := checkPassword(in.NewPassword); err != nil {
		return err
	}

	now := s.now().UTC()
	req, err := s.resets.FindActiveResetRequest(ctx, s.tokens.Hash(in.Token), now)
	if errors.Is(err, db.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("find reset request: %w", err)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	consumed, err := s.resets.ConsumeResetRequest(ctx, req.ID, now)
	if err != nil {
		return fmt.Errorf("consume reset request: %w", err)
	}
	if !consumed {
		return ErrInvalidResetToken
	}

	matched, err := s.accounts.UpdatePassword(ctx, req.AccountType, req.AccountID, hash, now)
	if err != nil {
		// The password did not change, so the token and the throttle slot stay usable.
		cleanup := context.WithoutCancel(ctx)
		if rerr := s.resets.ReleaseResetRequest(cleanup, req.ID, now); rerr != nil {
			s.log.Error("release reset request", "request_id", req.ID.Hex(), "error", rerr)
		}
		s.release(cleanup, req.Email)
		return fmt.Errorf("update password: %w", err)
	}
	if !matched {
		s.log.Warn("password reset matched no account", "account_id", req.AccountID.Hex(), "account_type", req.AccountType)
	}

	s.release(ctx, req.Email)
	return nil
}

// findAccount returns the first account with email in ResetLookupOrder, or nil.
func (s *ResetService) findAccount(ctx context.Context, email string) (*models.Account, error) {
	for _, t := range models.ResetLookupOrder {
		account, err := s.accounts.FindAccountByEmail(ctx, t, email)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find %s account: %w", t, err)
		}
		return account, nil
	}
	return nil, nil
}

func (s *ResetService) resetLink(token string) string {
	return s.appURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *ResetService) release(ctx context.Context, email string) {
	if err := s.resets.ReleaseResetSlot(ctx, email); err != nil {
		s.log.Error("release reset slot", "error", err)
	}
}
