package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/db"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxProfileImageSize = 5 << 20
	ProfileImageURLTTL  = 15 * time.Minute
)

var profileImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ObjectStore is the blob storage behind profile images.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	RemoveObject(ctx context.Context, key string) error
}

// MediaService manages account profile images in object storage.
type MediaService struct {
	accounts AccountStore
	objects  ObjectStore
	now      func() time.Time
	log      *slog.Logger
}

// NewMediaService creates a MediaService.
func NewMediaService(accounts AccountStore, objects ObjectStore, now func() time.Time, log *slog.Logger) *MediaService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &MediaService{accounts: accounts, objects: objects, now: now, log: log}
}

// UploadProfileImage stores body as the profile image of the session's account and returns its key.
// The content type is sniffed from the bytes; only jpeg, png and webp are accepted.
func (s *MediaService) UploadProfileImage(ctx context.Context, claims *Claims, body io.Reader) (string, error) {
	accountID, err := primitive.ObjectIDFromHex(claims.AccountID())
	if err != nil {
		return "", ErrInvalidSession
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxProfileImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidUpload)
	}
	if len(data) > MaxProfileImageSize {
		return "", fmt.Errorf("%w: file exceeds 5 MiB", ErrInvalidUpload)
	}

	contentType := mimetype.Detect(data).String()
	ext, ok := profileImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %s", ErrInvalidUpload, contentType)
	}

	key := fmt.Sprintf("profiles/%s/%s/%s%s", claims.AccountType, accountID.Hex(), uuid.NewString(), ext)
	if err := s.objects.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store profile image: %w", err)
	}

	previous, err := s.accounts.SetProfileImage(ctx, claims.AccountType, accountID, key, s.now().UTC())
	if err != nil {
		s.remove(ctx, key)
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("record profile image: %w", err)
	}
	if previous != "" && previous != key {
		s.remove(ctx, previous)
	}
	return key, nil
}

// ProfileImageURL returns a presigned URL for the session's profile image, valid for ProfileImageURLTTL.
func (s *MediaService) ProfileImageURL(ctx context.Context, claims *Claims) (string, error) {
	account, err := s.accounts.FindAccountByID(ctx, claims.AccountType, claims.AccountID())
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find account: %w", err)
	}
	if account.ProfileImageKey == "" {
		return "", ErrNotFound
	}

	url, err := s.objects.PresignedURL(ctx, account.ProfileImageKey, ProfileImageURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign profile image: %w", err)
	}
	return url, nil
}

func (s *MediaService) remove(ctx context.Context, key string) {
	if err := s.objects.RemoveObject(ctx, key); err != nil {
		s.log.Warn("remove profile image", "key", key, "error", err)
	}
}
