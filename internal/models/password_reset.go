package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordResetRequest stores the keyed hash of a reset token, never the token itself.
type PasswordResetRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email       string             `bson:"email" json:"email"`
	AccountType AccountType        `bson:"account_type" json:"accountType"`
	AccountID   primitive.ObjectID `bson:"account_id" json:"accountId"`
	TokenHash   string             `bson:"token_hash" json:"-"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	ExpiresAt   time.Time          `bson:"expires_at" json:"expiresAt"`
	UsedAt      *time.Time         `bson:"used_at" json:"usedAt,omitempty"`
	IPAddress   string             `bson:"ip_address,omitempty" json:"-"`
	UserAgent   string             `bson:"user_agent,omitempty" json:"-"`
}

// Active reports whether the request can still be redeemed at now.
func (r *PasswordResetRequest) Active(now time.Time) bool {
	return r.UsedAt == nil && now.Before(r.ExpiresAt)
}
