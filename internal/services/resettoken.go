package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const (
	resetTokenBytes = 32 // 256 bits, 64 hex chars
	// Shortest raw token accepted before any lookup is attempted.
	minResetTokenLength = 32
)

// ResetTokenPair holds the raw token mailed to the user and the keyed hash kept in storage.
type ResetTokenPair struct {
	Token string
	Hash  string
}

// ResetTokenHasher derives storage hashes for reset tokens with HMAC-SHA256.
type ResetTokenHasher struct {
	key []byte
}

// NewResetTokenHasher creates a hasher keyed with key.
func NewResetTokenHasher(key string) *ResetTokenHasher {
	return &ResetTokenHasher{key: []byte(key)}
}

// Generate returns a new random token together with its storage hash.
func (h *ResetTokenHasher) Generate() (*ResetTokenPair, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(buf)
	return &ResetTokenPair{Token: token, Hash: h.Hash(token)}, nil
}

// Hash returns the hex HMAC-SHA256 of token.
func (h *ResetTokenHasher) Hash(token string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// wellFormedResetToken rejects anything that is not even-length hex between 32 and 64 chars.
func wellFormedResetToken(token string) bool {
	if len(token) < minResetTokenLength || len(token) > 2*resetTokenBytes {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
