package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("password1")
	require.NoError(t, err)

	assert.NotEqual(t, "password1", hash)
	assert.True(t, h.Verify("password1", hash))
	assert.False(t, h.Verify("password2", hash))
	assert.False(t, h.Verify("password1", "not-a-hash"))
}

func TestNewPasswordHasher_OutOfRangeCostUsesDefault(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"seven chars", "1234567", ErrPasswordTooShort},
		{"exactly eight", "12345678", nil},
		{"exactly 72", strings.Repeat("a", 72), nil},
		{"73 chars", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"empty", "", ErrPasswordTooShort},
		{"30 three-byte runes", strings.Repeat("€", 30), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPassword(tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a@x.com", want: "a@x.com"},
		{in: "  Mixed.Case@Example.COM ", want: "mixed.case@example.com"},
		{in: "", wantErr: true},
		{in: "no-at-sign", wantErr: true},
		{in: "a@localhost", wantErr: true},
		{in: "Name <a@x.com>", wantErr: true},
		{in: "a@@x.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeEmail(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
