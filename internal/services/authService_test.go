package services

import (
	"context"
	"testing"

	"github.com/blackwealthexchange/bwe-auth/internal/db"
	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignup_CreatesAccountAndSession(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()

	// Act
	session, err := f.auth.Signup(ctx, SignupInput{
		Email:       " A@X.com",
		Password:    "password1",
		AccountType: "seller",
		Name:        "Ada",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", session.Account.Email)
	assert.Equal(t, models.AccountSeller, session.Account.AccountType)
	assert.Equal(t, f.clock.Now(), session.Account.CreatedAt)

	stored, err := f.store.FindAccountByEmail(ctx, models.AccountSeller, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", stored.Password)
	assert.True(t, f.hasher.Verify("password1", stored.Password))

	claims, err := f.sessions.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, models.AccountSeller, claims.AccountType)
	assert.Equal(t, stored.ID.Hex(), claims.AccountID())

	require.Len(t, f.mailer.welcomes, 1)
	assert.Equal(t, welcomeMail{To: "a@x.com", Name: "Ada", AccountType: models.AccountSeller}, f.mailer.welcomes[0])
}

func TestSignup_DuplicateEmailPerCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "password1", models.AccountSeller)

	_, err := f.auth.Signup(ctx, SignupInput{Email: "a@x.com", Password: "password2", AccountType: "seller"})
	assert.ErrorIs(t, err, ErrAccountExists)

	_, err = f.auth.Signup(ctx, SignupInput{Email: "a@x.com", Password: "password2", AccountType: "user"})
	assert.NoError(t, err, "same email is accepted in another collection")
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   SignupInput
		want error
	}{
		{"unknown account type", SignupInput{Email: "a@x.com", Password: "password1", AccountType: "admin"}, ErrInvalidAccountType},
		{"empty account type", SignupInput{Email: "a@x.com", Password: "password1"}, ErrInvalidAccountType},
		{"malformed email", SignupInput{Email: "a.x.com", Password: "password1", AccountType: "user"}, ErrInvalidEmail},
		{"seven char password", SignupInput{Email: "a@x.com", Password: "passwor", AccountType: "user"}, ErrPasswordTooShort},
		{"business without name", SignupInput{Email: "a@x.com", Password: "password1", AccountType: "business"}, ErrMissingField},
		{"employer without company", SignupInput{Email: "a@x.com", Password: "password1", AccountType: "employer"}, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.auth.Signup(context.Background(), tt.in)

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignup_EightCharPasswordAccepted(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Signup(context.Background(), SignupInput{Email: "a@x.com", Password: "12345678", AccountType: "user"})

	assert.NoError(t, err)
}

func TestSignup_WelcomeMailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mailer.welcomeErr = errBoom

	session, err := f.auth.Signup(context.Background(), SignupInput{
		Email: "b@x.com", Password: "password1", AccountType: "business", BusinessName: "Biz",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestSignup_StoreFailure(t *testing.T) {
	store := &failingAccountStore{MemoryStore: db.NewMemoryStore(), createErr: errBoom}
	clock := newFakeClock()
	auth := NewAuthService(store, NewPasswordHasher(bcrypt.MinCost), NewSessionIssuer("s", clock.Now), &recordingMailer{}, clock.Now, discardLogger())

	_, err := auth.Signup(context.Background(), SignupInput{Email: "a@x.com", Password: "password1", AccountType: "user"})

	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrAccountExists)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "a@x.com", "password1", models.AccountEmployer)

	tests := []struct {
		name string
		in   LoginInput
		want error
	}{
		{"correct credentials", LoginInput{Email: "a@x.com", Password: "password1", AccountType: "employer"}, nil},
		{"email is case insensitive", LoginInput{Email: "A@X.COM", Password: "password1", AccountType: "employer"}, nil},
		{"off by one character", LoginInput{Email: "a@x.com", Password: "password2", AccountType: "employer"}, ErrInvalidCredentials},
		{"unknown email", LoginInput{Email: "b@x.com", Password: "password1", AccountType: "employer"}, ErrInvalidCredentials},
		{"other collection", LoginInput{Email: "a@x.com", Password: "password1", AccountType: "user"}, ErrInvalidCredentials},
		{"missing account type", LoginInput{Email: "a@x.com", Password: "password1"}, ErrInvalidAccountType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := f.auth.Login(context.Background(), tt.in)

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.AccountEmployer, session.Account.AccountType)
			assert.NotEmpty(t, session.Token)
		})
	}
}

func TestAccount(t *testing.T) {
	f := newFixture(t)
	session := f.signup(t, "a@x.com", "password1", models.AccountUser)
	claims, err := f.sessions.Parse(session.Token)
	require.NoError(t, err)

	account, err := f.auth.Account(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, account.ID)

	f.store.DeleteAccount(models.AccountUser, session.Account.ID)
	_, err = f.auth.Account(context.Background(), claims)
	assert.ErrorIs(t, err, ErrNotFound)
}
