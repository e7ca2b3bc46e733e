package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"github.com/blackwealthexchange/bwe-auth/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	SessionCookie = "session_token"
	claimsKey     = "session_claims"
)

// Guard authenticates requests with session tokens and enforces account type rules.
type Guard struct {
	sessions     *services.SessionIssuer
	secureCookie bool
}

// NewGuard creates a Guard. secureCookie sets the Secure flag on session cookies.
func NewGuard(sessions *services.SessionIssuer, secureCookie bool) *Guard {
	return &Guard{sessions: sessions, secureCookie: secureCookie}
}

// Authenticate reads the bearer token first, then the session cookie.
func (g *Guard) Authenticate(c *fiber.Ctx) (*services.Claims, error) {
	token := ""
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return nil, services.ErrInvalidSession
		}
		token = strings.TrimSpace(value)
	}
	if token == "" {
		token = c.Cookies(SessionCookie)
	}
	if token == "" {
		return nil, services.ErrMissingSession
	}
	return g.sessions.Parse(token)
}

// RequireSession admits any valid session.
func (g *Guard) RequireSession() fiber.Handler {
	return g.RequireRole()
}

// RequireRole admits valid sessions whose account type is one of roles.
// With no roles, every account type is admitted.
func (g *Guard) RequireRole(roles ...models.AccountType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := g.Authenticate(c)
		if err != nil {
			return deny(c, err)
		}
		if len(roles) > 0 && !hasRole(claims.AccountType, roles) {
			return deny(c, services.ErrForbiddenRole)
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by RequireRole.
func ClaimsFrom(c *fiber.Ctx) (*services.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*services.Claims)
	return claims, ok
}

// SetSessionCookie stores the session token in an HttpOnly cookie.
func (g *Guard) SetSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(services.SessionTTL.Seconds()),
		HTTPOnly: true,
		Secure:   g.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the cookie on the client. The token itself stays valid until exp.
func (g *Guard) ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   g.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func hasRole(t models.AccountType, roles []models.AccountType) bool {
	for _, r := range roles {
		if r == t {
			return true
		}
	}
	return false
}

func deny(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbiddenRole):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": services.ErrForbiddenRole.Error()})
	case errors.Is(err, services.ErrMissingSession):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrMissingSession.Error()})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrInvalidSession.Error()})
	}
}
