package handlers

import (
	"log/slog"

	"github.com/blackwealthexchange/bwe-auth/internal/middleware"
	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"github.com/blackwealthexchange/bwe-auth/internal/services"
	"github.com/gofiber/fiber/v2"
)

// Dashboard describes which dashboard variant the client renders for an account type.
type Dashboard struct {
	Variant models.AccountType `json:"variant"`
	Path    string             `json:"path"`
}

// DashboardFor returns the dashboard an account type lands on.
func DashboardFor(t models.AccountType) Dashboard {
	return Dashboard{Variant: t, Path: "/dashboard/" + t.String()}
}

// DashboardHandler serves the role-gated dashboard endpoints.
type DashboardHandler struct {
	auth *services.AuthService
	log  *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(auth *services.AuthService, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{auth: auth, log: log}
}

// Show serves a role-gated dashboard; the route's guard has already checked the role.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return respondError(c, h.log, services.ErrMissingSession)
	}

	account, err := h.auth.Account(c.UserContext(), claims)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"dashboard": DashboardFor(account.AccountType),
		"account":   account,
	})
}
