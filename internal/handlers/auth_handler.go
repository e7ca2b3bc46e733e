package handlers

import (
	"log/slog"
	"strings"

	"github.com/blackwealthexchange/bwe-auth/internal/middleware"
	"github.com/blackwealthexchange/bwe-auth/internal/services"
	"github.com/blackwealthexchange/bwe-auth/internal/validator"
	"github.com/gofiber/fiber/v2"
)

const resetRequestedMessage = "If an account exists for that email, a password reset link has been sent."

type signupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	AccountType     string `json:"accountType" validate:"required,account_type"`
	Name            string `json:"name" validate:"max=120"`
	BusinessName    string `json:"businessName" validate:"required_if=AccountType business,max=200"`
	BusinessAddress string `json:"businessAddress" validate:"max=300"`
	BusinessPhone   string `json:"businessPhone" validate:"max=40"`
	CompanyName     string `json:"companyName" validate:"required_if=AccountType employer,max=200"`
	Website         string `json:"website" validate:"omitempty,url"`
}

type loginRequest struct {
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
	AccountType string `json:"accountType" validate:"required,account_type"`
}

type requestResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	auth     *services.AuthService
	reset    *services.ResetService
	guard    *middleware.Guard
	validate *validator.Validator
	log      *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *services.AuthService, reset *services.ResetService, guard *middleware.Guard, validate *validator.Validator, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, reset: reset, guard: guard, validate: validate, log: log}
}

// Signup creates an account and starts a session. 201 on success.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	session, err := h.auth.Signup(c.UserContext(), services.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		AccountType:     req.AccountType,
		Name:            req.Name,
		BusinessName:    req.BusinessName,
		BusinessAddress: req.BusinessAddress,
		BusinessPhone:   req.BusinessPhone,
		CompanyName:     req.CompanyName,
		Website:         req.Website,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.guard.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully",
		"user":    session.Account.Summary(),
	})
}

// Login verifies credentials for one account type and starts a session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	session, err := h.auth.Login(c.UserContext(), services.LoginInput{
		Email:       req.Email,
		Password:    req.Password,
		AccountType: req.AccountType,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	h.guard.SetSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(fiber.Map{
		"message": "Logged in successfully",
		"user":    session.Account.Summary(),
	})
}

// Logout clears the cookie only; the token stays valid until it expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.guard.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Session returns the signed-in account and the dashboard it should see.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return respondError(c, h.log, services.ErrMissingSession)
	}

	account, err := h.auth.Account(c.UserContext(), claims)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"user":      account.Summary(),
		"dashboard": DashboardFor(account.AccountType),
	})
}

// RequestReset answers 200 with the same body whether or not the email is registered.
func (h *AuthHandler) RequestReset(c *fiber.Ctx) error {
	var req requestResetRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	err := h.reset.RequestReset(c.UserContext(), services.RequestResetInput{
		Email:     req.Email,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil && StatusFor(err) == fiber.StatusInternalServerError {
		h.log.ErrorContext(c.UserContext(), "password reset request failed", "request_id", requestID(c), "error", err)
	}
	return c.JSON(fiber.Map{"message": resetRequestedMessage})
}

// ResetPassword redeems a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	err := h.reset.ResetPassword(c.UserContext(), services.ResetPasswordInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Password has been reset"})
}
