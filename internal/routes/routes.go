package routes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/config"
	"github.com/blackwealthexchange/bwe-auth/internal/handlers"
	"github.com/blackwealthexchange/bwe-auth/internal/middleware"
	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"github.com/blackwealthexchange/bwe-auth/internal/services"
	"github.com/blackwealthexchange/bwe-auth/internal/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Multipart overhead on top of the largest accepted image.
const bodyLimit = services.MaxProfileImageSize + 1<<20

// Deps is everything the HTTP layer needs. All fields except AccessLog and Ping are required.
type Deps struct {
	Config   *config.Config
	Log      *slog.Logger
	Sessions *services.SessionIssuer
	Auth     *services.AuthService
	Reset    *services.ResetService
	Media    *services.MediaService

	// AccessLog receives fiber's access log lines. Defaults to stdout.
	AccessLog io.Writer
	// Ping reports database health for /healthz.
	Ping func(ctx context.Context) error
}

// NewApp builds the fiber app with the shared middleware stack and every route registered.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "bwe-auth",
		BodyLimit:    bodyLimit,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: errorHandler(d.Log),
	})

	accessLog := d.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: accessLog,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.AppURL,
		AllowCredentials: true,
	}))

	Register(app, d)
	return app
}

// Register mounts every route on app.
func Register(app *fiber.App, d Deps) {
	guard := middleware.NewGuard(d.Sessions, d.Config.IsProduction())
	validate := validator.New()

	authH := handlers.NewAuthHandler(d.Auth, d.Reset, guard, validate, d.Log)
	dashH := handlers.NewDashboardHandler(d.Auth, d.Log)
	mediaH := handlers.NewMediaHandler(d.Media, d.Log)

	app.Get("/healthz", health(d.Ping))

	api := app.Group("/api")

	auth := api.Group("/auth", rateLimit(d.Config.RateLimit))
	auth.Post("/signup", authH.Signup)
	auth.Post("/login", authH.Login)
	auth.Post("/logout", authH.Logout)
	auth.Get("/session", guard.RequireSession(), authH.Session)
	auth.Post("/request-reset", authH.RequestReset)
	auth.Post("/reset-password", authH.ResetPassword)

	for _, t := range models.AllAccountTypes {
		api.Get("/"+t.String()+"/dashboard", guard.RequireRole(t), dashH.Show)
	}

	account := api.Group("/account", guard.RequireSession())
	account.Post("/profile-image", mediaH.UploadProfileImage)
	account.Get("/profile-image", mediaH.ProfileImageURL)
}

func rateLimit(cfg config.RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}

func health(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// errorHandler renders errors that escape handlers, including recovered panics and unknown routes.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ferr *fiber.Error
		if errors.As(err, &ferr) && ferr.Code < fiber.StatusInternalServerError {
			return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
		}

		log.ErrorContext(c.UserContext(), "unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
