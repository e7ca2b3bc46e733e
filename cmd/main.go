package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/config"
	"github.com/blackwealthexchange/bwe-auth/internal/db"
	"github.com/blackwealthexchange/bwe-auth/internal/logger"
	"github.com/blackwealthexchange/bwe-auth/internal/mailer"
	"github.com/blackwealthexchange/bwe-auth/internal/routes"
	"github.com/blackwealthexchange/bwe-auth/internal/services"
	"github.com/blackwealthexchange/bwe-auth/internal/storage"
)

type store interface {
	services.AccountStore
	services.ResetStore
}

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env)
	if cfg.UsesDefaultSecret() && cfg.IsProduction() {
		log.Warn("JWT_SECRET is not set; sessions are signed with the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		accounts store
		ping     func(ctx context.Context) error
	)
	switch cfg.DBDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		accounts = db.NewMemoryStore()
	case "mongo":
		client, err := db.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("mongo disconnect", "error", err)
			}
		}()

		database := client.Database(cfg.MongoDatabase)
		if err := db.EnsureIndexes(ctx, database); err != nil {
			return err
		}
		accounts = db.NewMongoStore(database)
		ping = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	var objects services.ObjectStore
	if cfg.Storage.Endpoint != "" {
		minioStore, err := storage.NewMinio(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		objects = minioStore
	} else {
		log.Warn("MINIO_ENDPOINT is not set; profile images are kept in memory")
		objects = storage.NewMemory(cfg.AppURL+"/media", nil)
	}

	var mail services.Mailer
	if cfg.SMTP.Enabled() {
		mail, err = mailer.NewSMTP(cfg.SMTP, cfg.AppURL)
	} else {
		log.Warn("SMTP is not configured; outgoing mail is logged only")
		mail, err = mailer.NewLog(log)
	}
	if err != nil {
		return err
	}

	hasher := services.NewPasswordHasher(cfg.BcryptCost)
	sessions := services.NewSessionIssuer(cfg.JWTSecret, time.Now)

	app := routes.NewApp(routes.Deps{
		Config:   cfg,
		Log:      log,
		Sessions: sessions,
		Auth:     services.NewAuthService(accounts, hasher, sessions, mail, time.Now, log),
		Reset:    services.NewResetService(accounts, accounts, services.NewResetTokenHasher(cfg.ResetTokenKey), hasher, mail, cfg.AppURL, time.Now, log),
		Media:    services.NewMediaService(accounts, objects, time.Now, log),
		Ping:     ping,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.Port, "env", cfg.Env, "db", cfg.DBDriver)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
