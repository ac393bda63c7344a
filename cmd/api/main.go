// Command api serves the mentorship platform authentication API.
//
//	@title						Mentorship Platform API
//	@version					1.0
//	@description				Account signup, login with lockout, JWT sessions and password reset.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorship-api/internal/api"
	"github.com/mentorlink/mentorship-api/internal/api/handler"
	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/service"
	"github.com/mentorlink/mentorship-api/internal/infrastructure/crypto"
	mongostore "github.com/mentorlink/mentorship-api/internal/infrastructure/db/mongo"
	redisstore "github.com/mentorlink/mentorship-api/internal/infrastructure/db/redis"
	"github.com/mentorlink/mentorship-api/internal/infrastructure/notify"
	"github.com/mentorlink/mentorship-api/internal/infrastructure/queue"
	"github.com/mentorlink/mentorship-api/internal/infrastructure/token"
	"github.com/mentorlink/mentorship-api/internal/pkg/config"
	"github.com/mentorlink/mentorship-api/pkg/logger"
)

const serviceName = "mentorship-api"

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	accounts := mongostore.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	hasher, err := crypto.NewBcryptHasher(cfg.Security.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := token.NewManager(token.Config{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.ExpiresIn,
		Issuer: cfg.JWT.Issuer,
	})
	if err != nil {
		return err
	}

	// Reset links are delivered off the request path.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	sender := notify.NewLogSender(logger.Named(log, "notify"), cfg.PublicURL, cfg.IsDevelopment())
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, sender, logger.Named(log, "queue"))
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	authService, err := service.NewAuthService(service.AuthDeps{
		Accounts: accounts,
		Hasher:   hasher,
		Tokens:   tokens,
		Secrets:  crypto.NewResetSecrets(),
		Audit:    mongostore.NewAuditRepository(db),
		Notifier: dispatcher,
		Limiter: redisstore.NewWindowLimiter(rdb, "forgot-password",
			cfg.Security.ForgotPasswordLimit, cfg.Security.ForgotPasswordWindow),
	}, service.AuthOptions{
		Lockout: domain.LockoutPolicy{
			Threshold: cfg.Security.LockoutThreshold,
			Duration:  cfg.Security.LockoutDuration,
		},
		ResetTokenTTL: cfg.Security.ResetTokenTTL,
	}, logger.Named(log, "auth"))
	if err != nil {
		return err
	}
	gate := service.NewSessionGate(accounts, tokens, logger.Named(log, "session"))

	e := api.NewRouter(api.RouterDeps{
		Auth:  authService,
		Gate:  gate,
		Mongo: db,
		Redis: rdb,
		Log:   log,
		AuthOptions: handler.AuthOptions{
			CookieSecure:     cfg.CookieSecure,
			ExposeResetToken: cfg.IsDevelopment(),
		},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
