package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sumanskitchen/kitchen-go/internal/config"
	"github.com/sumanskitchen/kitchen-go/internal/crypto"
	"github.com/sumanskitchen/kitchen-go/internal/handler"
	"github.com/sumanskitchen/kitchen-go/internal/middleware"
	"github.com/sumanskitchen/kitchen-go/internal/oauth"
	"github.com/sumanskitchen/kitchen-go/internal/repository"
	"github.com/sumanskitchen/kitchen-go/internal/service"
	"github.com/sumanskitchen/kitchen-go/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := repository.NewDB(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	services, limiter, err := buildServices(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer limiter.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}

func buildServices(ctx context.Context, cfg config.Config, db *sql.DB) (handler.Services, *middleware.RateLimiter, error) {
	hasher, err := crypto.NewHasher(cfg.BcryptCost)
	if err != nil {
		return handler.Services{}, nil, err
	}
	tokens, err := crypto.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTAlgorithm, cfg.JWTExpiry)
	if err != nil {
		return handler.Services{}, nil, err
	}

	google := oauth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleTokenInfoURL, &http.Client{Timeout: cfg.GoogleTimeout})
	if !google.Enabled() {
		slog.Warn("GOOGLE_CLIENT_ID not set, google sign-in disabled")
	}

	images, err := storage.NewS3Store(ctx, storage.Options{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		return handler.Services{}, nil, err
	}
	if !images.Configured() {
		slog.Warn("S3_BUCKET not set, recipe image upload disabled")
	}

	var completer service.Completer
	if c := service.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel); c != nil {
		completer = c
	} else {
		slog.Warn("OPENAI_API_KEY not set, recipe generation disabled")
	}

	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	limiter := middleware.NewRateLimiter(cfg.AuthRateRPS, cfg.AuthRateBurst)

	return handler.Services{
		Auth:        service.NewAuthService(userRepo, hasher, tokens, google, time.Now),
		Recipes:     service.NewRecipeService(recipeRepo, images),
		Generator:   service.NewGeneratorService(completer),
		AuthLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
	}, limiter, nil
}
