package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tebogokaulela455/psa/config"
	"github.com/Tebogokaulela455/psa/database"
	"github.com/Tebogokaulela455/psa/middleware"
	"github.com/Tebogokaulela455/psa/routes"
	"github.com/Tebogokaulela455/psa/services"
	"github.com/Tebogokaulela455/psa/utils"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	utils.InitLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	// Auto-migrate only in development to avoid accidental production schema changes
	if cfg.IsDevelopment() {
		utils.Log.Info("Running in development mode - performing auto-migration")
		if err := database.RunMigrations(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	stop := make(chan struct{})
	defer close(stop)

	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, revocationStore(cmd.Context(), cfg, db, stop))
	gateway := utils.NewNowPaymentsClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	if cfg.Gateway.IPNSecret == "" {
		utils.Log.Warn("[ipn] NOWPAYMENTS_IPN_SECRET is empty; every payment callback will be rejected")
	}

	authLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute, cfg.TrustedProxyList())
	webhookLimiter := middleware.NewIPRateLimiter(500, time.Hour, cfg.TrustedProxyList())
	authLimiter.StartCleanup(time.Minute, stop)
	webhookLimiter.StartCleanup(time.Minute, stop)

	router := routes.InitRouter(routes.Dependencies{
		DB:     db,
		Tokens: tokens,
		Accounts: services.NewAccountService(db, tokens).
			WithPasswordCost(cfg.Auth.BcryptCost),
		Investments: services.NewInvestmentService(db, gateway, services.GatewayConfig{
			IPNSecret:   cfg.Gateway.IPNSecret,
			CallbackURL: cfg.Gateway.CallbackURL,
		}),
		Withdrawals:    services.NewWithdrawalService(db),
		AllowedOrigins: cfg.AllowedOrigins(),
		TrustedProxies: cfg.TrustedProxyList(),
		AuthLimiter:    authLimiter,
		WebhookLimiter: webhookLimiter,
	})

	// Request ID -> Logging -> Security headers -> Max Body -> Timeout -> Recovery -> Router (metrics inside)
	handler := middleware.RequestIDMiddleware(
		middleware.RequestLogMiddleware(
			middleware.SecurityHeadersMiddleware(!cfg.IsDevelopment())(
				middleware.MaxBodyMiddleware(cfg.MaxBodyBytes)(
					middleware.TimeoutMiddleware(cfg.HandlerTimeout())(
						middleware.RecoveryMiddleware(
							router,
						),
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HandlerTimeout() + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	utils.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	utils.Log.Info("Server exited")
	return nil
}

// revocationStore prefers Redis when REDIS_ADDR is set and reachable, and
// otherwise keeps revoked tokens in the database with an hourly purge.
func revocationStore(ctx context.Context, cfg *config.Config, db *gorm.DB, stop <-chan struct{}) utils.RevocationStore {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			utils.Log.WithField("addr", cfg.RedisAddr).Info("[auth] token blacklist in redis")
			return utils.NewRedisRevocationStore(client)
		}
		utils.Log.WithError(err).Warn("[auth] redis unreachable, falling back to database blacklist")
		_ = client.Close()
	}

	store := utils.NewDBRevocationStore(db)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := store.Purge(context.Background(), time.Now()); err != nil {
					utils.Log.WithError(err).Warn("[auth] purge revoked tokens failed")
				} else if n > 0 {
					utils.Log.WithField("rows", n).Debug("[auth] purged revoked tokens")
				}
			case <-stop:
				return
			}
		}
	}()
	return store
}
