package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/slotbook-api/internal/config"
	authHandler "github.com/jwalitptl/slotbook-api/internal/handler/auth"
	doctorHandler "github.com/jwalitptl/slotbook-api/internal/handler/doctor"
	"github.com/jwalitptl/slotbook-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/slotbook-api/internal/handler/patient"
	slotHandler "github.com/jwalitptl/slotbook-api/internal/handler/slot"
	"github.com/jwalitptl/slotbook-api/internal/middleware"
	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/router"
	authService "github.com/jwalitptl/slotbook-api/internal/service/auth"
	doctorService "github.com/jwalitptl/slotbook-api/internal/service/doctor"
	patientService "github.com/jwalitptl/slotbook-api/internal/service/patient"
	slotService "github.com/jwalitptl/slotbook-api/internal/service/slot"
	"github.com/jwalitptl/slotbook-api/pkg/auth"
	"github.com/jwalitptl/slotbook-api/pkg/cache"
	"github.com/jwalitptl/slotbook-api/pkg/metrics"
	"github.com/jwalitptl/slotbook-api/pkg/security"
	"github.com/jwalitptl/slotbook-api/pkg/storage"
	"github.com/jwalitptl/slotbook-api/pkg/validator"
)

const identityCacheTTL = 5 * time.Minute

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create schema before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database, migrate)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	revoker := auth.NewNoopRevoker()
	if cfg.Redis.Enabled {
		client, err := auth.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		revoker = auth.NewRedisRevoker(client)
	}

	uploader := storage.NewDisabled()
	if cfg.Storage.Enabled {
		uploader, err = storage.NewMinioUploader(ctx, storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return err
		}
	}

	m := metrics.NewMetrics("slotbook")
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	doctorDir := cache.New[*model.DoctorSummary](identityCacheTTL, 2*identityCacheTTL)
	patientDir := cache.New[*model.PatientSummary](identityCacheTTL, 2*identityCacheTTL)
	maxAvatar := cfg.Storage.MaxSizeMB << 20

	authSvc := authService.NewService(store.Doctors(), store.Patients(), hasher, jwtSvc, revoker)
	doctorSvc := doctorService.NewService(store.Doctors(), hasher, doctorDir)
	patientSvc := patientService.NewService(store.Patients(), hasher, uploader, patientDir, maxAvatar)
	slotSvc := slotService.NewService(store.Slots(), store.Doctors(), store.Patients(),
		doctorDir, patientDir, validator.New(), m)

	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		router.Handlers{
			Auth:    authHandler.NewHandler(authSvc),
			Doctor:  doctorHandler.NewHandler(doctorSvc),
			Patient: patientHandler.NewHandler(patientSvc),
			Slot:    slotHandler.NewHandler(slotSvc),
			Health:  health.NewHandler(store),
		},
		m,
		router.RouterConfig{
			Mode:           cfg.Server.Mode,
			RateLimit:      rateLimit(cfg.RateLimit),
			RateBurst:      cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxUploadBytes: maxAvatar,
			CORSConfig: middleware.CORSConfig{
				AllowOrigins:  cfg.CORS.AllowedOrigins,
				AllowMethods:  cfg.CORS.AllowedMethods,
				AllowHeaders:  cfg.CORS.AllowedHeaders,
				ExposeHeaders: []string{"Content-Length", middleware.HeaderXRequestID},
				MaxAge:        86400,
			},
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

func rateLimit(cfg config.RateLimitConfig) rate.Limit {
	if !cfg.Enabled {
		return 0
	}
	return rate.Limit(cfg.RequestsPerSecond)
}
