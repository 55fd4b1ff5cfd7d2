package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/waitlist/internal/config"
	"github.com/clinic/waitlist/internal/domain/auditlog"
	"github.com/clinic/waitlist/internal/domain/waitlist"
	"github.com/clinic/waitlist/internal/platform/auth"
	"github.com/clinic/waitlist/internal/platform/cache"
	"github.com/clinic/waitlist/internal/platform/db"
	"github.com/clinic/waitlist/internal/platform/metrics"
	"github.com/clinic/waitlist/internal/platform/middleware"
	"github.com/clinic/waitlist/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "waitlist-server",
		Short: "Surgical waitlist API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the waitlist API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied && s.AppliedAt != nil {
			status = "applied"
			appliedAt = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// exportCmd writes the filtered worklist as CSV without going through HTTP.
// The export is audited under the system actor.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the worklist as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := db.NewPool(ctx, poolConfig(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			repo := waitlist.NewPatientRepoPG(pool)
			recorder := auditlog.NewRecorder(auditlog.NewStorePG(pool), auditlog.NewMemoryStore(cfg.AuditFallbackCap), nil, logger)
			svc := waitlist.NewService(repo, recorder,
				waitlist.WithTransactor(repo),
				waitlist.WithCatalog(catalog),
				waitlist.WithLogger(logger),
			)

			out, filename, err := svc.Export(ctx, criteriaFromFlags(cmd), auditlog.SystemActor)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			path, _ := cmd.Flags().GetString("out")
			if path == "" {
				path = filename
			}
			if path == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			}
			if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output file; \"-\" writes to stdout (default: generated file name)")
	cmd.Flags().String("search", "", "Match name, patient ID or procedure")
	cmd.Flags().String("urgency", "", "Urgency code")
	cmd.Flags().String("status", "", "Status")
	cmd.Flags().String("surgeon", "", "Surgeon name")
	cmd.Flags().Bool("unassigned", false, "Only patients without a surgeon")
	cmd.Flags().String("surgery-type", "", "Surgery type")
	return cmd
}

// criteriaFromFlags maps export flags onto the same query parameters the HTTP
// worklist accepts.
func criteriaFromFlags(cmd *cobra.Command) waitlist.Criteria {
	q := url.Values{}
	for flag, param := range map[string]string{
		"search":       "search",
		"urgency":      "urgency",
		"status":       "status",
		"surgeon":      "surgeon",
		"surgery-type": "surgery_type",
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			q.Set(param, v)
		}
	}
	if unassigned, _ := cmd.Flags().GetBool("unassigned"); unassigned {
		q.Set("unassigned", "true")
	}
	return waitlist.CriteriaFromQuery(q)
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func loadCatalog(cfg *config.Config) (waitlist.Catalog, error) {
	if cfg.CatalogFile == "" {
		return waitlist.DefaultCatalog(), nil
	}
	catalog, err := waitlist.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return waitlist.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg)

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis is optional; without it the audit fallback stays in memory.
	redisCache, err := cache.New(ctx, cache.Config{URL: cfg.RedisURL})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisCache.Close()

	var fallback auditlog.Store = auditlog.NewMemoryStore(cfg.AuditFallbackCap)
	optional := map[string]db.Pinger{}
	if redisCache.IsEnabled() {
		fallback = auditlog.NewRedisStore(redisCache, cfg.AuditFallbackCap)
		optional["redis"] = redisCache
		logger.Info().Msg("connected to redis")
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}

	collector := metrics.New("waitlist")
	sessions := auth.NewSessions()

	recorder := auditlog.NewRecorder(auditlog.NewStorePG(pool), fallback, collector, logger)
	repo := waitlist.NewPatientRepoPG(pool)
	svc := waitlist.NewService(repo, recorder,
		waitlist.WithTransactor(repo),
		waitlist.WithCatalog(catalog),
		waitlist.WithPageSize(cfg.PageSize),
		waitlist.WithLongWaitDays(cfg.LongWaitDays),
		waitlist.WithMetrics(collector),
		waitlist.WithCache(redisCache),
		waitlist.WithLogger(logger),
	)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger, auth.IsPublicPath))
	e.Use(collector.Middleware("/metrics"))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID", auth.DevUserHeader, auth.DevRoleHeader},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-ID"},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	if cfg.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(cfg.RequestTimeout))
	}

	// Auth middleware
	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		logger.Warn().Msg("development auth enabled; every request runs as a dev user")
		e.Use(auth.DevAuthMiddleware())
	} else {
		var signingKey []byte
		if cfg.AuthSigningKey != "" {
			signingKey = []byte(cfg.AuthSigningKey)
		}
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:          cfg.AuthIssuer,
			Audience:        cfg.AuthAudience,
			JWKSURL:         cfg.AuthJWKSURL,
			SigningKey:      signingKey,
			SessionDuration: cfg.SessionDuration,
			Sessions:        sessions,
			Skipper:         auth.AuthSkipper,
		}))
	}

	// PHI access log
	e.Use(middleware.AccessLog(logger))

	// API groups
	apiV1 := e.Group("/api/v1", middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	waitlist.NewHandler(svc).RegisterRoutes(apiV1)
	auditlog.NewHandler(recorder, sessions).RegisterRoutes(apiV1)

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool, optional))
	e.GET("/metrics", echo.WrapHandler(collector.Handler()))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
