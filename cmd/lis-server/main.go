package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medilab/lis/internal/config"
	"github.com/medilab/lis/internal/domain/biohazard"
	"github.com/medilab/lis/internal/domain/catalog"
	"github.com/medilab/lis/internal/domain/identity"
	"github.com/medilab/lis/internal/domain/laborder"
	"github.com/medilab/lis/internal/domain/patient"
	"github.com/medilab/lis/internal/domain/requisition"
	"github.com/medilab/lis/internal/domain/result"
	"github.com/medilab/lis/internal/domain/scheduling"
	"github.com/medilab/lis/internal/platform/db"
	"github.com/medilab/lis/internal/platform/middleware"
	"github.com/medilab/lis/internal/platform/notification"
	"github.com/medilab/lis/internal/platform/session"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lis-server",
		Short: "Hospital EMR and laboratory information system API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			return nil
		},
	})

	return cmd
}

// catalogResolver adapts the catalog service to the requisition
// package's resolver port.
type catalogResolver struct {
	svc *catalog.Service
}

func (r *catalogResolver) Resolve(ctx context.Context, testID, categoryID, sampleTypeID int64) (*requisition.CatalogNames, error) {
	test, cat, sample, err := r.svc.Resolve(ctx, testID, categoryID, sampleTypeID)
	if err != nil {
		return nil, err
	}
	return &requisition.CatalogNames{
		TestName:       test.Name,
		CategoryName:   cat.Name,
		SampleTypeName: sample.Name,
		BiosafetyLevel: test.BiosafetyLevel,
	}, nil
}

func (r *catalogResolver) BiosafetyLevel(ctx context.Context, testID int64) (int, error) {
	test, err := r.svc.GetTest(ctx, testID)
	if err != nil {
		return 0, err
	}
	return test.BiosafetyLevel, nil
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.Timeout(cfg.RequestDeadline()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.Audit(logger))

	e.GET("/health", db.HealthHandler(pool))

	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionDuration(), !cfg.IsDev())

	// Login endpoints stay outside the session middleware; everything
	// else under /api/v1 requires a valid cookie.
	public := e.Group("/api/v1")
	apiV1 := e.Group("/api/v1", sessions.Middleware())

	// Identity
	emrUserRepo := identity.NewEMRUserRepoPG(pool)
	lisUserRepo := identity.NewLISUserRepoPG(pool)
	doctorRepo := identity.NewDoctorRepoPG(pool)
	attendantRepo := identity.NewLabAttendantRepoPG(pool)
	identitySvc := identity.NewService(emrUserRepo, lisUserRepo, doctorRepo, attendantRepo, pool)
	identityHandler := identity.NewHandler(identitySvc, sessions)
	identityHandler.RegisterRoutes(public, apiV1)

	// Patients
	patientRepo := patient.NewPGRepository(pool)
	patientSvc := patient.NewService(patientRepo, pool)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	patientExists := func(ctx context.Context, regNo string) (bool, error) {
		_, err := patientSvc.Identify(ctx, regNo)
		if errors.Is(err, patient.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}

	// Catalog
	catalogRepo := catalog.NewPGRepository(pool)
	catalogSvc := catalog.NewService(catalogRepo)
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)

	// Appointments and vitals
	schedRepo := scheduling.NewPGRepository(pool)
	schedSvc := scheduling.NewService(schedRepo, scheduling.PatientVerifierFunc(patientExists))
	scheduling.NewHandler(schedSvc).RegisterRoutes(apiV1)

	// Lab orders
	orderRepo := laborder.NewPGRepository(pool)
	orderSvc := laborder.NewService(orderRepo,
		laborder.PatientVerifierFunc(patientExists),
		laborder.TestResolverFunc(func(ctx context.Context, id int64) (string, error) {
			t, err := catalogSvc.GetTest(ctx, id)
			if err != nil {
				return "", err
			}
			return t.Name, nil
		}))
	laborder.NewHandler(orderSvc).RegisterRoutes(apiV1)

	// Requisitions
	reqRepo := requisition.NewPGRepository(pool)
	reqSvc := requisition.NewService(reqRepo,
		&catalogResolver{svc: catalogSvc},
		requisition.PatientDirectoryFunc(func(ctx context.Context, regNo string) (string, error) {
			p, err := patientSvc.Identify(ctx, regNo)
			if err != nil {
				return "", err
			}
			return p.FullName(), nil
		}),
		requisition.OfficerNamerFunc(identitySvc.OfficerName),
		requisition.PhysicianNamerFunc(identitySvc.PhysicianName),
		requisition.OrderLinkerFunc(orderSvc.MarkReceived),
		pool)
	requisition.NewHandler(reqSvc).RegisterRoutes(apiV1)

	// Result publication email queue
	outboxRepo := notification.NewOutboxRepoPG(pool)
	templates := notification.NewTemplateEngine()
	notifier := result.NotifierFunc(func(ctx context.Context, req *requisition.Requisition) error {
		subject, body, err := templates.Render(notification.TemplateLabResultReady, map[string]string{
			"requisition_id": fmt.Sprintf("%d", req.ID),
			"patient_name":   req.PatientName,
			"lab_test":       req.TestName,
			"sample_id":      req.SampleID,
		})
		if err != nil {
			return err
		}

		var recipients []string
		if p, err := patientSvc.Identify(ctx, req.PatientReg); err == nil && p.Email != "" {
			recipients = append(recipients, p.Email)
		}
		if req.PhysicianID != nil {
			if email, err := identitySvc.PhysicianEmail(ctx, *req.PhysicianID); err == nil && email != "" {
				recipients = append(recipients, email)
			}
		}
		return outboxRepo.Enqueue(ctx, &notification.Message{
			Recipients: recipients,
			Subject:    subject,
			Body:       body,
		})
	})

	// Results
	resultRepo := result.NewPGRepository(pool)
	resultSvc := result.NewService(resultRepo, reqSvc, orderSvc, catalogSvc, notifier, pool)
	result.NewHandler(resultSvc).RegisterRoutes(apiV1)

	// Biohazard incidents
	incidentRepo := biohazard.NewPGRepository(pool)
	incidentSvc := biohazard.NewService(incidentRepo)
	biohazard.NewHandler(incidentSvc).RegisterRoutes(apiV1)

	// Email dispatcher
	var sender notification.EmailSender
	if cfg.SMTPHost != "" {
		sender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logger.Warn().Msg("SMTP_HOST not set; queued emails will not leave the outbox")
		sender = &notification.MockEmailSender{}
	}
	dispatcher := notification.NewDispatcher(outboxRepo, sender, logger, cfg.OutboxPollInterval())
	dispatchCtx, dispatchCancel := context.WithCancel(ctx)
	defer dispatchCancel()
	go dispatcher.Run(dispatchCtx)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
