package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/expohall/expoadmin-backend/internal/catalog"
	"github.com/expohall/expoadmin-backend/internal/db"
	"github.com/expohall/expoadmin-backend/internal/handlers"
	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/middleware"
	"github.com/expohall/expoadmin-backend/internal/observability"
	"github.com/expohall/expoadmin-backend/internal/realtime"
	"github.com/expohall/expoadmin-backend/internal/realtime/bus"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/server"
	"github.com/expohall/expoadmin-backend/internal/services"
	"github.com/expohall/expoadmin-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	catalogDir := utils.GetEnv("CATALOG_DIR", "configs/catalog", log)
	port := utils.GetEnv("PORT", "8080", log)

	// Observability
	observability.Register()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "expoadmin-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	defer func() { _ = otelShutdown(context.Background()) }()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	formTypeRepo := repos.NewFormTypeRepo(thePG, log)
	pipelineRepo := repos.NewPipelineRepo(thePG, log)
	stageRepo := repos.NewStageRepo(thePG, log)
	contactRepo := repos.NewContactRepo(thePG, log)
	historyRepo := repos.NewHistoryRepo(thePG, log)
	submissionRepo := repos.NewSubmissionRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := realtime.NewSSEHub(log)

	// Submission bus
	submissionBus, err := bus.NewRedisBus(log)
	if err != nil {
		log.Warn("Redis bus init failed; realtime notifications disabled", "error", err)
		submissionBus = nil
	}

	// Catalog
	catalogService, err := catalog.NewService(log, catalogDir)
	if err != nil {
		log.Error("Could not load catalog", "error", err)
		os.Exit(1)
	}
	if err := catalogService.SeedFormTypes(ctx, formTypeRepo); err != nil {
		log.Warn("Catalog form type seeding failed", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	notifier := services.NewBoardNotifier(sseHub)
	historyService := services.NewHistoryService(log, historyRepo)
	formTypeService := services.NewFormTypeService(log, formTypeRepo)
	contactService := services.NewContactService(thePG, log, contactRepo, stageRepo, pipelineRepo, historyService, notifier)
	pipelineService := services.NewPipelineService(thePG, log, formTypeRepo, pipelineRepo, stageRepo, contactRepo, historyRepo)
	intakeService := services.NewIntakeService(thePG, log, formTypeRepo, contactRepo, submissionRepo, contactService, historyService, submissionBus, notifier)
	relay := services.NewNotificationRelay(log, submissionBus, sseHub)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthcheckHandler := handlers.NewHealthcheckHandler()
	catalogHandler := handlers.NewCatalogHandler(log, catalogService)
	intakeHandler := handlers.NewIntakeHandler(log, intakeService, formTypeService)
	formTypeHandler := handlers.NewFormTypeHandler(log, formTypeService)
	pipelineHandler := handlers.NewPipelineHandler(log, pipelineService)
	contactHandler := handlers.NewContactHandler(log, contactService, historyService)
	notificationHandler := handlers.NewNotificationHandler(log, relay)
	sseHandler := handlers.NewSSEHandler(log, sseHub, relay)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)

	// Background workers
	group, groupCtx := errgroup.WithContext(ctx)
	if submissionBus != nil {
		group.Go(func() error { return relay.Run(groupCtx) })
	}
	group.Go(func() error { return catalogService.Watch(groupCtx) })

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:      authMiddleware,
		HealthcheckHandler:  healthcheckHandler,
		CatalogHandler:      catalogHandler,
		IntakeHandler:       intakeHandler,
		FormTypeHandler:     formTypeHandler,
		PipelineHandler:     pipelineHandler,
		ContactHandler:      contactHandler,
		NotificationHandler: notificationHandler,
		SSEHandler:          sseHandler,
		AllowOrigins:        origins,
	})

	srv := &http.Server{Addr: ":" + port, Handler: router}
	group.Go(func() error {
		fmt.Printf("Server listening on :%s\n", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Server failed", "error", err)
	}
	log.Info("Server stopped")
}
