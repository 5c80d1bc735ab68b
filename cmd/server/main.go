package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	convgrpc "counseling-platform/backend/conversation/grpc"
	convmodels "counseling-platform/backend/conversation/models"
	counselormodels "counseling-platform/backend/counselor/models"
	matchingmodels "counseling-platform/backend/matching/models"
	"counseling-platform/backend/pkg/config"
	"counseling-platform/backend/pkg/di"
	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/observability"
	"counseling-platform/backend/pkg/router"
	"counseling-platform/backend/pkg/secrets"
	usermodels "counseling-platform/backend/user/models"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	if err := secrets.Init(log); err != nil {
		log.Warn("Secrets manager unavailable, using environment", "error", err.Error())
	}
	jwtSecret := secrets.GetSecretWithDefault(context.Background(), "JWT_SECRET", cfg.JWT.Secret)

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&usermodels.User{},
		&counselormodels.Counselor{},
		&matchingmodels.IntakeRequest{},
		&convmodels.ConversationMessage{},
	); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_pair ON conversation_messages(user_id, counselor_id, sent_time)").Error; err != nil {
		log.LogError(err, "Failed to create conversation index", "index", "idx_messages_pair")
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_requests_user_status ON intake_requests(user_id, status)").Error; err != nil {
		log.LogError(err, "Failed to create request index", "index", "idx_requests_user_status")
	}

	shutdownTracing := observability.SetupTracing("counseling-platform")
	defer shutdownTracing()
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		metricsPort = "9091"
	}
	observability.SetupPrometheusMetrics(":" + metricsPort)

	container := di.New(db, log, jwtSecret)

	r := router.New(container)

	// Validation middleware has to go on before any route is registered
	if schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH"); schemaPath != "" {
		if err := r.AddOpenAPIValidation(schemaPath); err != nil {
			log.LogError(err, "Failed to load OpenAPI schema", "path", schemaPath)
		}
	}

	r.SetupRoutes()

	if grpcPort := os.Getenv("GRPC_PORT"); grpcPort != "" {
		go func() {
			if err := convgrpc.StartGRPCServer(grpcPort, log); err != nil {
				log.LogError(err, "gRPC server stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	r.Shutdown()
	if err := container.Broker.Close(); err != nil {
		log.LogError(err, "Failed to close broker")
	}

	log.Info("Server exited gracefully")
}
