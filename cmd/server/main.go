package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"alcyxob/plan-engine/internal/api"
	"alcyxob/plan-engine/internal/catalog"
	"alcyxob/plan-engine/internal/classifier"
	"alcyxob/plan-engine/internal/config"
	"alcyxob/plan-engine/internal/generation"
	"alcyxob/plan-engine/internal/llm"
	"alcyxob/plan-engine/internal/lock"
	"alcyxob/plan-engine/internal/logger"
	"alcyxob/plan-engine/internal/operations"
	"alcyxob/plan-engine/internal/repository/mongo"
	"alcyxob/plan-engine/internal/service"
	"alcyxob/plan-engine/internal/storage"
)

// @title Plan Modification API
// @version 1.0
// @description Modifies a user's training routine and diet from chat requests or direct operations.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		// The logger is configured from cfg; fall back to a production one.
		if l, lerr := logger.New("prod"); lerr == nil {
			l.Fatal("could not load config", "error", err)
		}
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting plan engine", "address", cfg.Server.Address, "log_mode", cfg.Log.Mode)

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatal("could not connect to MongoDB", "error", err)
	}
	defer func() {
		log.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
			log.Warn("index creation failed", "error", err)
			return
		}
		log.Info("indexes ensured")
	}()

	// --- Per-user guard ---
	guard := lock.NewLocal()
	if cfg.Redis.Addr != "" {
		rdb, err := lock.Connect(cfg.Redis)
		if err != nil {
			log.Fatal("could not connect to redis", "error", err)
		}
		defer rdb.Close()
		guard = lock.NewRedis(rdb, cfg.Engine.LockTTL, log)
		log.Info("using redis in-flight guard", "addr", cfg.Redis.Addr)
	}

	// --- Export storage ---
	var exporter *storage.Exporter
	if cfg.S3.Endpoint != "" || cfg.S3.AccessKeyID != "" {
		fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3, log)
		if err != nil {
			log.Fatal("failed to initialize S3 storage", "error", err)
		}
		exporter = storage.NewExporter(fileStorage, storage.DefaultPresignedURLExpiry, log)
	} else {
		log.Warn("S3 not configured, plan export disabled")
	}

	// --- Classification and generation ---
	cat := catalog.New()
	var (
		cls          classifier.Classifier
		personalized generation.Generator
	)
	if cfg.OpenAI.APIKey != "" {
		client := llm.NewClient(cfg.OpenAI, cfg.Engine.RetryBackoff, log)
		cls = classifier.New(client, cat, cfg.OpenAI.ClassifierModel, cfg.Engine.ClassifierTimeout, cfg.Engine.ContextTurns, log)
		personalized = generation.NewPersonalized(client, cfg.OpenAI.GenerationModel,
			cfg.Engine.BreakerFailures, cfg.Engine.BreakerCooldown, log)
	} else {
		log.Warn("OpenAI not configured, free-text modification disabled and every diet uses templates")
	}
	tiers := generation.NewTiers(personalized, generation.NewTemplate(),
		cfg.Engine.GenerationTimeout, cfg.Engine.TemplateTimeout, log)

	handlers, err := operations.New(cat, tiers, log)
	if err != nil {
		log.Fatal("operation catalog is incomplete", "error", err)
	}

	// --- Initialize Services ---
	planService := service.NewPlanService(service.Deps{
		Users:      mongo.NewMongoUserRepository(appDB),
		Snapshots:  mongo.NewMongoSnapshotRepository(appDB),
		Store:      mongo.NewMongoPlanStore(appDB, log),
		Guard:      guard,
		Catalog:    cat,
		Classifier: cls,
		Handlers:   handlers,
		Exporter:   exporter,
		Log:        log,
	})

	// --- Initialize Gin Engine ---
	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.CORS(cfg.Server.AllowedOrigins), api.RequestLogger(log))
	api.SetupRoutes(router, cfg.JWT.Secret, planService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// A modification may classify and then wait for tier-1 generation.
		WriteTimeout: cfg.Engine.ClassifierTimeout + cfg.Engine.GenerationTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe error", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exiting")
}
