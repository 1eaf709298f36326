package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"cvstudio/internal/api"
	"cvstudio/internal/auth"
	"cvstudio/internal/config"
	"cvstudio/internal/database"
	"cvstudio/internal/parser"
	"cvstudio/internal/render"
	"cvstudio/internal/schema"
	"cvstudio/internal/service"
	"cvstudio/internal/storage"
	"cvstudio/internal/template"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.String("db", cfg.Database.Name),
	)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}
	defer redisClient.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	privateKey, err := os.ReadFile(cfg.Auth.PrivateKeyPath)
	if err != nil {
		log.Fatalf("read jwt private key: %v", err)
	}
	publicKey, err := os.ReadFile(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("read jwt public key: %v", err)
	}
	authService, err := auth.NewAuthService(privateKey, publicKey, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	validator := schema.NewValidator()
	parsers, err := parser.NewDefaultRegistry(validator)
	if err != nil {
		log.Fatalf("init parser registry: %v", err)
	}
	templates, err := template.NewDefaultRegistry(template.NewHTMLEngine())
	if err != nil {
		log.Fatalf("init template registry: %v", err)
	}

	engine := render.NewBrowserEngine(logger, cfg.Render.BrowserPath)
	defer engine.Close()
	pipeline := render.NewPipeline(templates, engine, cfg.Render.Timeout(), logger)

	repo := database.NewCVRepository(db)
	svc := service.NewCVService(repo, validator, parsers, templates, pipeline, logger)

	router := api.NewRouter(logger, pipeline)
	api.RegisterRoutes(router, cfg, db, svc, templates, asynqClient, authService, redisClient, logger, storageClient)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
