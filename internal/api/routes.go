package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cvstudio/internal/api/middleware"
	"cvstudio/internal/auth"
	"cvstudio/internal/config"
	"cvstudio/internal/service"
	"cvstudio/internal/storage"
	"cvstudio/internal/template"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	svc *service.CVService,
	templates *template.Registry,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	cvHandler := NewCVHandler(svc, asynqClient, storageClient, cfg.Clamd.Enabled, cfg.Clamd.Address, cfg.Limits.MaxImportBytes)
	templateHandler := NewTemplateHandler(templates)
	authHandler := NewAuthHandler(db, authService, redisClient, logger)
	wsHandler := NewWsHandler(redisClient, authService, logger)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)
		v1.GET("/public/:token", cvHandler.GetPublicCV)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		templateGroup := v1.Group("/templates")
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/themes", templateHandler.GetThemes)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
		}

		cvGroup := v1.Group("/cvs")
		cvGroup.Use(authMiddleware)
		{
			cvGroup.POST("", cvHandler.CreateCV)
			cvGroup.GET("", cvHandler.ListCVs)
			cvGroup.GET("/stats", cvHandler.GetStats)
			cvGroup.POST("/import", cvHandler.ImportCV)
			cvGroup.GET("/:id", cvHandler.GetCV)
			cvGroup.PUT("/:id", cvHandler.UpdateCV)
			cvGroup.DELETE("/:id", cvHandler.DeleteCV)
			cvGroup.GET("/:id/export", cvHandler.ExportCV)
			cvGroup.POST("/:id/export-jobs", cvHandler.CreateExportJob)
			cvGroup.GET("/:id/download-link", cvHandler.GetDownloadLink)
			cvGroup.GET("/:id/exports", cvHandler.ListExports)
			cvGroup.GET("/:id/versions", cvHandler.ListVersions)
			cvGroup.PUT("/:id/template", cvHandler.ChangeTemplate)
			cvGroup.POST("/:id/publish", cvHandler.PublishCV)
		}
	}
}
