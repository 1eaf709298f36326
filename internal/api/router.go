package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cvstudio/internal/api/middleware"
	"cvstudio/internal/metrics"
	"cvstudio/internal/render"
)

// NewRouter 构建 Gin 路由引擎, 挂载基础中间件、健康检查与指标端点。
func NewRouter(logger *slog.Logger, pipeline *render.Pipeline) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":        "ok",
			"render_ready":  pipeline.Healthy(),
			"open_surfaces": pipeline.OpenSurfaces(),
		}
		c.JSON(http.StatusOK, status)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
