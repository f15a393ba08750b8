package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/liveleaper/liveleaper/internal/api/handlers"
	"github.com/liveleaper/liveleaper/internal/api/middleware"
	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/services/auth"
)

type Router struct {
	engine *gin.Engine
	config *config.Config
}

func NewRouter(cfg *config.Config, downloadHandler *handlers.DownloadHandler, convertHandler *handlers.ConvertHandler, taskHandler *handlers.TaskHandler, fileHandler *handlers.FileHandler, historyHandler *handlers.HistoryHandler, healthHandler *handlers.HealthHandler, jwtService *auth.JWTService) *Router {
	// Set Gin mode
	if cfg.Server.Host == "0.0.0.0" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))

	// Health endpoints (no auth required)
	health := engine.Group("/")
	{
		health.GET("/health", healthHandler.Health)
		health.GET("/ready", healthHandler.Readiness)
		health.GET("/live", healthHandler.Liveness)
	}

	// Swagger documentation (no auth required)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API endpoints with authentication and rate limiting
	api := engine.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(&cfg.API, jwtService))
	api.Use(middleware.RateLimitMiddleware(&cfg.API))
	{
		// Download endpoints
		api.POST("/download", downloadHandler.Download)            // /api/v1/download
		api.POST("/download/batch", downloadHandler.BatchDownload) // /api/v1/download/batch
		api.GET("/video-info", downloadHandler.VideoInfo)          // /api/v1/video-info
		api.POST("/urls/upload", downloadHandler.UploadURLList)    // /api/v1/urls/upload

		// Conversion endpoints
		api.POST("/convert", convertHandler.Convert)     // /api/v1/convert
		api.GET("/media-info", convertHandler.MediaInfo) // /api/v1/media-info

		// Task endpoints
		task := api.Group("/tasks")
		{
			task.GET("", taskHandler.List)               // /api/v1/tasks
			task.GET("/:task_id", taskHandler.Get)       // /api/v1/tasks/{task_id}
			task.DELETE("/:task_id", taskHandler.Delete) // /api/v1/tasks/{task_id}
		}

		// File endpoints
		file := api.Group("/files")
		{
			file.GET("", fileHandler.List)                  // /api/v1/files
			file.GET("/download", fileHandler.Download)     // /api/v1/files/download
			file.POST("/upload-url", fileHandler.UploadURL) // /api/v1/files/upload-url
		}

		// History endpoints
		history := api.Group("/history")
		{
			history.GET("", historyHandler.List)                  // /api/v1/history
			history.DELETE("/:content_id", historyHandler.Delete) // /api/v1/history/{content_id}
		}
	}

	return &Router{
		engine: engine,
		config: cfg,
	}
}

func (r *Router) Start() error {
	addr := r.config.Server.Host + ":" + r.config.Server.Port
	return r.engine.Run(addr)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
