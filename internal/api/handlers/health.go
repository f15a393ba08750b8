package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liveleaper/liveleaper/internal/database"
	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/converter"
	"github.com/liveleaper/liveleaper/internal/services/storage"
	"github.com/liveleaper/liveleaper/internal/services/tasks"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type HealthHandler struct {
	history    database.HistoryStore
	storage    storage.Storage
	converter  *converter.Converter
	manager    *tasks.Manager
	engineName string
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Version   string                   `json:"version"`
	Engine    string                   `json:"engine"`
	Tasks     models.TaskStats         `json:"tasks"`
	Services  map[string]ServiceHealth `json:"services"`
}

type ServiceHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Detail       string `json:"detail,omitempty"`
	Error        string `json:"error,omitempty"`
}

func NewHealthHandler(history database.HistoryStore, store storage.Storage, conv *converter.Converter, manager *tasks.Manager, engineName string) *HealthHandler {
	return &HealthHandler{
		history:    history,
		storage:    store,
		converter:  conv,
		manager:    manager,
		engineName: engineName,
	}
}

// Health godoc
// @Summary Health check endpoint
// @Description Check the health of the service and its dependencies, including external tool availability
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   "1.0.0",
		Engine:    h.engineName,
		Tasks:     h.manager.Stats(),
		Services:  make(map[string]ServiceHealth),
	}

	response.Services["history"] = h.checkHistory(ctx)
	response.Services["storage"] = h.checkStorage(ctx)
	response.Services["ffmpeg"] = h.checkFfmpeg(ctx)

	// Determine overall status
	overallHealthy := true
	for _, service := range response.Services {
		if service.Status != "healthy" {
			overallHealthy = false
			break
		}
	}

	if !overallHealthy {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Readiness godoc
// @Summary Readiness check endpoint
// @Description Check if the service is ready to accept requests
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	ready := true
	checks := make(map[string]interface{})

	if err := h.history.Ping(ctx); err != nil {
		ready = false
		checks["history"] = map[string]interface{}{
			"ready": false,
			"error": err.Error(),
		}
	} else {
		checks["history"] = map[string]interface{}{
			"ready": true,
		}
	}

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	if ready {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// Liveness godoc
// @Summary Liveness check endpoint
// @Description Check if the service is alive
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /live [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	// Simple liveness check - if this endpoint responds, the service is alive
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkHistory(ctx context.Context) ServiceHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := h.history.Ping(checkCtx)
	responseTime := time.Since(start).String()

	if err != nil {
		utils.LogError(ctx, "History store health check failed", err)
		return ServiceHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return ServiceHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func (h *HealthHandler) checkStorage(ctx context.Context) ServiceHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := h.storage.Exists(checkCtx, "health-check-test")
	responseTime := time.Since(start).String()

	if err != nil {
		utils.LogError(ctx, "Storage health check failed", err)
		return ServiceHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return ServiceHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
		Detail:       h.storage.Location(),
	}
}

func (h *HealthHandler) checkFfmpeg(ctx context.Context) ServiceHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := h.converter.Version(checkCtx)
	responseTime := time.Since(start).String()

	if err != nil {
		return ServiceHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return ServiceHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
		Detail:       version,
	}
}
