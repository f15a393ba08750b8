package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liveleaper/liveleaper/internal/utils"
)

func errorResponse(c *gin.Context, err error) {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		appErr = utils.NewInternalError()
	}
	c.JSON(appErr.StatusCode, gin.H{
		"error":      appErr,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
