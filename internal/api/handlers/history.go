package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/liveleaper/liveleaper/internal/database"
	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type HistoryHandler struct {
	history database.HistoryStore
}

func NewHistoryHandler(history database.HistoryStore) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List godoc
// @Summary List download history
// @Description Return recorded downloads, newest first.
// @Tags history
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Param limit query int false "Page size"
// @Success 200 {object} models.HistoryListResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/history [get]
// @Security ApiKeyAuth
func (h *HistoryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, total, err := h.history.List(ctx, models.PaginationOptions{
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		utils.LogError(ctx, "Failed to list history", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	if records == nil {
		records = []models.DownloadRecord{}
	}

	c.JSON(http.StatusOK, models.HistoryListResponse{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Records: records,
	})
}

// Delete godoc
// @Summary Delete a history record
// @Description Remove a download record by content ID. The downloaded file itself is left in place.
// @Tags history
// @Produce json
// @Param content_id path string true "Content ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/history/{content_id} [delete]
// @Security ApiKeyAuth
func (h *HistoryHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	contentID := c.Param("content_id")

	if err := h.history.Delete(ctx, contentID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, utils.NewError(utils.ErrorCodeFileNotFound, "History record not found", http.StatusNotFound))
			return
		}
		utils.LogError(ctx, "Failed to delete history record", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "deleted",
		"content_id": contentID,
	})
}
