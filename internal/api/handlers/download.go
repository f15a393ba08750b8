package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/downloader"
	"github.com/liveleaper/liveleaper/internal/services/normalizer"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type DownloadHandler struct {
	downloader *downloader.Downloader
}

func NewDownloadHandler(d *downloader.Downloader) *DownloadHandler {
	return &DownloadHandler{downloader: d}
}

// Download godoc
// @Summary Start a download task
// @Description Queue an asynchronous download of a video or audio track. Playlist URLs expand into one task per entry.
// @Tags download
// @Accept json
// @Produce json
// @Param request body models.DownloadRequest true "Download request"
// @Success 202 {object} models.BatchDownloadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/download [post]
// @Security ApiKeyAuth
func (h *DownloadHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	opts := downloader.Options{
		AudioOnly:   req.AudioOnly,
		AudioFormat: req.AudioFormat,
		Quality:     req.Quality,
		OutputDir:   req.OutputDir,
		ConvertTo:   req.ConvertTo,
	}

	scheduled, err := h.downloader.Enqueue(ctx, req.URL, opts)
	if err != nil {
		errorResponse(c, err)
		return
	}

	ids := make([]string, len(scheduled))
	for i, t := range scheduled {
		ids[i] = t.ID
	}

	c.JSON(http.StatusAccepted, models.BatchDownloadResponse{
		TaskIDs: ids,
		Status:  "accepted",
	})
}

// BatchDownload godoc
// @Summary Start download tasks for multiple URLs
// @Description Queue downloads for a list of URLs. Duplicates and invalid entries are skipped, not failed.
// @Tags download
// @Accept json
// @Produce json
// @Param request body models.BatchDownloadRequest true "Batch download request"
// @Success 202 {object} models.BatchDownloadResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/download/batch [post]
// @Security ApiKeyAuth
func (h *DownloadHandler) BatchDownload(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.BatchDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	opts := downloader.Options{
		AudioOnly:   req.AudioOnly,
		AudioFormat: req.AudioFormat,
		Quality:     req.Quality,
		OutputDir:   req.OutputDir,
		ConvertTo:   req.ConvertTo,
	}

	scheduled, skipped := h.downloader.EnqueueBatch(ctx, req.URLs, opts)

	ids := make([]string, len(scheduled))
	for i, t := range scheduled {
		ids[i] = t.ID
	}

	c.JSON(http.StatusAccepted, models.BatchDownloadResponse{
		TaskIDs: ids,
		Skipped: skipped,
		Status:  "accepted",
	})
}

// VideoInfo godoc
// @Summary Fetch video metadata
// @Description Resolve a video URL and return its metadata without downloading.
// @Tags download
// @Produce json
// @Param url query string true "Video URL"
// @Success 200 {object} models.VideoInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/video-info [get]
// @Security ApiKeyAuth
func (h *DownloadHandler) VideoInfo(c *gin.Context) {
	ctx := c.Request.Context()

	rawURL := c.Query("url")
	if rawURL == "" {
		errorResponse(c, utils.NewValidationError("Missing url parameter", nil))
		return
	}

	info, err := h.downloader.GetVideoInfo(ctx, rawURL)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// UploadURLList godoc
// @Summary Upload a URL list file
// @Description Parse an uploaded text file, one URL per line with # comments, and queue a batch download.
// @Tags download
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "URL list file"
// @Param audio_only formData bool false "Download audio only"
// @Success 202 {object} models.BatchDownloadResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/urls/upload [post]
// @Security ApiKeyAuth
func (h *DownloadHandler) UploadURLList(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, utils.NewValidationError("Missing file upload", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, utils.NewValidationError("Unreadable file upload", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}
	defer f.Close()

	urls, err := normalizer.ParseURLList(f)
	if err != nil {
		errorResponse(c, utils.NewValidationError("Malformed URL list", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}
	if len(urls) == 0 {
		errorResponse(c, utils.NewValidationError("URL list is empty", nil))
		return
	}

	opts := downloader.Options{
		AudioOnly: c.PostForm("audio_only") == "true",
	}

	scheduled, skipped := h.downloader.EnqueueBatch(ctx, urls, opts)

	ids := make([]string, len(scheduled))
	for i, t := range scheduled {
		ids[i] = t.ID
	}

	utils.LogInfo(ctx, "Queued URL list upload", utils.Fields{
		"file":      fileHeader.Filename,
		"scheduled": len(ids),
		"skipped":   len(skipped),
	})

	c.JSON(http.StatusAccepted, models.BatchDownloadResponse{
		TaskIDs: ids,
		Skipped: skipped,
		Status:  "accepted",
	})
}
