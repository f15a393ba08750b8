package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/converter"
	"github.com/liveleaper/liveleaper/internal/services/tasks"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type ConvertHandler struct {
	converter *converter.Converter
	manager   *tasks.Manager
}

func NewConvertHandler(conv *converter.Converter, manager *tasks.Manager) *ConvertHandler {
	return &ConvertHandler{
		converter: conv,
		manager:   manager,
	}
}

// Convert godoc
// @Summary Start a conversion task
// @Description Queue an asynchronous media conversion. Audio output formats drop the video stream.
// @Tags convert
// @Accept json
// @Produce json
// @Param request body models.ConvertRequest true "Conversion request"
// @Success 202 {object} models.ConvertResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/convert [post]
// @Security ApiKeyAuth
func (h *ConvertHandler) Convert(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	if !h.converter.Available() {
		errorResponse(c, utils.NewToolNotFoundError("ffmpeg"))
		return
	}
	if _, err := os.Stat(req.InputFile); err != nil {
		errorResponse(c, utils.NewFileNotFoundError(req.InputFile))
		return
	}

	opts := converter.Options{
		OutputFormat: req.OutputFormat,
		VideoCodec:   req.VideoCodec,
		AudioCodec:   req.AudioCodec,
		AudioBitrate: req.AudioBitrate,
		CRF:          req.CRF,
		Preset:       req.Preset,
		Resolution:   req.Resolution,
		SampleRate:   req.SampleRate,
		Channels:     req.Channels,
		AudioOnly:    req.AudioOnly,
	}

	task, err := h.manager.Submit(ctx, models.TaskTypeConvert, "", req.InputFile,
		func(runCtx context.Context, report func(models.Progress)) (string, error) {
			opts.OnProgress = report
			return h.converter.Convert(runCtx, req.InputFile, opts)
		})
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.ConvertResponse{
		TaskID:  task.ID,
		Status:  string(task.Status),
		Message: "Conversion queued",
	})
}

// MediaInfo godoc
// @Summary Probe a local media file
// @Description Return container and stream information for a local file via ffprobe.
// @Tags convert
// @Produce json
// @Param path query string true "Local file path"
// @Success 200 {object} models.MediaInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/media-info [get]
// @Security ApiKeyAuth
func (h *ConvertHandler) MediaInfo(c *gin.Context) {
	ctx := c.Request.Context()

	path := c.Query("path")
	if path == "" {
		errorResponse(c, utils.NewValidationError("Missing path parameter", nil))
		return
	}

	info, err := h.converter.Probe(ctx, path)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
