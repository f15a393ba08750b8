package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/storage"
	"github.com/liveleaper/liveleaper/internal/utils"
)

// FileHandler serves files from the configured output directories and
// issues presigned upload URLs against the archive backend.
type FileHandler struct {
	downloadDir string
	convertDir  string
	storage     storage.Storage
}

func NewFileHandler(downloadDir, convertDir string, store storage.Storage) *FileHandler {
	return &FileHandler{
		downloadDir: downloadDir,
		convertDir:  convertDir,
		storage:     store,
	}
}

// List godoc
// @Summary List output files
// @Description List files in the download or conversion output directory.
// @Tags files
// @Produce json
// @Param dir query string false "Directory alias" Enums(downloads, converted) default(downloads)
// @Success 200 {object} models.FileListResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/files [get]
// @Security ApiKeyAuth
func (h *FileHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	dir, err := h.resolveDir(c.DefaultQuery("dir", "downloads"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, models.FileListResponse{
				Directory: dir,
				Files:     []models.FileListItem{},
			})
			return
		}
		utils.LogError(ctx, "Failed to read output directory", err, utils.Fields{"dir": dir})
		errorResponse(c, utils.NewInternalError())
		return
	}

	files := []models.FileListItem{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, models.FileListItem{
			Name:       e.Name(),
			Size:       info.Size(),
			SizeHuman:  utils.FormatBytes(info.Size()),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModifiedAt.After(files[j].ModifiedAt)
	})

	c.JSON(http.StatusOK, models.FileListResponse{
		Directory: dir,
		Total:     len(files),
		Files:     files,
	})
}

// Download godoc
// @Summary Download an output file
// @Description Serve a file from an output directory as an attachment.
// @Tags files
// @Produce application/octet-stream
// @Param path query string true "File path relative to an output directory, or alias-prefixed like downloads/name.mp4"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/files/download [get]
// @Security ApiKeyAuth
func (h *FileHandler) Download(c *gin.Context) {
	full, err := h.resolvePath(c.Query("path"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		errorResponse(c, utils.NewFileNotFoundError(c.Query("path")))
		return
	}

	c.FileAttachment(full, filepath.Base(full))
}

// UploadURL godoc
// @Summary Generate a presigned upload URL
// @Description Return a time limited URL for uploading a file directly to the archive backend. S3 backends only.
// @Tags files
// @Accept json
// @Produce json
// @Param request body models.UploadURLRequest true "Upload URL request"
// @Success 200 {object} models.UploadURLResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/files/upload-url [post]
// @Security ApiKeyAuth
func (h *FileHandler) UploadURL(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	expiryMinutes := req.ExpiryMinutes
	if expiryMinutes <= 0 {
		expiryMinutes = 60
	}
	expiry := time.Duration(expiryMinutes) * time.Minute

	key := "uploads/" + utils.SanitizeFilename(req.FileName)
	url, err := h.storage.GeneratePresignedURL(ctx, key, expiry)
	if err != nil {
		utils.LogError(ctx, "Failed to generate presigned URL", err)
		errorResponse(c, utils.NewS3Error(err))
		return
	}

	c.JSON(http.StatusOK, models.UploadURLResponse{
		FileName:  req.FileName,
		URL:       url,
		ExpiresAt: time.Now().Add(expiry),
	})
}

func (h *FileHandler) resolveDir(alias string) (string, error) {
	switch alias {
	case "downloads", "":
		return h.downloadDir, nil
	case "converted":
		return h.convertDir, nil
	default:
		return "", utils.NewValidationError("Unknown directory", map[string]interface{}{
			"dir":     alias,
			"allowed": []string{"downloads", "converted"},
		})
	}
}

// resolvePath maps a request path onto a file inside one of the output
// directories, rejecting traversal outside them.
func (h *FileHandler) resolvePath(p string) (string, error) {
	if p == "" {
		return "", utils.NewValidationError("Missing path parameter", nil)
	}

	alias := "downloads"
	rel := p
	if strings.HasPrefix(p, "converted/") {
		alias = "converted"
		rel = strings.TrimPrefix(p, "converted/")
	} else {
		rel = strings.TrimPrefix(p, "downloads/")
	}

	dir, err := h.resolveDir(alias)
	if err != nil {
		return "", err
	}

	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", utils.NewValidationError("Invalid path", map[string]interface{}{"path": p})
	}

	return filepath.Join(dir, cleaned), nil
}
