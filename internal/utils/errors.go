package utils

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeInvalidURL         ErrorCode = "INVALID_URL"
	ErrorCodeUnsupportedURL     ErrorCode = "UNSUPPORTED_URL"
	ErrorCodeVideoNotFound      ErrorCode = "VIDEO_NOT_FOUND"
	ErrorCodeFileNotFound       ErrorCode = "FILE_NOT_FOUND"
	ErrorCodeTaskNotFound       ErrorCode = "TASK_NOT_FOUND"
	ErrorCodeDownloadFailed     ErrorCode = "DOWNLOAD_FAILED"
	ErrorCodeConversionFailed   ErrorCode = "CONVERSION_FAILED"
	ErrorCodeToolNotFound       ErrorCode = "TOOL_NOT_FOUND"
	ErrorCodeS3UploadFailed     ErrorCode = "S3_UPLOAD_FAILED"
	ErrorCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrorCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError    ErrorCode = "VALIDATION_ERROR"
	ErrorCodeTaskNotCancellable ErrorCode = "TASK_NOT_CANCELLABLE"
	ErrorCodeAlreadyDownloaded  ErrorCode = "ALREADY_DOWNLOADED"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Common error constructors
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return NewErrorWithDetails(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

func NewInvalidURLError(url string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeInvalidURL,
		"The provided URL is not a valid video URL",
		http.StatusBadRequest,
		map[string]interface{}{
			"supported": []string{"youtube.com", "youtu.be", "nicovideo.jp"},
			"provided":  url,
		},
	)
}

func NewUnsupportedURLError(url string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeUnsupportedURL,
		"The URL host is not a supported platform",
		http.StatusBadRequest,
		map[string]interface{}{
			"provided": url,
		},
	)
}

func NewVideoNotFoundError(url string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeVideoNotFound,
		"The requested video could not be found or is unavailable",
		http.StatusNotFound,
		map[string]interface{}{
			"url": url,
		},
	)
}

func NewFileNotFoundError(path string) *AppError {
	return NewError(
		ErrorCodeFileNotFound,
		fmt.Sprintf("File %s not found", path),
		http.StatusNotFound,
	)
}

func NewTaskNotFoundError(taskID string) *AppError {
	return NewError(
		ErrorCodeTaskNotFound,
		fmt.Sprintf("Task with ID %s not found", taskID),
		http.StatusNotFound,
	)
}

func NewTaskNotCancellableError(taskID, status string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeTaskNotCancellable,
		"Only pending or running tasks can be cancelled",
		http.StatusConflict,
		map[string]interface{}{
			"task_id": taskID,
			"status":  status,
		},
	)
}

func NewAlreadyDownloadedError(url, path string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeAlreadyDownloaded,
		"This video has already been downloaded",
		http.StatusConflict,
		map[string]interface{}{
			"url":  url,
			"path": path,
		},
	)
}

func NewDownloadError(err error) *AppError {
	return NewErrorWithDetails(
		ErrorCodeDownloadFailed,
		"Failed to download media",
		http.StatusInternalServerError,
		map[string]interface{}{
			"cause": err.Error(),
		},
	)
}

func NewConversionError(err error) *AppError {
	return NewErrorWithDetails(
		ErrorCodeConversionFailed,
		"Media conversion failed",
		http.StatusInternalServerError,
		map[string]interface{}{
			"cause": err.Error(),
		},
	)
}

func NewToolNotFoundError(tool string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeToolNotFound,
		fmt.Sprintf("Required external tool %s is not installed", tool),
		http.StatusServiceUnavailable,
		map[string]interface{}{
			"tool": tool,
		},
	)
}

func NewDatabaseError(err error) *AppError {
	return NewError(
		ErrorCodeDatabaseError,
		"Database operation failed",
		http.StatusInternalServerError,
	)
}

func NewS3Error(err error) *AppError {
	return NewError(
		ErrorCodeS3UploadFailed,
		"Failed to upload to object storage",
		http.StatusInternalServerError,
	)
}

func NewUnauthorizedError() *AppError {
	return NewError(
		ErrorCodeUnauthorized,
		"Invalid or missing authentication",
		http.StatusUnauthorized,
	)
}

func NewRateLimitError() *AppError {
	return NewError(
		ErrorCodeRateLimitExceeded,
		"Too many requests",
		http.StatusTooManyRequests,
	)
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}
