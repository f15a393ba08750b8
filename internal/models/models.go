package models

import (
	"time"
)

type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformNiconico Platform = "niconico"
	PlatformOther    Platform = "other"
)

type TaskType string

const (
	TaskTypeDownload TaskType = "download"
	TaskTypeConvert  TaskType = "convert"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the status can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// Task is a unit of download or conversion work tracked by the task
// manager and exposed over the API.
type Task struct {
	ID           string     `json:"task_id" bson:"task_id"`
	Type         TaskType   `json:"type" bson:"type"`
	Status       TaskStatus `json:"status" bson:"status"`
	URL          string     `json:"url,omitempty" bson:"url,omitempty"`
	InputFile    string     `json:"input_file,omitempty" bson:"input_file,omitempty"`
	OutputFile   string     `json:"output_file,omitempty" bson:"output_file,omitempty"`
	Progress     float64    `json:"progress" bson:"progress"`
	Speed        string     `json:"speed,omitempty" bson:"speed,omitempty"`
	ETA          string     `json:"eta,omitempty" bson:"eta,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

// VideoInfo is metadata about a remote video, before downloading.
type VideoInfo struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Uploader   string   `json:"uploader,omitempty"`
	Duration   float64  `json:"duration,omitempty"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
	Platform   Platform `json:"platform"`
	URL        string   `json:"url"`
	IsLive     bool     `json:"is_live,omitempty"`
	UploadDate string   `json:"upload_date,omitempty"`
	ViewCount  int64    `json:"view_count,omitempty"`
	Formats    []Format `json:"formats,omitempty"`
}

type Format struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	VCodec     string  `json:"vcodec,omitempty"`
	ACodec     string  `json:"acodec,omitempty"`
	Filesize   int64   `json:"filesize,omitempty"`
}

// PlaylistEntry is one item of a flat playlist listing.
type PlaylistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DownloadRecord is the history entry persisted after a finished
// download, keyed by content ID for deduplication.
type DownloadRecord struct {
	ContentID    string                 `json:"content_id" bson:"content_id"`
	URL          string                 `json:"url" bson:"url"`
	Platform     Platform               `json:"platform" bson:"platform"`
	Title        string                 `json:"title" bson:"title"`
	FileName     string                 `json:"file_name" bson:"file_name"`
	FilePath     string                 `json:"file_path" bson:"file_path"`
	FileSize     int64                  `json:"file_size" bson:"file_size"`
	AudioOnly    bool                   `json:"audio_only" bson:"audio_only"`
	StorageKey   string                 `json:"storage_key,omitempty" bson:"storage_key,omitempty"`
	DownloadedAt time.Time              `json:"downloaded_at" bson:"downloaded_at"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// MediaInfo describes a local media file as reported by ffprobe.
type MediaInfo struct {
	Path       string  `json:"path"`
	FormatName string  `json:"format_name"`
	Duration   float64 `json:"duration"`
	Size       int64   `json:"size"`
	BitRate    int64   `json:"bit_rate"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
}

// Progress is a point-in-time snapshot reported by a running download
// or conversion.
type Progress struct {
	Percent float64 `json:"percent"`
	Speed   string  `json:"speed,omitempty"`
	ETA     string  `json:"eta,omitempty"`
}

type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// API request and response shapes.

type DownloadRequest struct {
	URL         string `json:"url" binding:"required"`
	AudioOnly   bool   `json:"audio_only,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
	Quality     string `json:"quality,omitempty"`
	OutputDir   string `json:"output_dir,omitempty"`
	ConvertTo   string `json:"convert_to,omitempty"`
}

type BatchDownloadRequest struct {
	URLs        []string `json:"urls" binding:"required,min=1"`
	AudioOnly   bool     `json:"audio_only,omitempty"`
	AudioFormat string   `json:"audio_format,omitempty"`
	Quality     string   `json:"quality,omitempty"`
	OutputDir   string   `json:"output_dir,omitempty"`
	ConvertTo   string   `json:"convert_to,omitempty"`
}

type BatchDownloadResponse struct {
	TaskIDs []string `json:"task_ids"`
	Skipped []string `json:"skipped,omitempty"`
	Status  string   `json:"status"`
}

type ConvertRequest struct {
	InputFile    string `json:"input_file" binding:"required"`
	OutputFormat string `json:"output_format" binding:"required"`
	VideoCodec   string `json:"video_codec,omitempty"`
	AudioCodec   string `json:"audio_codec,omitempty"`
	AudioBitrate string `json:"audio_bitrate,omitempty"`
	CRF          int    `json:"crf,omitempty"`
	Preset       string `json:"preset,omitempty"`
	Resolution   string `json:"resolution,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
	Channels     int    `json:"channels,omitempty"`
	AudioOnly    bool   `json:"audio_only,omitempty"`
}

type ConvertResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TaskListResponse struct {
	Total int       `json:"total"`
	Tasks []Task    `json:"tasks"`
	Stats TaskStats `json:"stats"`
}

type FileListResponse struct {
	Directory string         `json:"directory"`
	Total     int            `json:"total"`
	Files     []FileListItem `json:"files"`
}

type FileListItem struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	SizeHuman  string    `json:"size_human"`
	ModifiedAt time.Time `json:"modified_at"`
}

type UploadURLRequest struct {
	FileName      string `json:"file_name" binding:"required"`
	ExpiryMinutes int    `json:"expiry_minutes,omitempty"`
}

type UploadURLResponse struct {
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type HistoryListResponse struct {
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	Records []DownloadRecord `json:"records"`
}

type PaginationOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Sort  string `json:"sort"`
}
