package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/liveleaper/liveleaper/internal/utils"
)

type Config struct {
	Server   ServerConfig
	Download DownloadConfig
	Convert  ConvertConfig
	Storage  StorageConfig
	Mongo    MongoConfig
	API      APIConfig
	CORS     CORSConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DownloadConfig struct {
	OutputDir              string
	AudioFormat            string
	VideoQuality           string
	Engine                 string // "auto", "ytdlp" or "native"
	MaxConcurrentDownloads int
	DownloadTimeout        time.Duration
	RetryCount             int
	MaxFileSize            int64 // parsed from a size string like "2G"
	EmbedMetadata          bool
	EmbedThumbnail         bool
	WriteSubtitles         bool
	YtdlpPath              string
	CookiesFile            string
}

type ConvertConfig struct {
	OutputDir     string
	VideoCodec    string
	AudioCodec    string
	AudioBitrate  string
	CRF           int
	Preset        string
	HardwareAccel bool
	FfmpegPath    string
	FfprobePath   string
}

type StorageConfig struct {
	Backend string // "local" or "s3"
	S3      S3Config
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	EndpointURL     string
	KeyPrefix       string
}

type MongoConfig struct {
	Enabled  bool
	URI      string
	Database string
	Timeout  time.Duration
}

type APIConfig struct {
	APIKey            string
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
	Profile          string
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads configuration from an optional YAML file, a .env file and
// the process environment. Environment variables use the LIVELEAPER_
// prefix with dots replaced by underscores, e.g. LIVELEAPER_SERVER_PORT.
// An empty path checks ./liveleaper.yaml and ~/.config/liveleaper/.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env file")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LIVELEAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("liveleaper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homeConfigDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}

	cfg.Server.Port = v.GetString("server.port")
	cfg.Server.Host = v.GetString("server.host")

	cfg.Download.OutputDir = v.GetString("download.output_dir")
	cfg.Download.AudioFormat = v.GetString("download.audio_format")
	cfg.Download.VideoQuality = v.GetString("download.video_quality")
	cfg.Download.Engine = v.GetString("download.engine")
	cfg.Download.MaxConcurrentDownloads = v.GetInt("download.max_concurrent")
	cfg.Download.DownloadTimeout = v.GetDuration("download.timeout")
	cfg.Download.RetryCount = v.GetInt("download.retry_count")
	if s := v.GetString("download.max_file_size"); s != "" {
		size, err := utils.ParseFilesize(s)
		if err != nil {
			return nil, fmt.Errorf("download.max_file_size: %w", err)
		}
		cfg.Download.MaxFileSize = size
	}
	cfg.Download.EmbedMetadata = v.GetBool("download.embed_metadata")
	cfg.Download.EmbedThumbnail = v.GetBool("download.embed_thumbnail")
	cfg.Download.WriteSubtitles = v.GetBool("download.write_subtitles")
	cfg.Download.YtdlpPath = v.GetString("download.ytdlp_path")
	cfg.Download.CookiesFile = v.GetString("download.cookies_file")

	cfg.Convert.OutputDir = v.GetString("convert.output_dir")
	cfg.Convert.VideoCodec = v.GetString("convert.video_codec")
	cfg.Convert.AudioCodec = v.GetString("convert.audio_codec")
	cfg.Convert.AudioBitrate = v.GetString("convert.audio_bitrate")
	cfg.Convert.CRF = v.GetInt("convert.crf")
	cfg.Convert.Preset = v.GetString("convert.preset")
	cfg.Convert.HardwareAccel = v.GetBool("convert.hardware_accel")
	cfg.Convert.FfmpegPath = v.GetString("convert.ffmpeg_path")
	cfg.Convert.FfprobePath = v.GetString("convert.ffprobe_path")

	cfg.Storage.Backend = v.GetString("storage.backend")
	cfg.Storage.S3.Region = v.GetString("storage.s3.region")
	cfg.Storage.S3.AccessKeyID = v.GetString("storage.s3.access_key_id")
	cfg.Storage.S3.SecretAccessKey = v.GetString("storage.s3.secret_access_key")
	cfg.Storage.S3.BucketName = v.GetString("storage.s3.bucket_name")
	cfg.Storage.S3.EndpointURL = v.GetString("storage.s3.endpoint_url") // Optional for LocalStack
	cfg.Storage.S3.KeyPrefix = v.GetString("storage.s3.key_prefix")

	cfg.Mongo.Enabled = v.GetBool("mongo.enabled")
	cfg.Mongo.URI = v.GetString("mongo.uri")
	cfg.Mongo.Database = v.GetString("mongo.database")
	cfg.Mongo.Timeout = v.GetDuration("mongo.timeout")

	cfg.API.APIKey = v.GetString("api.api_key")
	cfg.API.JWTSecret = v.GetString("api.jwt_secret")
	cfg.API.RateLimitRequests = v.GetInt("api.rate_limit_requests")
	cfg.API.RateLimitWindow = v.GetDuration("api.rate_limit_window")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")

	cfg.CORS = loadCORSConfig(v)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")

	v.SetDefault("download.output_dir", "downloads")
	v.SetDefault("download.audio_format", "mp3")
	v.SetDefault("download.video_quality", "best")
	v.SetDefault("download.max_concurrent", 3)
	v.SetDefault("download.timeout", "30m")
	v.SetDefault("download.retry_count", 3)
	v.SetDefault("download.engine", "auto")
	v.SetDefault("download.max_file_size", "4G")
	v.SetDefault("download.embed_metadata", true)
	v.SetDefault("download.embed_thumbnail", false)
	v.SetDefault("download.write_subtitles", false)
	v.SetDefault("download.ytdlp_path", "yt-dlp")
	v.SetDefault("download.cookies_file", "")

	v.SetDefault("convert.output_dir", "converted")
	v.SetDefault("convert.video_codec", "h264")
	v.SetDefault("convert.audio_codec", "aac")
	v.SetDefault("convert.audio_bitrate", "192k")
	v.SetDefault("convert.crf", 23)
	v.SetDefault("convert.preset", "medium")
	v.SetDefault("convert.hardware_accel", true)
	v.SetDefault("convert.ffmpeg_path", "ffmpeg")
	v.SetDefault("convert.ffprobe_path", "ffprobe")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.key_prefix", "liveleaper")

	v.SetDefault("mongo.enabled", false)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "liveleaper")
	v.SetDefault("mongo.timeout", "10s")

	v.SetDefault("api.rate_limit_requests", 100)
	v.SetDefault("api.rate_limit_window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("cors.profile", "custom")
	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 3600)
}

func (c *Config) validate() error {
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server.port %q, must be in range [1, 65535]", c.Server.Port)
	}
	if c.Storage.Backend != "local" && c.Storage.Backend != "s3" {
		return fmt.Errorf("invalid storage.backend %q, must be \"local\" or \"s3\"", c.Storage.Backend)
	}
	switch c.Download.Engine {
	case "auto", "ytdlp", "native":
	default:
		return fmt.Errorf("invalid download.engine %q, must be \"auto\", \"ytdlp\" or \"native\"", c.Download.Engine)
	}
	if err := utils.EnsureDir(c.Download.OutputDir); err != nil {
		return fmt.Errorf("download.output_dir: %w", err)
	}
	if err := utils.EnsureDir(c.Convert.OutputDir); err != nil {
		return fmt.Errorf("convert.output_dir: %w", err)
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.BucketName == "" {
		return fmt.Errorf("storage.s3.bucket_name is required when storage.backend is \"s3\"")
	}
	if c.Download.MaxConcurrentDownloads < 1 {
		return fmt.Errorf("download.max_concurrent must be at least 1")
	}
	if c.Download.RetryCount < 0 {
		return fmt.Errorf("download.retry_count must not be negative")
	}
	if c.Convert.CRF < 0 || c.Convert.CRF > 51 {
		return fmt.Errorf("convert.crf must be in range [0, 51]")
	}
	return nil
}

func homeConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "liveleaper"), nil
}

// loadCORSConfig loads CORS configuration based on profile or custom settings
func loadCORSConfig(v *viper.Viper) CORSConfig {
	profile := v.GetString("cors.profile")

	switch profile {
	case "development":
		return developmentCORSConfig(v)
	case "production":
		return productionCORSConfig(v)
	default:
		return customCORSConfig(v)
	}
}

// developmentCORSConfig returns permissive CORS settings for development
func developmentCORSConfig(v *viper.Viper) CORSConfig {
	return CORSConfig{
		Enabled: v.GetBool("cors.enabled"),
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:8080",
		},
		AllowedMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH",
		},
		AllowedHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-API-Key",
		},
		ExposedHeaders: []string{
			"X-Total-Count", "Content-Disposition",
		},
		AllowCredentials: v.GetBool("cors.allow_credentials"),
		MaxAge:           86400,
		Profile:          "development",
	}
}

// productionCORSConfig returns restrictive CORS settings for production
func productionCORSConfig(v *viper.Viper) CORSConfig {
	return CORSConfig{
		Enabled:        v.GetBool("cors.enabled"),
		AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		AllowedMethods: []string{
			"GET", "POST", "DELETE", "OPTIONS",
		},
		AllowedHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		AllowCredentials: v.GetBool("cors.allow_credentials"),
		MaxAge:           3600,
		Profile:          "production",
	}
}

// customCORSConfig returns CORS settings taken verbatim from configuration
func customCORSConfig(v *viper.Viper) CORSConfig {
	return CORSConfig{
		Enabled:          v.GetBool("cors.enabled"),
		AllowedOrigins:   v.GetStringSlice("cors.allowed_origins"),
		AllowedMethods:   v.GetStringSlice("cors.allowed_methods"),
		AllowedHeaders:   v.GetStringSlice("cors.allowed_headers"),
		ExposedHeaders:   v.GetStringSlice("cors.exposed_headers"),
		AllowCredentials: v.GetBool("cors.allow_credentials"),
		MaxAge:           v.GetInt("cors.max_age"),
		Profile:          "custom",
	}
}
