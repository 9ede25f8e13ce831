package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ImmichBaseURL    string
	ImmichAPIKey     string
	AlbumName        string
	StateDBPath      string
	ChunkRoot        string
	SessionSecret    string
	PublicBaseURL    string
	LogLevel         string
	PublicUploadPage bool
	ChunkedUploads   bool
	ChunkSizeMB      int

	ListenAddr    string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MaxConcurrent        int
	DownloadRate         float64
	DownloadBurst        int
	DownloadHTTPTimeout  time.Duration
	DownloadAllowPrivate bool
	DownloadAllowedHosts []string
	DownloadMaxBytes     int64
	UploadHTTPTimeout    time.Duration
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// NormalizedBaseURL returns the Immich base URL without a trailing slash.
func (c *Config) NormalizedBaseURL() string {
	return strings.TrimRight(c.ImmichBaseURL, "/")
}

// RedisEnabled reports whether a Redis cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// InitConfig loads configuration from the environment.
func InitConfig() {
	AppConfig = Config{
		ImmichBaseURL:    getEnv("IMMICH_BASE_URL", "http://127.0.0.1:2283/api"),
		ImmichAPIKey:     getEnv("IMMICH_API_KEY", ""),
		AlbumName:        getEnv("ALBUM_NAME", ""),
		StateDBPath:      getEnv("STATE_DB", "./data/state.db"),
		ChunkRoot:        getEnv("CHUNK_ROOT", "./data/chunks"),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		PublicUploadPage: getEnvBool("PUBLIC_UPLOAD_PAGE_ENABLED", true),
		ChunkedUploads:   getEnvBool("CHUNKED_UPLOADS_ENABLED", true),
		ChunkSizeMB:      getEnvInt("CHUNK_SIZE_MB", 45),

		ListenAddr:    getEnv("LISTEN_ADDR", ":8000"),
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MaxConcurrent:        getEnvInt("MAX_CONCURRENT", 3),
		DownloadRate:         getEnvFloat("DOWNLOAD_RATE", 2),
		DownloadBurst:        getEnvInt("DOWNLOAD_BURST", 4),
		DownloadHTTPTimeout:  getEnvDuration("DOWNLOAD_HTTP_TIMEOUT", 5*time.Minute),
		DownloadAllowPrivate: getEnvBool("DOWNLOAD_ALLOW_PRIVATE", false),
		DownloadAllowedHosts: getEnvList("DOWNLOAD_ALLOW_HOSTS", nil),
		DownloadMaxBytes:     getEnvInt64("DOWNLOAD_MAX_BYTES", 0),
		UploadHTTPTimeout:    getEnvDuration("UPLOAD_HTTP_TIMEOUT", 2*time.Minute),
	}
}
