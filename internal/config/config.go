package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Public base URL used for share links (optional, falls back to request host)
	BaseURL string

	// CORS
	AllowedOrigins []string

	// Storage
	StorageDriver   string // local or s3
	UploadDir       string
	UploadURLPrefix string
	MaxUploadSize   int64

	// S3-compatible bucket
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	// Optional backends
	DatabaseURL string
	RedisURL    string

	// Watermark
	WatermarkCaption  string
	WatermarkLogoPath string
	JPEGQuality       int

	// Orphan sweeper
	OrphanSweepSchedule string
	OrphanGrace         time.Duration

	// Kiosk
	KioskAPIURL string

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port:    getEnv("PORT", "8080"),
		Env:     getEnv("ENV", "development"),
		BaseURL: getEnv("BASE_URL", ""),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		// Storage
		StorageDriver:   getEnv("STORAGE_DRIVER", "local"),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		UploadURLPrefix: getEnv("UPLOAD_URL_PREFIX", "/uploads"),
		MaxUploadSize:   int64(parseInt(getEnv("MAX_UPLOAD_SIZE", "20971520"), 20*1024*1024)),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", "photobooth"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Watermark
		WatermarkCaption:  getEnv("WATERMARK_CAPTION", "Sophie & Jérôme • 27/09/25"),
		WatermarkLogoPath: getEnv("WATERMARK_LOGO_PATH", ""),
		JPEGQuality:       parseInt(getEnv("JPEG_QUALITY", "90"), 90),

		OrphanSweepSchedule: getEnv("ORPHAN_SWEEP_SCHEDULE", "@every 30m"),
		OrphanGrace:         parseDuration(getEnv("ORPHAN_GRACE", "1h"), time.Hour),

		KioskAPIURL: getEnv("KIOSK_API_URL", "http://localhost:8080"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	// Simple split by comma
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if start < i {
				result = append(result, s[start:i])
			}
			start = i + 1
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsesS3 reports whether uploads go to an S3-compatible bucket
func (c *Config) UsesS3() bool {
	return c.StorageDriver == "s3"
}
