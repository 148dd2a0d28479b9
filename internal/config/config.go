package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrUnknownDriver      = errors.New("DATABASE_DRIVER must be postgres or sqlite")
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	ServerPort     string
	Environment    string
	CORSOrigins    []string

	ListingCacheTTL time.Duration
	JournalPath     string

	// Media
	AWSRegion         string
	BucketName        string
	RekognitionRegion string
	MediaDir          string
	MediaBaseURL      string
	MediaTimeout      time.Duration
	MaxUploadBytes    int64
}

// IsProduction reports whether cookies should be marked Secure and HSTS sent.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UseS3 reports whether uploaded images go to S3 rather than the local media dir.
func (c *Config) UseS3() bool {
	return c.BucketName != ""
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	// (containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	awsRegion := os.Getenv("AWS_REGION")

	cfg := &Config{
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		ServerPort:     getEnv("SERVER_PORT", ":3000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		CORSOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS"),

		ListingCacheTTL: getEnvAsDuration("LISTING_CACHE_TTL", "1m"),
		JournalPath:     getEnv("JOURNAL_PATH", "data/activity.log"),

		AWSRegion:         awsRegion,
		BucketName:        os.Getenv("AWS_BUCKET_NAME"),
		RekognitionRegion: getEnv("REKOGNITION_REGION", awsRegion),
		MediaDir:          getEnv("MEDIA_DIR", "data/media"),
		MediaBaseURL:      getEnv("MEDIA_BASE_URL", "/media"),
		MediaTimeout:      getEnvAsDuration("MEDIA_TIMEOUT", "30s"),
		MaxUploadBytes:    int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),
	}

	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return nil, ErrUnknownDriver
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if !strings.HasPrefix(cfg.ServerPort, ":") && !strings.Contains(cfg.ServerPort, ":") {
		cfg.ServerPort = ":" + cfg.ServerPort
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
