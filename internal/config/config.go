package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds process settings loaded once at startup
type Config struct {
	Port  string
	Env   string
	Debug bool

	DBDriver    string // sqlite or postgres
	DatabaseDSN string

	BlobBackend string // file or s3
	BlobDir     string
	S3Bucket    string
	AWSRegion   string
	AWSKeyID    string
	AWSSecret   string
	AWSEndpoint string

	CORSAllowedOrigins []string

	// Auth is enabled only when JWTSecret is set
	JWTSecret string
	APIKey    string
	APISecret string

	RateLimitPerMinute int
}

// Load reads an optional .env file and then the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg := &Config{
		Port:  GetEnv("PORT", "8080"),
		Env:   GetEnv("ENV", "development"),
		Debug: GetEnv("DEBUG", "false") == "true",

		DBDriver:    GetEnv("DB_DRIVER", "sqlite"),
		DatabaseDSN: GetEnv("DATABASE_DSN", "orders.db"),

		BlobBackend: GetEnv("BLOB_BACKEND", "file"),
		BlobDir:     GetEnv("BLOB_DIR", "./data/blobs"),
		S3Bucket:    GetEnv("S3_BUCKET", ""),
		AWSRegion:   GetEnv("AWS_REGION", "us-east-1"),
		AWSKeyID:    GetEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecret:   GetEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint: GetEnv("AWS_ENDPOINT_URL", ""),

		CORSAllowedOrigins: splitList(GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		JWTSecret: GetEnv("JWT_SECRET", ""),
		APIKey:    GetEnv("API_KEY", ""),
		APISecret: GetEnv("API_SECRET", ""),

		RateLimitPerMinute: 600,
	}

	if v := GetEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Warn().Str("value", v).Msg("ignoring invalid RATE_LIMIT_PER_MINUTE")
		} else {
			cfg.RateLimitPerMinute = n
		}
	}

	return cfg
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.BlobBackend {
	case "file":
		if c.BlobDir == "" {
			return fmt.Errorf("BLOB_DIR is required for the file blob backend")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("unsupported BLOB_BACKEND %q", c.BlobBackend)
	}

	if c.AuthEnabled() && (c.APIKey == "" || c.APISecret == "") {
		return fmt.Errorf("API_KEY and API_SECRET are required when JWT_SECRET is set")
	}

	return nil
}

// AuthEnabled reports whether API routes require a bearer token
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// IsProduction reports whether the process runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GetEnv returns the environment value for key, or fallback when unset
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
