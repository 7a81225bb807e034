package main

import (
	"os"
	"strconv"
	"strings"
)

// maxUploadBytes caps multipart uploads at 16 MiB.
const maxUploadBytes = 16 << 20

// Config is the process-wide configuration, read from the environment
// once at startup. It is the only state shared across requests besides
// the database handle.
type Config struct {
	Port        string
	DatabaseURL string

	UploadFolder   string
	MaxUploadBytes int64

	UseR2Storage             bool
	R2AccountID              string
	R2AccessKeyID            string
	R2SecretAccessKey        string
	R2BucketName             string
	R2PublicURL              string
	R2PresignedURLExpiration int // seconds

	OpenAIAPIKey string
	OpenAIModel  string
}

// loadConfig reads the environment. The process refuses to start
// without a database DSN, and with object storage explicitly enabled
// but only partially configured.
func loadConfig() Config {
	c := Config{
		Port:                     getenv("PORT", "8080"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		UploadFolder:             getenv("UPLOAD_FOLDER", "uploads"),
		MaxUploadBytes:           maxUploadBytes,
		R2AccountID:              os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:            os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:        os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:             os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:              os.Getenv("R2_PUBLIC_URL"),
		R2PresignedURLExpiration: getenvInt("R2_PRESIGNED_URL_EXPIRATION", 3600),
		OpenAIAPIKey:             os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:              getenv("OPENAI_MODEL", "gpt-4o-mini"),
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("POSTGRES_URL")
	}
	if c.DatabaseURL == "" {
		logg.Fatal("DATABASE_URL or POSTGRES_URL environment variable is required")
	}

	hasR2Creds := c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
	switch strings.ToLower(os.Getenv("USE_R2_STORAGE")) {
	case "true":
		c.UseR2Storage = true
	case "false":
		c.UseR2Storage = false
	default:
		c.UseR2Storage = hasR2Creds
	}
	if c.UseR2Storage && !hasR2Creds {
		logg.Fatal("R2 storage is enabled but credentials are incomplete; set R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME")
	}
	return c
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
