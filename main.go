package main

import (
	"fmt"
	"os"

	"invox/models"
	"invox/pkg/extract"
	"invox/pkg/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Load ./.env if present before reading any variables.
	_ = godotenv.Load()
	initLogger()
	cfg = loadConfig()
	initDB(cfg)

	// Lightweight migrate command: `./invox migrate` runs AutoMigrate and
	// exits. Useful for CI or manual DB setup, and works even with
	// DB_AUTO_MIGRATE=false.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := db.AutoMigrate(&models.InvoiceHeader{}, &models.InvoiceLineItem{}); err != nil {
			logg.WithError(err).Fatal("migration failed")
		}
		fmt.Println("migration completed")
		return
	}

	if cfg.UseR2Storage {
		obj, err := storage.NewObject(storage.ObjectConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Bucket:          cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
		if err != nil {
			logg.WithError(err).Fatal("object storage initialization failed")
		}
		store = obj
		logg.Infof("object storage enabled - files will be stored in bucket %s", cfg.R2BucketName)
	} else {
		local, err := storage.NewLocal(cfg.UploadFolder)
		if err != nil {
			logg.WithError(err).Fatal("local storage initialization failed")
		}
		store = local
		logg.Warnf("local storage enabled - files will be stored under %s", cfg.UploadFolder)
		if cfg.R2AccountID != "" || cfg.R2AccessKeyID != "" {
			logg.Warn("R2 credentials detected but incomplete; set all R2_* env vars to enable object storage")
		}
	}

	if cfg.OpenAIAPIKey == "" {
		logg.Warn("OPENAI_API_KEY is not set; uploads will fail at extraction")
	}
	extractor = extract.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	r := buildRouter()
	if err := r.Run(":" + cfg.Port); err != nil {
		logg.WithError(err).Fatal("server exited")
	}
}
