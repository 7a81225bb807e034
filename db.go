package main

import (
	"os"
	"strings"

	"invox/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB(cfg Config) {
	var err error
	db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		logg.WithError(err).Fatal("failed to connect postgres database")
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block the other
		if err := db.AutoMigrate(&models.InvoiceHeader{}); err != nil {
			logg.Warnf("migration warning (invoice_headers): %v", err)
		}
		if err := db.AutoMigrate(&models.InvoiceLineItem{}); err != nil {
			logg.Warnf("migration warning (invoice_line_items): %v", err)
		}
	}
}
