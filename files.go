package main

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"invox/models"
	"invox/pkg/storage"

	"github.com/gin-gonic/gin"
)

// downloadFileHandler streams the backing document as an attachment.
func downloadFileHandler(c *gin.Context) {
	header, ok := findHeaderForFile(c)
	if !ok {
		return
	}

	data, err := store.Download(c.Request.Context(), header.DocumentPath)
	if err != nil {
		logg.WithError(err).Error("failed to download stored document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := filepath.Base(header.DocumentPath)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// fileURLHandler hands back a time-limited presigned URL. Only object
// storage can mint one; asking against local storage is a client error,
// not a server fault.
func fileURLHandler(c *gin.Context) {
	header, ok := findHeaderForFile(c)
	if !ok {
		return
	}

	ttl := time.Duration(cfg.R2PresignedURLExpiration) * time.Second
	url, err := store.PresignedURL(c.Request.Context(), header.DocumentPath, ttl)
	if errors.Is(err, storage.ErrPresignUnsupported) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Presigned URLs only available with object storage"})
		return
	}
	if err != nil {
		logg.WithError(err).Error("failed to generate presigned URL")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": cfg.R2PresignedURLExpiration})
}

// findHeaderForFile resolves the header in the path and requires it to
// reference a stored document.
func findHeaderForFile(c *gin.Context) (*models.InvoiceHeader, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	var header models.InvoiceHeader
	if err := db.First(&header, id).Error; err != nil {
		respondLookupError(c, err)
		return nil, false
	}
	if header.DocumentPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return nil, false
	}
	return &header, true
}
