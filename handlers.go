package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"invox/models"
	"invox/pkg/extract"
	"invox/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	cfg       Config
	store     storage.Backend
	extractor *extract.Extractor
)

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"txt":  "text/plain",
}

func contentTypeFor(fileType string) string {
	if ct, ok := contentTypes[fileType]; ok {
		return ct
	}
	return "application/octet-stream"
}

func buildRouter() *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())
	api := r.Group("/api")
	api.GET("/health", healthHandler)
	api.POST("/upload", uploadHandler)
	api.GET("/invoices", listInvoicesHandler)
	api.GET("/invoices/:id", getInvoiceHandler)
	api.PUT("/invoices/:id", updateInvoiceHandler)
	api.PUT("/invoices/:id/items/:itemId", updateInvoiceItemHandler)
	api.DELETE("/invoices/:id", deleteInvoiceHandler)
	api.GET("/files/:id", downloadFileHandler)
	api.GET("/files/:id/url", fileURLHandler)
	return r
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// uploadHandler ingests one document: store the raw bytes, run
// extraction, reconcile into the database. Extraction failures abort
// before anything is persisted; temp files are removed on every exit
// path.
func uploadHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil || file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if !extract.AllowedFile(file.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
		return
	}
	if file.Size > cfg.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 16MB)"})
		return
	}

	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	uniqueName := uuid.New().String() + "_" + filepath.Base(file.Filename)

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	// documentPath is the storage key persisted on the header; localPath
	// is where the extractor reads from.
	var documentPath, documentURL, localPath string
	if cfg.UseR2Storage {
		objectKey := "invoices/" + uniqueName
		url, err := store.Upload(c.Request.Context(), objectKey, src, file.Size, contentTypeFor(fileType))
		if err != nil {
			logg.WithError(err).Error("failed to upload file to object storage")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		documentURL = url
		tempPath, err := store.DownloadToTemp(c.Request.Context(), objectKey)
		if err != nil {
			logg.WithError(err).Error("failed to download file for processing")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer os.Remove(tempPath)
		localPath = tempPath
		documentPath = objectKey
	} else {
		// Local backend: the stored file doubles as the extraction input.
		path, err := store.Upload(c.Request.Context(), uniqueName, src, file.Size, contentTypeFor(fileType))
		if err != nil {
			logg.WithError(err).Error("failed to save uploaded file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		localPath = path
		documentPath = uniqueName
	}

	data, err := extractor.ExtractInvoice(c.Request.Context(), localPath, fileType)
	if err != nil {
		logg.WithError(err).Error("invoice extraction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	id, err := saveInvoice(data, documentPath)
	if err != nil {
		logg.WithError(err).Error("failed to save extracted invoice")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"success": true, "salesOrderId": id, "data": data, "documentUrl": nil}
	if documentURL != "" {
		resp["documentUrl"] = documentURL
	}
	c.JSON(http.StatusOK, resp)
}

func listInvoicesHandler(c *gin.Context) {
	var invoices []models.InvoiceHeader
	if err := db.Preload("Items").Order("created_at desc").Find(&invoices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func getInvoiceHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var header models.InvoiceHeader
	if err := db.Preload("Items").First(&header, id).Error; err != nil {
		respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, header)
}

// updateInvoiceHandler partially updates header scalar fields. Pointer
// request fields distinguish "omitted" from "set to zero"; omitted keys
// keep their stored values.
func updateInvoiceHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var header models.InvoiceHeader
	if err := db.First(&header, id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	var req struct {
		OrderDate       *string  `json:"orderDate"`
		DueDate         *string  `json:"dueDate"`
		CustomerName    *string  `json:"customerName"`
		CustomerAddress *string  `json:"customerAddress"`
		InvoiceNumber   *string  `json:"invoiceNumber"`
		SubTotal        *float64 `json:"subTotal"`
		TaxAmount       *float64 `json:"taxAmount"`
		TotalAmount     *float64 `json:"totalAmount"`
		Status          *string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.OrderDate != nil && *req.OrderDate != "" {
		header.OrderDate = *req.OrderDate
	} else if header.OrderDate == "" {
		header.OrderDate = today()
	}
	if req.DueDate != nil {
		header.DueDate = req.DueDate
	}
	if req.CustomerName != nil {
		header.CustomerName = *req.CustomerName
	}
	if req.CustomerAddress != nil {
		header.CustomerAddress = *req.CustomerAddress
	}
	if req.InvoiceNumber != nil {
		if n := strings.TrimSpace(*req.InvoiceNumber); n == "" {
			header.InvoiceNumber = nil
		} else {
			header.InvoiceNumber = &n
		}
	}
	if req.SubTotal != nil {
		header.SubTotal = *req.SubTotal
	}
	if req.TaxAmount != nil {
		header.TaxAmount = *req.TaxAmount
	}
	if req.TotalAmount != nil {
		header.TotalAmount = *req.TotalAmount
	}
	if req.Status != nil {
		header.Status = *req.Status
	}

	if err := db.Save(&header).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// updateInvoiceItemHandler partially updates one line item; the item
// must belong to the header in the path or the lookup 404s.
func updateInvoiceItemHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	var item models.InvoiceLineItem
	if err := db.Where("line_item_id = ? AND invoice_id = ?", itemID, id).First(&item).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	var req struct {
		ProductName        *string  `json:"productName"`
		ProductDescription *string  `json:"productDescription"`
		Quantity           *int     `json:"quantity"`
		UnitPrice          *float64 `json:"unitPrice"`
		LineTotal          *float64 `json:"lineTotal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ProductName != nil {
		item.ProductName = *req.ProductName
	}
	if req.ProductDescription != nil {
		item.ProductDescription = *req.ProductDescription
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.LineTotal != nil {
		item.LineTotal = *req.LineTotal
	}

	if err := db.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// deleteInvoiceHandler removes the header and its items, and
// best-effort deletes the backing file: a storage failure is logged but
// never blocks record deletion.
func deleteInvoiceHandler(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var header models.InvoiceHeader
	if err := db.First(&header, id).Error; err != nil {
		respondLookupError(c, err)
		return
	}

	if header.DocumentPath != "" {
		if err := store.Delete(c.Request.Context(), header.DocumentPath); err != nil {
			logg.WithError(err).Warnf("failed to delete stored document %s", header.DocumentPath)
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", header.InvoiceID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.InvoiceHeader{}, header.InvoiceID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return uint(n), true
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
