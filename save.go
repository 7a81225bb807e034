package main

import (
	"errors"
	"strings"
	"time"

	"invox/models"
	"invox/pkg/extract"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// saveInvoice reconciles an extracted record into the database, keyed by
// invoice number: update-in-place when the number already exists, insert
// otherwise. Returns the header id.
//
// Two near-simultaneous uploads carrying the same number can race
// between the lookup and the insert; the unique index on invoice_number
// is the arbiter. When the insert loses, the transaction rolls back and
// the save retries once as an update against the row the winner created.
func saveInvoice(data *extract.Invoice, documentPath string) (uint, error) {
	number := strings.TrimSpace(data.InvoiceNumber)

	if number != "" {
		existing, err := findHeaderByNumber(number)
		if err == nil {
			return updateHeader(existing, data, documentPath)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
	}

	id, err := insertHeader(data, number, documentPath)
	if err == nil {
		return id, nil
	}
	if number == "" || !isUniqueViolation(err) {
		return 0, err
	}
	return recoverInsertConflict(number, data, documentPath, err)
}

// recoverInsertConflict handles the lost race: a concurrent request
// created the same invoice number after our lookup missed. Re-resolve
// and fall through to the update path exactly once; if even the lookup
// now fails, the original insert error propagates.
func recoverInsertConflict(number string, data *extract.Invoice, documentPath string, insertErr error) (uint, error) {
	existing, err := findHeaderByNumber(number)
	if err != nil {
		return 0, insertErr
	}
	return updateHeader(existing, data, documentPath)
}

func findHeaderByNumber(number string) (*models.InvoiceHeader, error) {
	var header models.InvoiceHeader
	if err := db.Where("invoice_number = ?", number).First(&header).Error; err != nil {
		return nil, err
	}
	return &header, nil
}

func insertHeader(data *extract.Invoice, number, documentPath string) (uint, error) {
	header := models.InvoiceHeader{
		OrderDate:       orderDateOrToday(data.OrderDate),
		DueDate:         data.DueDate,
		CustomerName:    data.CustomerName,
		CustomerAddress: data.CustomerAddress,
		SubTotal:        data.SubTotal,
		TaxAmount:       data.TaxAmount,
		TotalAmount:     data.TotalAmount,
		Status:          "Pending",
		DocumentPath:    documentPath,
	}
	if number != "" {
		header.InvoiceNumber = &number
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&header).Error; err != nil {
			return err
		}
		return insertItems(tx, header.InvoiceID, data.Items)
	})
	if err != nil {
		return 0, err
	}
	return header.InvoiceID, nil
}

// updateHeader overwrites the stored header from the extracted record.
// Non-empty extracted strings win over stored values; OrderDate falls
// through new value -> stored value -> today, so it never ends up empty.
// DocumentPath always takes the new key (a re-upload replaces the file),
// and line items are replaced wholesale, never merged.
func updateHeader(header *models.InvoiceHeader, data *extract.Invoice, documentPath string) (uint, error) {
	orderDate := strings.TrimSpace(data.OrderDate)
	if orderDate == "" {
		orderDate = header.OrderDate
	}
	if orderDate == "" {
		orderDate = today()
	}
	updates := map[string]any{
		"order_date":    orderDate,
		"sub_total":     data.SubTotal,
		"tax_amount":    data.TaxAmount,
		"total_amount":  data.TotalAmount,
		"document_path": documentPath,
	}
	if data.DueDate != nil {
		updates["due_date"] = *data.DueDate
	}
	if data.CustomerName != "" {
		updates["customer_name"] = data.CustomerName
	}
	if data.CustomerAddress != "" {
		updates["customer_address"] = data.CustomerAddress
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.InvoiceHeader{}).Where("invoice_id = ?", header.InvoiceID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", header.InvoiceID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
			return err
		}
		return insertItems(tx, header.InvoiceID, data.Items)
	})
	if err != nil {
		return 0, err
	}
	return header.InvoiceID, nil
}

func insertItems(tx *gorm.DB, invoiceID uint, items []extract.LineItem) error {
	for _, it := range items {
		row := models.InvoiceLineItem{
			InvoiceID:          invoiceID,
			ProductName:        it.ProductName,
			ProductDescription: it.ProductDescription,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			LineTotal:          it.LineTotal,
		}
		if row.Quantity <= 0 {
			row.Quantity = 1
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// isUniqueViolation matches duplicate-key failures across the drivers in
// play: pgconn's 23505, gorm's translated sentinel, and sqlite's message
// (the test databases).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func today() string { return time.Now().Format("2006-01-02") }

func orderDateOrToday(d string) string {
	if d = strings.TrimSpace(d); d != "" {
		return d
	}
	return today()
}
