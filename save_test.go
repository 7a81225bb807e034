package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"invox/models"
	"invox/pkg/extract"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB points the package-level db at a fresh in-memory sqlite
// database. Each test gets its own shared-cache name so they stay
// isolated.
func setupTestDB(t *testing.T) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.InvoiceHeader{}, &models.InvoiceLineItem{}))
	db = conn
}

func sampleInvoice(number string) *extract.Invoice {
	due := "2024-02-15"
	return &extract.Invoice{
		InvoiceNumber:   number,
		OrderDate:       "2024-01-15",
		DueDate:         &due,
		CustomerName:    "Acme Corp",
		CustomerAddress: "1 Main St",
		Items: []extract.LineItem{
			{ProductName: "Widget", Quantity: 2, UnitPrice: 5.0, LineTotal: 10.0},
		},
		SubTotal:    10.0,
		TaxAmount:   1.0,
		TotalAmount: 11.0,
	}
}

func TestSaveInvoiceInsertsWithDefaults(t *testing.T) {
	setupTestDB(t)

	inv := sampleInvoice("INV-001")
	inv.OrderDate = ""
	inv.Items[0].Quantity = 0

	id, err := saveInvoice(inv, "doc.txt")
	require.NoError(t, err)
	require.NotZero(t, id)

	var header models.InvoiceHeader
	require.NoError(t, db.Preload("Items").First(&header, id).Error)
	require.Equal(t, time.Now().Format("2006-01-02"), header.OrderDate)
	require.Equal(t, "Pending", header.Status)
	require.Equal(t, "doc.txt", header.DocumentPath)
	require.NotNil(t, header.InvoiceNumber)
	require.Equal(t, "INV-001", *header.InvoiceNumber)
	require.Len(t, header.Items, 1)
	require.Equal(t, 1, header.Items[0].Quantity)
}

func TestSaveInvoiceReplacesExisting(t *testing.T) {
	setupTestDB(t)

	first, err := saveInvoice(sampleInvoice("INV-001"), "first.txt")
	require.NoError(t, err)

	second := sampleInvoice("INV-001")
	second.CustomerName = "Acme Industries"
	second.TotalAmount = 99.5
	second.Items = []extract.LineItem{
		{ProductName: "Gadget", Quantity: 3, UnitPrice: 7.0, LineTotal: 21.0},
		{ProductName: "Gizmo", Quantity: 1, UnitPrice: 2.5, LineTotal: 2.5},
	}

	id, err := saveInvoice(second, "second.txt")
	require.NoError(t, err)
	require.Equal(t, first, id)

	var count int64
	require.NoError(t, db.Model(&models.InvoiceHeader{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var header models.InvoiceHeader
	require.NoError(t, db.Preload("Items").First(&header, id).Error)
	require.Equal(t, "Acme Industries", header.CustomerName)
	require.Equal(t, 99.5, header.TotalAmount)
	require.Equal(t, "second.txt", header.DocumentPath)
	require.Len(t, header.Items, 2)
	require.Equal(t, "Gadget", header.Items[0].ProductName)
}

func TestSaveInvoiceEmptyNumberAlwaysInserts(t *testing.T) {
	setupTestDB(t)

	a, err := saveInvoice(sampleInvoice(""), "a.txt")
	require.NoError(t, err)
	b, err := saveInvoice(sampleInvoice("  "), "b.txt")
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	var headers []models.InvoiceHeader
	require.NoError(t, db.Find(&headers).Error)
	require.Len(t, headers, 2)
	for _, h := range headers {
		require.Nil(t, h.InvoiceNumber)
	}
}

func TestSaveInvoiceBlankFieldsKeepStoredValues(t *testing.T) {
	setupTestDB(t)

	id, err := saveInvoice(sampleInvoice("INV-001"), "first.txt")
	require.NoError(t, err)

	update := sampleInvoice("INV-001")
	update.OrderDate = ""
	update.CustomerName = ""
	update.CustomerAddress = ""
	update.DueDate = nil

	_, err = saveInvoice(update, "second.txt")
	require.NoError(t, err)

	var header models.InvoiceHeader
	require.NoError(t, db.First(&header, id).Error)
	require.Equal(t, "2024-01-15", header.OrderDate)
	require.Equal(t, "Acme Corp", header.CustomerName)
	require.Equal(t, "1 Main St", header.CustomerAddress)
	require.NotNil(t, header.DueDate)
	require.Equal(t, "second.txt", header.DocumentPath)
}

// TestInsertConflictRecoversAsUpdate drives the race path directly: the
// insert hits the unique index because another request created the same
// number after our lookup, and the save must re-resolve as an update.
func TestInsertConflictRecoversAsUpdate(t *testing.T) {
	setupTestDB(t)

	winner, err := saveInvoice(sampleInvoice("INV-009"), "winner.txt")
	require.NoError(t, err)

	loser := sampleInvoice("INV-009")
	loser.CustomerName = "Late Arrival Ltd"
	_, err = insertHeader(loser, "INV-009", "loser.txt")
	require.Error(t, err)
	require.True(t, isUniqueViolation(err), "expected a unique violation, got: %v", err)

	id, err := recoverInsertConflict("INV-009", loser, "loser.txt", err)
	require.NoError(t, err)
	require.Equal(t, winner, id)

	var count int64
	require.NoError(t, db.Model(&models.InvoiceHeader{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var header models.InvoiceHeader
	require.NoError(t, db.Preload("Items").First(&header, id).Error)
	require.Equal(t, "Late Arrival Ltd", header.CustomerName)
	require.Equal(t, "loser.txt", header.DocumentPath)
	require.Len(t, header.Items, 1)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("connection refused"), false},
		{"gorm sentinel", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm sentinel", fmt.Errorf("save: %w", gorm.ErrDuplicatedKey), true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite message", errors.New("constraint failed: UNIQUE constraint failed: invoice_headers.invoice_number"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
