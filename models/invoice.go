package models

import "time"

// InvoiceHeader is the top-level invoice record, one row per document.
// InvoiceNumber is the natural dedup key and is stored as NULL (not "")
// when extraction found none, so the unique index only applies to real
// numbers.
type InvoiceHeader struct {
	InvoiceID       uint              `gorm:"primaryKey" json:"InvoiceID"`
	OrderDate       string            `gorm:"size:50;not null" json:"OrderDate"`
	DueDate         *string           `gorm:"size:50" json:"DueDate"`
	CustomerName    string            `gorm:"size:255" json:"CustomerName"`
	CustomerAddress string            `gorm:"type:text" json:"CustomerAddress"`
	InvoiceNumber   *string           `gorm:"size:100;uniqueIndex" json:"InvoiceNumber"`
	SubTotal        float64           `gorm:"not null;default:0" json:"SubTotal"`
	TaxAmount       float64           `gorm:"not null;default:0" json:"TaxAmount"`
	TotalAmount     float64           `gorm:"not null;default:0" json:"TotalAmount"`
	Status          string            `gorm:"size:50;not null;default:Pending" json:"Status"`
	DocumentPath    string            `gorm:"size:512" json:"DocumentPath"`
	CreatedAt       time.Time         `json:"CreatedAt"`
	UpdatedAt       time.Time         `json:"UpdatedAt"`
	Items           []InvoiceLineItem `gorm:"foreignKey:InvoiceID;references:InvoiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// InvoiceLineItem is one product/quantity/price row belonging to a header.
type InvoiceLineItem struct {
	LineItemID         uint    `gorm:"primaryKey" json:"LineItemID"`
	InvoiceID          uint    `gorm:"index;not null" json:"InvoiceID"`
	ProductName        string  `gorm:"size:255;not null" json:"ProductName"`
	ProductDescription string  `gorm:"type:text" json:"ProductDescription"`
	Quantity           int     `gorm:"not null;default:1" json:"Quantity"`
	UnitPrice          float64 `gorm:"not null" json:"UnitPrice"`
	LineTotal          float64 `gorm:"not null" json:"LineTotal"`
}
