package extract

import "strings"

// Invoice is the structured record the model must return. The JSON
// field names are part of the extraction contract; Normalize fills in
// whatever the model left out before the record reaches the database.
type Invoice struct {
	InvoiceNumber   string     `json:"invoiceNumber"`
	OrderDate       string     `json:"orderDate"`
	DueDate         *string    `json:"dueDate"`
	CustomerName    string     `json:"customerName"`
	CustomerAddress string     `json:"customerAddress"`
	Items           []LineItem `json:"items"`
	SubTotal        float64    `json:"subTotal"`
	TaxAmount       float64    `json:"taxAmount"`
	TotalAmount     float64    `json:"totalAmount"`
}

// LineItem is one product row of an extracted invoice.
type LineItem struct {
	ProductName        string  `json:"productName"`
	ProductDescription string  `json:"productDescription"`
	Quantity           int     `json:"quantity"`
	UnitPrice          float64 `json:"unitPrice"`
	LineTotal          float64 `json:"lineTotal"`
}

// Normalize defaults the fields the model omitted: trimmed number,
// non-nil items, quantity at least 1, blank due dates collapsed to nil.
// Numbers are already zero-valued by JSON decoding.
func (inv *Invoice) Normalize() {
	inv.InvoiceNumber = strings.TrimSpace(inv.InvoiceNumber)
	if inv.DueDate != nil && strings.TrimSpace(*inv.DueDate) == "" {
		inv.DueDate = nil
	}
	if inv.Items == nil {
		inv.Items = []LineItem{}
	}
	for i := range inv.Items {
		if inv.Items[i].Quantity <= 0 {
			inv.Items[i].Quantity = 1
		}
	}
}
