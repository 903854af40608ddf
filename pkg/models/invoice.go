package models

import "github.com/shopspring/decimal"

type Invoice struct {
	ID            int             `json:"id" db:"id"`
	Tenant        string          `json:"tenant" db:"tenant"`
	BranchID      int             `json:"branch_id" db:"branch"`
	InvoiceNo     string          `json:"invoice_no" db:"invoice_no"`
	OrderID       string          `json:"order_id" db:"order_id"`
	Currency      string          `json:"currency" db:"currency"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax           decimal.Decimal `json:"tax" db:"tax"`
	Total         decimal.Decimal `json:"total" db:"total"`
	TaxRate       decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	CreatedBy     *int            `json:"created_by" db:"created_by"`
	DateCreated   int64           `json:"date_created" db:"date_created"`
}

type InvoiceLine struct {
	ID        int             `json:"id" db:"id"`
	InvoiceID int             `json:"invoice_id" db:"invoice"`
	ProductID int             `json:"product_id" db:"product"`
	Name      string          `json:"name" db:"name"`
	SKU       string          `json:"sku" db:"sku"`
	Qty       int             `json:"qty" db:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Tax       decimal.Decimal `json:"tax" db:"tax"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
}
