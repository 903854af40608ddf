package models

import "github.com/shopspring/decimal"

// Sale is an immutable snapshot of one sold order line. It is written once
// during order capture and never updated afterwards, except to attach the
// invoice number when a receipt is issued later.
type Sale struct {
	ID                  int             `json:"id" db:"id"`
	Tenant              string          `json:"tenant" db:"tenant"`
	BranchID            int             `json:"branch_id" db:"branch"`
	ProductID           int             `json:"product_id" db:"product"`
	UnitSold            int             `json:"unit_sold" db:"unit_sold"`
	UnitPriceSnapshot   decimal.Decimal `json:"unit_price_snapshot" db:"unit_price_snapshot"`
	DiscountApplied     decimal.Decimal `json:"discount_value_applied" db:"discount_value_applied"`
	TaxApplied          decimal.Decimal `json:"tax_value_applied" db:"tax_value_applied"`
	LineTotal           decimal.Decimal `json:"line_total" db:"line_total"`
	Currency            string          `json:"currency" db:"currency"`
	OrderID             string          `json:"order_id" db:"order_id"`
	ReceiptNo           *string         `json:"receipt_no" db:"receipt_no"`
	ProductSKUSnapshot  string          `json:"product_sku_snapshot" db:"product_sku_snapshot"`
	ProductNameSnapshot string          `json:"product_name_snapshot" db:"product_name_snapshot"`
	BranchNameSnapshot  string          `json:"branch_name_snapshot" db:"branch_name_snapshot"`
	CreatedBy           *int            `json:"created_by" db:"created_by"`
	DateCreated         int64           `json:"date_created" db:"date_created"`
}
