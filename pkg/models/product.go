package models

import "github.com/shopspring/decimal"

type Tenant struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Status bool   `json:"status" db:"status"`
}

type Agent struct {
	ID       int    `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	FullName string `json:"full_name" db:"full_name"`
}

// Product is a stockable item. The sku is its immutable identity; price and
// status may change over time, which is why sale lines snapshot both name
// and sku at order time.
type Product struct {
	ID       int             `json:"id" db:"id"`
	Tenant   string          `json:"tenant" db:"tenant"`
	Name     string          `json:"name" db:"name"`
	SKU      string          `json:"sku" db:"sku"`
	Category string          `json:"category" db:"category"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Status   bool            `json:"status" db:"status"`
}

// BalanceLot is one on-hand row for a (tenant, product, location) tuple.
// Several lots may exist for the same tuple; consumption drains them in
// ascending id order. Quantity never goes below zero.
type BalanceLot struct {
	ID           int          `json:"id" db:"id"`
	Tenant       string       `json:"tenant" db:"tenant"`
	ProductID    int          `json:"product_id" db:"product"`
	LocationKind LocationKind `json:"location_kind" db:"location_kind"`
	LocationID   int          `json:"location_id" db:"location_id"`
	Qty          int          `json:"qty" db:"qty"`
}

func (b BalanceLot) Location() LocationRef {
	return LocationRef{Kind: b.LocationKind, ID: b.LocationID}
}
