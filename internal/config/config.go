package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Defaults are request-level fallbacks resolved by HTTP handlers when a
// request omits them. Core packages never read these; everything the core
// needs arrives as explicit arguments.
type Defaults struct {
	TenantID    string
	BranchID    int
	WarehouseID int
	AgentID     int
	TaxRate     decimal.Decimal
	Currency    string
}

func LoadDefaults() Defaults {
	d := Defaults{
		TenantID: envString("DEFAULT_TENANT_ID", "Z0"),
		BranchID: envInt("DEFAULT_BRANCH_ID", 1),
		Currency: envString("DEFAULT_CURRENCY", "USD"),
	}
	d.WarehouseID = envInt("DEFAULT_WAREHOUSE_ID", 0)
	d.AgentID = envInt("DEFAULT_AGENT_ID", 0)

	d.TaxRate = decimal.Zero
	if raw := os.Getenv("DEFAULT_TAX_RATE"); raw != "" {
		if rate, err := decimal.NewFromString(raw); err == nil {
			d.TaxRate = rate
		}
	}
	return d
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
