package custom_error

import (
	"fmt"
	"strings"
)

// InvalidQuantityError rejects any operation with qty <= 0 before balance
// work starts.
type InvalidQuantityError struct {
	Qty int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("qty must be > 0, got %d", e.Qty)
}

// MissingLocationError means a movement was posted with neither a source nor
// a destination.
type MissingLocationError struct{}

func (e *MissingLocationError) Error() string {
	return "movement requires at least a source or a destination location"
}

// TenantMismatchError means a referenced entity belongs to another tenant.
type TenantMismatchError struct {
	Want string
	Got  string
}

func (e *TenantMismatchError) Error() string {
	return fmt.Sprintf("tenant mismatch: expected %s, got %s", e.Want, e.Got)
}

// InsufficientStockError carries enough context for the caller to adjust and
// retry. Available is the total on-hand at the location when the check ran.
type InsufficientStockError struct {
	ProductID   int
	ProductName string
	Location    string
	Available   int
	Wanted      int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d at %s: have %d, need %d",
		e.ProductID, e.Location, e.Available, e.Wanted)
}

// ProductNotFoundError lists every requested product id that is missing,
// inactive, or owned by another tenant. The whole request fails, never a
// partial fulfillment.
type ProductNotFoundError struct {
	IDs []int
}

func (e *ProductNotFoundError) Error() string {
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "products not found or inactive: " + strings.Join(parts, ", ")
}

// LocationNotFoundError means the referenced warehouse or branch does not
// exist.
type LocationNotFoundError struct {
	Kind string
	ID   int
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}
