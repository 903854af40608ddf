package balance

import "github.com/Abdullah02020/back/pkg/models"

// Take is one step of a FIFO drain: consume Qty units from the lot.
type Take struct {
	Lot models.BalanceLot
	Qty int
}

// PlanDrain walks lots in the given order (callers pass them sorted by
// creation order) and takes min(lot.qty, remaining) from each until the
// wanted quantity is covered or the lots run out. It returns the takes and
// the quantity still uncovered; remaining > 0 means the location is short.
func PlanDrain(lots []models.BalanceLot, wanted int) ([]Take, int) {
	remaining := wanted
	var takes []Take

	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		take := lot.Qty
		if take > remaining {
			take = remaining
		}
		if take > 0 {
			takes = append(takes, Take{Lot: lot, Qty: take})
			remaining -= take
		}
	}

	return takes, remaining
}

// TotalQty sums the quantity across lots.
func TotalQty(lots []models.BalanceLot) int {
	total := 0
	for _, lot := range lots {
		total += lot.Qty
	}
	return total
}
