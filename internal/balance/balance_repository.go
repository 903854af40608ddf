package balance

import (
	"fmt"

	"github.com/Abdullah02020/back/internal/repository"
	custom_error "github.com/Abdullah02020/back/pkg/errors"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// Repository maintains per-(tenant, product, location) on-hand lots. Lots
// are created lazily on first movement into a location and never deleted;
// zero is a valid steady state. All writers go through row locks held until
// the surrounding transaction commits, so adjustments to the same lot are
// strictly serialized.
type Repository struct {
	r *repository.Repository
}

func NewRepository(r *repository.Repository) *Repository {
	return &Repository{r: r}
}

// LockLots loads and exclusively locks every lot for the tuple, ordered by
// row id ascending. That order is the FIFO drain order: earliest-created
// lots are consumed first.
func (b *Repository) LockLots(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) ([]models.BalanceLot, error) {
	var lots []models.BalanceLot
	err := tx.
		Select("id", "tenant", "product", "location_kind", "location_id", "qty").
		From("inventory").
		Where(goqu.Ex{
			"tenant":        tenant,
			"product":       productID,
			"location_kind": loc.Kind,
			"location_id":   loc.ID,
		}).
		Order(goqu.I("id").Asc()).
		ForUpdate(exp.Wait).
		Executor().ScanStructs(&lots)
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory lots for %s: %w", loc, err)
	}
	return lots, nil
}

// CreateLot inserts an empty lot for the tuple. The inserting transaction
// owns the new row until commit.
func (b *Repository) CreateLot(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) (models.BalanceLot, error) {
	lot := models.BalanceLot{
		Tenant:       tenant,
		ProductID:    productID,
		LocationKind: loc.Kind,
		LocationID:   loc.ID,
		Qty:          0,
	}

	query := tx.Insert("inventory").
		Rows(goqu.Record{
			"tenant":        tenant,
			"product":       productID,
			"location_kind": loc.Kind,
			"location_id":   loc.ID,
			"qty":           0,
		}).
		Returning("id")
	if _, err := query.Executor().ScanVal(&lot.ID); err != nil {
		return lot, fmt.Errorf("failed to create inventory lot for %s: %w", loc, err)
	}

	return lot, nil
}

// AddQty applies delta to one lot and returns the new quantity. Negative
// deltas are guarded in SQL: the update only matches when the lot still has
// enough quantity, so a concurrent drain can never push it below zero.
func (b *Repository) AddQty(tx *goqu.TxDatabase, lot models.BalanceLot, delta int) (int, error) {
	query := tx.Update("inventory").
		Set(goqu.Record{"qty": goqu.L("qty + ?", delta)}).
		Where(goqu.Ex{"id": lot.ID}).
		Returning("qty")
	if delta < 0 {
		query = tx.Update("inventory").
			Set(goqu.Record{"qty": goqu.L("qty + ?", delta)}).
			Where(goqu.Ex{"id": lot.ID}).
			Where(goqu.C("qty").Gte(-delta)).
			Returning("qty")
	}

	var newQty int
	found, err := query.Executor().ScanVal(&newQty)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust inventory lot %d: %w", lot.ID, err)
	}
	if !found {
		return 0, &custom_error.InsufficientStockError{
			ProductID: lot.ProductID,
			Location:  lot.Location().String(),
			Available: lot.Qty,
			Wanted:    -delta,
		}
	}

	return newQty, nil
}

// TotalOnHand sums every lot for the tuple inside tx.
func (b *Repository) TotalOnHand(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) (int, error) {
	var total int
	_, err := tx.
		Select(goqu.COALESCE(goqu.SUM("qty"), 0)).
		From("inventory").
		Where(goqu.Ex{
			"tenant":        tenant,
			"product":       productID,
			"location_kind": loc.Kind,
			"location_id":   loc.ID,
		}).
		Executor().ScanVal(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum on-hand for %s: %w", loc, err)
	}
	return total, nil
}

// TotalsAtLocation sums on-hand per product for several products at one
// location. Products with no lots are absent from the map.
func (b *Repository) TotalsAtLocation(tx *goqu.TxDatabase, tenant string, productIDs []int, loc models.LocationRef) (map[int]int, error) {
	type productTotal struct {
		ProductID int `db:"product"`
		Total     int `db:"total"`
	}

	var rows []productTotal
	err := tx.
		Select("product", goqu.COALESCE(goqu.SUM("qty"), 0).As("total")).
		From("inventory").
		Where(goqu.Ex{
			"tenant":        tenant,
			"product":       productIDs,
			"location_kind": loc.Kind,
			"location_id":   loc.ID,
		}).
		GroupBy("product").
		Executor().ScanStructs(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to sum on-hand per product at %s: %w", loc, err)
	}

	totals := make(map[int]int, len(rows))
	for _, row := range rows {
		totals[row.ProductID] = row.Total
	}
	return totals, nil
}
