package transfers

import (
	"fmt"
	"time"

	"github.com/Abdullah02020/back/internal/repository"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type Repository struct {
	r *repository.Repository
}

func NewRepository(r *repository.Repository) *Repository {
	return &Repository{r: r}
}

// InsertTransferRecord persists the correlation record after both movements
// succeeded inside the same transaction.
func (t *Repository) InsertTransferRecord(tx *goqu.TxDatabase, transfer models.Transfer) (int, error) {
	var id int
	query := tx.Insert("stock_transfer").
		Rows(goqu.Record{
			"tenant":               transfer.Tenant,
			"product":              transfer.ProductID,
			"warehouse":            transfer.WarehouseID,
			"branch":               transfer.BranchID,
			"qty":                  transfer.Qty,
			"transfer_id":          transfer.TransferID,
			"status":               transfer.Status,
			"dispatch_movement_id": transfer.DispatchMovementID,
			"receive_movement_id":  transfer.ReceiveMovementID,
			"created_by":           transfer.CreatedBy,
			"date_created":         transfer.DateCreated,
		}).
		Returning("id")
	if _, err := query.Executor().ScanVal(&id); err != nil {
		return 0, fmt.Errorf("failed to insert transfer record: %w", err)
	}

	return id, nil
}

// GetTransferRow fetches one transfer by its public uuid, with display names
// resolved.
func (t *Repository) GetTransferRow(transferID string) (*models.TransferView, error) {
	var view models.TransferView
	found, err := t.transferViewDataset().
		Where(goqu.Ex{"st.transfer_id": transferID}).
		Executor().ScanStruct(&view)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transfer %s: %w", transferID, err)
	}
	if !found {
		return nil, nil
	}
	return &view, nil
}

type ListFilter struct {
	Tenant    string
	ProductID int
	BranchID  int
	FromTS    int64
	ToTS      int64
	Page      int
	Limit     int
}

// ListTransfers returns a page of the tenant's transfers, most recent first,
// plus the total count for pagination.
func (t *Repository) ListTransfers(filter ListFilter) ([]models.TransferView, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.ToTS == 0 {
		filter.ToTS = time.Now().Unix()
	}

	where := []goqu.Expression{
		goqu.Ex{"st.tenant": filter.Tenant},
		goqu.C("date_created").Table("st").Gte(filter.FromTS),
		goqu.C("date_created").Table("st").Lte(filter.ToTS),
	}
	if filter.ProductID != 0 {
		where = append(where, goqu.Ex{"st.product": filter.ProductID})
	}
	if filter.BranchID != 0 {
		where = append(where, goqu.Ex{"st.branch": filter.BranchID})
	}

	count, err := t.r.GoquDBWrapper.
		From(goqu.T("stock_transfer").As("st")).
		Where(where...).
		Count()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transfers: %w", err)
	}

	var views []models.TransferView
	err = t.transferViewDataset().
		Where(where...).
		Order(goqu.I("st.date_created").Desc(), goqu.I("st.id").Desc()).
		Offset(uint((filter.Page - 1) * filter.Limit)).
		Limit(uint(filter.Limit)).
		Executor().ScanStructs(&views)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transfers: %w", err)
	}

	return views, count, nil
}

func (t *Repository) transferViewDataset() *goqu.SelectDataset {
	return t.r.GoquDBWrapper.
		Select(
			goqu.I("st.transfer_id").As("transfer_id"),
			goqu.I("st.product").As("product_id"),
			goqu.I("p.name").As("product_name"),
			goqu.I("st.warehouse").As("warehouse_id"),
			goqu.I("w.name").As("warehouse_name"),
			goqu.I("st.branch").As("branch_id"),
			goqu.I("b.name").As("branch_name"),
			goqu.I("st.qty").As("qty"),
			goqu.I("st.status").As("status"),
			goqu.I("a.full_name").As("created_by"),
			goqu.I("st.date_created").As("created_at"),
		).
		From(goqu.T("stock_transfer").As("st")).
		InnerJoin(goqu.T("product").As("p"), goqu.On(goqu.Ex{"p.id": goqu.I("st.product")})).
		InnerJoin(goqu.T("warehouse").As("w"), goqu.On(goqu.Ex{"w.id": goqu.I("st.warehouse")})).
		InnerJoin(goqu.T("branch").As("b"), goqu.On(goqu.Ex{"b.id": goqu.I("st.branch")})).
		LeftJoin(goqu.T("agents").As("a"), goqu.On(goqu.Ex{"a.id": goqu.I("st.created_by")}))
}
