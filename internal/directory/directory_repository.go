package directory

import (
	"fmt"

	"github.com/Abdullah02020/back/internal/repository"
	custom_error "github.com/Abdullah02020/back/pkg/errors"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// Repository resolves tenants, products and locations for the handlers. The
// core stock/order services receive already-resolved entities and only
// re-validate tenant consistency.
type Repository struct {
	r *repository.Repository
}

func NewRepository(r *repository.Repository) *Repository {
	return &Repository{r: r}
}

func (d *Repository) GetTenant(id string) (*models.Tenant, error) {
	var tenant models.Tenant
	found, err := d.r.GoquDBWrapper.
		Select("id", "name", "status").
		From("tenants").
		Where(goqu.Ex{"id": id}).
		Executor().ScanStruct(&tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tenant %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("tenant %s not found", id)
	}
	return &tenant, nil
}

// GetActiveProduct returns the product only when it exists, is active, and
// belongs to the tenant.
func (d *Repository) GetActiveProduct(tenant string, id int) (*models.Product, error) {
	var product models.Product
	found, err := d.r.GoquDBWrapper.
		Select("id", "tenant", "name", "sku", "category", "price", "status").
		From("product").
		Where(goqu.Ex{"id": id, "tenant": tenant, "status": true}).
		Executor().ScanStruct(&product)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	if !found {
		return nil, &custom_error.ProductNotFoundError{IDs: []int{id}}
	}
	return &product, nil
}

// LockActiveProducts loads and row-locks the requested products inside tx.
// It fails with ProductNotFoundError listing every id that is missing,
// inactive, or belongs to another tenant.
func (d *Repository) LockActiveProducts(tx *goqu.TxDatabase, tenant string, ids []int) (map[int]models.Product, error) {
	var rows []models.Product
	err := tx.
		Select("id", "tenant", "name", "sku", "category", "price", "status").
		From("product").
		Where(goqu.Ex{"id": ids, "tenant": tenant, "status": true}).
		ForUpdate(exp.Wait).
		Executor().ScanStructs(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	found := make(map[int]models.Product, len(rows))
	for _, p := range rows {
		found[p.ID] = p
	}

	var missing []int
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &custom_error.ProductNotFoundError{IDs: missing}
	}

	return found, nil
}

func (d *Repository) GetWarehouse(id int) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	found, err := d.r.GoquDBWrapper.
		Select("id", "name", "city").
		From("warehouse").
		Where(goqu.Ex{"id": id}).
		Executor().ScanStruct(&warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch warehouse %d: %w", id, err)
	}
	if !found {
		return nil, &custom_error.LocationNotFoundError{Kind: "warehouse", ID: id}
	}
	return &warehouse, nil
}

// FirstWarehouse is the single-warehouse fallback used when a request does
// not name one.
func (d *Repository) FirstWarehouse() (*models.Warehouse, error) {
	var warehouse models.Warehouse
	found, err := d.r.GoquDBWrapper.
		Select("id", "name", "city").
		From("warehouse").
		Order(goqu.I("id").Asc()).
		Limit(1).
		Executor().ScanStruct(&warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first warehouse: %w", err)
	}
	if !found {
		return nil, &custom_error.LocationNotFoundError{Kind: "warehouse", ID: 0}
	}
	return &warehouse, nil
}

func (d *Repository) GetBranch(id int) (*models.Branch, error) {
	var branch models.Branch
	found, err := d.r.GoquDBWrapper.
		Select("id", "name", "city").
		From("branch").
		Where(goqu.Ex{"id": id}).
		Executor().ScanStruct(&branch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch branch %d: %w", id, err)
	}
	if !found {
		return nil, &custom_error.LocationNotFoundError{Kind: "branch", ID: id}
	}
	return &branch, nil
}

func (d *Repository) GetAgent(id int) (*models.Agent, error) {
	var agent models.Agent
	found, err := d.r.GoquDBWrapper.
		Select("id", "username", "full_name").
		From("agents").
		Where(goqu.Ex{"id": id}).
		Executor().ScanStruct(&agent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &agent, nil
}
