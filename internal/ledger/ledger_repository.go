package ledger

import (
	"fmt"
	"time"

	"github.com/Abdullah02020/back/internal/repository"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

// Repository is the append-only movement store. Rows are inserted once and
// never mutated; the unique index on idempotency_key is the de-duplication
// gate under concurrent retries.
type Repository struct {
	r *repository.Repository
}

func NewRepository(r *repository.Repository) *Repository {
	return &Repository{r: r}
}

type InsertMovementParams struct {
	Tenant         string
	ProductID      int
	Type           models.MovementType
	Status         models.MovementStatus
	From           *models.LocationRef
	To             *models.LocationRef
	Qty            int
	IdempotencyKey string
	RefType        string
	RefID          string
	Notes          string
	AgentID        *int
}

// InsertMovement appends one ledger row and returns its id. A duplicate
// idempotency key surfaces as a unique violation; the caller resolves it by
// re-reading the existing movement.
func (l *Repository) InsertMovement(tx *goqu.TxDatabase, p InsertMovementParams) (int, error) {
	now := time.Now().Unix()

	record := goqu.Record{
		"tenant":          p.Tenant,
		"product":         p.ProductID,
		"movement_type":   p.Type,
		"status":          p.Status,
		"qty":             p.Qty,
		"idempotency_key": p.IdempotencyKey,
		"created_by":      p.AgentID,
		"modified_by":     p.AgentID,
		"date_created":    now,
		"last_modified":   now,
	}
	if p.From != nil {
		record["from_kind"] = p.From.Kind
		record["from_id"] = p.From.ID
	}
	if p.To != nil {
		record["to_kind"] = p.To.Kind
		record["to_id"] = p.To.ID
	}
	if p.RefType != "" {
		record["ref_type"] = p.RefType
		record["ref_id"] = p.RefID
	}
	if p.Notes != "" {
		record["notes"] = p.Notes
	}

	var movementID int
	query := tx.Insert("stock_movement").Rows(record).Returning("id")
	if _, err := query.Executor().ScanVal(&movementID); err != nil {
		return 0, fmt.Errorf("failed to insert stock movement: %w", err)
	}

	return movementID, nil
}

// GetByIdempotencyKey returns the movement posted under key, or nil when no
// such movement exists.
func (l *Repository) GetByIdempotencyKey(tx *goqu.TxDatabase, key string) (*models.Movement, error) {
	var movement models.Movement
	found, err := tx.
		Select(movementColumns()...).
		From("stock_movement").
		Where(goqu.Ex{"idempotency_key": key}).
		Executor().ScanStruct(&movement)
	if err != nil {
		return nil, fmt.Errorf("failed to look up movement by idempotency key: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &movement, nil
}

// FindByIdempotencyKey is the non-transactional variant used after a lost
// insert race, when the winner's row is already committed.
func (l *Repository) FindByIdempotencyKey(key string) (*models.Movement, error) {
	var movement models.Movement
	found, err := l.r.GoquDBWrapper.
		Select(movementColumns()...).
		From("stock_movement").
		Where(goqu.Ex{"idempotency_key": key}).
		Executor().ScanStruct(&movement)
	if err != nil {
		return nil, fmt.Errorf("failed to look up movement by idempotency key: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &movement, nil
}

// ListMovements returns the tenant's most recent movements, optionally
// narrowed to one product. productID 0 means all products.
func (l *Repository) ListMovements(tenant string, productID int, limit uint) ([]models.Movement, error) {
	if limit == 0 {
		limit = 50
	}

	where := goqu.Ex{"tenant": tenant}
	if productID != 0 {
		where["product"] = productID
	}

	var movements []models.Movement
	err := l.r.GoquDBWrapper.
		Select(movementColumns()...).
		From("stock_movement").
		Where(where).
		Order(goqu.I("id").Desc()).
		Limit(limit).
		Executor().ScanStructs(&movements)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}

	return movements, nil
}

func movementColumns() []interface{} {
	return []interface{}{
		"id", "tenant", "product", "movement_type", "status",
		"from_kind", "from_id", "to_kind", "to_id",
		"qty", "ref_type", "ref_id", "idempotency_key", "notes",
		"created_by", "date_created", "last_modified",
	}
}
