package models

import "fmt"

// LocationKind discriminates the two places stock can live.
type LocationKind string

const (
	KindWarehouse LocationKind = "warehouse"
	KindBranch    LocationKind = "branch"
)

// LocationRef identifies a warehouse or branch wherever a "from"/"to" or
// balance owner is needed. It is a lookup key, never an owner of inventory
// rows itself.
type LocationRef struct {
	Kind LocationKind `json:"kind" db:"kind"`
	ID   int          `json:"id" db:"id"`
}

func WarehouseRef(id int) LocationRef {
	return LocationRef{Kind: KindWarehouse, ID: id}
}

func BranchRef(id int) LocationRef {
	return LocationRef{Kind: KindBranch, ID: id}
}

func (l LocationRef) Validate() error {
	switch l.Kind {
	case KindWarehouse, KindBranch:
	default:
		return fmt.Errorf("unknown location kind %q", l.Kind)
	}
	if l.ID <= 0 {
		return fmt.Errorf("location id must be positive, got %d", l.ID)
	}
	return nil
}

func (l LocationRef) String() string {
	return fmt.Sprintf("%s/%d", l.Kind, l.ID)
}

type Warehouse struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	City string `json:"city" db:"city"`
}

type Branch struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	City string `json:"city" db:"city"`
}
