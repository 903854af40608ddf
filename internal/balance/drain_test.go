package balance

import (
	"testing"

	"github.com/Abdullah02020/back/pkg/models"

	"github.com/stretchr/testify/assert"
)

func lot(id, qty int) models.BalanceLot {
	return models.BalanceLot{
		ID:           id,
		Tenant:       "Z0",
		ProductID:    42,
		LocationKind: models.KindBranch,
		LocationID:   1,
		Qty:          qty,
	}
}

func TestPlanDrainAcrossLots(t *testing.T) {
	lots := []models.BalanceLot{lot(1, 10), lot(2, 5)}

	takes, remaining := PlanDrain(lots, 12)

	assert.Equal(t, 0, remaining)
	assert.Len(t, takes, 2)
	assert.Equal(t, 1, takes[0].Lot.ID)
	assert.Equal(t, 10, takes[0].Qty)
	assert.Equal(t, 2, takes[1].Lot.ID)
	assert.Equal(t, 2, takes[1].Qty)
}

func TestPlanDrainSingleLotCoversAll(t *testing.T) {
	takes, remaining := PlanDrain([]models.BalanceLot{lot(1, 10)}, 7)

	assert.Equal(t, 0, remaining)
	assert.Len(t, takes, 1)
	assert.Equal(t, 7, takes[0].Qty)
}

func TestPlanDrainShortfall(t *testing.T) {
	lots := []models.BalanceLot{lot(1, 3), lot(2, 4)}

	takes, remaining := PlanDrain(lots, 10)

	assert.Equal(t, 3, remaining)
	assert.Len(t, takes, 2)
	assert.Equal(t, 3, takes[0].Qty)
	assert.Equal(t, 4, takes[1].Qty)
}

func TestPlanDrainSkipsEmptyLots(t *testing.T) {
	lots := []models.BalanceLot{lot(1, 0), lot(2, 5)}

	takes, remaining := PlanDrain(lots, 5)

	assert.Equal(t, 0, remaining)
	assert.Len(t, takes, 1)
	assert.Equal(t, 2, takes[0].Lot.ID)
}

func TestPlanDrainNoLots(t *testing.T) {
	takes, remaining := PlanDrain(nil, 4)

	assert.Equal(t, 4, remaining)
	assert.Empty(t, takes)
}

func TestTotalQty(t *testing.T) {
	assert.Equal(t, 15, TotalQty([]models.BalanceLot{lot(1, 10), lot(2, 5)}))
	assert.Equal(t, 0, TotalQty(nil))
}
