// internal/services/warehouse_selector.go
package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/commerce-jobs/internal/geo"
	"github.com/javajoker/commerce-jobs/internal/models"
	"github.com/javajoker/commerce-jobs/internal/utils"
)

type WarehouseSelector struct {
	db        *gorm.DB
	distances geo.Estimator
}

type SelectWarehouseRequest struct {
	DestinationCity string    `json:"destination_city" validate:"required"`
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	Quantity        int       `json:"quantity" validate:"required,min=1"`
}

func NewWarehouseSelector(db *gorm.DB, distances geo.Estimator) *WarehouseSelector {
	return &WarehouseSelector{
		db:        db,
		distances: distances,
	}
}

type warehouseCandidate struct {
	warehouse models.Warehouse
	quantity  int
	distance  geo.Distance
}

// SelectWarehouse returns the nearest warehouse that can cover the requested
// quantity of a product, falling back to the nearest warehouse holding any
// stock of it, or nil when no inventory exists at all.
func (s *WarehouseSelector) SelectWarehouse(ctx context.Context, req *SelectWarehouseRequest) (*models.Warehouse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var inventories []models.Inventory
	if err := s.db.WithContext(ctx).
		Preload("Warehouse").
		Where("product_id = ?", req.ProductID).
		Order("created_at").
		Find(&inventories).Error; err != nil {
		return nil, fmt.Errorf("failed to load inventories: %w", err)
	}

	if len(inventories) == 0 {
		return nil, nil
	}

	candidates := make([]warehouseCandidate, len(inventories))

	// Distance lookups are read-only and independent, one per candidate.
	var wg sync.WaitGroup
	for i, inv := range inventories {
		wg.Add(1)
		go func(i int, inv models.Inventory) {
			defer wg.Done()
			candidates[i] = warehouseCandidate{
				warehouse: inv.Warehouse,
				quantity:  inv.Quantity,
				distance:  s.distances.EstimateKm(ctx, req.DestinationCity, inv.Warehouse.Address.City),
			}
		}(i, inv)
	}
	wg.Wait()

	// Stable keeps the inventory load order on ties, so selection is
	// deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance.Less(candidates[j].distance)
	})

	for _, c := range candidates {
		if c.quantity >= req.Quantity {
			w := c.warehouse
			return &w, nil
		}
	}

	// No warehouse can cover the quantity; hand back the nearest one and let
	// the caller split or backorder.
	w := candidates[0].warehouse
	return &w, nil
}
