// internal/services/reconciliation_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/commerce-jobs/internal/models"
	"github.com/javajoker/commerce-jobs/internal/utils"
)

// ReconciliationService brings Inventory.quantity and Product.stock in line
// with the net effect of delivered, not-yet-processed orders. Everything it
// writes — inventory quantities, product stock totals, the processed flag on
// consumed orders — goes through one transaction, so a failed run leaves no
// partial state and the next schedule tick simply retries.
type ReconciliationService struct {
	db *gorm.DB
}

func NewReconciliationService(db *gorm.DB) *ReconciliationService {
	return &ReconciliationService{db: db}
}

type ReconciliationSummary struct {
	OrdersProcessed    int `json:"orders_processed"`
	InventoriesUpdated int `json:"inventories_updated"`
	ProductsUpdated    int `json:"products_updated"`
	Shortfalls         int `json:"shortfalls"`
	MissingInventories int `json:"missing_inventories"`
	SkippedItems       int `json:"skipped_items"`
}

// stockKey identifies one (product, warehouse) inventory bucket.
type stockKey struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
}

func (s *ReconciliationService) Run(ctx context.Context) (*ReconciliationSummary, error) {
	summary := &ReconciliationSummary{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Collect: delivered orders that have not been applied yet. The
		// processed flag is read and written inside this transaction; the
		// per-job lease keeps overlapping ticks from racing on it.
		var orders []models.Order
		if err := tx.Preload("Items").
			Where("status = ? AND processed = ?", models.OrderStatusDelivered, false).
			Find(&orders).Error; err != nil {
			return fmt.Errorf("failed to load delivered orders: %w", err)
		}

		if len(orders) == 0 {
			return nil
		}

		var items []models.OrderItem
		for _, order := range orders {
			items = append(items, order.Items...)
		}

		productIDSet := make(map[uuid.UUID]struct{})
		for _, item := range items {
			productIDSet[item.ProductID] = struct{}{}
		}
		productIDs := make([]uuid.UUID, 0, len(productIDSet))
		for id := range productIDSet {
			productIDs = append(productIDs, id)
		}

		var products []models.Product
		if err := tx.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		productByID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			productByID[p.ID] = p
		}

		// Map: one deduction request per usable line item. Items pointing at
		// a deleted product or carrying no warehouse assignment are data
		// gaps: log and skip the item, not the batch.
		valid := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			if _, ok := productByID[item.ProductID]; !ok {
				logrus.WithFields(logrus.Fields{
					"order_id":   item.OrderID,
					"product_id": item.ProductID,
				}).Warn("Order item references missing product, skipping")
				summary.SkippedItems++
				continue
			}
			if item.WarehouseID == nil {
				logrus.WithFields(logrus.Fields{
					"order_id":   item.OrderID,
					"product_id": item.ProductID,
				}).Warn("Order item has no assigned warehouse, skipping")
				summary.SkippedItems++
				continue
			}
			valid = append(valid, item)
		}

		// Partition/Combine: total quantity to deduct per (product, warehouse).
		deductions := utils.GroupFold(valid,
			func(item models.OrderItem) stockKey {
				return stockKey{ProductID: item.ProductID, WarehouseID: *item.WarehouseID}
			},
			func(acc int, item models.OrderItem) int {
				return acc + item.Quantity
			})

		// Current on-hand state across all warehouses of the affected
		// products; untouched records still count toward the stock total.
		var inventories []models.Inventory
		if err := tx.Where("product_id IN ?", productIDs).Find(&inventories).Error; err != nil {
			return fmt.Errorf("failed to load inventories: %w", err)
		}
		inventoryByKey := make(map[stockKey]models.Inventory, len(inventories))
		for _, inv := range inventories {
			inventoryByKey[stockKey{ProductID: inv.ProductID, WarehouseID: inv.WarehouseID}] = inv
		}

		// Reduce: clamp at zero, never negative.
		newQuantities := make(map[stockKey]int, len(deductions))
		for key, toReduce := range deductions {
			current := 0
			if inv, ok := inventoryByKey[key]; ok {
				current = inv.Quantity
			} else {
				logrus.WithFields(logrus.Fields{
					"product_id":   key.ProductID,
					"warehouse_id": key.WarehouseID,
				}).Warn("Deduction hits missing inventory record, creating empty record")
				summary.MissingInventories++
			}

			final := current - toReduce
			if final < 0 {
				logrus.WithFields(logrus.Fields{
					"product_id":   key.ProductID,
					"warehouse_id": key.WarehouseID,
					"on_hand":      current,
					"requested":    toReduce,
				}).Warn("Inventory shortfall, clamping quantity to zero")
				summary.Shortfalls++
				final = 0
			}
			newQuantities[key] = final
		}

		// Commit: inventory quantities first.
		for key, quantity := range newQuantities {
			if inv, ok := inventoryByKey[key]; ok {
				if err := tx.Model(&models.Inventory{}).
					Where("id = ?", inv.ID).
					Update("quantity", quantity).Error; err != nil {
					return fmt.Errorf("failed to update inventory %s: %w", inv.ID, err)
				}
			} else {
				product := productByID[key.ProductID]
				record := models.Inventory{
					ProductID:   key.ProductID,
					WarehouseID: key.WarehouseID,
					Quantity:    quantity,
					CategoryID:  product.CategoryID,
					StockedAt:   time.Now(),
				}
				if err := tx.Create(&record).Error; err != nil {
					return fmt.Errorf("failed to create inventory record: %w", err)
				}
			}
			summary.InventoriesUpdated++
		}

		// Product stock is the sum of the product's inventories, with the
		// just-reduced quantities in place of the loaded ones.
		stockTotals := make(map[uuid.UUID]int, len(productIDs))
		for _, id := range productIDs {
			stockTotals[id] = 0
		}
		for _, inv := range inventories {
			key := stockKey{ProductID: inv.ProductID, WarehouseID: inv.WarehouseID}
			quantity := inv.Quantity
			if updated, ok := newQuantities[key]; ok {
				quantity = updated
			}
			stockTotals[inv.ProductID] += quantity
		}

		for productID, total := range stockTotals {
			if _, ok := productByID[productID]; !ok {
				continue
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", productID).
				Update("stock", total).Error; err != nil {
				return fmt.Errorf("failed to update product stock: %w", err)
			}
			summary.ProductsUpdated++
		}

		// Consumed orders are marked inside the same transaction, so the
		// flag only sticks when every write above committed.
		orderIDs := make([]uuid.UUID, len(orders))
		for i, order := range orders {
			orderIDs[i] = order.ID
		}
		if err := tx.Model(&models.Order{}).
			Where("id IN ?", orderIDs).
			Update("processed", true).Error; err != nil {
			return fmt.Errorf("failed to mark orders processed: %w", err)
		}
		summary.OrdersProcessed = len(orders)

		return nil
	})

	if err != nil {
		return nil, err
	}
	return summary, nil
}
