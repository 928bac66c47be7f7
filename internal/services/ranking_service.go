// internal/services/ranking_service.go
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/commerce-jobs/internal/models"
	"github.com/javajoker/commerce-jobs/internal/utils"
)

// RankingService recomputes the best-seller top N from delivered orders.
// Reset and reassignment happen in one transaction so readers never observe
// a half-ranked catalog.
type RankingService struct {
	db   *gorm.DB
	topN int
}

func NewRankingService(db *gorm.DB, topN int) *RankingService {
	return &RankingService{db: db, topN: topN}
}

type RankingSummary struct {
	ProductsRanked int `json:"products_ranked"`
	ProductsReset  int `json:"products_reset"`
}

type productSales struct {
	ProductID uuid.UUID
	Quantity  int64
}

func (s *RankingService) Run(ctx context.Context) (*RankingSummary, error) {
	summary := &RankingSummary{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.OrderItem
		if err := tx.
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.status = ? AND orders.deleted_at IS NULL", models.OrderStatusDelivered).
			Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load delivered order items: %w", err)
		}

		totals := utils.GroupFold(items,
			func(item models.OrderItem) uuid.UUID { return item.ProductID },
			func(acc int64, item models.OrderItem) int64 { return acc + int64(item.Quantity) })

		// Products that were sold but since deleted cannot carry a rank.
		productIDs := make([]uuid.UUID, 0, len(totals))
		for id := range totals {
			productIDs = append(productIDs, id)
		}
		var existing []uuid.UUID
		if len(productIDs) > 0 {
			if err := tx.Model(&models.Product{}).
				Where("id IN ?", productIDs).
				Pluck("id", &existing).Error; err != nil {
				return fmt.Errorf("failed to load sold products: %w", err)
			}
		}

		sales := make([]productSales, 0, len(existing))
		for _, id := range existing {
			sales = append(sales, productSales{ProductID: id, Quantity: totals[id]})
		}

		// Quantity descending; ties break on product ID ascending so the
		// ranking is stable across runs.
		sort.Slice(sales, func(i, j int) bool {
			if sales[i].Quantity != sales[j].Quantity {
				return sales[i].Quantity > sales[j].Quantity
			}
			return sales[i].ProductID.String() < sales[j].ProductID.String()
		})

		if len(sales) > s.topN {
			sales = sales[:s.topN]
		}

		reset := tx.Model(&models.Product{}).
			Where("popularity_rank <> 0").
			Update("popularity_rank", 0)
		if reset.Error != nil {
			return fmt.Errorf("failed to reset popularity ranks: %w", reset.Error)
		}
		summary.ProductsReset = int(reset.RowsAffected)

		for i, sale := range sales {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", sale.ProductID).
				Update("popularity_rank", i+1).Error; err != nil {
				return fmt.Errorf("failed to rank product %s: %w", sale.ProductID, err)
			}
		}
		summary.ProductsRanked = len(sales)

		return nil
	})

	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"ranked": summary.ProductsRanked,
		"reset":  summary.ProductsReset,
	}).Debug("Best-seller ranking recomputed")

	return summary, nil
}
