// internal/services/revenue_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/commerce-jobs/internal/models"
	"github.com/javajoker/commerce-jobs/internal/utils"
)

// ReportExporter ships committed snapshots to an external sink. Export
// failures never fail the job run.
type ReportExporter interface {
	ExportReports(ctx context.Context, reports []models.RevenueReport) error
}

// RevenueService recomputes the category and time revenue views from the
// full delivered-order corpus each run. Category snapshots append; the three
// time reports are upserted by (type, period). All writes of one run share a
// transaction, so readers never see a mixed generation.
type RevenueService struct {
	db       *gorm.DB
	exporter ReportExporter
}

func NewRevenueService(db *gorm.DB, exporter ReportExporter) *RevenueService {
	return &RevenueService{db: db, exporter: exporter}
}

type RevenueSummary struct {
	Orders       int     `json:"orders"`
	Categories   int     `json:"categories"`
	DayBuckets   int     `json:"day_buckets"`
	MonthBuckets int     `json:"month_buckets"`
	YearBuckets  int     `json:"year_buckets"`
	TotalRevenue float64 `json:"total_revenue"`
}

const unknownBucketName = "unknown"

type categoryAccumulator struct {
	name     string
	revenue  float64
	sold     int64
	products map[uuid.UUID]*models.ProductRevenue
}

func (s *RevenueService) Run(ctx context.Context) (*RevenueSummary, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Preload("Items").
		Where("status = ?", models.OrderStatusDelivered).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load delivered orders: %w", err)
	}

	products, categories, err := s.loadReferences(ctx, orders)
	if err != nil {
		return nil, err
	}

	categoryReport := s.aggregateByCategory(orders, products, categories)
	dayReport := s.aggregateByTime(orders, products, models.ReportPeriodDay)
	monthReport := s.aggregateByTime(orders, products, models.ReportPeriodMonth)
	yearReport := s.aggregateByTime(orders, products, models.ReportPeriodYear)

	now := time.Now()
	reports := []models.RevenueReport{
		{ReportType: models.ReportTypeCategory, Data: models.ReportPayload{Categories: categoryReport}, GeneratedAt: now},
		{ReportType: models.ReportTypeTime, Period: models.ReportPeriodDay, Data: models.ReportPayload{Buckets: dayReport}, GeneratedAt: now},
		{ReportType: models.ReportTypeTime, Period: models.ReportPeriodMonth, Data: models.ReportPayload{Buckets: monthReport}, GeneratedAt: now},
		{ReportType: models.ReportTypeTime, Period: models.ReportPeriodYear, Data: models.ReportPayload{Buckets: yearReport}, GeneratedAt: now},
	}

	if err := s.persist(ctx, reports); err != nil {
		return nil, err
	}

	if s.exporter != nil {
		if err := s.exporter.ExportReports(ctx, reports); err != nil {
			logrus.WithError(err).Error("Failed to export revenue reports")
		}
	}

	summary := &RevenueSummary{
		Orders:       len(orders),
		Categories:   len(categoryReport),
		DayBuckets:   len(dayReport),
		MonthBuckets: len(monthReport),
		YearBuckets:  len(yearReport),
	}
	for _, c := range categoryReport {
		summary.TotalRevenue += c.TotalRevenue
	}
	return summary, nil
}

func (s *RevenueService) loadReferences(ctx context.Context, orders []models.Order) (map[uuid.UUID]models.Product, map[uuid.UUID]models.Category, error) {
	productIDSet := make(map[uuid.UUID]struct{})
	for _, order := range orders {
		for _, item := range order.Items {
			productIDSet[item.ProductID] = struct{}{}
		}
	}
	productIDs := make([]uuid.UUID, 0, len(productIDSet))
	for id := range productIDSet {
		productIDs = append(productIDs, id)
	}

	productByID := make(map[uuid.UUID]models.Product, len(productIDs))
	categoryByID := make(map[uuid.UUID]models.Category)

	if len(productIDs) == 0 {
		return productByID, categoryByID, nil
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load products: %w", err)
	}

	categoryIDSet := make(map[uuid.UUID]struct{})
	for _, p := range products {
		productByID[p.ID] = p
		categoryIDSet[p.CategoryID] = struct{}{}
		if p.SubcategoryID != nil {
			categoryIDSet[*p.SubcategoryID] = struct{}{}
		}
	}
	categoryIDs := make([]uuid.UUID, 0, len(categoryIDSet))
	for id := range categoryIDSet {
		categoryIDs = append(categoryIDs, id)
	}

	if len(categoryIDs) > 0 {
		var cats []models.Category
		if err := s.db.WithContext(ctx).Where("id IN ?", categoryIDs).Find(&cats).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to load categories: %w", err)
		}
		for _, c := range cats {
			categoryByID[c.ID] = c
		}
	}

	return productByID, categoryByID, nil
}

// aggregateByCategory resolves each line item to its subcategory when set,
// else its parent category. Missing references degrade to the "unknown"
// bucket: a vanished product has no price, so it counts items but zero
// revenue.
func (s *RevenueService) aggregateByCategory(orders []models.Order, products map[uuid.UUID]models.Product, categories map[uuid.UUID]models.Category) []models.CategoryRevenue {
	buckets := make(map[uuid.UUID]*categoryAccumulator)

	bucketFor := func(id uuid.UUID, name string) *categoryAccumulator {
		acc, ok := buckets[id]
		if !ok {
			acc = &categoryAccumulator{name: name, products: make(map[uuid.UUID]*models.ProductRevenue)}
			buckets[id] = acc
		}
		return acc
	}

	for _, order := range orders {
		for _, item := range order.Items {
			quantity := int64(item.Quantity)

			product, ok := products[item.ProductID]
			if !ok {
				acc := bucketFor(uuid.Nil, unknownBucketName)
				acc.sold += quantity
				s.addProductBreakdown(acc, item.ProductID, unknownBucketName, quantity, 0)
				continue
			}

			revenue := product.Price * float64(item.Quantity)

			categoryID := product.CategoryID
			if product.SubcategoryID != nil {
				categoryID = *product.SubcategoryID
			}

			var acc *categoryAccumulator
			if category, ok := categories[categoryID]; ok {
				acc = bucketFor(category.ID, category.Name)
			} else {
				acc = bucketFor(uuid.Nil, unknownBucketName)
			}

			acc.revenue += revenue
			acc.sold += quantity
			s.addProductBreakdown(acc, product.ID, product.Name, quantity, revenue)
		}
	}

	entries := make([]models.CategoryRevenue, 0, len(buckets))
	for id, acc := range buckets {
		breakdown := make([]models.ProductRevenue, 0, len(acc.products))
		for _, pr := range acc.products {
			breakdown = append(breakdown, *pr)
		}
		sort.Slice(breakdown, func(i, j int) bool {
			if breakdown[i].Revenue != breakdown[j].Revenue {
				return breakdown[i].Revenue > breakdown[j].Revenue
			}
			return breakdown[i].ProductID.String() < breakdown[j].ProductID.String()
		})

		entries = append(entries, models.CategoryRevenue{
			CategoryID:     id,
			CategoryName:   acc.name,
			TotalRevenue:   acc.revenue,
			TotalSoldItems: acc.sold,
			Products:       breakdown,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalRevenue != entries[j].TotalRevenue {
			return entries[i].TotalRevenue > entries[j].TotalRevenue
		}
		return entries[i].CategoryID.String() < entries[j].CategoryID.String()
	})

	return entries
}

func (s *RevenueService) addProductBreakdown(acc *categoryAccumulator, productID uuid.UUID, name string, quantity int64, revenue float64) {
	pr, ok := acc.products[productID]
	if !ok {
		pr = &models.ProductRevenue{ProductID: productID, ProductName: name}
		acc.products[productID] = pr
	}
	pr.Quantity += quantity
	pr.Revenue += revenue
}

var periodLayouts = map[models.ReportPeriod]string{
	models.ReportPeriodDay:   "2006-01-02",
	models.ReportPeriodMonth: "2006-01",
	models.ReportPeriodYear:  "2006",
}

// aggregateByTime buckets whole orders by creation time truncated to the
// period. Items whose product vanished contribute their quantity but no
// revenue, matching the category view so the two views conserve revenue.
func (s *RevenueService) aggregateByTime(orders []models.Order, products map[uuid.UUID]models.Product, period models.ReportPeriod) []models.TimeBucket {
	layout := periodLayouts[period]

	buckets := utils.GroupFold(orders,
		func(order models.Order) string {
			return order.CreatedAt.Format(layout)
		},
		func(acc models.TimeBucket, order models.Order) models.TimeBucket {
			for _, item := range order.Items {
				acc.TotalSoldItems += int64(item.Quantity)
				if product, ok := products[item.ProductID]; ok {
					acc.TotalRevenue += product.Price * float64(item.Quantity)
				}
			}
			acc.OrderCount++
			return acc
		})

	entries := make([]models.TimeBucket, 0, len(buckets))
	for _, key := range utils.SortedKeys(buckets) {
		bucket := buckets[key]
		bucket.Bucket = key
		entries = append(entries, bucket)
	}
	return entries
}

func (s *RevenueService) persist(ctx context.Context, reports []models.RevenueReport) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range reports {
			report := &reports[i]

			// Category snapshots are history; time reports replace the
			// previous generation for their period.
			if report.ReportType == models.ReportTypeCategory {
				if err := tx.Create(report).Error; err != nil {
					return fmt.Errorf("failed to create category report: %w", err)
				}
				continue
			}

			var existing models.RevenueReport
			err := tx.Where("report_type = ? AND period = ?", report.ReportType, report.Period).
				First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(report).Error; err != nil {
					return fmt.Errorf("failed to create %s report: %w", report.Period, err)
				}
			case err != nil:
				return fmt.Errorf("failed to load %s report: %w", report.Period, err)
			default:
				if err := tx.Model(&existing).Updates(map[string]interface{}{
					"data":         report.Data,
					"generated_at": report.GeneratedAt,
				}).Error; err != nil {
					return fmt.Errorf("failed to update %s report: %w", report.Period, err)
				}
				report.ID = existing.ID
			}
		}
		return nil
	})
}
