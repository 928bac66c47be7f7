// internal/services/revenue_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/commerce-jobs/internal/models"
)

type RevenueTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *RevenueService
}

func (s *RevenueTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewRevenueService(s.db, nil)
}

func (s *RevenueTestSuite) loadReport(reportType models.ReportType, period models.ReportPeriod) models.RevenueReport {
	var report models.RevenueReport
	query := s.db.Where("report_type = ?", reportType).Order("generated_at DESC")
	if period != "" {
		query = query.Where("period = ?", period)
	}
	s.Require().NoError(query.First(&report).Error)
	return report
}

func (s *RevenueTestSuite) TestCategoryTotalsAcrossOrders() {
	c1 := createCategory(s.T(), s.db, "C1", nil)
	c2 := createCategory(s.T(), s.db, "C2", nil)
	p1 := createProduct(s.T(), s.db, "P1", 10, c1.ID)
	p2 := createProduct(s.T(), s.db, "P2", 20, c2.ID)

	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{}, orderLine{product: p1, quantity: 2})
	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{}, orderLine{product: p1, quantity: 1})
	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{}, orderLine{product: p2, quantity: 5})

	summary, err := s.service.Run(context.Background())
	s.Require().NoError(err)
	s.Equal(3, summary.Orders)
	s.Equal(2, summary.Categories)

	report := s.loadReport(models.ReportTypeCategory, "")
	s.Require().Len(report.Data.Categories, 2)

	byName := make(map[string]models.CategoryRevenue)
	for _, entry := range report.Data.Categories {
		byName[entry.CategoryName] = entry
	}

	s.Equal(int64(3), byName["C1"].TotalSoldItems)
	s.InDelta(30, byName["C1"].TotalRevenue, 1e-9)
	s.Equal(int64(5), byName["C2"].TotalSoldItems)
	s.InDelta(100, byName["C2"].TotalRevenue, 1e-9)

	s.Require().Len(byName["C1"].Products, 1)
	s.Equal(p1.ID, byName["C1"].Products[0].ProductID)
	s.Equal(int64(3), byName["C1"].Products[0].Quantity)
}

func (s *RevenueTestSuite) TestSubcategoryPreferredOverParent() {
	parent := createCategory(s.T(), s.db, "Parent", nil)
	sub := createCategory(s.T(), s.db, "Sub", &parent.ID)
	p := createProduct(s.T(), s.db, "P", 10, parent.ID)
	s.Require().NoError(s.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("subcategory_id", sub.ID).Error)

	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{}, orderLine{product: p, quantity: 1})

	_, err := s.service.Run(context.Background())
	s.Require().NoError(err)

	report := s.loadReport(models.ReportTypeCategory, "")
	s.Require().Len(report.Data.Categories, 1)
	s.Equal(sub.ID, report.Data.Categories[0].CategoryID)
	s.Equal("Sub", report.Data.Categories[0].CategoryName)
}

func (s *RevenueTestSuite) TestMissingProductFallsIntoUnknownBucket() {
	ghost := models.Product{BaseModel: models.BaseModel{ID: uuid.New()}}
	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{}, orderLine{product: ghost, quantity: 3})

	_, err := s.service.Run(context.Background())
	s.Require().NoError(err)

	report := s.loadReport(models.ReportTypeCategory, "")
	s.Require().Len(report.Data.Categories, 1)

	unknown := report.Data.Categories[0]
	s.Equal(uuid.Nil, unknown.CategoryID)
	s.Equal("unknown", unknown.CategoryName)
	s.Equal(int64(3), unknown.TotalSoldItems)
	s.Zero(unknown.TotalRevenue)
}

func (s *RevenueTestSuite) TestTimeBucketsPerGranularity() {
	c := createCategory(s.T(), s.db, "C", nil)
	p := createProduct(s.T(), s.db, "P", 10, c.ID)

	jan1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	jan2 := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	createOrder(s.T(), s.db, models.OrderStatusDelivered, jan1, orderLine{product: p, quantity: 1})
	createOrder(s.T(), s.db, models.OrderStatusDelivered, jan2, orderLine{product: p, quantity: 2})
	createOrder(s.T(), s.db, models.OrderStatusDelivered, feb1, orderLine{product: p, quantity: 3})

	summary, err := s.service.Run(context.Background())
	s.Require().NoError(err)
	s.Equal(3, summary.DayBuckets)
	s.Equal(2, summary.MonthBuckets)
	s.Equal(1, summary.YearBuckets)

	day := s.loadReport(models.ReportTypeTime, models.ReportPeriodDay)
	s.Require().Len(day.Data.Buckets, 3)
	s.Equal("2026-01-01", day.Data.Buckets[0].Bucket)
	s.Equal("2026-01-02", day.Data.Buckets[1].Bucket)
	s.Equal("2026-02-01", day.Data.Buckets[2].Bucket)
	s.InDelta(10, day.Data.Buckets[0].TotalRevenue, 1e-9)

	month := s.loadReport(models.ReportTypeTime, models.ReportPeriodMonth)
	s.Require().Len(month.Data.Buckets, 2)
	s.Equal("2026-01", month.Data.Buckets[0].Bucket)
	s.InDelta(30, month.Data.Buckets[0].TotalRevenue, 1e-9)

	year := s.loadReport(models.ReportTypeTime, models.ReportPeriodYear)
	s.Require().Len(year.Data.Buckets, 1)
	s.Equal("2026", year.Data.Buckets[0].Bucket)
	s.InDelta(60, year.Data.Buckets[0].TotalRevenue, 1e-9)
	s.Equal(int64(3), year.Data.Buckets[0].OrderCount)
}

func (s *RevenueTestSuite) TestCategoryAndTimeViewsConserveRevenue() {
	c1 := createCategory(s.T(), s.db, "C1", nil)
	c2 := createCategory(s.T(), s.db, "C2", nil)
	p1 := createProduct(s.T(), s.db, "P1", 12.5, c1.ID)
	p2 := createProduct(s.T(), s.db, "P2", 7, c2.ID)
	ghost := models.Product{BaseModel: models.BaseModel{ID: uuid.New()}}

	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{},
		orderLine{product: p1, quantity: 2},
		orderLine{product: ghost, quantity: 1})
	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{}, orderLine{product: p2, quantity: 4})

	_, err := s.service.Run(context.Background())
	s.Require().NoError(err)

	var categoryTotal float64
	for _, entry := range s.loadReport(models.ReportTypeCategory, "").Data.Categories {
		categoryTotal += entry.TotalRevenue
	}

	var timeTotal float64
	for _, bucket := range s.loadReport(models.ReportTypeTime, models.ReportPeriodDay).Data.Buckets {
		timeTotal += bucket.TotalRevenue
	}

	s.InDelta(categoryTotal, timeTotal, 1e-9)
	s.InDelta(53, categoryTotal, 1e-9)
}

func (s *RevenueTestSuite) TestTimeReportsUpsertCategorySnapshotsAppend() {
	c := createCategory(s.T(), s.db, "C", nil)
	p := createProduct(s.T(), s.db, "P", 10, c.ID)
	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{}, orderLine{product: p, quantity: 1})

	_, err := s.service.Run(context.Background())
	s.Require().NoError(err)
	_, err = s.service.Run(context.Background())
	s.Require().NoError(err)

	var categoryCount, timeCount int64
	s.Require().NoError(s.db.Model(&models.RevenueReport{}).
		Where("report_type = ?", models.ReportTypeCategory).Count(&categoryCount).Error)
	s.Require().NoError(s.db.Model(&models.RevenueReport{}).
		Where("report_type = ?", models.ReportTypeTime).Count(&timeCount).Error)

	s.Equal(int64(2), categoryCount)
	s.Equal(int64(3), timeCount)
}

func (s *RevenueTestSuite) TestCancelledOrdersDoNotCount() {
	c := createCategory(s.T(), s.db, "C", nil)
	p := createProduct(s.T(), s.db, "P", 10, c.ID)
	createOrder(s.T(), s.db, models.OrderStatusCancelled, time.Time{}, orderLine{product: p, quantity: 5})
	createOrder(s.T(), s.db, models.OrderStatusDelivered, time.Time{}, orderLine{product: p, quantity: 1})

	summary, err := s.service.Run(context.Background())
	s.Require().NoError(err)

	s.Equal(1, summary.Orders)
	s.InDelta(10, summary.TotalRevenue, 1e-9)
}

func TestRevenueSuite(t *testing.T) {
	suite.Run(t, new(RevenueTestSuite))
}
