// internal/handlers/report.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/commerce-jobs/internal/models"
	"github.com/javajoker/commerce-jobs/internal/utils"
)

type ReportHandler struct {
	db *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{db: db}
}

// GetCategoryReport returns the latest category revenue snapshot.
func (h *ReportHandler) GetCategoryReport(c *gin.Context) {
	var report models.RevenueReport
	err := h.db.Where("report_type = ?", models.ReportTypeCategory).
		Order("generated_at DESC").
		First(&report).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFoundResponse(c, "category report")
		return
	}
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, report)
}

// GetTimeReport returns the current time report for a period granularity.
func (h *ReportHandler) GetTimeReport(c *gin.Context) {
	period := models.ReportPeriod(c.Param("period"))
	switch period {
	case models.ReportPeriodDay, models.ReportPeriodMonth, models.ReportPeriodYear:
	default:
		utils.BadRequestResponse(c, "period must be one of: day, month, year", nil)
		return
	}

	var report models.RevenueReport
	err := h.db.Where("report_type = ? AND period = ?", models.ReportTypeTime, period).
		First(&report).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFoundResponse(c, "time report")
		return
	}
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, report)
}

// GetBestSellers returns the ranked products, best first.
func (h *ReportHandler) GetBestSellers(c *gin.Context) {
	var products []models.Product
	if err := h.db.Where("popularity_rank > 0").
		Order("popularity_rank ASC").
		Find(&products).Error; err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, products)
}
