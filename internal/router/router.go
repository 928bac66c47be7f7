// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/commerce-jobs/internal/handlers"
	"github.com/javajoker/commerce-jobs/internal/middleware"
	"github.com/javajoker/commerce-jobs/internal/scheduler"
	"github.com/javajoker/commerce-jobs/internal/services"
)

func Initialize(db *gorm.DB, sched *scheduler.Scheduler, selector *services.WarehouseSelector) *gin.Engine {
	// Initialize handlers
	reportHandler := handlers.NewReportHandler(db)
	jobHandler := handlers.NewJobHandler(sched)
	warehouseHandler := handlers.NewWarehouseHandler(selector)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		reports := v1.Group("/reports")
		{
			reports.GET("/category", reportHandler.GetCategoryReport)
			reports.GET("/time/:period", reportHandler.GetTimeReport)
		}

		v1.GET("/products/best-sellers", reportHandler.GetBestSellers)
		v1.POST("/warehouses/select", warehouseHandler.SelectWarehouse)

		jobs := v1.Group("/jobs")
		jobs.Use(middleware.JobTriggerRateLimit())
		{
			jobs.GET("", jobHandler.ListJobs)
			jobs.POST("/:name/run", jobHandler.TriggerJob)
		}
	}

	return r
}
