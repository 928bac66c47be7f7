// cmd/jobs/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/commerce-jobs/internal/config"
	"github.com/javajoker/commerce-jobs/internal/database"
	"github.com/javajoker/commerce-jobs/internal/geo"
	"github.com/javajoker/commerce-jobs/internal/router"
	"github.com/javajoker/commerce-jobs/internal/scheduler"
	"github.com/javajoker/commerce-jobs/internal/services"
)

const (
	jobReconciliation = "inventory_reconciliation"
	jobRanking        = "best_seller_ranking"
	jobRevenue        = "revenue_aggregation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.Fatal("Failed to run migrations: ", err)
	}

	// Geocoding and distance stack
	geocoder := geo.NewGeocoder(cfg.Geo)
	estimator := geo.NewRoutingEstimator(cfg.Geo, geocoder)

	// Report export is optional
	exportService, err := services.NewExportService(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize report export: ", err)
	}
	var exporter services.ReportExporter
	if exportService != nil {
		exporter = exportService
		logrus.WithField("bucket", cfg.AWS.S3Bucket).Info("Report export enabled")
	}

	// Services
	selector := services.NewWarehouseSelector(db, estimator)
	reconciliation := services.NewReconciliationService(db)
	ranking := services.NewRankingService(db, cfg.Jobs.BestSellerCount)
	revenue := services.NewRevenueService(db, exporter)
	leases := services.NewLeaseService(db)

	// Scheduler
	sched := scheduler.New(leases, cfg.Jobs)
	registrations := []struct {
		name string
		spec string
		run  scheduler.RunFunc
	}{
		{jobReconciliation, cfg.Jobs.ReconciliationSchedule, func(ctx context.Context) (interface{}, error) {
			return reconciliation.Run(ctx)
		}},
		{jobRanking, cfg.Jobs.RankingSchedule, func(ctx context.Context) (interface{}, error) {
			return ranking.Run(ctx)
		}},
		{jobRevenue, cfg.Jobs.RevenueSchedule, func(ctx context.Context) (interface{}, error) {
			return revenue.Run(ctx)
		}},
	}
	for _, reg := range registrations {
		if err := sched.Register(reg.name, reg.spec, reg.run); err != nil {
			logrus.Fatal("Failed to register job: ", err)
		}
	}
	sched.Start()

	// Initialize router
	r := router.Initialize(db, sched, selector)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting admin server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	// Stop scheduling and wait for in-flight job runs
	<-sched.Stop().Done()

	// Shutdown server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatal("Server forced to shutdown: ", err)
	}

	logrus.Info("Service exited")
}
