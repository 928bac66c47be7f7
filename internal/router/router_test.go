// internal/router/router_test.go
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/commerce-jobs/internal/config"
	"github.com/javajoker/commerce-jobs/internal/geo"
	"github.com/javajoker/commerce-jobs/internal/models"
	"github.com/javajoker/commerce-jobs/internal/scheduler"
	"github.com/javajoker/commerce-jobs/internal/services"
)

type fixedEstimator struct{ km float64 }

func (f fixedEstimator) EstimateKm(ctx context.Context, cityA, cityB string) geo.Distance {
	return geo.Distance{Km: f.km}
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Warehouse{},
		&models.Inventory{},
		&models.Order{},
		&models.OrderItem{},
		&models.RevenueReport{},
		&models.JobLease{},
	))

	sched := scheduler.New(services.NewLeaseService(db), config.JobsConfig{RunTimeout: 5, LeaseTTL: 60})
	require.NoError(t, sched.Register("demo", "@hourly", func(ctx context.Context) (interface{}, error) {
		return gin.H{"ok": true}, nil
	}))

	selector := services.NewWarehouseSelector(db, fixedEstimator{km: 12})
	return Initialize(db, sched, selector), db
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := perform(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestCategoryReportEndpoint(t *testing.T) {
	r, db := newTestRouter(t)

	w := perform(r, http.MethodGet, "/v1/reports/category", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	report := models.RevenueReport{
		ReportType: models.ReportTypeCategory,
		Data: models.ReportPayload{Categories: []models.CategoryRevenue{
			{CategoryName: "Electronics", TotalSoldItems: 4, TotalRevenue: 99},
		}},
		GeneratedAt: time.Now(),
	}
	require.NoError(t, db.Create(&report).Error)

	w = perform(r, http.MethodGet, "/v1/reports/category", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    models.RevenueReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Data.Categories, 1)
	assert.Equal(t, "Electronics", resp.Data.Data.Categories[0].CategoryName)
}

func TestTimeReportRejectsUnknownPeriod(t *testing.T) {
	r, _ := newTestRouter(t)
	w := perform(r, http.MethodGet, "/v1/reports/time/decade", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBestSellersOrderedByRank(t *testing.T) {
	r, db := newTestRouter(t)

	category := models.Category{Name: "C"}
	require.NoError(t, db.Create(&category).Error)
	second := models.Product{Name: "Second", Price: 1, CategoryID: category.ID, PopularityRank: 2}
	first := models.Product{Name: "First", Price: 1, CategoryID: category.ID, PopularityRank: 1}
	unranked := models.Product{Name: "Unranked", Price: 1, CategoryID: category.ID}
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&unranked).Error)

	w := perform(r, http.MethodGet, "/v1/products/best-sellers", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "First", resp.Data[0].Name)
	assert.Equal(t, "Second", resp.Data[1].Name)
}

func TestWarehouseSelectEndpoint(t *testing.T) {
	r, db := newTestRouter(t)

	category := models.Category{Name: "C"}
	require.NoError(t, db.Create(&category).Error)
	product := models.Product{Name: "P", Price: 10, CategoryID: category.ID}
	require.NoError(t, db.Create(&product).Error)

	body := `{"destination_city": "Hanoi", "product_id": "` + product.ID.String() + `", "quantity": 1}`
	w := perform(r, http.MethodPost, "/v1/warehouses/select", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	warehouse := models.Warehouse{Name: "W", Address: models.Address{City: "Hue", Country: "Vietnam"}}
	require.NoError(t, db.Create(&warehouse).Error)
	require.NoError(t, db.Create(&models.Inventory{
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    5,
		CategoryID:  category.ID,
		StockedAt:   time.Now(),
	}).Error)

	w = perform(r, http.MethodPost, "/v1/warehouses/select", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.Warehouse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, warehouse.ID, resp.Data.ID)
}

func TestJobEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := perform(r, http.MethodGet, "/v1/jobs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "demo")

	w = perform(r, http.MethodPost, "/v1/jobs/demo/run", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "summary")

	w = perform(r, http.MethodPost, "/v1/jobs/missing/run", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
