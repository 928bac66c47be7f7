// internal/services/testutil_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/commerce-jobs/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled :memory: connection would open a second, empty database.
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

	return db
}

func createCategory(t *testing.T, db *gorm.DB, name string, parentID *uuid.UUID) models.Category {
	t.Helper()
	category := models.Category{Name: name, ParentID: parentID}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func createProduct(t *testing.T, db *gorm.DB, name string, price float64, categoryID uuid.UUID) models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: price, CategoryID: categoryID}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func createWarehouse(t *testing.T, db *gorm.DB, name, city string) models.Warehouse {
	t.Helper()
	warehouse := models.Warehouse{Name: name, Address: models.Address{City: city, Country: "Vietnam"}}
	require.NoError(t, db.Create(&warehouse).Error)
	return warehouse
}

func createInventory(t *testing.T, db *gorm.DB, product models.Product, warehouse models.Warehouse, quantity int) models.Inventory {
	t.Helper()
	inventory := models.Inventory{
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Quantity:    quantity,
		CategoryID:  product.CategoryID,
		StockedAt:   time.Now(),
	}
	require.NoError(t, db.Create(&inventory).Error)
	return inventory
}

type orderLine struct {
	product     models.Product
	warehouseID *uuid.UUID
	quantity    int
}

func createOrder(t *testing.T, db *gorm.DB, status models.OrderStatus, createdAt time.Time, lines ...orderLine) models.Order {
	t.Helper()

	order := models.Order{
		BuyerID:         uuid.New(),
		Status:          status,
		ShippingAddress: models.Address{City: "Hanoi", Country: "Vietnam"},
	}
	if !createdAt.IsZero() {
		order.CreatedAt = createdAt
	}
	for _, line := range lines {
		order.TotalAmount += line.product.Price * float64(line.quantity)
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.product.ID,
			WarehouseID: line.warehouseID,
			Quantity:    line.quantity,
		})
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func reloadInventory(t *testing.T, db *gorm.DB, productID, warehouseID uuid.UUID) models.Inventory {
	t.Helper()
	var inventory models.Inventory
	require.NoError(t, db.Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).First(&inventory).Error)
	return inventory
}

func reloadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return product
}
