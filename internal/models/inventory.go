// internal/models/inventory.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Warehouse struct {
	BaseModel
	Name     string         `json:"name" gorm:"size:255;not null"`
	Address  Address        `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Capacity int            `json:"capacity" gorm:"default:0"`
	Zones    pq.StringArray `json:"zones" gorm:"type:text[]"`

	// Relationships
	Inventories []Inventory `json:"inventories,omitempty" gorm:"foreignKey:WarehouseID"`
}

// Inventory is the quantity of one product on hand at one warehouse.
// A (product, warehouse) pair has at most one record; quantity never goes
// below zero.
type Inventory struct {
	BaseModel
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_inventories_product_warehouse"`
	WarehouseID  uuid.UUID `json:"warehouse_id" gorm:"type:uuid;not null;uniqueIndex:idx_inventories_product_warehouse"`
	Quantity     int       `json:"quantity" gorm:"not null;default:0"`
	StockedPrice float64   `json:"stocked_price" gorm:"type:decimal(10,2)"`
	CategoryID   uuid.UUID `json:"category_id" gorm:"type:uuid;index"`
	StockedAt    time.Time `json:"stocked_at"`

	// Relationships
	Product   Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Warehouse Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
}
