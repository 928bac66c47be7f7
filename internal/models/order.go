// internal/models/order.go
package models

import (
	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	BuyerID     uuid.UUID   `json:"buyer_id" gorm:"type:uuid;not null;index"`
	TotalAmount float64     `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Status      OrderStatus `json:"status" gorm:"type:varchar(20);default:'processing';index"`
	// Processed marks that this order's delivery has been applied to
	// inventory. Only the reconciliation job flips it, inside the same
	// transaction as the stock writes.
	Processed       bool    `json:"processed" gorm:"default:false;index"`
	ShippingAddress Address `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`

	// Relationships
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	WarehouseID *uuid.UUID `json:"warehouse_id" gorm:"type:uuid;index"`
	Quantity    int        `json:"quantity" gorm:"not null"`

	// Relationships
	Product   *Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
}
