// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	Name          string         `json:"name" gorm:"size:255;not null"`
	Price         float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	CategoryID    uuid.UUID      `json:"category_id" gorm:"type:uuid;not null;index"`
	SubcategoryID *uuid.UUID     `json:"subcategory_id" gorm:"type:uuid;index"`
	SupplierID    *uuid.UUID     `json:"supplier_id" gorm:"type:uuid;index"`
	Images        pq.StringArray `json:"images" gorm:"type:text[]"`
	// Stock is derived: the reconciliation job recomputes it as the sum of
	// the product's inventory records. No other writer.
	Stock int `json:"stock" gorm:"default:0"`
	// PopularityRank is derived: 0 = unranked, 1..N = best-seller rank.
	PopularityRank int `json:"popularity_rank" gorm:"default:0;index"`

	// Relationships
	Category    Category    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Subcategory *Category   `json:"subcategory,omitempty" gorm:"foreignKey:SubcategoryID"`
	Inventories []Inventory `json:"inventories,omitempty" gorm:"foreignKey:ProductID"`
}

type Category struct {
	BaseModel
	Name     string     `json:"name" gorm:"size:255;not null"`
	ParentID *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`

	// Relationships
	Parent   *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}
