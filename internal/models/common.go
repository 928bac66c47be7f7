// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the UUID in the application instead of relying on a
// database default, so the same models migrate onto the sqlite test database.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type ReportType string

const (
	ReportTypeCategory ReportType = "category"
	ReportTypeTime     ReportType = "time"
)

type ReportPeriod string

const (
	ReportPeriodDay   ReportPeriod = "day"
	ReportPeriodMonth ReportPeriod = "month"
	ReportPeriodYear  ReportPeriod = "year"
)

// Address is the shipping/location shape shared by orders and warehouses.
type Address struct {
	Street   string `json:"street" gorm:"size:255"`
	Ward     string `json:"ward" gorm:"size:100"`
	District string `json:"district" gorm:"size:100"`
	City     string `json:"city" gorm:"size:100"`
	Country  string `json:"country" gorm:"size:100"`
}
