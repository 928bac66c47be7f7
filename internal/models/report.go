// internal/models/report.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProductRevenue is the per-product breakdown nested inside a category entry.
type ProductRevenue struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
	Revenue     float64   `json:"revenue"`
}

// CategoryRevenue aggregates delivered line items for one category. Items
// whose product or category no longer resolves land in an "unknown" entry
// with a nil category ID.
type CategoryRevenue struct {
	CategoryID     uuid.UUID        `json:"category_id"`
	CategoryName   string           `json:"category_name"`
	TotalRevenue   float64          `json:"total_revenue"`
	TotalSoldItems int64            `json:"total_sold_items"`
	Products       []ProductRevenue `json:"products"`
}

// TimeBucket aggregates delivered orders into one zero-padded ISO date
// fragment ("2026-01-02", "2026-01", "2026") so lexicographic order is
// chronological order.
type TimeBucket struct {
	Bucket         string  `json:"bucket"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalSoldItems int64   `json:"total_sold_items"`
	OrderCount     int64   `json:"order_count"`
}

// ReportPayload is the JSONB payload of a revenue report. Exactly one of the
// two slices is populated, depending on the report type.
type ReportPayload struct {
	Categories []CategoryRevenue `json:"categories,omitempty"`
	Buckets    []TimeBucket      `json:"buckets,omitempty"`
}

func (p ReportPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ReportPayload) Scan(value interface{}) error {
	if value == nil {
		*p = ReportPayload{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported report payload type %T", value)
	}

	return json.Unmarshal(bytes, p)
}

// RevenueReport is an immutable snapshot written by the revenue job.
// Category snapshots are append-only history; time snapshots are upserted by
// (report_type, period) so one current report exists per granularity.
type RevenueReport struct {
	BaseModel
	ReportType  ReportType    `json:"report_type" gorm:"type:varchar(20);not null;index:idx_revenue_reports_type_period"`
	Period      ReportPeriod  `json:"period,omitempty" gorm:"type:varchar(10);index:idx_revenue_reports_type_period"`
	Data        ReportPayload `json:"data" gorm:"type:jsonb"`
	GeneratedAt time.Time     `json:"generated_at" gorm:"index"`
}
