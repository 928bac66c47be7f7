// internal/models/lease.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// JobLease serializes overlapping schedule ticks of the same job. A run
// acquires the row for its job name before executing and releases it after;
// a stale lease (crashed holder) is reclaimable once ExpiresAt passes.
type JobLease struct {
	Name       string    `json:"name" gorm:"primaryKey;size:100"`
	HolderID   uuid.UUID `json:"holder_id" gorm:"type:uuid;not null"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index"`
}
