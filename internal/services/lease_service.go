// internal/services/lease_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/commerce-jobs/internal/models"
)

// LeaseService hands out named run leases backed by a table row, so
// overlapping schedule ticks of the same job serialize across instances.
// A lease left behind by a crashed holder becomes reclaimable when its TTL
// passes.
type LeaseService struct {
	db     *gorm.DB
	holder uuid.UUID
}

func NewLeaseService(db *gorm.DB) *LeaseService {
	return &LeaseService{
		db:     db,
		holder: uuid.New(),
	}
}

// Acquire attempts to take the lease for a job name. It returns false while
// the lease is live, including when this instance already holds it: a run
// must release before the next may start, so overlapping ticks in the same
// process serialize too.
func (s *LeaseService) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	now := time.Now()
	acquired := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lease models.JobLease
		err := tx.Where("name = ?", name).First(&lease).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			lease = models.JobLease{
				Name:       name,
				HolderID:   s.holder,
				AcquiredAt: now,
				ExpiresAt:  now.Add(ttl),
			}
			if err := tx.Create(&lease).Error; err != nil {
				return fmt.Errorf("failed to create lease %q: %w", name, err)
			}
		case err != nil:
			return fmt.Errorf("failed to load lease %q: %w", name, err)
		case lease.ExpiresAt.After(now):
			// Still live. Holder identity does not matter: our own previous
			// run holding the lease means that run has not finished.
			return nil
		default:
			if err := tx.Model(&models.JobLease{}).
				Where("name = ?", name).
				Updates(map[string]interface{}{
					"holder_id":   s.holder,
					"acquired_at": now,
					"expires_at":  now.Add(ttl),
				}).Error; err != nil {
				return fmt.Errorf("failed to take over lease %q: %w", name, err)
			}
		}

		acquired = true
		return nil
	})

	if err != nil {
		return false, err
	}
	return acquired, nil
}

// Release frees the lease if this instance still holds it.
func (s *LeaseService) Release(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).
		Where("name = ? AND holder_id = ?", name, s.holder).
		Delete(&models.JobLease{}).Error; err != nil {
		return fmt.Errorf("failed to release lease %q: %w", name, err)
	}
	return nil
}
