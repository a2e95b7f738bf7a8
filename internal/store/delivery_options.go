package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryOptionRepository persists buyer delivery preferences. At most one
// option per user is the default.
type DeliveryOptionRepository struct {
	db *gorm.DB
}

// NewDeliveryOptionRepository creates a new DeliveryOptionRepository.
func NewDeliveryOptionRepository(db *gorm.DB) *DeliveryOptionRepository {
	return &DeliveryOptionRepository{db: db}
}

// FindByUser returns a user's delivery options, default first.
func (r *DeliveryOptionRepository) FindByUser(ctx context.Context, userID string) ([]DeliveryOption, error) {
	var options []DeliveryOption
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at").
		Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

// FindDefault returns the user's default option.
func (r *DeliveryOptionRepository) FindDefault(ctx context.Context, userID string) (*DeliveryOption, error) {
	var option DeliveryOption
	if err := r.db.WithContext(ctx).
		First(&option, "user_id = ? AND is_default = ?", userID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("default delivery option for user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return &option, nil
}

// Create inserts a delivery option. A new default clears any existing
// default for the same user in the same transaction.
func (r *DeliveryOptionRepository) Create(ctx context.Context, option *DeliveryOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if option.IsDefault {
			if err := clearDefault(tx, option.UserID); err != nil {
				return err
			}
		}
		return tx.Create(option).Error
	})
}

// SetDefault makes the given option the user's default, clearing the
// previous one atomically.
func (r *DeliveryOptionRepository) SetDefault(ctx context.Context, userID string, optionID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		result := tx.Model(&DeliveryOption{}).
			Where("id = ? AND user_id = ?", optionID, userID).
			Update("is_default", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("delivery option %s: %w", optionID, ErrNotFound)
		}
		return nil
	})
}

func clearDefault(tx *gorm.DB, userID string) error {
	return tx.Model(&DeliveryOption{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
