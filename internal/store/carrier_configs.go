package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/soukly/mirsal/pkg/carrier"
	"gorm.io/gorm"
)

// CarrierConfigRepository reads persisted carrier configurations. The
// administrative surface owns writes; Create exists for seeding and tests.
type CarrierConfigRepository struct {
	db *gorm.DB
}

// NewCarrierConfigRepository creates a new CarrierConfigRepository.
func NewCarrierConfigRepository(db *gorm.DB) *CarrierConfigRepository {
	return &CarrierConfigRepository{db: db}
}

// ActiveConfigurations returns the settings of every active carrier, in name
// order so registry snapshots are stable across reloads.
func (r *CarrierConfigRepository) ActiveConfigurations(ctx context.Context) ([]carrier.Settings, error) {
	var rows []CarrierConfig
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	settings := make([]carrier.Settings, 0, len(rows))
	for _, row := range rows {
		s, err := row.ToSettings()
		if err != nil {
			return nil, fmt.Errorf("decoding configuration for %s: %w", row.Name, err)
		}
		settings = append(settings, s)
	}
	return settings, nil
}

// FindByName returns one configuration row.
func (r *CarrierConfigRepository) FindByName(ctx context.Context, name string) (*CarrierConfig, error) {
	var row CarrierConfig
	if err := r.db.WithContext(ctx).First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("carrier config %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return &row, nil
}

// Create inserts a configuration row.
func (r *CarrierConfigRepository) Create(ctx context.Context, cfg *CarrierConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

var _ carrier.ConfigSource = (*CarrierConfigRepository)(nil)
