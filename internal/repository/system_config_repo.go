package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// SystemConfigRepository stores administrator overrides keyed by config key.
type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (models.SystemConfig, error)
	List(ctx context.Context) ([]models.SystemConfig, error)
	Upsert(ctx context.Context, cfg *models.SystemConfig) error
}

type systemConfigRepository struct {
	db *gorm.DB
}

// NewSystemConfigRepository constructs the config override repository.
func NewSystemConfigRepository(db *gorm.DB) SystemConfigRepository {
	return &systemConfigRepository{db: db}
}

func (r *systemConfigRepository) Get(ctx context.Context, key string) (models.SystemConfig, error) {
	var cfg models.SystemConfig
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&cfg).Error; err != nil {
		return models.SystemConfig{}, err
	}
	return cfg, nil
}

func (r *systemConfigRepository) List(ctx context.Context) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *systemConfigRepository) Upsert(ctx context.Context, cfg *models.SystemConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_by", "updated_at"}),
	}).Create(cfg).Error
}
