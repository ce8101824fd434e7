package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// EmailLogRepository records outbound email attempts.
type EmailLogRepository interface {
	Create(ctx context.Context, entry *models.EmailLog) error
	ListByRecipient(ctx context.Context, recipient string) ([]models.EmailLog, error)
}

type emailLogRepository struct {
	db *gorm.DB
}

// NewEmailLogRepository constructs the email log repository.
func NewEmailLogRepository(db *gorm.DB) EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) Create(ctx context.Context, entry *models.EmailLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *emailLogRepository) ListByRecipient(ctx context.Context, recipient string) ([]models.EmailLog, error) {
	var entries []models.EmailLog
	err := r.db.WithContext(ctx).
		Where("recipient = ?", recipient).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
