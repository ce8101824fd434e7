package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// UserRepository resolves accounts and their role grants.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	HasRole(ctx context.Context, userID uint, role models.Role, semesterID *uint) (bool, error)
	ListRoles(ctx context.Context, userID uint) ([]models.Role, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", normalized).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// HasRole matches global grants and, when semesterID is set, grants scoped to that semester.
func (r *userRepository) HasRole(ctx context.Context, userID uint, role models.Role, semesterID *uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role = ? AND is_active = ?", userID, role, true)
	if semesterID != nil {
		query = query.Where("semester_id IS NULL OR semester_id = ?", *semesterID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) ListRoles(ctx context.Context, userID uint) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Distinct().
		Pluck("role", &roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}
