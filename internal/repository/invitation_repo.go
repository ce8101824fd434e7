package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// InvitationRepository persists group invitations.
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.GroupInvitation) error
	GetByID(ctx context.Context, id uint) (models.GroupInvitation, error)
	HasPending(ctx context.Context, groupID, studentID uint) (bool, error)
	Update(ctx context.Context, invitation *models.GroupInvitation) error
	ExpirePendingForStudent(ctx context.Context, studentID, semesterID, exceptID uint) (int64, error)
}

type invitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository constructs the invitation repository.
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, invitation *models.GroupInvitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *invitationRepository) GetByID(ctx context.Context, id uint) (models.GroupInvitation, error) {
	var invitation models.GroupInvitation
	if err := r.db.WithContext(ctx).Preload("Group").First(&invitation, id).Error; err != nil {
		return models.GroupInvitation{}, err
	}
	return invitation, nil
}

func (r *invitationRepository) HasPending(ctx context.Context, groupID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupInvitation{}).
		Where("group_id = ? AND student_id = ? AND status = ?", groupID, studentID, models.InvitationPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *invitationRepository) Update(ctx context.Context, invitation *models.GroupInvitation) error {
	return r.db.WithContext(ctx).Omit("Group").Save(invitation).Error
}

// ExpirePendingForStudent supersedes the student's other pending invitations in the semester.
func (r *invitationRepository) ExpirePendingForStudent(ctx context.Context, studentID, semesterID, exceptID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.GroupInvitation{}).
		Where("student_id = ? AND status = ? AND id <> ?", studentID, models.InvitationPending, exceptID).
		Where("group_id IN (?)", r.db.Model(&models.Group{}).Select("id").Where("semester_id = ?", semesterID)).
		Updates(map[string]interface{}{
			"status":       models.InvitationExpired,
			"responded_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
