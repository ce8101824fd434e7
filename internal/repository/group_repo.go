package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// GroupRepository persists groups together with their members and mentors.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (models.Group, error)
	List(ctx context.Context, semesterID uint) ([]models.Group, error)
	ListCodesWithPrefix(ctx context.Context, semesterID uint, prefix string) ([]string, error)

	AddMember(ctx context.Context, member *models.GroupMember) error
	ActiveMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error)
	GetActiveMember(ctx context.Context, groupID, studentID uint) (models.GroupMember, error)
	FindActiveMembershipInSemester(ctx context.Context, studentID, semesterID uint) (models.GroupMember, error)
	SetLeader(ctx context.Context, groupID, studentID uint) error
	RemoveMember(ctx context.Context, memberID uint) error

	Mentors(ctx context.Context, groupID uint) ([]models.GroupMentor, error)
	AddMentor(ctx context.Context, mentor *models.GroupMentor) error
	RemoveMentor(ctx context.Context, mentorRowID uint) error
	MentoredGroupIDs(ctx context.Context, mentorID uint) ([]uint, error)

	SoftDeleteCascade(ctx context.Context, groupID uint) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository constructs a GORM-backed group repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func activeMembers(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", models.MemberStatusActive).Order("id ASC")
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).
		Preload("Semester").
		Preload("Members", activeMembers).
		Preload("Members.Student.User").
		Preload("Members.Student.Major").
		Preload("Mentors.Mentor").
		First(&group, id).Error
	if err != nil {
		return models.Group{}, err
	}

	return group, nil
}

func (r *groupRepository) List(ctx context.Context, semesterID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).
		Preload("Members", activeMembers).
		Preload("Members.Student.User").
		Preload("Members.Student.Major").
		Preload("Mentors.Mentor").
		Where("semester_id = ?", semesterID).
		Order("group_code ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	return groups, nil
}

// ListCodesWithPrefix includes soft-deleted groups so sequence numbers are never reused.
func (r *groupRepository) ListCodesWithPrefix(ctx context.Context, semesterID uint, prefix string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Unscoped().
		Model(&models.Group{}).
		Where(`semester_id = ? AND group_code LIKE ? ESCAPE '\'`, semesterID, likePrefix(prefix)).
		Pluck("group_code", &codes).Error
	if err != nil {
		return nil, err
	}
	return withPrefix(codes, prefix), nil
}

func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *groupRepository) ActiveMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).
		Preload("Student.User").
		Preload("Student.Major").
		Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	return members, nil
}

func (r *groupRepository) GetActiveMember(ctx context.Context, groupID, studentID uint) (models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND student_id = ? AND status = ?", groupID, studentID, models.MemberStatusActive).
		First(&member).Error
	if err != nil {
		return models.GroupMember{}, err
	}

	return member, nil
}

func (r *groupRepository) FindActiveMembershipInSemester(ctx context.Context, studentID, semesterID uint) (models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Joins("JOIN thesis_groups g ON g.id = group_members.group_id AND g.deleted_at IS NULL").
		Where("group_members.student_id = ? AND group_members.status = ? AND g.semester_id = ?", studentID, models.MemberStatusActive, semesterID).
		First(&member).Error
	if err != nil {
		return models.GroupMember{}, err
	}

	return member, nil
}

// SetLeader demotes every active member and promotes studentID. Callers run it inside a transaction.
func (r *groupRepository) SetLeader(ctx context.Context, groupID, studentID uint) error {
	demote := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberStatusActive).
		Update("role", models.GroupRoleMember)
	if demote.Error != nil {
		return demote.Error
	}

	promote := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND student_id = ? AND status = ?", groupID, studentID, models.MemberStatusActive).
		Update("role", models.GroupRoleLeader)
	if promote.Error != nil {
		return promote.Error
	}
	if promote.RowsAffected != 1 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *groupRepository) RemoveMember(ctx context.Context, memberID uint) error {
	update := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("id = ?", memberID).
		Update("status", models.MemberStatusInactive)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return r.db.WithContext(ctx).Delete(&models.GroupMember{}, memberID).Error
}

func (r *groupRepository) Mentors(ctx context.Context, groupID uint) ([]models.GroupMentor, error) {
	var mentors []models.GroupMentor
	err := r.db.WithContext(ctx).
		Preload("Mentor").
		Where("group_id = ?", groupID).
		Order("id ASC").
		Find(&mentors).Error
	if err != nil {
		return nil, err
	}

	return mentors, nil
}

func (r *groupRepository) AddMentor(ctx context.Context, mentor *models.GroupMentor) error {
	return r.db.WithContext(ctx).Create(mentor).Error
}

func (r *groupRepository) RemoveMentor(ctx context.Context, mentorRowID uint) error {
	result := r.db.WithContext(ctx).Delete(&models.GroupMentor{}, mentorRowID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *groupRepository) MentoredGroupIDs(ctx context.Context, mentorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.GroupMentor{}).
		Where("mentor_id = ?", mentorID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SoftDeleteCascade removes members, mentors and invitations before the group itself.
func (r *groupRepository) SoftDeleteCascade(ctx context.Context, groupID uint) error {
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Update("status", models.MemberStatusInactive).Error; err != nil {
		return err
	}
	if err := db.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	if err := db.Where("group_id = ?", groupID).Delete(&models.GroupMentor{}).Error; err != nil {
		return err
	}
	if err := db.Where("group_id = ?", groupID).Delete(&models.GroupInvitation{}).Error; err != nil {
		return err
	}

	update := db.Model(&models.Group{}).Where("id = ?", groupID).Update("status", models.GroupStatusDeleted)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return db.Delete(&models.Group{}, groupID).Error
}
