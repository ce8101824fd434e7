package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// CouncilFilter narrows council listings.
type CouncilFilter struct {
	SemesterID uint
	Type       models.CouncilType
	Round      int
}

// CouncilRepository persists councils and their rosters.
type CouncilRepository interface {
	Create(ctx context.Context, council *models.Council) error
	GetByID(ctx context.Context, id uint) (models.Council, error)
	GetForUpdate(ctx context.Context, id uint) (models.Council, error)
	List(ctx context.Context, filter CouncilFilter) ([]models.Council, error)
	ListCodesWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Update(ctx context.Context, council *models.Council) error

	Members(ctx context.Context, councilID uint) ([]models.CouncilMember, error)
	GetMember(ctx context.Context, councilID, userID uint) (models.CouncilMember, error)
	AddMembers(ctx context.Context, members []models.CouncilMember) error
	RemoveMember(ctx context.Context, memberID uint) error
	RemoveAllMembers(ctx context.Context, councilID uint) error
	ListCouncilsForUser(ctx context.Context, userID, excludeCouncilID uint) ([]models.Council, error)

	SoftDelete(ctx context.Context, councilID uint) error
}

type councilRepository struct {
	db *gorm.DB
}

// NewCouncilRepository constructs the council repository.
func NewCouncilRepository(db *gorm.DB) CouncilRepository {
	return &councilRepository{db: db}
}

func (r *councilRepository) Create(ctx context.Context, council *models.Council) error {
	return r.db.WithContext(ctx).Omit("Semester", "Members").Create(council).Error
}

func (r *councilRepository) GetByID(ctx context.Context, id uint) (models.Council, error) {
	var council models.Council
	err := r.db.WithContext(ctx).
		Preload("Semester").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Members.User").
		First(&council, id).Error
	if err != nil {
		return models.Council{}, err
	}
	return council, nil
}

// GetForUpdate row-locks the council for the rest of the enclosing transaction.
func (r *councilRepository) GetForUpdate(ctx context.Context, id uint) (models.Council, error) {
	var council models.Council
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&council, id).Error
	if err != nil {
		return models.Council{}, err
	}
	return council, nil
}

func (r *councilRepository) List(ctx context.Context, filter CouncilFilter) ([]models.Council, error) {
	query := r.db.WithContext(ctx).Model(&models.Council{}).Preload("Members.User")
	if filter.SemesterID != 0 {
		query = query.Where("semester_id = ?", filter.SemesterID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Round > 0 {
		query = query.Where("round = ?", filter.Round)
	}

	var councils []models.Council
	if err := query.Order("start_date ASC, id ASC").Find(&councils).Error; err != nil {
		return nil, err
	}
	return councils, nil
}

// ListCodesWithPrefix includes soft-deleted councils so codes are never reused.
func (r *councilRepository) ListCodesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Unscoped().
		Model(&models.Council{}).
		Where(`code LIKE ? ESCAPE '\'`, likePrefix(prefix)).
		Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return withPrefix(codes, prefix), nil
}

func (r *councilRepository) Update(ctx context.Context, council *models.Council) error {
	return r.db.WithContext(ctx).Omit("Semester", "Members").Save(council).Error
}

func (r *councilRepository) Members(ctx context.Context, councilID uint) ([]models.CouncilMember, error) {
	var members []models.CouncilMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("council_id = ?", councilID).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *councilRepository) GetMember(ctx context.Context, councilID, userID uint) (models.CouncilMember, error) {
	var member models.CouncilMember
	err := r.db.WithContext(ctx).
		Where("council_id = ? AND user_id = ?", councilID, userID).
		First(&member).Error
	if err != nil {
		return models.CouncilMember{}, err
	}
	return member, nil
}

func (r *councilRepository) AddMembers(ctx context.Context, members []models.CouncilMember) error {
	if len(members) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("User").Create(&members).Error
}

func (r *councilRepository) RemoveMember(ctx context.Context, memberID uint) error {
	result := r.db.WithContext(ctx).Delete(&models.CouncilMember{}, memberID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *councilRepository) RemoveAllMembers(ctx context.Context, councilID uint) error {
	return r.db.WithContext(ctx).Where("council_id = ?", councilID).Delete(&models.CouncilMember{}).Error
}

// ListCouncilsForUser returns every live council the user sits on, except excludeCouncilID.
func (r *councilRepository) ListCouncilsForUser(ctx context.Context, userID, excludeCouncilID uint) ([]models.Council, error) {
	var councils []models.Council
	err := r.db.WithContext(ctx).
		Joins("JOIN council_members cm ON cm.council_id = councils.id AND cm.deleted_at IS NULL").
		Where("cm.user_id = ? AND councils.id <> ?", userID, excludeCouncilID).
		Order("councils.start_date ASC").
		Find(&councils).Error
	if err != nil {
		return nil, err
	}
	return councils, nil
}

// SoftDelete removes the council with its roster and schedules.
func (r *councilRepository) SoftDelete(ctx context.Context, councilID uint) error {
	db := r.db.WithContext(ctx)

	var reviewIDs []uint
	if err := db.Model(&models.ReviewSchedule{}).Where("council_id = ?", councilID).Pluck("id", &reviewIDs).Error; err != nil {
		return err
	}
	if len(reviewIDs) > 0 {
		if err := db.Where("review_schedule_id IN ?", reviewIDs).Delete(&models.ReviewAssignment{}).Error; err != nil {
			return err
		}
	}

	var defenseIDs []uint
	if err := db.Model(&models.DefenseSchedule{}).Where("council_id = ?", councilID).Pluck("id", &defenseIDs).Error; err != nil {
		return err
	}
	if len(defenseIDs) > 0 {
		if err := db.Where("defense_schedule_id IN ?", defenseIDs).Delete(&models.DefenseMemberResult{}).Error; err != nil {
			return err
		}
	}

	for _, model := range []interface{}{&models.ReviewSchedule{}, &models.DefenseSchedule{}, &models.CouncilMember{}} {
		if err := db.Where("council_id = ?", councilID).Delete(model).Error; err != nil {
			return err
		}
	}

	result := db.Delete(&models.Council{}, councilID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

