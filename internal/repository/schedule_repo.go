package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// ScheduleRepository persists review and defense sessions and their result rows.
type ScheduleRepository interface {
	ListReviewByCouncil(ctx context.Context, councilID uint) ([]models.ReviewSchedule, error)
	ListDefenseByCouncil(ctx context.Context, councilID uint) ([]models.DefenseSchedule, error)
	CreateReview(ctx context.Context, schedule *models.ReviewSchedule) error
	CreateDefense(ctx context.Context, schedule *models.DefenseSchedule) error
	CreateReviewAssignment(ctx context.Context, assignment *models.ReviewAssignment) error
	CreateDefenseResults(ctx context.Context, results []models.DefenseMemberResult) error

	GetDefense(ctx context.Context, id uint) (models.DefenseSchedule, error)
	ListResults(ctx context.Context, defenseScheduleID uint) ([]models.DefenseMemberResult, error)
	GetResult(ctx context.Context, defenseScheduleID, studentID uint) (models.DefenseMemberResult, error)
	FindPassedResult(ctx context.Context, groupID, studentID uint, maxRound int) (models.DefenseMemberResult, error)
	SaveResult(ctx context.Context, result *models.DefenseMemberResult) error
	MarkDefenseCompleted(ctx context.Context, defenseScheduleID uint) error
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository constructs the schedule repository.
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) ListReviewByCouncil(ctx context.Context, councilID uint) ([]models.ReviewSchedule, error) {
	var schedules []models.ReviewSchedule
	err := r.db.WithContext(ctx).
		Preload("Group").
		Where("council_id = ?", councilID).
		Order("review_time ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) ListDefenseByCouncil(ctx context.Context, councilID uint) ([]models.DefenseSchedule, error) {
	var schedules []models.DefenseSchedule
	err := r.db.WithContext(ctx).
		Preload("Group").
		Where("council_id = ?", councilID).
		Order("defense_time ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) CreateReview(ctx context.Context, schedule *models.ReviewSchedule) error {
	return r.db.WithContext(ctx).Omit("Group").Create(schedule).Error
}

func (r *scheduleRepository) CreateDefense(ctx context.Context, schedule *models.DefenseSchedule) error {
	return r.db.WithContext(ctx).Omit("Group").Create(schedule).Error
}

func (r *scheduleRepository) CreateReviewAssignment(ctx context.Context, assignment *models.ReviewAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *scheduleRepository) CreateDefenseResults(ctx context.Context, results []models.DefenseMemberResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&results).Error
}

func (r *scheduleRepository) GetDefense(ctx context.Context, id uint) (models.DefenseSchedule, error) {
	var schedule models.DefenseSchedule
	if err := r.db.WithContext(ctx).First(&schedule, id).Error; err != nil {
		return models.DefenseSchedule{}, err
	}
	return schedule, nil
}

func (r *scheduleRepository) ListResults(ctx context.Context, defenseScheduleID uint) ([]models.DefenseMemberResult, error) {
	var results []models.DefenseMemberResult
	err := r.db.WithContext(ctx).
		Where("defense_schedule_id = ?", defenseScheduleID).
		Order("id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scheduleRepository) GetResult(ctx context.Context, defenseScheduleID, studentID uint) (models.DefenseMemberResult, error) {
	var result models.DefenseMemberResult
	err := r.db.WithContext(ctx).
		Where("defense_schedule_id = ? AND student_id = ?", defenseScheduleID, studentID).
		First(&result).Error
	if err != nil {
		return models.DefenseMemberResult{}, err
	}
	return result, nil
}

// FindPassedResult looks for a PASS recorded for the student in any round up to maxRound.
func (r *scheduleRepository) FindPassedResult(ctx context.Context, groupID, studentID uint, maxRound int) (models.DefenseMemberResult, error) {
	var result models.DefenseMemberResult
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND student_id = ? AND result = ? AND round <= ?", groupID, studentID, models.ResultPass, maxRound).
		Order("round ASC").
		First(&result).Error
	if err != nil {
		return models.DefenseMemberResult{}, err
	}
	return result, nil
}

func (r *scheduleRepository) SaveResult(ctx context.Context, result *models.DefenseMemberResult) error {
	if result.EvaluatedAt == nil {
		now := time.Now()
		result.EvaluatedAt = &now
	}
	return r.db.WithContext(ctx).Save(result).Error
}

func (r *scheduleRepository) MarkDefenseCompleted(ctx context.Context, defenseScheduleID uint) error {
	return r.db.WithContext(ctx).Model(&models.DefenseSchedule{}).
		Where("id = ?", defenseScheduleID).
		Update("status", models.ScheduleStatusCompleted).Error
}
