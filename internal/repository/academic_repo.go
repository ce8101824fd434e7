package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// AcademicRepository reads the academic calendar and programme catalogue.
type AcademicRepository interface {
	GetSemester(ctx context.Context, id uint) (models.Semester, error)
	GetSubmissionPeriod(ctx context.Context, id uint) (models.SubmissionPeriod, error)
	GetMajor(ctx context.Context, id uint) (models.Major, error)
}

type academicRepository struct {
	db *gorm.DB
}

// NewAcademicRepository constructs the academic calendar repository.
func NewAcademicRepository(db *gorm.DB) AcademicRepository {
	return &academicRepository{db: db}
}

func (r *academicRepository) GetSemester(ctx context.Context, id uint) (models.Semester, error) {
	var semester models.Semester
	if err := r.db.WithContext(ctx).First(&semester, id).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *academicRepository) GetSubmissionPeriod(ctx context.Context, id uint) (models.SubmissionPeriod, error) {
	var period models.SubmissionPeriod
	if err := r.db.WithContext(ctx).First(&period, id).Error; err != nil {
		return models.SubmissionPeriod{}, err
	}
	return period, nil
}

func (r *academicRepository) GetMajor(ctx context.Context, id uint) (models.Major, error) {
	var major models.Major
	if err := r.db.WithContext(ctx).First(&major, id).Error; err != nil {
		return models.Major{}, err
	}
	return major, nil
}
