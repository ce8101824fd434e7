package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// StudentRepository provides access to student records and their semester eligibility.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (models.Student, error)
	GetSemesterStatus(ctx context.Context, studentID, semesterID uint) (models.StudentSemester, error)
	ListUngroupedQualified(ctx context.Context, semesterID uint) ([]models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("User").Preload("Major").First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Major").
		Where("user_id = ?", userID).
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetSemesterStatus(ctx context.Context, studentID, semesterID uint) (models.StudentSemester, error) {
	var status models.StudentSemester
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND semester_id = ?", studentID, semesterID).
		First(&status).Error
	if err != nil {
		return models.StudentSemester{}, err
	}

	return status, nil
}

// ListUngroupedQualified returns qualified students of the semester that hold no active membership in it.
func (r *studentRepository) ListUngroupedQualified(ctx context.Context, semesterID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Major").
		Joins("JOIN student_semesters ss ON ss.student_id = students.id AND ss.semester_id = ? AND ss.status = ?", semesterID, models.StudentSemesterQualified).
		Where(`NOT EXISTS (
			SELECT 1 FROM group_members gm
			JOIN thesis_groups g ON g.id = gm.group_id
			WHERE gm.student_id = students.id
			AND gm.status = ?
			AND gm.deleted_at IS NULL
			AND g.deleted_at IS NULL
			AND g.semester_id = ?
		)`, models.MemberStatusActive, semesterID).
		Order("students.id ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}

	return students, nil
}
