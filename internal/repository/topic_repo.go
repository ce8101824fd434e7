package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

// TopicRepository persists topics and their assignment to groups.
type TopicRepository interface {
	GetTopic(ctx context.Context, id uint) (models.Topic, error)
	GetAssignment(ctx context.Context, id uint) (models.TopicAssignment, error)
	GetActiveAssignment(ctx context.Context, groupID uint) (models.TopicAssignment, error)
	ListAssignmentsByGroups(ctx context.Context, groupIDs []uint) (map[uint]models.TopicAssignment, error)
	CreateAssignment(ctx context.Context, assignment *models.TopicAssignment) error
	UpdateAssignment(ctx context.Context, assignment *models.TopicAssignment) error
	DeleteAssignmentsByGroup(ctx context.Context, groupID uint) error
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository constructs the topic repository.
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) GetTopic(ctx context.Context, id uint) (models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		return models.Topic{}, err
	}
	return topic, nil
}

func (r *topicRepository) GetAssignment(ctx context.Context, id uint) (models.TopicAssignment, error) {
	var assignment models.TopicAssignment
	if err := r.db.WithContext(ctx).Preload("Topic").First(&assignment, id).Error; err != nil {
		return models.TopicAssignment{}, err
	}
	return assignment, nil
}

// GetActiveAssignment returns the most recent assignment of the group.
func (r *topicRepository) GetActiveAssignment(ctx context.Context, groupID uint) (models.TopicAssignment, error) {
	var assignment models.TopicAssignment
	err := r.db.WithContext(ctx).
		Preload("Topic").
		Where("group_id = ?", groupID).
		Order("id DESC").
		First(&assignment).Error
	if err != nil {
		return models.TopicAssignment{}, err
	}
	return assignment, nil
}

// ListAssignmentsByGroups keys the latest assignment of each group by group ID.
func (r *topicRepository) ListAssignmentsByGroups(ctx context.Context, groupIDs []uint) (map[uint]models.TopicAssignment, error) {
	result := make(map[uint]models.TopicAssignment, len(groupIDs))
	if len(groupIDs) == 0 {
		return result, nil
	}

	var assignments []models.TopicAssignment
	err := r.db.WithContext(ctx).
		Preload("Topic").
		Where("group_id IN ?", groupIDs).
		Order("id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	for _, assignment := range assignments {
		result[assignment.GroupID] = assignment
	}
	return result, nil
}

func (r *topicRepository) CreateAssignment(ctx context.Context, assignment *models.TopicAssignment) error {
	return r.db.WithContext(ctx).Omit("Topic").Create(assignment).Error
}

func (r *topicRepository) UpdateAssignment(ctx context.Context, assignment *models.TopicAssignment) error {
	return r.db.WithContext(ctx).Omit("Topic").Save(assignment).Error
}

func (r *topicRepository) DeleteAssignmentsByGroup(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.TopicAssignment{}).Error
}
