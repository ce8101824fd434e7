package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store aggregates every repository over one database handle. A Store built
// inside Transaction shares the transaction across all of its repositories.
type Store struct {
	db            *gorm.DB
	Users         UserRepository
	Students      StudentRepository
	Academic      AcademicRepository
	Groups        GroupRepository
	Invitations   InvitationRepository
	Topics        TopicRepository
	Councils      CouncilRepository
	Schedules     ScheduleRepository
	SystemConfigs SystemConfigRepository
	EmailLogs     EmailLogRepository
	ActivityLogs  ActivityLogRepository
}

// NewStore wires the GORM-backed repositories.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Students:      NewStudentRepository(db),
		Academic:      NewAcademicRepository(db),
		Groups:        NewGroupRepository(db),
		Invitations:   NewInvitationRepository(db),
		Topics:        NewTopicRepository(db),
		Councils:      NewCouncilRepository(db),
		Schedules:     NewScheduleRepository(db),
		SystemConfigs: NewSystemConfigRepository(db),
		EmailLogs:     NewEmailLogRepository(db),
		ActivityLogs:  NewActivityLogRepository(db),
	}
}

// Transaction runs fn inside a database transaction. Returning an error rolls
// every write made through tx back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(NewStore(db))
	})
}
