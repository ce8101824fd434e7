package service

import (
	"context"
	"sort"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/observability"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// skillPool holds the ungrouped students of one major bucketed by skill tag. Pops take from the end.
type skillPool struct {
	backEnd   []models.Student
	frontEnd  []models.Student
	fullStack []models.Student
	other     []models.Student
}

func newSkillPool(students []models.Student) *skillPool {
	pool := &skillPool{}
	for _, student := range students {
		switch student.Skill {
		case models.SkillBackEnd:
			pool.backEnd = append(pool.backEnd, student)
		case models.SkillFrontEnd:
			pool.frontEnd = append(pool.frontEnd, student)
		case models.SkillFullStack:
			pool.fullStack = append(pool.fullStack, student)
		default:
			pool.other = append(pool.other, student)
		}
	}
	return pool
}

func popStudent(bucket *[]models.Student) (models.Student, bool) {
	if len(*bucket) == 0 {
		return models.Student{}, false
	}
	last := len(*bucket) - 1
	student := (*bucket)[last]
	*bucket = (*bucket)[:last]
	return student, true
}

func (p *skillPool) size() int {
	return len(p.backEnd) + len(p.frontEnd) + len(p.fullStack) + len(p.other)
}

// popLargest takes from whichever bucket has the most students left, keeping skills balanced.
func (p *skillPool) popLargest() (models.Student, bool) {
	buckets := []*[]models.Student{&p.backEnd, &p.frontEnd, &p.fullStack, &p.other}
	var largest *[]models.Student
	for _, bucket := range buckets {
		if largest == nil || len(*bucket) > len(*largest) {
			largest = bucket
		}
	}
	return popStudent(largest)
}

// nextTeam assembles one team of size target, or reports false when the pool cannot fill it.
func (p *skillPool) nextTeam(target int) ([]models.Student, bool) {
	if p.size() < target {
		return nil, false
	}

	team := make([]models.Student, 0, target)
	if student, ok := popStudent(&p.backEnd); ok {
		team = append(team, student)
	}
	if len(team) < target {
		if student, ok := popStudent(&p.frontEnd); ok {
			team = append(team, student)
		}
	}
	if len(team) < target {
		if student, ok := popStudent(&p.fullStack); ok {
			team = append(team, student)
		}
	}
	for len(team) < target {
		student, ok := p.popLargest()
		if !ok {
			break
		}
		team = append(team, student)
	}

	return team, len(team) >= target
}

// planTeams packs students into teams of target size per major. Majors are processed in id order.
func planTeams(students []models.Student, target int) [][]models.Student {
	byMajor := make(map[uint][]models.Student)
	majorIDs := make([]uint, 0)
	for _, student := range students {
		if _, seen := byMajor[student.MajorID]; !seen {
			majorIDs = append(majorIDs, student.MajorID)
		}
		byMajor[student.MajorID] = append(byMajor[student.MajorID], student)
	}
	sort.Slice(majorIDs, func(i, j int) bool { return majorIDs[i] < majorIDs[j] })

	teams := make([][]models.Student, 0)
	for _, majorID := range majorIDs {
		pool := newSkillPool(byMajor[majorID])
		for {
			team, ok := pool.nextTeam(target)
			if !ok {
				break
			}
			teams = append(teams, team)
		}
	}
	return teams
}

func (s *groupService) Randomize(ctx context.Context, actor Actor, payload dto.RandomizeGroupsRequest) ([]dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "groups.randomize")
	defer span.End()

	if err := s.authz.Authorize(ctx, actor, &payload.SemesterID, models.RoleAdmin, models.RoleAcademicOfficer); err != nil {
		return nil, err
	}

	semester, err := s.store.Academic.GetSemester(ctx, payload.SemesterID)
	if err != nil {
		return nil, notFound(err, ErrSemesterNotFound)
	}

	students, err := s.store.Students.ListUngroupedQualified(ctx, semester.ID)
	if err != nil {
		return nil, err
	}

	maxMembers := s.config.MaxGroupMembers(ctx)
	target := s.config.MinGroupMembers(ctx)
	if target > maxMembers {
		target = maxMembers
	}
	if target < 1 {
		target = 1
	}

	teams := planTeams(students, target)
	if len(teams) == 0 {
		s.logger.Info().Uint("semester_id", semester.ID).Int("students", len(students)).Msg("no groups could be formed")
		return []dto.GroupResponse{}, nil
	}

	now := s.now()
	groupIDs := make([]uint, 0, len(teams))
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		sequences := make(map[string]int)
		for _, team := range teams {
			prefix := autoGroupPrefix(now, team[0].Major.Name)
			if _, ok := sequences[prefix]; !ok {
				codes, err := tx.Groups.ListCodesWithPrefix(ctx, semester.ID, prefix)
				if err != nil {
					return err
				}
				sequences[prefix] = nextGroupSequence(codes, prefix)
			}

			group := models.Group{
				SemesterID:    semester.ID,
				GroupCode:     formatGroupCode(prefix, sequences[prefix]),
				Status:        models.GroupStatusActive,
				MaxMembers:    maxMembers,
				IsAutoCreated: true,
				CreatedBy:     actor.ID,
			}
			sequences[prefix]++
			if err := tx.Groups.Create(ctx, &group); err != nil {
				return err
			}

			for i, student := range team {
				role := models.GroupRoleMember
				if i == 0 {
					role = models.GroupRoleLeader
				}
				if err := tx.Groups.AddMember(ctx, &models.GroupMember{
					GroupID:   group.ID,
					StudentID: student.ID,
					Role:      role,
					Status:    models.MemberStatusActive,
					JoinedAt:  now,
				}); err != nil {
					return err
				}
			}
			groupIDs = append(groupIDs, group.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.GroupsCreated().WithLabelValues("auto").Add(float64(len(groupIDs)))
	s.logger.Info().Uint("semester_id", semester.ID).Int("groups", len(groupIDs)).Int("students", len(students)).Msg("groups randomized")
	recordActivity(ctx, s.effects.Activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionGroupsRandomized,
		EntityType: "semester",
		EntityID:   uintPtr(semester.ID),
		Metadata: map[string]interface{}{
			"groups":   len(groupIDs),
			"students": len(students),
		},
	})

	responses := make([]dto.GroupResponse, 0, len(groupIDs))
	for _, id := range groupIDs {
		response, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		s.effects.publish(ctx, SubjectGroupCreated, map[string]interface{}{
			"group_id":    response.ID,
			"group_code":  response.GroupCode,
			"semester_id": response.SemesterID,
			"auto":        true,
		})
		responses = append(responses, response)
	}
	return responses, nil
}
