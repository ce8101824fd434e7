package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

func TestTopicServiceAssign(t *testing.T) {
	f := newFixture(t)
	svc := f.topicService()
	manager := f.user(t, "Manager", models.RoleGraduationThesisManager)
	actor := actorOf(manager, models.RoleGraduationThesisManager)

	leader := f.student(t, "S001", softwareEngineering, models.SkillBackEnd, true)
	group := f.group(t, "G26SE001", leader)
	major := f.major(t, softwareEngineering)

	topic := models.Topic{SemesterID: f.semester.ID, MajorID: major.ID, Code: "T-001", Name: "Distributed ledgers"}
	require.NoError(t, f.db.Create(&topic).Error)

	other := models.Semester{Code: "FALL", Name: "Fall", StartDate: time.Now(), EndDate: time.Now().Add(time.Hour), Status: models.SemesterStatusUpcoming}
	require.NoError(t, f.db.Create(&other).Error)
	foreign := models.Topic{SemesterID: other.ID, MajorID: major.ID, Code: "T-002", Name: "Compilers"}
	require.NoError(t, f.db.Create(&foreign).Error)

	_, err := svc.Assign(f.ctx, f.studentActor(leader), group.ID, dto.AssignTopicRequest{TopicID: topic.ID})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Assign(f.ctx, actor, group.ID, dto.AssignTopicRequest{TopicID: foreign.ID})
	require.ErrorIs(t, err, ErrTopicSemesterMismatch)

	_, err = svc.Assign(f.ctx, actor, group.ID, dto.AssignTopicRequest{TopicID: 999})
	require.ErrorIs(t, err, ErrTopicNotFound)

	assigned, err := svc.Assign(f.ctx, actor, group.ID, dto.AssignTopicRequest{TopicID: topic.ID})
	require.NoError(t, err)
	require.Equal(t, string(models.DefendStatusAssigned), assigned.DefendStatus)
	require.Equal(t, "T-001", assigned.TopicCode)

	_, err = svc.Assign(f.ctx, actor, group.ID, dto.AssignTopicRequest{TopicID: topic.ID})
	require.ErrorIs(t, err, ErrTopicAlreadyAssigned)

	loaded, err := svc.Get(f.ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, assigned.ID, loaded.ID)

	_, err = svc.Get(f.ctx, 999)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestTopicServiceMentorDecisionRules(t *testing.T) {
	f := newFixture(t)
	svc := f.topicService()
	mentor := f.user(t, "Mentor", models.RoleLecturer)
	stranger := f.user(t, "Stranger", models.RoleLecturer)

	leader := f.student(t, "S001", softwareEngineering, models.SkillBackEnd, true)
	group := f.group(t, "G26SE001", leader)
	f.mentor(t, group, mentor, models.RoleMentorMain)
	f.assignment(t, group, models.DefendStatusAssigned, nil)
	actor := actorOf(mentor, models.RoleLecturer)

	_, err := svc.MentorDecision(f.ctx, actorOf(stranger, models.RoleLecturer), group.ID, dto.MentorDecisionRequest{Decision: "PASS", DefenseRound: intPtr(1)})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.MentorDecision(f.ctx, actor, group.ID, dto.MentorDecisionRequest{Decision: "NOT_PASS", DefenseRound: intPtr(2)})
	require.ErrorIs(t, err, ErrInvalidDecision)
	requireKind(t, err, KindValidation)

	_, err = svc.MentorDecision(f.ctx, actor, group.ID, dto.MentorDecisionRequest{Decision: "PASS"})
	require.ErrorIs(t, err, ErrInvalidDecision)

	_, err = svc.MentorDecision(f.ctx, actor, group.ID, dto.MentorDecisionRequest{Decision: "PASS", DefenseRound: intPtr(3)})
	require.ErrorIs(t, err, ErrInvalidDecision)

	_, err = svc.MentorDecision(f.ctx, actor, group.ID, dto.MentorDecisionRequest{Decision: "MAYBE"})
	require.Error(t, err)

	notPassed, err := svc.MentorDecision(f.ctx, actor, group.ID, dto.MentorDecisionRequest{Decision: "NOT_PASS"})
	require.NoError(t, err)
	require.Equal(t, string(models.DefendStatusNotPassed), notPassed.DefendStatus)
	require.Nil(t, notPassed.DefenseRound)

	confirmed, err := svc.MentorDecision(f.ctx, actor, group.ID, dto.MentorDecisionRequest{Decision: "PASS", DefenseRound: intPtr(2)})
	require.NoError(t, err)
	require.Equal(t, string(models.DefendStatusConfirmed), confirmed.DefendStatus)
	require.NotNil(t, confirmed.DefenseRound)
	require.Equal(t, 2, *confirmed.DefenseRound)
	require.NotNil(t, confirmed.DecidedBy)
	require.Equal(t, mentor.ID, *confirmed.DecidedBy)

	stored, err := f.store.Topics.GetActiveAssignment(f.ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, models.DefendStatusConfirmed, stored.DefendStatus)

	logs, total, err := f.store.ActivityLogs.List(f.ctx, repository.ActivityLogFilter{Action: ActionMentorDecision})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
}

func TestTopicServiceMentorDecisionAfterPass(t *testing.T) {
	f := newFixture(t)
	svc := f.topicService()
	mentor := f.user(t, "Mentor", models.RoleLecturer)

	leader := f.student(t, "S001", softwareEngineering, models.SkillBackEnd, true)
	group := f.group(t, "G26SE001", leader)
	f.mentor(t, group, mentor, models.RoleMentorSub)
	f.assignment(t, group, models.DefendStatusPassed, intPtr(1))

	_, err := svc.MentorDecision(f.ctx, actorOf(mentor), group.ID, dto.MentorDecisionRequest{Decision: "NOT_PASS"})
	require.ErrorIs(t, err, ErrAlreadyPassed)
	requireKind(t, err, KindInvalidState)
}

func TestTopicServiceMentorDecisionWithoutAssignment(t *testing.T) {
	f := newFixture(t)
	svc := f.topicService()
	mentor := f.user(t, "Mentor", models.RoleLecturer)

	leader := f.student(t, "S001", softwareEngineering, models.SkillBackEnd, true)
	group := f.group(t, "G26SE001", leader)
	f.mentor(t, group, mentor, models.RoleMentorMain)

	_, err := svc.MentorDecision(f.ctx, actorOf(mentor), group.ID, dto.MentorDecisionRequest{Decision: "PASS", DefenseRound: intPtr(1)})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestDefendStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to models.DefendStatus
		allowed  bool
	}{
		{models.DefendStatusUnassigned, models.DefendStatusAssigned, true},
		{models.DefendStatusUnassigned, models.DefendStatusConfirmed, false},
		{models.DefendStatusAssigned, models.DefendStatusConfirmed, true},
		{models.DefendStatusAssigned, models.DefendStatusNotPassed, true},
		{models.DefendStatusAssigned, models.DefendStatusPassed, false},
		{models.DefendStatusConfirmed, models.DefendStatusPassed, true},
		{models.DefendStatusConfirmed, models.DefendStatusConfirmed, true},
		{models.DefendStatusNotPassed, models.DefendStatusConfirmed, true},
		{models.DefendStatusNotPassed, models.DefendStatusPassed, false},
		{models.DefendStatusPassed, models.DefendStatusNotPassed, false},
		{models.DefendStatusPassed, models.DefendStatusConfirmed, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}
