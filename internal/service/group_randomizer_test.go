package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

func pooledStudents(majorID uint, skills ...string) []models.Student {
	students := make([]models.Student, 0, len(skills))
	for i, skill := range skills {
		students = append(students, models.Student{ID: majorID*100 + uint(i), MajorID: majorID, Skill: skill})
	}
	return students
}

func TestPlanTeamsKeepsMajorsApart(t *testing.T) {
	students := append(
		pooledStudents(2, models.SkillBackEnd, models.SkillFrontEnd, models.SkillFullStack, models.SkillBackEnd),
		pooledStudents(1, models.SkillBackEnd, models.SkillBackEnd, models.SkillBackEnd)...,
	)

	teams := planTeams(students, 4)
	require.Len(t, teams, 1)
	for _, member := range teams[0] {
		require.Equal(t, uint(2), member.MajorID)
	}
}

func TestPlanTeamsBalancesSkills(t *testing.T) {
	students := pooledStudents(1,
		models.SkillBackEnd, models.SkillBackEnd, models.SkillBackEnd, models.SkillBackEnd,
		models.SkillFrontEnd, models.SkillFrontEnd,
		models.SkillFullStack, models.SkillFullStack,
		"", "",
	)

	teams := planTeams(students, 4)
	require.Len(t, teams, 2)

	seen := make(map[uint]struct{})
	for _, team := range teams {
		require.Len(t, team, 4)
		skills := make(map[string]int)
		for _, member := range team {
			skills[member.Skill]++
			_, dup := seen[member.ID]
			require.False(t, dup)
			seen[member.ID] = struct{}{}
		}
		require.Equal(t, 1, skills[models.SkillFrontEnd])
		require.Equal(t, 1, skills[models.SkillFullStack])
		require.GreaterOrEqual(t, skills[models.SkillBackEnd], 1)
	}
}

func TestPlanTeamsSkipsShortPools(t *testing.T) {
	require.Empty(t, planTeams(pooledStudents(1, models.SkillBackEnd, models.SkillFrontEnd), 4))
	require.Empty(t, planTeams(nil, 4))

	teams := planTeams(pooledStudents(1, "", "", ""), 1)
	require.Len(t, teams, 3)
}
