package service

import "github.com/noah-isme/thesis-go-api/internal/models"

type rosterEntry struct {
	UserID uint
	Role   models.Role
}

type roleBounds struct {
	role     models.Role
	label    string
	min, max int
}

func (q CouncilQuota) bounds() []roleBounds {
	return []roleBounds{
		{role: models.RoleCouncilChairman, label: "chairman", min: q.MinChairman, max: q.MaxChairman},
		{role: models.RoleCouncilSecretary, label: "secretary", min: q.MinSecretary, max: q.MaxSecretary},
		{role: models.RoleCouncilMember, label: "reviewer", min: q.MinReviewer, max: q.MaxReviewer},
	}
}

// validateRoster checks a complete proposed roster against the quota before anything is written.
// A roster that reaches MaxMembers, or any roster when requireComplete is set, must also meet
// every per-role minimum.
func validateRoster(entries []rosterEntry, quota CouncilQuota, requireComplete bool) error {
	seen := make(map[uint]struct{}, len(entries))
	counts := make(map[models.Role]int)
	for _, entry := range entries {
		if !entry.Role.IsCouncilRole() {
			return ErrInvalidCouncilRole.WithMessage("role %s is not a council role", entry.Role)
		}
		if _, dup := seen[entry.UserID]; dup {
			return ErrDuplicateCouncilMember
		}
		seen[entry.UserID] = struct{}{}
		counts[entry.Role]++
	}

	bounds := quota.bounds()
	for _, b := range bounds {
		if counts[b.role] > b.max {
			return ErrRoleQuotaExceeded.WithMessage("council allows at most %d %s, roster has %d", b.max, b.label, counts[b.role])
		}
	}

	if len(entries) > quota.MaxMembers {
		return ErrCouncilFull.WithMessage("council allows at most %d members, roster has %d", quota.MaxMembers, len(entries))
	}

	if requireComplete || len(entries) == quota.MaxMembers {
		for _, b := range bounds {
			if counts[b.role] < b.min {
				return ErrRoleQuotaExceeded.WithMessage("a full council needs at least %d %s, roster has %d", b.min, b.label, counts[b.role])
			}
		}
	}

	return nil
}

func rosterOf(members []models.CouncilMember) []rosterEntry {
	entries := make([]rosterEntry, 0, len(members)+1)
	for _, member := range members {
		entries = append(entries, rosterEntry{UserID: member.UserID, Role: member.Role})
	}
	return entries
}
