package service

import (
	"context"

	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// Actor is the authenticated user performing an operation, with the roles carried by the token.
type Actor struct {
	ID    uint
	Roles []models.Role
}

// Has reports whether the token carries role.
func (a Actor) Has(role models.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the token carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Has(models.RoleAdmin)
}

// GroupScope describes how an actor relates to a group.
type GroupScope struct {
	Admin  bool
	Leader bool
	Mentor bool
}

// Any reports whether the actor holds any standing on the group.
func (s GroupScope) Any() bool {
	return s.Admin || s.Leader || s.Mentor
}

// Authorizer centralises business-role checks for the engines.
type Authorizer interface {
	// Authorize succeeds when the actor holds at least one of required, either on the token or
	// as a stored grant (global or scoped to semesterID).
	Authorize(ctx context.Context, actor Actor, semesterID *uint, required ...models.Role) error
	// Holds reports whether the actor holds role on the token or as a stored grant.
	Holds(ctx context.Context, actor Actor, semesterID *uint, role models.Role) (bool, error)
	// GroupScope resolves the actor's standing on a group loaded with members and mentors.
	GroupScope(ctx context.Context, actor Actor, group models.Group) (GroupScope, error)
}

type authorizer struct {
	users repository.UserRepository
}

// NewAuthorizer constructs the role authorizer. A nil repository limits checks to token roles.
func NewAuthorizer(users repository.UserRepository) Authorizer {
	return &authorizer{users: users}
}

func (a *authorizer) Authorize(ctx context.Context, actor Actor, semesterID *uint, required ...models.Role) error {
	for _, role := range required {
		ok, err := a.Holds(ctx, actor, semesterID, role)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrForbidden
}

func (a *authorizer) Holds(ctx context.Context, actor Actor, semesterID *uint, role models.Role) (bool, error) {
	if actor.Has(role) {
		return true, nil
	}
	if a.users == nil || actor.ID == 0 {
		return false, nil
	}
	return a.users.HasRole(ctx, actor.ID, role, semesterID)
}

func (a *authorizer) GroupScope(ctx context.Context, actor Actor, group models.Group) (GroupScope, error) {
	admin, err := a.Holds(ctx, actor, &group.SemesterID, models.RoleAdmin)
	if err != nil {
		return GroupScope{}, err
	}

	scope := GroupScope{Admin: admin}
	for _, member := range group.Members {
		if member.IsLeader() && member.Student.UserID == actor.ID {
			scope.Leader = true
		}
	}
	for _, mentor := range group.Mentors {
		if mentor.MentorID == actor.ID {
			scope.Mentor = true
		}
	}
	return scope, nil
}
