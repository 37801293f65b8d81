package access

import (
	"context"
	"errors"
	"fmt"

	"projectboard/internal/models"
	"projectboard/internal/storage"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrForbidden       = errors.New("forbidden")
)

type ProjectProvider interface {
	ProjectOwner(ctx context.Context, projectID int64) (int64, error)
}

type CollaborationProvider interface {
	AcceptedCollaboration(ctx context.Context, projectID, userID int64) (models.Collaboration, error)
}

// Resolver determines a caller's effective role on a project.
type Resolver struct {
	projects ProjectProvider
	collabs  CollaborationProvider
}

func NewResolver(projects ProjectProvider, collabs CollaborationProvider) *Resolver {
	return &Resolver{
		projects: projects,
		collabs:  collabs,
	}
}

// Resolve checks ownership first, then accepted collaborations.
// Ownership always wins, even over a stale collaboration row for the
// same pair. A missing project is reported as ErrProjectNotFound before
// any role is considered, so callers surface 404 rather than 403.
func (r *Resolver) Resolve(ctx context.Context, userID, projectID int64) (models.Role, error) {
	const op = "access.Resolve"

	ownerID, err := r.projects.ProjectOwner(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			return models.RoleNone, ErrProjectNotFound
		}

		return models.RoleNone, fmt.Errorf("%s: %w", op, err)
	}

	if ownerID == userID {
		return models.RoleOwner, nil
	}

	collab, err := r.collabs.AcceptedCollaboration(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCollaborationMissing) {
			return models.RoleNone, nil
		}

		return models.RoleNone, fmt.Errorf("%s: %w", op, err)
	}

	return collab.Role, nil
}

// Check resolves the caller's role and validates it against the
// allow-list. Returns the effective role on success, ErrForbidden when
// the role is not allowed, ErrProjectNotFound when the project is gone.
func (r *Resolver) Check(ctx context.Context, userID, projectID int64, allowed ...models.Role) (models.Role, error) {
	role, err := r.Resolve(ctx, userID, projectID)
	if err != nil {
		return models.RoleNone, err
	}

	for _, a := range allowed {
		if role == a {
			return role, nil
		}
	}

	return role, ErrForbidden
}
