package access

import (
	"context"
	"testing"

	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjects struct {
	owners map[int64]int64
}

func (f *fakeProjects) ProjectOwner(_ context.Context, projectID int64) (int64, error) {
	owner, ok := f.owners[projectID]
	if !ok {
		return 0, storage.ErrProjectNotFound
	}
	return owner, nil
}

type collabKey struct {
	projectID int64
	userID    int64
}

type fakeCollabs struct {
	accepted map[collabKey]models.Role
}

func (f *fakeCollabs) AcceptedCollaboration(_ context.Context, projectID, userID int64) (models.Collaboration, error) {
	role, ok := f.accepted[collabKey{projectID, userID}]
	if !ok {
		return models.Collaboration{}, storage.ErrCollaborationMissing
	}
	return models.Collaboration{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}, nil
}

func newTestResolver(owners map[int64]int64, accepted map[collabKey]models.Role) *Resolver {
	if accepted == nil {
		accepted = map[collabKey]models.Role{}
	}
	return NewResolver(&fakeProjects{owners: owners}, &fakeCollabs{accepted: accepted})
}

func TestResolve_Owner(t *testing.T) {
	r := newTestResolver(map[int64]int64{10: 1}, nil)

	role, err := r.Resolve(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)
}

func TestResolve_OwnerWinsOverCollaboration(t *testing.T) {
	// A stale collaboration row for the owner must not demote them.
	r := newTestResolver(
		map[int64]int64{10: 1},
		map[collabKey]models.Role{{10, 1}: models.RoleViewer},
	)

	role, err := r.Resolve(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)
}

func TestResolve_AcceptedCollaborator(t *testing.T) {
	r := newTestResolver(
		map[int64]int64{10: 1},
		map[collabKey]models.Role{{10, 2}: models.RoleEditor},
	)

	role, err := r.Resolve(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, role)
}

func TestResolve_Stranger(t *testing.T) {
	r := newTestResolver(map[int64]int64{10: 1}, nil)

	role, err := r.Resolve(context.Background(), 99, 10)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)
}

func TestResolve_MissingProject(t *testing.T) {
	r := newTestResolver(map[int64]int64{}, nil)

	_, err := r.Resolve(context.Background(), 1, 404)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCheck_AllowList(t *testing.T) {
	r := newTestResolver(
		map[int64]int64{10: 1},
		map[collabKey]models.Role{
			{10, 2}: models.RoleEditor,
			{10, 3}: models.RoleViewer,
		},
	)
	ctx := context.Background()

	role, err := r.Check(ctx, 2, 10, models.RoleOwner, models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, role)

	_, err = r.Check(ctx, 3, 10, models.RoleOwner, models.RoleEditor)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = r.Check(ctx, 99, 10, models.RoleOwner, models.RoleEditor, models.RoleViewer)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = r.Check(ctx, 1, 404, models.RoleOwner)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
